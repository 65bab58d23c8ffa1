package track

// sobelX and sobelY are the same 3x3 kernels rimage's GetSobelX/GetSobelY
// build, reproduced here directly since convolution itself is trivial and
// this package has no other reason to depend on rimage.
var sobelX = [3][3]float64{
	{-1, 0, 1},
	{-2, 0, 2},
	{-1, 0, 1},
}

var sobelY = [3][3]float64{
	{-1, -2, -1},
	{0, 0, 0},
	{1, 2, 1},
}

// Gradients holds the per-pixel horizontal and vertical image derivatives.
type Gradients struct {
	Gx, Gy *GrayImage
}

// SobelGradients computes the image gradient at every pixel by convolving
// with the Sobel operator, clamping to the image border at the edges.
func SobelGradients(img *GrayImage) *Gradients {
	gx := NewGrayImage(img.Width, img.Height)
	gy := NewGrayImage(img.Width, img.Height)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			var sx, sy float64
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					v := img.At(x+dx, y+dy)
					sx += sobelX[dy+1][dx+1] * v
					sy += sobelY[dy+1][dx+1] * v
				}
			}
			gx.Pix[y*img.Width+x] = sx
			gy.Pix[y*img.Width+x] = sy
		}
	}
	return &Gradients{Gx: gx, Gy: gy}
}
