// Package track implements the pieces of the tracking frontend that would
// otherwise reach for a vision library: a minimum-eigenvalue corner detector
// and a pyramidal Lucas-Kanade optical flow tracker. Nothing in the example
// corpus binds OpenCV, so both are built in pure Go on top of a small
// grayscale image type and Sobel gradients, the same primitives rimage uses
// for its own edge-detection helpers.
package track

import (
	"image"

	"github.com/pkg/errors"
)

// GrayImage is a dense float64 grayscale image. Optical flow and corner
// response both need subpixel sampling and signed gradients, so pixels are
// kept as float64 in [0, 255] rather than the usual uint8.
type GrayImage struct {
	Width, Height int
	Pix           []float64
}

// NewGrayImage allocates a zeroed image of the given size.
func NewGrayImage(width, height int) *GrayImage {
	return &GrayImage{Width: width, Height: height, Pix: make([]float64, width*height)}
}

// FromImage converts a standard library image to a GrayImage using its gray
// (luma) value.
func FromImage(img image.Image) *GrayImage {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := NewGrayImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			lum := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			out.Pix[y*w+x] = lum
		}
	}
	return out
}

// At returns the pixel at (x, y), clamping to the image border for
// out-of-bounds coordinates so callers don't need their own edge handling.
func (g *GrayImage) At(x, y int) float64 {
	if x < 0 {
		x = 0
	} else if x >= g.Width {
		x = g.Width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= g.Height {
		y = g.Height - 1
	}
	return g.Pix[y*g.Width+x]
}

// Bilinear samples the image at a fractional coordinate.
func (g *GrayImage) Bilinear(x, y float64) float64 {
	x0, y0 := int(x), int(y)
	fx, fy := x-float64(x0), y-float64(y0)
	v00 := g.At(x0, y0)
	v10 := g.At(x0+1, y0)
	v01 := g.At(x0, y0+1)
	v11 := g.At(x0+1, y0+1)
	top := v00 + fx*(v10-v00)
	bottom := v01 + fx*(v11-v01)
	return top + fy*(bottom-top)
}

// InBounds reports whether the integer pixel coordinate is within the image.
func (g *GrayImage) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.Width && y < g.Height
}

// Downsample halves the image's resolution by averaging each 2x2 block,
// the pyramid level used by BuildPyramid.
func (g *GrayImage) Downsample() *GrayImage {
	w, h := g.Width/2, g.Height/2
	out := NewGrayImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy := 2*x, 2*y
			sum := g.At(sx, sy) + g.At(sx+1, sy) + g.At(sx, sy+1) + g.At(sx+1, sy+1)
			out.Pix[y*w+x] = sum / 4
		}
	}
	return out
}

// BuildPyramid returns levels images, level 0 being the full-resolution
// input and each subsequent level half the resolution of the last.
func BuildPyramid(base *GrayImage, levels int) ([]*GrayImage, error) {
	if levels < 1 {
		return nil, errors.New("pyramid needs at least one level")
	}
	pyramid := make([]*GrayImage, levels)
	pyramid[0] = base
	for l := 1; l < levels; l++ {
		prev := pyramid[l-1]
		if prev.Width < 2 || prev.Height < 2 {
			return nil, errors.Errorf("image too small to downsample at level %d", l)
		}
		pyramid[l] = prev.Downsample()
	}
	return pyramid, nil
}
