package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func checkerboardImage(width, height, square int) *GrayImage {
	img := NewGrayImage(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x/square+y/square)%2 == 0 {
				img.Pix[y*width+x] = 255
			}
		}
	}
	return img
}

func TestDetectFindsCorners(t *testing.T) {
	img := checkerboardImage(100, 100, 20)
	det := NewDetector(DefaultDetectorConfig())
	corners := det.Detect(img, 20, nil)
	assert.NotEmpty(t, corners)
}

func TestDetectRespectsMinSeparation(t *testing.T) {
	img := checkerboardImage(100, 100, 20)
	cfg := DefaultDetectorConfig()
	cfg.MinSeparation = 30
	det := NewDetector(cfg)
	corners := det.Detect(img, 50, nil)
	for i := range corners {
		for j := range corners {
			if i == j {
				continue
			}
			d := corners[i].Sub(corners[j]).Norm()
			assert.GreaterOrEqual(t, d, cfg.MinSeparation-1e-9)
		}
	}
}

func TestDetectHonorsMask(t *testing.T) {
	img := checkerboardImage(100, 100, 20)
	mask := NewMask(100, 100)
	mask.ExcludeAround(50, 50, 40)
	det := NewDetector(DefaultDetectorConfig())
	corners := det.Detect(img, 50, mask)
	for _, c := range corners {
		assert.False(t, mask.isBlocked(int(c.X), int(c.Y)))
	}
}

func TestDetectUniformImageHasNoCorners(t *testing.T) {
	img := NewGrayImage(50, 50)
	det := NewDetector(DefaultDetectorConfig())
	corners := det.Detect(img, 10, nil)
	assert.Empty(t, corners)
}
