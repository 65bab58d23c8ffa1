package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBilinearAtIntegerCoordinateMatchesAt(t *testing.T) {
	img := checkerboardImage(40, 40, 10)
	for y := 0; y < 40; y += 7 {
		for x := 0; x < 40; x += 7 {
			assert.InDelta(t, img.At(x, y), img.Bilinear(float64(x), float64(y)), 1e-9)
		}
	}
}

func TestBuildPyramidLevelSizes(t *testing.T) {
	img := NewGrayImage(64, 32)
	pyr, err := BuildPyramid(img, 3)
	require.NoError(t, err)
	require.Len(t, pyr, 3)
	assert.Equal(t, 64, pyr[0].Width)
	assert.Equal(t, 32, pyr[1].Width)
	assert.Equal(t, 16, pyr[2].Width)
	assert.Equal(t, 16, pyr[1].Height)
	assert.Equal(t, 8, pyr[2].Height)
}

func TestBuildPyramidRejectsTooManyLevels(t *testing.T) {
	img := NewGrayImage(3, 3)
	_, err := BuildPyramid(img, 3)
	assert.Error(t, err)
}

func TestAtClampsOutOfBounds(t *testing.T) {
	img := NewGrayImage(10, 10)
	img.Pix[0] = 42
	assert.Equal(t, 42.0, img.At(-5, -5))
}
