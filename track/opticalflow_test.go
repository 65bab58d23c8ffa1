package track

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shiftedCheckerboard renders the same checkerboard pattern translated by
// (dx, dy) pixels, letting tests synthesize a known ground-truth flow.
func shiftedCheckerboard(width, height, square int, dx, dy float64) *GrayImage {
	img := NewGrayImage(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sx, sy := float64(x)-dx, float64(y)-dy
			ix, iy := int(sx), int(sy)
			if ix < 0 || iy < 0 {
				continue
			}
			if (ix/square+iy/square)%2 == 0 {
				img.Pix[y*width+x] = 255
			}
		}
	}
	return img
}

func TestTrackRecoversKnownShift(t *testing.T) {
	prev := checkerboardImage(120, 120, 20)
	const shift = 2.0
	next := shiftedCheckerboard(120, 120, 20, shift, 0)

	tracker := NewTracker(DefaultFlowConfig())
	points := []r2.Point{{X: 60, Y: 60}}
	next2, found := tracker.Track(prev, next, points, points)

	require.True(t, found[0])
	assert.InDelta(t, points[0].X+shift, next2[0].X, 1.0)
	assert.InDelta(t, points[0].Y, next2[0].Y, 1.0)
}

func TestTrackOutOfBoundsPointNotFound(t *testing.T) {
	prev := checkerboardImage(40, 40, 10)
	next := checkerboardImage(40, 40, 10)
	tracker := NewTracker(DefaultFlowConfig())
	points := []r2.Point{{X: 1, Y: 1}}
	_, found := tracker.Track(prev, next, points, points)
	assert.False(t, found[0])
}

func TestTrackIdentityImagesStayPut(t *testing.T) {
	img := checkerboardImage(100, 100, 20)
	tracker := NewTracker(DefaultFlowConfig())
	points := []r2.Point{{X: 50, Y: 50}}
	next, found := tracker.Track(img, img, points, points)
	require.True(t, found[0])
	assert.InDelta(t, points[0].X, next[0].X, 1e-6)
	assert.InDelta(t, points[0].Y, next[0].Y, 1e-6)
}
