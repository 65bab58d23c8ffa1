package track

import (
	"math"

	"github.com/golang/geo/r2"
)

// FlowConfig mirrors the frontend's optical-flow parameters: an 11x11
// tracking window, a 3-level pyramid, and an iterative refinement that stops
// after 30 iterations or once the update is below 0.01px.
type FlowConfig struct {
	WindowRadius  int
	PyramidLevels int
	MaxIterations int
	EpsilonPixels float64
}

// DefaultFlowConfig returns the frontend's optical-flow parameters.
func DefaultFlowConfig() FlowConfig {
	return FlowConfig{WindowRadius: 5, PyramidLevels: 3, MaxIterations: 30, EpsilonPixels: 0.01}
}

// Tracker runs pyramidal Lucas-Kanade optical flow between two grayscale
// images, starting from a caller-supplied initial guess at each point's new
// location (the predicted projection from the last known pose, when
// available) and refining it.
type Tracker struct {
	Config FlowConfig
}

// NewTracker builds a Tracker from the given configuration.
func NewTracker(cfg FlowConfig) *Tracker {
	return &Tracker{Config: cfg}
}

// Track follows points from prevImg to nextImg. initialGuess must be the
// same length as points; pass points itself when there is no better guess
// for the new location. found[i] is false when point i left the image, its
// window became too ill-conditioned to solve, or the refinement at some
// pyramid level did not settle within MaxIterations, in which case next[i]
// is the original point unchanged.
func (t *Tracker) Track(prevImg, nextImg *GrayImage, points, initialGuess []r2.Point) (next []r2.Point, found []bool) {
	prevPyr, err := BuildPyramid(prevImg, t.Config.PyramidLevels)
	if err != nil {
		prevPyr = []*GrayImage{prevImg}
	}
	nextPyr, err := BuildPyramid(nextImg, t.Config.PyramidLevels)
	if err != nil {
		nextPyr = []*GrayImage{nextImg}
	}
	levels := len(prevPyr)
	if len(nextPyr) < levels {
		levels = len(nextPyr)
	}

	next = make([]r2.Point, len(points))
	found = make([]bool, len(points))
	scale := math.Pow(2, float64(levels-1))

	for i, p := range points {
		guess := initialGuess[i]
		// Seed the coarsest level with the scaled initial guess; each finer
		// level refines the previous level's estimate scaled back up.
		cur := r2.Point{X: guess.X / scale, Y: guess.Y / scale}
		ok := true
		for l := levels - 1; l >= 0; l-- {
			levelScale := math.Pow(2, float64(l))
			srcPt := r2.Point{X: p.X / levelScale, Y: p.Y / levelScale}
			var refined r2.Point
			refined, ok = t.trackOneLevel(prevPyr[l], nextPyr[l], srcPt, cur)
			if !ok {
				break
			}
			cur = refined
			if l > 0 {
				cur = r2.Point{X: cur.X * 2, Y: cur.Y * 2}
			}
		}
		if !ok {
			next[i] = p
			found[i] = false
			continue
		}
		next[i] = cur
		found[i] = true
	}
	return next, found
}

// trackOneLevel runs the iterative Lucas-Kanade refinement at a single
// pyramid level: it solves the 2x2 normal equations built from the window's
// spatial gradients against the intensity difference until the update
// settles below the configured epsilon, and reports failure if that does
// not happen within MaxIterations.
func (t *Tracker) trackOneLevel(prev, next *GrayImage, srcPt, initial r2.Point) (r2.Point, bool) {
	r := t.Config.WindowRadius
	if srcPt.X < float64(r) || srcPt.Y < float64(r) ||
		srcPt.X >= float64(prev.Width-r) || srcPt.Y >= float64(prev.Height-r) {
		return initial, false
	}

	grad := SobelGradients(prev)

	var gxx, gyy, gxy float64
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			gx := grad.Gx.At(int(srcPt.X)+dx, int(srcPt.Y)+dy)
			gy := grad.Gy.At(int(srcPt.X)+dx, int(srcPt.Y)+dy)
			gxx += gx * gx
			gyy += gy * gy
			gxy += gx * gy
		}
	}
	det := gxx*gyy - gxy*gxy
	if math.Abs(det) < 1e-9 {
		return initial, false
	}

	cur := initial
	converged := false
	for iter := 0; iter < t.Config.MaxIterations; iter++ {
		if cur.X < float64(r) || cur.Y < float64(r) ||
			cur.X >= float64(next.Width-r) || cur.Y >= float64(next.Height-r) {
			return initial, false
		}

		var bx, by float64
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				ix := prev.At(int(srcPt.X)+dx, int(srcPt.Y)+dy)
				iy := next.Bilinear(cur.X+float64(dx), cur.Y+float64(dy))
				diff := ix - iy
				gx := grad.Gx.At(int(srcPt.X)+dx, int(srcPt.Y)+dy)
				gy := grad.Gy.At(int(srcPt.X)+dx, int(srcPt.Y)+dy)
				bx += gx * diff
				by += gy * diff
			}
		}

		dx := (gyy*bx - gxy*by) / det
		dy := (gxx*by - gxy*bx) / det
		cur = r2.Point{X: cur.X + dx, Y: cur.Y + dy}

		if dx*dx+dy*dy < t.Config.EpsilonPixels*t.Config.EpsilonPixels {
			converged = true
			break
		}
	}
	if !converged {
		return initial, false
	}
	return cur, true
}
