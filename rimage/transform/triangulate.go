// Package transform implements the stereo triangulation the frontend needs
// to lift matched normalized-camera-plane observations into world-frame
// landmarks.
package transform

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/stereovo/frontend/spatialmath"
)

// degeneracyRatio is the minimum ratio between the two smallest singular
// values of the triangulation system that is still considered well
// conditioned. When the smallest singular value is not well separated from
// the next, the null space is not well defined and the recovered point is
// unreliable.
const degeneracyRatio = 1e3

// View is one observation of a candidate landmark: the world->camera pose of
// the observing camera, and the point as seen on that camera's normalized
// (z=1) image plane.
type View struct {
	Pose  spatialmath.Pose
	Point r2.Point
}

// ErrDegenerate is returned when the triangulation system is too
// ill-conditioned to trust the recovered point.
var ErrDegenerate = errors.New("triangulation is degenerate")

// TriangulatePoint recovers the world point that best explains two or more
// views via linear (DLT) triangulation: for each view, the two rows derived
// from x×(P·X)=0 are stacked, and the system is solved as the right
// singular vector belonging to the smallest singular value.
func TriangulatePoint(views []View) (r3.Vector, error) {
	if len(views) < 2 {
		return r3.Vector{}, errors.New("triangulation needs at least 2 views")
	}
	a := mat.NewDense(2*len(views), 4, nil)
	for i, view := range views {
		rows := projectionRows(view.Pose)
		a.SetRow(2*i, constraintRow(view.Point.X, rows[2], rows[0]))
		a.SetRow(2*i+1, constraintRow(view.Point.Y, rows[2], rows[1]))
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDFull); !ok {
		return r3.Vector{}, errors.Wrap(ErrDegenerate, "svd factorization failed")
	}
	values := svd.Values(nil)
	n := len(values)
	smallest, next := values[n-1], values[n-2]
	if next == 0 || next/smallest < degeneracyRatio {
		return r3.Vector{}, errors.Wrap(ErrDegenerate, "singular values too close together")
	}

	var v mat.Dense
	svd.VTo(&v)
	homog := v.ColView(n - 1)
	w := homog.AtVec(3)
	if w == 0 {
		return r3.Vector{}, errors.Wrap(ErrDegenerate, "point at infinity")
	}
	return r3.Vector{
		X: homog.AtVec(0) / w,
		Y: homog.AtVec(1) / w,
		Z: homog.AtVec(2) / w,
	}, nil
}

// projectionRows returns the three rows of the 3x4 projection matrix [R|t]
// for a world->camera pose, i.e. camera = R*world + t.
func projectionRows(p spatialmath.Pose) [3][4]float64 {
	t := p.Translation()
	ex := p.Transform(r3.Vector{X: 1}).Sub(t)
	ey := p.Transform(r3.Vector{Y: 1}).Sub(t)
	ez := p.Transform(r3.Vector{Z: 1}).Sub(t)
	return [3][4]float64{
		{ex.X, ey.X, ez.X, t.X},
		{ex.Y, ey.Y, ez.Y, t.Y},
		{ex.Z, ey.Z, ez.Z, t.Z},
	}
}

// constraintRow computes x*rowDenom - rowNumer, the per-view contribution to
// the DLT constraint matrix for one image-plane coordinate.
func constraintRow(x float64, rowDenom, rowNumer [4]float64) []float64 {
	out := make([]float64, 4)
	for i := range out {
		out[i] = x*rowDenom[i] - rowNumer[i]
	}
	return out
}
