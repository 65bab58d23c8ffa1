// Package spatialmath provides the SE(3) rigid-transform and projection
// primitives the tracking frontend needs: composing and inverting camera
// poses, applying a pose to a point, and going between pixels and the
// normalized camera plane.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// R3AA is a rotation expressed as an axis-angle vector: its direction is the
// rotation axis, its length is the rotation angle in radians. This is the
// minimal representation used for the optimizer's right-perturbation update,
// since it has exactly three parameters for three rotational degrees of
// freedom with no unit-norm constraint to maintain between iterations.
type R3AA r3.Vector

// ToQuat converts an R3 axis-angle vector to a unit rotation quaternion.
func (aa R3AA) ToQuat() quat.Number {
	v := r3.Vector(aa)
	theta := v.Norm()
	if theta < 1e-12 {
		return quat.Number{Real: 1}
	}
	sinHalf := math.Sin(theta / 2)
	cosHalf := math.Cos(theta / 2)
	axis := v.Mul(1 / theta)
	return quat.Number{
		Real: cosHalf,
		Imag: axis.X * sinHalf,
		Jmag: axis.Y * sinHalf,
		Kmag: axis.Z * sinHalf,
	}
}

// QuatToR3AA converts a unit quaternion to its R3 axis-angle vector, in the
// same convention used by the Eigen C++ library's AngleAxis.
func QuatToR3AA(q quat.Number) R3AA {
	denom := imagNorm(q)
	angle := 2 * math.Atan2(denom, q.Real)
	if denom < 1e-9 {
		return R3AA{}
	}
	scale := angle / denom
	return R3AA{X: q.Imag * scale, Y: q.Jmag * scale, Z: q.Kmag * scale}
}

func imagNorm(q quat.Number) float64 {
	return math.Sqrt(q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
}
