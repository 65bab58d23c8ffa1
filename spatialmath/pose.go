package spatialmath

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose is a rigid transform in SE(3), represented as a unit rotation
// quaternion plus a translation. It is always interpreted as a world-to-body
// (or parent-to-child) transform: Transform(p) maps a point from the frame
// this Pose is expressed in into the frame this Pose transforms to, the same
// convention the frontend uses for a Frame's world->camera pose.
type Pose struct {
	rotation    quat.Number
	translation r3.Vector
}

// NewPose builds a Pose from a translation and a rotation quaternion, which
// is normalized on construction so callers never need to track unit-norm
// drift themselves.
func NewPose(translation r3.Vector, rotation quat.Number) Pose {
	return Pose{rotation: normalizeQuat(rotation), translation: translation}
}

// Identity is the zero transform.
func Identity() Pose {
	return Pose{rotation: quat.Number{Real: 1}}
}

// Rotation returns the pose's unit rotation quaternion.
func (p Pose) Rotation() quat.Number { return p.rotation }

// Translation returns the pose's translation component.
func (p Pose) Translation() r3.Vector { return p.translation }

// Transform applies the pose to a point: for a world->camera Pose this maps
// a world point into camera coordinates.
func (p Pose) Transform(pt r3.Vector) r3.Vector {
	return rotateVec(p.rotation, pt).Add(p.translation)
}

// Compose returns the pose equivalent to applying a then b, i.e.
// Compose(a, b).Transform(x) == b.Transform(a.Transform(x)).
// This mirrors the frontend's `T_b * T_a` convention for chaining a relative
// motion onto a previous pose.
func Compose(a, b Pose) Pose {
	r := quat.Mul(b.rotation, a.rotation)
	t := rotateVec(b.rotation, a.translation).Add(b.translation)
	return NewPose(t, r)
}

// Invert returns the inverse transform.
func Invert(p Pose) Pose {
	inv := quat.Conj(p.rotation)
	t := rotateVec(inv, p.translation).Mul(-1)
	return NewPose(t, inv)
}

// Perturb applies a small right-multiplicative SE(3) update expressed as a
// translation delta and a rotation delta in axis-angle form: the update used
// by the pose-only optimizer between its inner iterations.
func (p Pose) Perturb(dTranslation r3.Vector, dRotation R3AA) Pose {
	delta := NewPose(dTranslation, dRotation.ToQuat())
	return Compose(delta, p)
}

// AxisAngleDeg reports the pose's rotation as a unit axis and an angle in
// degrees, the form a log line or a viewer status readout wants; callers
// needing the rotation for further math should use Rotation instead. For the
// identity rotation the axis is the zero vector.
func (p Pose) AxisAngleDeg() (axis r3.Vector, angleDeg float64) {
	v := r3.Vector(QuatToR3AA(p.rotation))
	angle := v.Norm()
	if angle < 1e-12 {
		return r3.Vector{}, 0
	}
	return v.Mul(1 / angle), mgl64.RadToDeg(angle)
}

func rotateVec(q quat.Number, v r3.Vector) r3.Vector {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vector{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

func normalizeQuat(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n < 1e-12 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/n, q)
}
