package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
)

func TestIdentityComposeIsNoop(t *testing.T) {
	p := NewPose(r3.Vector{X: 1, Y: 2, Z: 3}, R3AA{Z: math.Pi / 4}.ToQuat())
	composed := Compose(Identity(), p)
	assertPoseAlmostEqual(t, p, composed)
}

func TestComposeInvertRoundTrip(t *testing.T) {
	a := NewPose(r3.Vector{X: 1, Y: -2, Z: 0.5}, R3AA{X: 0.2, Y: 0.1}.ToQuat())
	inv := Invert(a)
	roundTrip := Compose(a, inv)
	assertPoseAlmostEqual(t, Identity(), roundTrip)
}

func TestTransformMatchesManualRotation(t *testing.T) {
	// 90 degree rotation about Z should send +X to +Y.
	p := NewPose(r3.Vector{}, R3AA{Z: math.Pi / 2}.ToQuat())
	out := p.Transform(r3.Vector{X: 1})
	assert.InDelta(t, 0, out.X, 1e-9)
	assert.InDelta(t, 1, out.Y, 1e-9)
}

func TestAxisAngleRoundTrip(t *testing.T) {
	aa := R3AA{X: 0.1, Y: -0.2, Z: 0.3}
	q := aa.ToQuat()
	back := QuatToR3AA(q)
	assert.InDelta(t, aa.X, back.X, 1e-9)
	assert.InDelta(t, aa.Y, back.Y, 1e-9)
	assert.InDelta(t, aa.Z, back.Z, 1e-9)
}

func TestPerturbAppliesSmallRotation(t *testing.T) {
	base := Identity()
	perturbed := base.Perturb(r3.Vector{X: 0.01}, R3AA{Z: 0.01})
	assert.NotEqual(t, base.Translation(), perturbed.Translation())
}

func TestAxisAngleDegMatchesConstruction(t *testing.T) {
	p := NewPose(r3.Vector{}, R3AA{Z: math.Pi / 2}.ToQuat())
	axis, angleDeg := p.AxisAngleDeg()
	assert.InDelta(t, 90, angleDeg, 1e-6)
	assert.InDelta(t, 1, axis.Z, 1e-9)
}

func assertPoseAlmostEqual(t *testing.T, a, b Pose) {
	t.Helper()
	assert.InDelta(t, a.Translation().X, b.Translation().X, 1e-9)
	assert.InDelta(t, a.Translation().Y, b.Translation().Y, 1e-9)
	assert.InDelta(t, a.Translation().Z, b.Translation().Z, 1e-9)
	ra, rb := a.Rotation(), b.Rotation()
	dot := ra.Real*rb.Real + ra.Imag*rb.Imag + ra.Jmag*rb.Jmag + ra.Kmag*rb.Kmag
	assert.InDelta(t, 1, math.Abs(dot), 1e-9)
}
