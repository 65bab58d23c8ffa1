package transform

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stereovo/frontend/spatialmath"
)

func TestTriangulatePointRecoversKnownDepth(t *testing.T) {
	baseline := 0.1
	depth := 2.0
	truth := r3.Vector{X: 0.05, Y: -0.1, Z: depth}

	leftPose := spatialmath.Identity()
	rightPose := spatialmath.NewPose(r3.Vector{X: -baseline}, spatialmath.R3AA{}.ToQuat())

	leftPt := spatialmath.NormalizedPoint(leftPose.Transform(truth))
	rightPt := spatialmath.NormalizedPoint(rightPose.Transform(truth))

	views := []View{
		{Pose: leftPose, Point: leftPt},
		{Pose: rightPose, Point: rightPt},
	}

	got, err := TriangulatePoint(views)
	require.NoError(t, err)
	assert.InDelta(t, truth.X, got.X, 1e-6)
	assert.InDelta(t, truth.Y, got.Y, 1e-6)
	assert.InDelta(t, truth.Z, got.Z, 1e-6)
}

func TestTriangulatePointRequiresTwoViews(t *testing.T) {
	_, err := TriangulatePoint([]View{{Pose: spatialmath.Identity(), Point: r2.Point{}}})
	assert.Error(t, err)
}

func TestTriangulatePointDegenerateSameView(t *testing.T) {
	// Two identical views of the same pixel give no parallax: the system is
	// degenerate and triangulation should fail rather than return garbage.
	pose := spatialmath.Identity()
	views := []View{
		{Pose: pose, Point: r2.Point{X: 0.1, Y: 0.1}},
		{Pose: pose, Point: r2.Point{X: 0.1, Y: 0.1}},
	}
	_, err := TriangulatePoint(views)
	assert.ErrorIs(t, err, ErrDegenerate)
}
