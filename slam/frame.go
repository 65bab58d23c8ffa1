package slam

import (
	"github.com/golang/geo/r2"

	"github.com/stereovo/frontend/spatialmath"
	"github.com/stereovo/frontend/track"
)

// noMapPoint is the sentinel Feature.MapPointID value meaning "not linked to
// any landmark yet."
const noMapPoint int64 = -1

// Feature is one tracked image point. It never points directly at a
// MapPoint; it carries the MapPoint's ID instead, so the Map is the single
// owner of landmark lifetime and there is no reference cycle between frames
// and landmarks.
type Feature struct {
	Position    r2.Point
	OnLeftImage bool
	MapPointID  int64
	IsOutlier   bool
}

// NewFeature builds an unlinked, non-outlier feature at the given pixel.
func NewFeature(pos r2.Point, onLeft bool) Feature {
	return Feature{Position: pos, OnLeftImage: onLeft, MapPointID: noMapPoint}
}

// HasMapPoint reports whether the feature is linked to a landmark.
func (f Feature) HasMapPoint() bool { return f.MapPointID != noMapPoint }

// Unlink detaches the feature from its landmark. The outlier flag is
// cleared, not set permanently: a feature that looked like an outlier in one
// frame's pose estimate may still be a good track in a later frame, once it
// is re-associated with a (possibly different) landmark.
func (f *Feature) Unlink() {
	f.MapPointID = noMapPoint
	f.IsOutlier = false
}

// Frame is one timestep of stereo input together with everything the
// frontend derived from it.
type Frame struct {
	ID    int64
	Left  *track.GrayImage
	Right *track.GrayImage

	Pose spatialmath.Pose

	FeaturesLeft  []Feature
	FeaturesRight []Feature

	IsKeyframe  bool
	KeyframeID  int64
}

// NewFrame wraps a stereo image pair. Pose defaults to identity; the
// frontend overwrites it once tracking or initialization runs.
func NewFrame(id int64, left, right *track.GrayImage) *Frame {
	return &Frame{ID: id, Left: left, Right: right, Pose: spatialmath.Identity()}
}

// TrackedFeatureCount returns the number of left-image features currently
// linked to a landmark, the frontend's measure of how well a frame is
// tracking.
func (f *Frame) TrackedFeatureCount() int {
	n := 0
	for _, feat := range f.FeaturesLeft {
		if feat.HasMapPoint() && !feat.IsOutlier {
			n++
		}
	}
	return n
}
