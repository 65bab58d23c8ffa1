package slam

import (
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"
)

func TestNewFeatureIsUnlinked(t *testing.T) {
	f := NewFeature(r2.Point{X: 1, Y: 2}, true)
	test.That(t, f.HasMapPoint(), test.ShouldBeFalse)
	test.That(t, f.IsOutlier, test.ShouldBeFalse)
}

func TestUnlinkClearsOutlierFlag(t *testing.T) {
	f := NewFeature(r2.Point{}, true)
	f.MapPointID = 3
	f.IsOutlier = true
	f.Unlink()
	test.That(t, f.HasMapPoint(), test.ShouldBeFalse)
	test.That(t, f.IsOutlier, test.ShouldBeFalse)
}

func TestTrackedFeatureCountIgnoresOutliersAndUnlinked(t *testing.T) {
	frame := NewFrame(0, nil, nil)
	linked := NewFeature(r2.Point{}, true)
	linked.MapPointID = 1
	outlier := NewFeature(r2.Point{}, true)
	outlier.MapPointID = 2
	outlier.IsOutlier = true
	unlinked := NewFeature(r2.Point{}, true)

	frame.FeaturesLeft = []Feature{linked, outlier, unlinked}
	test.That(t, frame.TrackedFeatureCount(), test.ShouldEqual, 1)
}
