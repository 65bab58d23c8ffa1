package slam

import (
	"testing"

	"go.viam.com/test"
)

func TestAddAndRemoveObservation(t *testing.T) {
	mp := &MapPoint{}
	mp.AddObservation(Observation{FrameID: 1, FeatureIndex: 0})
	mp.AddObservation(Observation{FrameID: 2, FeatureIndex: 3})
	test.That(t, mp.ObservationCount(), test.ShouldEqual, 2)

	mp.RemoveObservation(1)
	test.That(t, mp.ObservationCount(), test.ShouldEqual, 1)
	test.That(t, mp.Observations[0].FrameID, test.ShouldEqual, int64(2))
}

func TestRemoveObservationMissingFrameIsNoop(t *testing.T) {
	mp := &MapPoint{}
	mp.AddObservation(Observation{FrameID: 1})
	mp.RemoveObservation(99)
	test.That(t, mp.ObservationCount(), test.ShouldEqual, 1)
}
