package slam

import "github.com/golang/geo/r3"

// Observation is a back-reference from a MapPoint to the frame and feature
// slot that observed it, the inverse of Feature.MapPointID.
type Observation struct {
	FrameID      int64
	OnLeftImage  bool
	FeatureIndex int
}

// MapPoint is a triangulated 3D landmark. It is owned by the Map; frames
// reference it only by ID.
type MapPoint struct {
	ID           int64
	Position     r3.Vector
	Observations []Observation
	IsOutlier    bool
}

// AddObservation records that a frame's feature observed this landmark.
func (mp *MapPoint) AddObservation(obs Observation) {
	mp.Observations = append(mp.Observations, obs)
}

// RemoveObservation drops the observation belonging to frameID, if any.
// Landmarks accumulate observations across many keyframes, so a linear scan
// is fine; the slice rarely grows past a few dozen entries.
func (mp *MapPoint) RemoveObservation(frameID int64) {
	for i, obs := range mp.Observations {
		if obs.FrameID == frameID {
			mp.Observations = append(mp.Observations[:i], mp.Observations[i+1:]...)
			return
		}
	}
}

// ObservationCount reports how many frames currently observe this landmark.
func (mp *MapPoint) ObservationCount() int { return len(mp.Observations) }
