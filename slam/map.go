package slam

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Map is the sole owner of landmark and keyframe lifetime. It is the only
// piece of frontend state shared with the backend, so every access goes
// through a single RWMutex rather than per-entry locks.
type Map struct {
	mu sync.RWMutex

	mapPoints map[int64]*MapPoint
	keyframes map[int64]*Frame

	nextMapPointID atomic.Int64
	nextKeyframeID atomic.Int64
}

// NewMap builds an empty map.
func NewMap() *Map {
	return &Map{
		mapPoints: make(map[int64]*MapPoint),
		keyframes: make(map[int64]*Frame),
	}
}

// InsertMapPoint assigns a fresh ID to mp and stores it.
func (m *Map) InsertMapPoint(mp *MapPoint) int64 {
	id := m.nextMapPointID.Add(1) - 1
	mp.ID = id
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mapPoints[id] = mp
	return id
}

// MapPoint looks up a landmark by ID.
func (m *Map) MapPoint(id int64) (*MapPoint, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mp, ok := m.mapPoints[id]
	return mp, ok
}

// RemoveMapPoint deletes a landmark outright, used when a stereo
// initialization attempt fails and the landmarks it triangulated are
// discarded.
func (m *Map) RemoveMapPoint(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.mapPoints, id)
}

// InsertKeyframe assigns a fresh keyframe ID to frame and stores it. frame
// must already have IsKeyframe set; InsertKeyframe does not set it.
func (m *Map) InsertKeyframe(frame *Frame) int64 {
	id := m.nextKeyframeID.Add(1) - 1
	frame.KeyframeID = id
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keyframes[id] = frame
	return id
}

// Keyframe looks up a keyframe by ID.
func (m *Map) Keyframe(id int64) (*Frame, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	kf, ok := m.keyframes[id]
	return kf, ok
}

// MapPointCount and KeyframeCount report the current size of the map.
func (m *Map) MapPointCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.mapPoints)
}

func (m *Map) KeyframeCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.keyframes)
}

// Snapshot lists every landmark and keyframe in the map at one point in
// time, the form the backend and viewer consume so they never hold Map's
// lock while doing their own (possibly slow) work. The slices are new, but
// their entries are the map's own *MapPoint and *Frame values, not copies.
type Snapshot struct {
	MapPoints []*MapPoint
	Keyframes []*Frame
}

// Snapshot collects the current map contents into fresh slices.
func (m *Map) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := Snapshot{
		MapPoints: make([]*MapPoint, 0, len(m.mapPoints)),
		Keyframes: make([]*Frame, 0, len(m.keyframes)),
	}
	for _, mp := range m.mapPoints {
		snap.MapPoints = append(snap.MapPoints, mp)
	}
	for _, kf := range m.keyframes {
		snap.Keyframes = append(snap.Keyframes, kf)
	}
	return snap
}

// ErrMapPointNotFound is returned by operations that require an existing
// landmark ID.
var ErrMapPointNotFound = errors.New("map point not found")

// DetachOutlier removes a landmark's link back to frameID's feature, the
// map side of the post-optimization cleanup the frontend runs after marking
// a feature an outlier. The feature's own link is not touched here; the
// caller unlinks the feature itself.
func (m *Map) DetachOutlier(mapPointID, frameID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mp, ok := m.mapPoints[mapPointID]
	if !ok {
		return ErrMapPointNotFound
	}
	mp.RemoveObservation(frameID)
	return nil
}
