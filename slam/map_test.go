package slam

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertMapPointAssignsSequentialIDs(t *testing.T) {
	m := NewMap()
	id0 := m.InsertMapPoint(&MapPoint{Position: r3.Vector{X: 1}})
	id1 := m.InsertMapPoint(&MapPoint{Position: r3.Vector{X: 2}})
	assert.Equal(t, int64(0), id0)
	assert.Equal(t, int64(1), id1)
	assert.Equal(t, 2, m.MapPointCount())
}

func TestMapPointLookup(t *testing.T) {
	m := NewMap()
	id := m.InsertMapPoint(&MapPoint{Position: r3.Vector{X: 5}})
	mp, ok := m.MapPoint(id)
	require.True(t, ok)
	assert.Equal(t, 5.0, mp.Position.X)

	_, ok = m.MapPoint(id + 1)
	assert.False(t, ok)
}

func TestRemoveMapPoint(t *testing.T) {
	m := NewMap()
	id := m.InsertMapPoint(&MapPoint{})
	m.RemoveMapPoint(id)
	_, ok := m.MapPoint(id)
	assert.False(t, ok)
	assert.Equal(t, 0, m.MapPointCount())
}

func TestInsertKeyframeSetsKeyframeID(t *testing.T) {
	m := NewMap()
	f := NewFrame(0, nil, nil)
	id := m.InsertKeyframe(f)
	assert.Equal(t, id, f.KeyframeID)
	kf, ok := m.Keyframe(id)
	require.True(t, ok)
	assert.Same(t, f, kf)
}

func TestSnapshotCopiesCurrentContents(t *testing.T) {
	m := NewMap()
	m.InsertMapPoint(&MapPoint{})
	m.InsertKeyframe(NewFrame(0, nil, nil))
	snap := m.Snapshot()
	assert.Len(t, snap.MapPoints, 1)
	assert.Len(t, snap.Keyframes, 1)
}

func TestDetachOutlierRemovesObservation(t *testing.T) {
	m := NewMap()
	mp := &MapPoint{}
	id := m.InsertMapPoint(mp)
	mp.AddObservation(Observation{FrameID: 7})

	require.NoError(t, m.DetachOutlier(id, 7))
	assert.Equal(t, 0, mp.ObservationCount())
}

func TestDetachOutlierMissingMapPoint(t *testing.T) {
	m := NewMap()
	err := m.DetachOutlier(42, 1)
	assert.ErrorIs(t, err, ErrMapPointNotFound)
}
