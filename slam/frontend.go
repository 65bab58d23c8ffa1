package slam

import (
	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"

	"github.com/stereovo/frontend/config"
	"github.com/stereovo/frontend/rimage/transform"
	"github.com/stereovo/frontend/spatialmath"
	"github.com/stereovo/frontend/track"
)

// Status is the frontend's tracking state.
type Status int

const (
	StatusIniting Status = iota
	StatusTrackingGood
	StatusTrackingBad
	StatusLost
)

func (s Status) String() string {
	switch s {
	case StatusIniting:
		return "INITING"
	case StatusTrackingGood:
		return "TRACKING_GOOD"
	case StatusTrackingBad:
		return "TRACKING_BAD"
	case StatusLost:
		return "LOST"
	default:
		return "UNKNOWN"
	}
}

// Frontend runs the per-frame tracking pipeline: feature detection, stereo
// initialization, optical-flow tracking against the previous frame,
// motion-only pose optimization, and keyframe admission.
type Frontend struct {
	cfg     config.Config
	rig     *spatialmath.StereoRig
	det     *track.Detector
	flow    *track.Tracker
	mapp    *Map
	backend Backend
	viewer  Viewer
	logger  golog.Logger

	status         Status
	lastFrame      *Frame
	currFrame      *Frame
	relativeMotion spatialmath.Pose // last->current pose delta, used as the LK initial guess
}

// New builds a Frontend that tracks against m. The caller owns m and may
// share it with a Backend and Viewer constructed separately, since those
// read the map from the outside while the frontend writes to it.
func New(cfg config.Config, rig *spatialmath.StereoRig, m *Map, backend Backend, viewer Viewer, logger golog.Logger) *Frontend {
	if m == nil {
		m = NewMap()
	}
	if backend == nil {
		backend = NoopBackend{}
	}
	if viewer == nil {
		viewer = NoopViewer{}
	}
	return &Frontend{
		cfg:            cfg,
		rig:            rig,
		det:            track.NewDetector(track.DetectorConfig{WindowRadius: cfg.DetectorWindowRadius, MinSeparation: cfg.DetectorMinSeparation, MinResponse: 1e-6}),
		flow:           track.NewTracker(track.FlowConfig{WindowRadius: cfg.FlowWindowRadius, PyramidLevels: cfg.FlowPyramidLevels, MaxIterations: cfg.FlowMaxIterations, EpsilonPixels: cfg.FlowEpsilonPixels}),
		mapp:           m,
		backend:        backend,
		viewer:         viewer,
		logger:         logger,
		status:         StatusIniting,
		relativeMotion: spatialmath.Identity(),
	}
}

// Status returns the frontend's current tracking state.
func (f *Frontend) Status() Status { return f.status }

// Map exposes the frontend's landmark and keyframe store, mainly for tests
// and for wiring a Viewer that wants the full snapshot.
func (f *Frontend) Map() *Map { return f.mapp }

// AddFrame runs the tracking pipeline on a new stereo frame and returns the
// resulting status.
func (f *Frontend) AddFrame(frame *Frame) (Status, error) {
	f.currFrame = frame

	switch f.status {
	case StatusIniting:
		if err := f.stereoInit(); err != nil {
			return f.status, err
		}
	case StatusTrackingGood, StatusTrackingBad:
		f.track()
	case StatusLost:
		// Nothing to do until Reset is called; a lost frontend does not
		// silently resume from an untracked frame.
	}

	f.viewer.AddCurrentFrame(f.currFrame)
	f.lastFrame = f.currFrame
	return f.status, nil
}

// stereoInit detects features on the first frame, triangulates an initial
// set of landmarks from the stereo pair, and leaves INITING once enough of
// them succeed. A failed attempt discards whatever it triangulated rather
// than leaving unobserved landmarks behind for the next attempt to trip
// over.
func (f *Frontend) stereoInit() error {
	frame := f.currFrame
	f.detectFeatures(frame)
	f.findFeaturesInRight(frame)

	if frame.TrackedFeatureCount() < f.cfg.NumFeaturesInit {
		f.logger.Debugw("stereo init did not find enough landmarks",
			"found", frame.TrackedFeatureCount(), "needed", f.cfg.NumFeaturesInit)
		f.discardUncommittedLandmarks(frame)
		return nil
	}
	f.status = StatusTrackingGood
	return f.insertKeyframe()
}

// discardUncommittedLandmarks removes every landmark frame's features
// triangulated and unlinks the features from them, used when a stereo init
// attempt doesn't find enough of them to proceed.
func (f *Frontend) discardUncommittedLandmarks(frame *Frame) {
	for i := range frame.FeaturesLeft {
		feat := &frame.FeaturesLeft[i]
		if feat.HasMapPoint() {
			f.mapp.RemoveMapPoint(feat.MapPointID)
			feat.Unlink()
		}
	}
}

// track optical-flows the previous frame's features into the current frame,
// re-optimizes the pose, updates the tracking status from the inlier count,
// and admits a new keyframe when coverage has thinned out.
func (f *Frontend) track() {
	frame := f.currFrame
	prev := f.lastFrame

	frame.Pose = spatialmath.Compose(prev.Pose, f.relativeMotion)
	frame.FeaturesLeft = f.trackFeatures(prev, frame)

	result := OptimizePose(frame, f.rig.Left, f.mapp, f.cfg)
	frame.Pose = result.Pose
	for _, idx := range result.OutlierIdx {
		feat := &frame.FeaturesLeft[idx]
		if feat.HasMapPoint() {
			_ = f.mapp.DetachOutlier(feat.MapPointID, frame.ID)
		}
		feat.Unlink()
	}

	f.relativeMotion = spatialmath.Compose(spatialmath.Invert(prev.Pose), frame.Pose)

	switch {
	case result.Inliers > f.cfg.NumFeaturesTracking:
		f.status = StatusTrackingGood
	case result.Inliers > f.cfg.NumFeaturesTrackingBad:
		f.status = StatusTrackingBad
	default:
		f.status = StatusLost
		return
	}

	if result.Inliers < f.cfg.NumFeaturesForKeyframe {
		if err := f.insertKeyframe(); err != nil {
			f.logger.Warnw("failed to insert keyframe", "error", err)
		}
	}
}

// trackFeatures optical-flows prev's left-image features into frame, using
// each feature's predicted location (projected through relativeMotion) as
// the initial guess, and keeps the link to whatever landmark the source
// feature had.
func (f *Frontend) trackFeatures(prev, frame *Frame) []Feature {
	points := make([]r2.Point, len(prev.FeaturesLeft))
	guesses := make([]r2.Point, len(prev.FeaturesLeft))
	for i, feat := range prev.FeaturesLeft {
		points[i] = feat.Position
		guesses[i] = feat.Position
		if mp, ok := f.mapp.MapPoint(feat.MapPointID); ok {
			if u, v, ok := f.rig.Left.WorldToPixel(mp.Position, frame.Pose); ok {
				guesses[i] = r2.Point{X: u, Y: v}
			}
		}
	}

	tracked, found := f.flow.Track(prev.Left, frame.Left, points, guesses)

	out := make([]Feature, 0, len(tracked))
	for i, ok := range found {
		if !ok {
			continue
		}
		nf := NewFeature(tracked[i], true)
		nf.MapPointID = prev.FeaturesLeft[i].MapPointID
		out = append(out, nf)
	}
	return out
}

// detectFeatures fills frame.FeaturesLeft with new corners, avoiding
// locations already covered by features that survived from a previous
// frame (none, when this is the first frame).
func (f *Frontend) detectFeatures(frame *Frame) {
	mask := track.NewMask(frame.Left.Width, frame.Left.Height)
	for _, feat := range frame.FeaturesLeft {
		mask.ExcludeAround(int(feat.Position.X), int(feat.Position.Y), int(f.cfg.DetectorMinSeparation/2))
	}
	needed := f.cfg.NumFeatures - len(frame.FeaturesLeft)
	if needed <= 0 {
		return
	}
	for _, pt := range f.det.Detect(frame.Left, needed, mask) {
		frame.FeaturesLeft = append(frame.FeaturesLeft, NewFeature(pt, true))
	}
}

// findFeaturesInRight optical-flows frame's left-image features that are
// not yet linked to a landmark into the right image, triangulates every
// pair that tracks successfully, and inserts a new MapPoint for each valid
// result. Already-linked features are left untouched, so calling this more
// than once on the same frame (stereoInit followed by insertKeyframe's own
// backfill pass) never re-triangulates or double-creates a landmark.
func (f *Frontend) findFeaturesInRight(frame *Frame) {
	if frame.FeaturesRight == nil {
		frame.FeaturesRight = make([]Feature, len(frame.FeaturesLeft))
	}
	for len(frame.FeaturesRight) < len(frame.FeaturesLeft) {
		frame.FeaturesRight = append(frame.FeaturesRight, NewFeature(r2.Point{}, false))
	}

	pending := make([]int, 0, len(frame.FeaturesLeft))
	points := make([]r2.Point, 0, len(frame.FeaturesLeft))
	for i, feat := range frame.FeaturesLeft {
		if feat.HasMapPoint() {
			continue
		}
		pending = append(pending, i)
		points = append(points, feat.Position)
	}
	if len(pending) == 0 {
		return
	}

	tracked, found := f.flow.Track(frame.Left, frame.Right, points, points)

	for k, i := range pending {
		if !found[k] {
			continue
		}
		frame.FeaturesRight[i] = NewFeature(tracked[k], false)

		leftCam, rightCam := f.rig.Left.PixelToCamera(points[k].X, points[k].Y), f.rig.Right.PixelToCamera(tracked[k].X, tracked[k].Y)
		views := []transform.View{
			{Pose: f.rig.Left.Pose(), Point: spatialmath.NormalizedPoint(leftCam)},
			{Pose: f.rig.Right.Pose(), Point: spatialmath.NormalizedPoint(rightCam)},
		}
		landmark, err := transform.TriangulatePoint(views)
		if err != nil || landmark.Z <= 0 {
			continue
		}
		// views are in frame's camera frame (rig extrinsics only); bring the
		// triangulated point into world coordinates before it's stored as a
		// landmark. A no-op during stereoInit, where frame.Pose is identity.
		world := spatialmath.Invert(frame.Pose).Transform(landmark)

		mp := &MapPoint{Position: world}
		id := f.mapp.InsertMapPoint(mp)
		frame.FeaturesLeft[i].MapPointID = id
	}
}

// insertKeyframe marks frame as a keyframe, stores it in the map,
// backfills features with fresh landmarks where coverage is thin, records
// every linked feature's observation of its landmark, and notifies the
// backend.
func (f *Frontend) insertKeyframe() error {
	frame := f.currFrame
	frame.IsKeyframe = true
	f.mapp.InsertKeyframe(frame)

	f.detectFeatures(frame)
	f.findFeaturesInRight(frame)

	for i, feat := range frame.FeaturesLeft {
		if mp, ok := f.mapp.MapPoint(feat.MapPointID); ok {
			mp.AddObservation(Observation{FrameID: frame.ID, OnLeftImage: true, FeatureIndex: i})
		}
	}

	f.backend.UpdateMap()
	return nil
}

// Reset clears the frontend's own tracking state and returns it to INITING,
// so the next AddFrame call starts a fresh stereo initialization. The map is
// left intact: existing landmarks and keyframes remain available to the
// backend and viewer, and the next stereoInit's fresh landmarks are simply
// added alongside them.
func (f *Frontend) Reset() error {
	f.logger.Info("resetting frontend")
	f.status = StatusIniting
	f.lastFrame = nil
	f.currFrame = nil
	f.relativeMotion = spatialmath.Identity()
	return nil
}
