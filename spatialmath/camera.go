package spatialmath

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
)

// Intrinsics holds a pinhole camera's focal lengths and principal point, in
// pixels, for an image of the given size.
type Intrinsics struct {
	Width, Height int
	Fx, Fy        float64
	Ppx, Ppy      float64
}

// Validate reports whether the intrinsics describe a usable pinhole camera.
func (k *Intrinsics) Validate() error {
	if k == nil {
		return errors.New("camera intrinsics are nil")
	}
	if k.Width <= 0 || k.Height <= 0 {
		return errors.Errorf("invalid image size (%d, %d)", k.Width, k.Height)
	}
	if k.Fx <= 0 || k.Fy <= 0 {
		return errors.Errorf("invalid focal length (%f, %f)", k.Fx, k.Fy)
	}
	return nil
}

// PinholeCamera is a pinhole camera rigidly mounted on a rig body: BodyPose
// is the fixed extrinsic transform from the rig body frame to this camera's
// frame (identity for the left/reference camera, a baseline translation for
// the right camera of a stereo pair).
type PinholeCamera struct {
	K        Intrinsics
	BodyPose Pose
}

// Pose returns the camera's fixed extrinsic, body->camera.
func (c *PinholeCamera) Pose() Pose { return c.BodyPose }

// PixelToCamera lifts a pixel to the camera's normalized image plane (z=1).
func (c *PinholeCamera) PixelToCamera(u, v float64) r3.Vector {
	return r3.Vector{
		X: (u - c.K.Ppx) / c.K.Fx,
		Y: (v - c.K.Ppy) / c.K.Fy,
		Z: 1,
	}
}

// WorldToPixel projects a world point through the world->camera transform
// tWC and the camera's intrinsics. ok is false when the point lies behind
// the camera (non-positive depth), in which case u,v are meaningless.
func (c *PinholeCamera) WorldToPixel(p r3.Vector, tWC Pose) (u, v float64, ok bool) {
	pc := tWC.Transform(p)
	if pc.Z <= 0 {
		return 0, 0, false
	}
	u = pc.X/pc.Z*c.K.Fx + c.K.Ppx
	v = pc.Y/pc.Z*c.K.Fy + c.K.Ppy
	return u, v, true
}

// NormalizedPoint projects a point already in this camera's own frame onto
// the z=1 plane, returning the result as an r2.Point, the representation the
// triangulator consumes.
func NormalizedPoint(p r3.Vector) r2.Point {
	if p.Z == 0 {
		return r2.Point{X: p.X, Y: p.Y}
	}
	return r2.Point{X: p.X / p.Z, Y: p.Y / p.Z}
}

// StereoRig bundles the two cameras of a calibrated, rectified stereo pair
// and the baseline between them. Left is the body reference frame: its
// BodyPose is always identity.
type StereoRig struct {
	Left, Right *PinholeCamera
	Baseline    float64
}

// NewStereoRig builds a rectified stereo rig from shared intrinsics and a
// horizontal baseline in the same units as triangulated landmark positions.
func NewStereoRig(k Intrinsics, baseline float64) (*StereoRig, error) {
	if err := k.Validate(); err != nil {
		return nil, errors.Wrap(err, "stereo rig intrinsics")
	}
	if baseline <= 0 {
		return nil, errors.Errorf("invalid stereo baseline %f", baseline)
	}
	return &StereoRig{
		Left:     &PinholeCamera{K: k, BodyPose: Identity()},
		Right:    &PinholeCamera{K: k, BodyPose: NewPose(r3.Vector{X: -baseline}, quat.Number{Real: 1})},
		Baseline: baseline,
	}, nil
}
