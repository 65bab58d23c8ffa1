package track

import (
	"math"
	"sort"

	"github.com/golang/geo/r2"
)

// DetectorConfig controls the corner detector's response window, the
// non-max-suppression radius between accepted corners, and the minimum
// response a candidate needs to be considered a corner at all.
type DetectorConfig struct {
	WindowRadius  int     // half-width of the structure-tensor summation window
	MinSeparation float64 // minimum pixel distance between accepted corners
	MinResponse   float64 // candidates below this minimum eigenvalue are discarded
}

// DefaultDetectorConfig matches the frontend's feature-detection parameters:
// an 11x11 response window and a 20px minimum separation between corners so
// new features don't crowd ones already being tracked.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{WindowRadius: 5, MinSeparation: 20, MinResponse: 1e-6}
}

// Detector finds Shi-Tomasi corners: local maxima of the minimum eigenvalue
// of the 2x2 structure tensor built from the Sobel gradient.
type Detector struct {
	Config DetectorConfig
}

// NewDetector builds a Detector from the given configuration.
func NewDetector(cfg DetectorConfig) *Detector {
	return &Detector{Config: cfg}
}

// Mask marks pixels that candidates should not be drawn from, used to keep
// newly detected corners away from features the tracker already has.
type Mask struct {
	Width, Height int
	blocked       []bool
}

// NewMask builds an all-clear mask of the given size.
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, blocked: make([]bool, width*height)}
}

// ExcludeAround blocks a square of the given half-size centered at (cx, cy),
// the same "paint a black box over existing features" idiom the frontend
// uses to stop the detector from re-finding points it already tracks.
func (m *Mask) ExcludeAround(cx, cy, halfSize int) {
	for y := cy - halfSize; y <= cy+halfSize; y++ {
		if y < 0 || y >= m.Height {
			continue
		}
		for x := cx - halfSize; x <= cx+halfSize; x++ {
			if x < 0 || x >= m.Width {
				continue
			}
			m.blocked[y*m.Width+x] = true
		}
	}
}

func (m *Mask) isBlocked(x, y int) bool {
	if m == nil {
		return false
	}
	return m.blocked[y*m.Width+x]
}

type candidate struct {
	pt       r2.Point
	response float64
}

// Detect returns up to maxCorners corner locations from img, strongest
// response first, honoring mask and enforcing MinSeparation between
// accepted corners via greedy non-max suppression. Candidates whose response
// is below 1% of the strongest candidate's are discarded.
func (d *Detector) Detect(img *GrayImage, maxCorners int, mask *Mask) []r2.Point {
	grad := SobelGradients(img)
	r := d.Config.WindowRadius

	candidates := make([]candidate, 0, img.Width*img.Height)
	for y := r; y < img.Height-r; y++ {
		for x := r; x < img.Width-r; x++ {
			if mask.isBlocked(x, y) {
				continue
			}
			resp := minEigenvalue(grad, x, y, r)
			if resp < d.Config.MinResponse {
				continue
			}
			candidates = append(candidates, candidate{pt: r2.Point{X: float64(x), Y: float64(y)}, response: resp})
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].response > candidates[j].response })

	const qualityLevel = 0.01
	if len(candidates) > 0 {
		floor := qualityLevel * candidates[0].response
		n := sort.Search(len(candidates), func(i int) bool { return candidates[i].response < floor })
		candidates = candidates[:n]
	}

	minSepSq := d.Config.MinSeparation * d.Config.MinSeparation
	accepted := make([]r2.Point, 0, maxCorners)
	for _, c := range candidates {
		if len(accepted) >= maxCorners {
			break
		}
		tooClose := false
		for _, a := range accepted {
			d := c.pt.Sub(a)
			if d.Dot(d) < minSepSq {
				tooClose = true
				break
			}
		}
		if !tooClose {
			accepted = append(accepted, c.pt)
		}
	}
	return accepted
}

// minEigenvalue computes the smaller eigenvalue of the structure tensor
// summed over a (2r+1)x(2r+1) window centered at (x, y).
func minEigenvalue(grad *Gradients, x, y, r int) float64 {
	var sxx, syy, sxy float64
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			gx := grad.Gx.At(x+dx, y+dy)
			gy := grad.Gy.At(x+dx, y+dy)
			sxx += gx * gx
			syy += gy * gy
			sxy += gx * gy
		}
	}
	trace := sxx + syy
	det := sxx*syy - sxy*sxy
	disc := trace*trace - 4*det
	if disc < 0 {
		disc = 0
	}
	return (trace - math.Sqrt(disc)) / 2
}
