// Package config defines the tunable parameters of the tracking frontend
// and loads them from a JSON file, the same idiom motionestimation.go uses
// for its own configuration.
package config

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/stereovo/frontend/spatialmath"
)

// Config holds every parameter the frontend's feature detection, optical
// flow, keyframe policy, and pose optimizer need.
type Config struct {
	// Camera describes the rectified stereo rig the frontend tracks against.
	Camera   spatialmath.Intrinsics `json:"camera"`
	Baseline float64                `json:"baseline_m"`

	// NumFeatures is the target number of features maintained per frame;
	// NumFeaturesInit is the minimum required to leave the INITING state.
	NumFeatures            int `json:"num_features"`
	NumFeaturesInit        int `json:"num_features_init"`
	NumFeaturesTracking    int `json:"num_features_tracking"`
	NumFeaturesTrackingBad int `json:"num_features_tracking_bad"`
	NumFeaturesForKeyframe int `json:"num_features_needed_for_keyframe"`

	// Detector/tracker geometry.
	DetectorWindowRadius  int     `json:"detector_window_radius"`
	DetectorMinSeparation float64 `json:"detector_min_separation_px"`
	FlowWindowRadius      int     `json:"flow_window_radius"`
	FlowPyramidLevels     int     `json:"flow_pyramid_levels"`
	FlowMaxIterations     int     `json:"flow_max_iterations"`
	FlowEpsilonPixels     float64 `json:"flow_epsilon_px"`

	// Pose optimizer.
	LMOuterIterations int     `json:"lm_outer_iterations"`
	LMInnerIterations int     `json:"lm_inner_iterations"`
	HuberDeltaSq      float64 `json:"huber_delta_sq"`
	RobustKernelUntil int     `json:"robust_kernel_disabled_at_outer_iteration"`
	OutlierChiSq      float64 `json:"outlier_chi_sq"`
}

// Default returns the frontend's baseline configuration: the algorithmic
// constants the tracking pipeline is specified around, with zero-value
// camera intrinsics left for the caller to fill in.
func Default() Config {
	return Config{
		NumFeatures:            150,
		NumFeaturesInit:        100,
		NumFeaturesTracking:    50,
		NumFeaturesTrackingBad: 20,
		NumFeaturesForKeyframe: 80,

		DetectorWindowRadius:  5,
		DetectorMinSeparation: 20,
		FlowWindowRadius:      5,
		FlowPyramidLevels:     3,
		FlowMaxIterations:     30,
		FlowEpsilonPixels:     0.01,

		LMOuterIterations: 4,
		LMInnerIterations: 10,
		HuberDeltaSq:      5.991,
		RobustKernelUntil: 2,
		OutlierChiSq:      5.991,
	}
}

// Load reads a Config from a JSON file, filling any field the file omits
// from Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	//nolint:gosec // path is an operator-supplied configuration file.
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening frontend config")
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "decoding frontend config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every way the configuration is unusable, combining all
// of them into a single error rather than stopping at the first.
func (c *Config) Validate() error {
	var errs error
	if err := c.Camera.Validate(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if c.Baseline <= 0 {
		errs = multierr.Append(errs, errors.Errorf("invalid baseline %f", c.Baseline))
	}
	if c.NumFeaturesInit <= 0 || c.NumFeaturesInit > c.NumFeatures {
		errs = multierr.Append(errs, errors.New("num_features_init must be positive and <= num_features"))
	}
	if c.NumFeaturesTrackingBad <= 0 || c.NumFeaturesTrackingBad >= c.NumFeaturesTracking {
		errs = multierr.Append(errs, errors.New("num_features_tracking_bad must be positive and < num_features_tracking"))
	}
	if c.FlowPyramidLevels < 1 {
		errs = multierr.Append(errs, errors.New("flow_pyramid_levels must be >= 1"))
	}
	if c.LMOuterIterations < 1 || c.LMInnerIterations < 1 {
		errs = multierr.Append(errs, errors.New("lm_outer_iterations and lm_inner_iterations must be >= 1"))
	}
	if c.HuberDeltaSq <= 0 || c.OutlierChiSq <= 0 {
		errs = multierr.Append(errs, errors.New("huber_delta_sq and outlier_chi_sq must be positive"))
	}
	return errs
}
