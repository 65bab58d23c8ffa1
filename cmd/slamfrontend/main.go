// Command slamfrontend runs the tracking frontend against a directory of
// sequentially numbered stereo image pairs and prints the resulting pose
// trajectory and tracking status to stdout.
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/edaniels/golog"

	"github.com/stereovo/frontend/config"
	"github.com/stereovo/frontend/slam"
	"github.com/stereovo/frontend/spatialmath"
	"github.com/stereovo/frontend/track"
)

func main() {
	configPath := flag.String("config", "", "path to a frontend config JSON file")
	datasetDir := flag.String("dataset", "", "directory containing left_%06d.png / right_%06d.png stereo pairs")
	flag.Parse()

	logger := golog.NewDevelopmentLogger("slamfrontend")

	if err := run(*configPath, *datasetDir, logger); err != nil {
		logger.Fatal(err)
	}
}

func run(configPath, datasetDir string, logger golog.Logger) error {
	if configPath == "" || datasetDir == "" {
		return fmt.Errorf("both -config and -dataset are required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	rig, err := spatialmath.NewStereoRig(cfg.Camera, cfg.Baseline)
	if err != nil {
		return fmt.Errorf("building stereo rig: %w", err)
	}

	mapp := slam.NewMap()
	backend := slam.NewWorkerBackend(mapp, func(slam.Snapshot) {}, logger)
	defer backend.Close()

	frontend := slam.New(*cfg, rig, mapp, backend, slam.NoopViewer{}, logger)

	for frameID := int64(0); ; frameID++ {
		left, right, err := loadStereoPair(datasetDir, frameID)
		if os.IsNotExist(err) {
			break
		}
		if err != nil {
			return fmt.Errorf("frame %d: %w", frameID, err)
		}

		frame := slam.NewFrame(frameID, left, right)
		status, err := frontend.AddFrame(frame)
		if err != nil {
			return fmt.Errorf("frame %d: %w", frameID, err)
		}

		pose := frame.Pose
		axis, angleDeg := pose.AxisAngleDeg()
		logger.Infow("frame processed",
			"frame", frameID,
			"status", status.String(),
			"translation", pose.Translation(),
			"rotation_axis", axis,
			"rotation_deg", angleDeg,
			"tracked_features", frame.TrackedFeatureCount(),
		)
	}

	logger.Infow("finished sequence", "landmarks", frontend.Map().MapPointCount(), "keyframes", frontend.Map().KeyframeCount())
	return nil
}

// loadStereoPair decodes frame frameID's left and right images from
// datasetDir, converting them to the grayscale representation the tracker
// operates on.
func loadStereoPair(datasetDir string, frameID int64) (*track.GrayImage, *track.GrayImage, error) {
	left, err := loadGray(filepath.Join(datasetDir, fmt.Sprintf("left_%06d.png", frameID)))
	if err != nil {
		return nil, nil, err
	}
	right, err := loadGray(filepath.Join(datasetDir, fmt.Sprintf("right_%06d.png", frameID)))
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func loadGray(path string) (*track.GrayImage, error) {
	//nolint:gosec // path is built from an operator-supplied dataset directory.
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return track.FromImage(img), nil
}
