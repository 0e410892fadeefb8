// Command predict runs the default model on one image and prints the
// detections as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"object-detection-service/internal/codec"
	"object-detection-service/internal/config"
	"object-detection-service/internal/detector"
	"object-detection-service/internal/domain"
	"object-detection-service/internal/dto"
)

const usage = "Usage: predict <image_path>"

var errUsage = errors.New(usage)

type loadFunc func(ctx context.Context) (domain.Detector, func(), error)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, loadDefault); err != nil {
		writeError(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer, load loadFunc) error {
	if len(args) != 1 {
		return errUsage
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	img, err := codec.Decode(data)
	if err != nil {
		return err
	}

	det, release, err := load(ctx)
	if err != nil {
		return err
	}
	defer release()

	detections, err := det.Detect(ctx, img, domain.DefaultInferenceConfig())
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDetectionFailure, err)
	}
	if err := detections.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDetectionFailure, err)
	}

	return json.NewEncoder(stdout).Encode(dto.ToCLIDetections(detections))
}

func loadDefault(ctx context.Context) (domain.Detector, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	initLogger(cfg)

	loader, releaseBackend, err := detector.NewLoader(cfg)
	if err != nil {
		releaseBackend()
		return nil, nil, err
	}

	det, err := detector.LoadDefault(ctx, cfg, loader)
	if err != nil {
		releaseBackend()
		return nil, nil, err
	}

	return det, func() {
		if err := det.Close(); err != nil {
			log.WithError(err).Warn("close model failed")
		}
		releaseBackend()
	}, nil
}

// initLogger keeps stdout clean for the JSON result; logs go to stderr and
// stay quiet unless LOGGER_LEVEL is set explicitly.
func initLogger(cfg *config.Config) {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.JSONFormatter{})

	level := log.WarnLevel
	if _, ok := os.LookupEnv("LOGGER_LEVEL"); ok {
		if l, err := log.ParseLevel(cfg.Logger.Level); err == nil {
			level = l
		}
	}
	log.SetLevel(level)
}

func writeError(w io.Writer, err error) {
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
