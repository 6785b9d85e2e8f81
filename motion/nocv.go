//go:build !withcv
// +build !withcv

/*
DESCRIPTION
  Replaces the detectors that use the gocv package when building without
  OpenCV, such as on CI. Only the pure Go detector is available.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package motion

import (
	"fmt"
	"image"

	"github.com/ausocean/wagon/config"
	"github.com/ausocean/wagon/video"
)

// MOG is unavailable without OpenCV.
type MOG struct{}

// NewMOG returns an error wrapping video.ErrNoCV.
func NewMOG(c config.Config) (*MOG, error) {
	return nil, fmt.Errorf("mog motion detector: %w", video.ErrNoCV)
}

// Detect implements Detector.
func (m *MOG) Detect(img image.Image) bool { return false }

// Close implements Detector.
func (m *MOG) Close() error { return nil }

// KNN is unavailable without OpenCV.
type KNN struct{}

// NewKNN returns an error wrapping video.ErrNoCV.
func NewKNN(c config.Config) (*KNN, error) {
	return nil, fmt.Errorf("knn motion detector: %w", video.ErrNoCV)
}

// Detect implements Detector.
func (m *KNN) Detect(img image.Image) bool { return false }

// Close implements Detector.
func (m *KNN) Close() error { return nil }
