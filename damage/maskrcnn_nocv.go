//go:build !withcv
// +build !withcv

/*
DESCRIPTION
  Replaces the OpenCV damage detector when building without OpenCV.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package damage

import (
	"image"

	"github.com/pkg/errors"

	"github.com/ausocean/wagon/video"
)

// MaskRCNN is unavailable without OpenCV.
type MaskRCNN struct{}

// NewMaskRCNN returns an error wrapping video.ErrNoCV.
func NewMaskRCNN(model, config string, classes []string, minConf float64) (*MaskRCNN, error) {
	return nil, errors.Wrap(video.ErrNoCV, "damage detector")
}

// Detect implements Detector.
func (m *MaskRCNN) Detect(img image.Image) ([]Instance, error) {
	return nil, errors.Wrap(video.ErrNoCV, "damage detector")
}

// Close implements io.Closer.
func (m *MaskRCNN) Close() error { return nil }
