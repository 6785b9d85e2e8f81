//go:build !withcv
// +build !withcv

/*
DESCRIPTION
  Replaces the OpenCV depth estimator when building without OpenCV.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package depth

import (
	"github.com/pkg/errors"

	"github.com/ausocean/wagon/video"
)

// MiDaS is unavailable without OpenCV.
type MiDaS struct{}

// NewMiDaS returns an error wrapping video.ErrNoCV.
func NewMiDaS(path string, size uint) (*MiDaS, error) {
	return nil, errors.Wrap(video.ErrNoCV, "depth estimator")
}

// Estimate implements Estimator.
func (m *MiDaS) Estimate(path string) (*Field, error) {
	return nil, errors.Wrap(ErrEstimation, video.ErrNoCV.Error())
}

// Close implements io.Closer.
func (m *MiDaS) Close() error { return nil }
