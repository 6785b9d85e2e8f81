/*
DESCRIPTION
  motion.go provides the interface for per-frame wagon motion detectors and
  a constructor selecting the detector named by the configuration.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package motion provides background subtraction based detectors that
// decide whether a wagon is present in a frame.
package motion

import (
	"fmt"
	"image"

	"github.com/ausocean/wagon/config"
)

// Detector is the interface the segmenter expects for motion detection
// algorithms. Detect is called once per frame, in stream order, and updates
// the detector's background model as a side effect. A Detector holds the
// state of one stream and must not be shared between passes.
type Detector interface {
	Detect(img image.Image) bool
	Close() error
}

// New returns a new Detector of the kind given by c.MotionFilter.
func New(c config.Config) (Detector, error) {
	switch c.MotionFilter {
	case config.MotionBasic:
		return NewBasic(c), nil
	case config.MotionMOG:
		m, err := NewMOG(c)
		if err != nil {
			return nil, err
		}
		return m, nil
	case config.MotionKNN:
		k, err := NewKNN(c)
		if err != nil {
			return nil, err
		}
		return k, nil
	default:
		return nil, fmt.Errorf("unknown motion filter: %d", c.MotionFilter)
	}
}
