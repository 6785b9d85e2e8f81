//go:build !debug && withcv
// +build !debug,withcv

/*
DESCRIPTION
  No-op debug display for release builds of the OpenCV motion detectors.

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
	"image"

	"gocv.io/x/gocv"
)

// debugWindows is used for displaying debug information for the motion detectors.
type debugWindows struct{}

// close frees resources used by gocv.
func (d *debugWindows) close() error { return nil }

// newWindows returns a debugWindows that displays nothing.
func newWindows(name string, area float64) debugWindows { return debugWindows{} }

// show is a no-op outside debug builds.
func (d *debugWindows) show(img, mask gocv.Mat, contours [][]image.Point) {}
