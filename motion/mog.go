//go:build withcv
// +build withcv

/*
DESCRIPTION
  A motion detector that uses a Mixture of Gaussians method (MoG) to
  determine what is background and what is foreground. Shadows are not
  detected, and the foreground mask is binarized before contours are found.

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

	"github.com/ausocean/utils/logging"
	"github.com/ausocean/wagon/config"
)

const (
	defaultMOGMinArea   = 25.0
	defaultMOGThreshold = 50.0
	defaultMOGHistory   = 500
	defaultMOGCut       = 200
)

// MOG is a motion detection algorithm. MoG is short for
// Mixture of Gaussians method.
type MOG struct {
	debugging debugWindows
	log       logging.Logger
	area      float64                        // The area that a contour must exceed.
	cut       float32                        // Binarization cut for the foreground mask.
	bs        *gocv.BackgroundSubtractorMOG2 // Uses the MOG algorithm to find the difference between the current and background frame.
}

// NewMOG returns a pointer to a new MOG motion detector.
func NewMOG(c config.Config) (*MOG, error) {
	// Validate parameters.
	if c.MotionMinArea <= 0 {
		c.LogInvalidField("MotionMinArea", defaultMOGMinArea)
		c.MotionMinArea = defaultMOGMinArea
	}
	if c.MotionVarThreshold <= 0 {
		c.LogInvalidField("MotionVarThreshold", defaultMOGThreshold)
		c.MotionVarThreshold = defaultMOGThreshold
	}
	if c.MotionHistory == 0 {
		c.LogInvalidField("MotionHistory", defaultMOGHistory)
		c.MotionHistory = defaultMOGHistory
	}
	if c.MotionBinaryThreshold == 0 || c.MotionBinaryThreshold > 255 {
		c.LogInvalidField("MotionBinaryThreshold", defaultMOGCut)
		c.MotionBinaryThreshold = defaultMOGCut
	}

	bs := gocv.NewBackgroundSubtractorMOG2WithParams(int(c.MotionHistory), c.MotionVarThreshold, false)
	return &MOG{
		log:       c.Logger,
		area:      c.MotionMinArea,
		cut:       float32(c.MotionBinaryThreshold),
		bs:        &bs,
		debugging: newWindows("MOG", c.MotionMinArea),
	}, nil
}

// Close frees resources used by gocv. It has to be done manually,
// due to gocv using c-go.
func (m *MOG) Close() error {
	m.bs.Close()
	return m.debugging.close()
}

// Detect performs the motion detection on a frame. It returns true
// if motion is detected.
func (m *MOG) Detect(img image.Image) bool {
	gray, err := toGray(img)
	if err != nil {
		m.log.Warning("could not convert frame", "error", err.Error())
		return false
	}
	defer gray.Close()

	imgDelta := gocv.NewMat()
	defer imgDelta.Close()

	// Seperate foreground and background.
	m.bs.Apply(gray, &imgDelta)

	// Threshold imgDelta.
	gocv.Threshold(imgDelta, &imgDelta, m.cut, 255, gocv.ThresholdBinary)

	contours := largeContours(imgDelta, m.area)

	// Draw debug information.
	m.debugging.show(gray, imgDelta, contours)

	return len(contours) > 0
}
