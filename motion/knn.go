//go:build withcv
// +build withcv

/*
DESCRIPTION
  A motion detector that uses K-Nearest Neighbours (KNN) to determine what
  is background and what is foreground. The foreground mask is cleaned with
  morphological opening and closing before contours are found.

AUTHORS
  Ella Pietraroia <ella@ausocean.org>

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
	defaultKNNMinArea   = 25.0
	defaultKNNThreshold = 300
	defaultKNNHistory   = 300
	defaultKNNKernel    = 4
	defaultKNNCut       = 200
)

// KNN is motion detection algorithm. KNN is short for
// K-Nearest Neighbours method.
type KNN struct {
	debugging debugWindows
	log       logging.Logger
	area      float64                       // The area that a contour must exceed.
	cut       float32                       // Binarization cut for the foreground mask.
	bs        *gocv.BackgroundSubtractorKNN // Uses the KNN algorithm to find the difference between the current and background frame.
	knl       gocv.Mat                      // Structuring element for noise removal.
}

// NewKNN returns a pointer to a new KNN motion detector.
func NewKNN(c config.Config) (*KNN, error) {
	// Validate parameters.
	if c.MotionMinArea <= 0 {
		c.LogInvalidField("MotionMinArea", defaultKNNMinArea)
		c.MotionMinArea = defaultKNNMinArea
	}
	if c.MotionVarThreshold <= 0 {
		c.LogInvalidField("MotionVarThreshold", defaultKNNThreshold)
		c.MotionVarThreshold = defaultKNNThreshold
	}
	if c.MotionHistory == 0 {
		c.LogInvalidField("MotionHistory", defaultKNNHistory)
		c.MotionHistory = defaultKNNHistory
	}
	if c.MotionKernel == 0 {
		c.LogInvalidField("MotionKernel", defaultKNNKernel)
		c.MotionKernel = defaultKNNKernel
	}
	if c.MotionBinaryThreshold == 0 || c.MotionBinaryThreshold > 255 {
		c.LogInvalidField("MotionBinaryThreshold", defaultKNNCut)
		c.MotionBinaryThreshold = defaultKNNCut
	}

	bs := gocv.NewBackgroundSubtractorKNNWithParams(int(c.MotionHistory), c.MotionVarThreshold, false)
	return &KNN{
		log:       c.Logger,
		area:      c.MotionMinArea,
		cut:       float32(c.MotionBinaryThreshold),
		bs:        &bs,
		knl:       gocv.GetStructuringElement(gocv.MorphRect, image.Pt(int(c.MotionKernel), int(c.MotionKernel))),
		debugging: newWindows("KNN", c.MotionMinArea),
	}, nil
}

// Close frees resources used by gocv. It has to be done manually,
// due to gocv using c-go.
func (m *KNN) Close() error {
	m.bs.Close()
	m.knl.Close()
	return m.debugging.close()
}

// Detect performs the motion detection on a frame. It returns true
// if motion is detected.
func (m *KNN) Detect(img image.Image) bool {
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

	// Remove noise.
	gocv.Erode(imgDelta, &imgDelta, m.knl)
	gocv.Dilate(imgDelta, &imgDelta, m.knl)

	// Fill small holes.
	gocv.Dilate(imgDelta, &imgDelta, m.knl)
	gocv.Erode(imgDelta, &imgDelta, m.knl)

	contours := largeContours(imgDelta, m.area)

	// Draw debug information.
	m.debugging.show(gray, imgDelta, contours)

	return len(contours) > 0
}
