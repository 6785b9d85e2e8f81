//go:build withcv
// +build withcv

/*
DESCRIPTION
  cv.go provides the frame conversion and contour helpers shared by the
  OpenCV motion detectors.

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

	"gocv.io/x/gocv"
)

// toGray converts img to a single channel Mat. The caller must close it.
func toGray(img image.Image) (gocv.Mat, error) {
	bgr, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("could not convert image to mat: %w", err)
	}
	defer bgr.Close()

	gray := gocv.NewMat()
	gocv.CvtColor(bgr, &gray, gocv.ColorBGRToGray)
	return gray, nil
}

// largeContours returns the external contours of mask whose area exceeds area.
func largeContours(mask gocv.Mat, area float64) [][]image.Point {
	all := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer all.Close()

	var contours [][]image.Point
	for i := 0; i < all.Size(); i++ {
		if gocv.ContourArea(all.At(i)) > area {
			contours = append(contours, all.At(i).ToPoints())
		}
	}
	return contours
}
