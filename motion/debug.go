//go:build debug && withcv
// +build debug,withcv

/*
DESCRIPTION
  Displays the frame and foreground mask of the OpenCV motion detectors with
  the wagon being tracked, so thresholds can be tuned against real footage.

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
	"image/color"

	"gocv.io/x/gocv"
)

var (
	presentColor = color.RGBA{0, 191, 0, 0}
	absentColor  = color.RGBA{191, 0, 0, 0}
	boxColor     = color.RGBA{191, 31, 31, 0}
)

// debugWindows shows each frame with the wagon it belongs to. Wagons are
// counted the same way the segmenter numbers them: a frame with motion after
// a frame without opens the next wagon.
type debugWindows struct {
	windows []*gocv.Window
	area    float64 // Minimum contour area, shown for reference.
	frame   int
	wagon   int
	present bool
}

// close frees resources used by gocv.
func (d *debugWindows) close() error {
	for _, window := range d.windows {
		err := window.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// newWindows creates debugging windows for the named motion detector.
func newWindows(name string, area float64) debugWindows {
	return debugWindows{
		windows: []*gocv.Window{
			gocv.NewWindow(name + ": Wagons"),
			gocv.NewWindow(name + ": Foreground"),
		},
		area: area,
	}
}

// show draws the wagon state and the bounds and area of each contour over
// the frame, and displays it next to the mask.
func (d *debugWindows) show(img, mask gocv.Mat, contours [][]image.Point) {
	present := len(contours) > 0
	if present && !d.present {
		d.wagon++
	}
	d.present = present
	defer func() { d.frame++ }()

	im := gocv.NewMat()
	defer im.Close()
	gocv.CvtColor(img, &im, gocv.ColorGrayToBGR)

	for _, c := range contours {
		pv := gocv.NewPointVectorFromPoints(c)
		rect := gocv.BoundingRect(pv)
		area := gocv.ContourArea(pv)
		pv.Close()
		gocv.Rectangle(&im, rect, boxColor, 1)
		gocv.PutText(&im, fmt.Sprintf("%.0f", area), rect.Min.Add(image.Pt(2, 14)), gocv.FontHersheyPlain, 1.0, boxColor, 1)
	}

	state, col := "No wagon", absentColor
	if present {
		state, col = fmt.Sprintf("Wagon %d", d.wagon), presentColor
	}
	sz := im.Size()
	gocv.Rectangle(&im, image.Rect(0, 0, sz[1]-1, sz[0]-1), col, 4)
	lines := []string{
		fmt.Sprintf("Frame %d", d.frame),
		state,
		fmt.Sprintf("Min area %.0f", d.area),
	}
	for i, s := range lines {
		gocv.PutText(&im, s, image.Pt(16, 32*(i+1)), gocv.FontHersheyPlain, 2.0, col, 2)
	}

	d.windows[0].IMShow(im)
	d.windows[1].IMShow(mask)
	d.windows[0].WaitKey(1)
}
