//go:build withcv
// +build withcv

/*
DESCRIPTION
  file.go provides a Stream over a video container decoded with OpenCV.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package video

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ausocean/utils/logging"
)

// File is a Stream of the frames of a video file.
type File struct {
	path string
	cap  *gocv.VideoCapture
	img  gocv.Mat
	n    int
	log  logging.Logger
	mu   sync.Mutex
}

// OpenFile opens the video file at path for decoding.
func OpenFile(path string, l logging.Logger) (*File, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not open video file %s: %w", path, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("could not open video file %s", path)
	}
	l.Debug("opened video file", "path", path, "frames", vc.Get(gocv.VideoCaptureFrameCount))
	return &File{path: path, cap: vc, img: gocv.NewMat(), log: l}, nil
}

// Next implements Stream. A failed read is treated as the end of the video.
func (f *File) Next() (Frame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cap == nil {
		return Frame{}, errors.New("video file is closed")
	}

	if ok := f.cap.Read(&f.img); !ok || f.img.Empty() {
		return Frame{}, io.EOF
	}
	img, err := f.img.ToImage()
	if err != nil {
		f.log.Warning("could not convert frame, ending stream", "index", f.n, "error", err.Error())
		return Frame{}, io.EOF
	}
	fr := Frame{Index: f.n, Image: img}
	f.n++
	return fr, nil
}

// Close frees resources used by gocv. It has to be done manually,
// due to gocv using c-go.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cap == nil {
		return nil
	}
	err := f.cap.Close()
	f.img.Close()
	f.cap = nil
	return err
}
