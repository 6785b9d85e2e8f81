/*
DESCRIPTION
  video.go provides the frame and stream types consumed by the motion
  segmenter, along with an in-memory stream and a helper for opening a
  video source by path.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package video provides read-once, sequential frame sources for wagon
// segmentation.
package video

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/ausocean/utils/logging"
)

// ErrNoCV is returned by sources that need OpenCV when the binary was built
// without the withcv tag.
var ErrNoCV = errors.New("built without OpenCV support")

// Frame is a single decoded image and its 0-based position in the stream.
type Frame struct {
	Index int
	Image image.Image
}

// Stream is an ordered, finite sequence of frames that may only be read
// once. Next returns io.EOF when the stream is exhausted. Sources report
// decode failures as io.EOF so a damaged tail ends the stream rather than
// aborting the caller.
type Stream interface {
	Next() (Frame, error)
	Close() error
}

// Open opens the video source at path. A directory is read as a sequence of
// image files, a .mjpeg or .mjpg file as concatenated JPEG images, and
// anything else is decoded as a video container.
func Open(path string, l logging.Logger) (Stream, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("could not stat video source: %w", err)
	}
	if fi.IsDir() {
		d, err := OpenDir(path, l)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	if IsMJPEG(path) {
		m, err := OpenMJPEG(path, l)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	f, err := OpenFile(path, l)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Slice is a Stream over in-memory images.
type Slice struct {
	imgs []image.Image
	n    int
}

// NewSlice returns a new Slice that yields imgs in order.
func NewSlice(imgs []image.Image) *Slice { return &Slice{imgs: imgs} }

// Next implements Stream.
func (s *Slice) Next() (Frame, error) {
	if s.n >= len(s.imgs) {
		return Frame{}, io.EOF
	}
	f := Frame{Index: s.n, Image: s.imgs[s.n]}
	s.n++
	return f, nil
}

// Close implements Stream.
func (s *Slice) Close() error {
	s.n = len(s.imgs)
	return nil
}
