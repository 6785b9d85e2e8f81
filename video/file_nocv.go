//go:build !withcv
// +build !withcv

/*
DESCRIPTION
  Replaces the OpenCV video decoder when built without OpenCV. Directories
  of frames can still be read.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package video

import (
	"fmt"
	"io"

	"github.com/ausocean/utils/logging"
)

// File is unavailable without OpenCV.
type File struct{}

// OpenFile always fails without OpenCV.
func OpenFile(path string, l logging.Logger) (*File, error) {
	return nil, fmt.Errorf("cannot decode %s: %w", path, ErrNoCV)
}

// Next implements Stream.
func (f *File) Next() (Frame, error) { return Frame{}, io.EOF }

// Close implements Stream.
func (f *File) Close() error { return nil }
