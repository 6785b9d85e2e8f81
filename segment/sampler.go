/*
DESCRIPTION
  sampler.go provides selection and persistence of frames inside a wagon's
  present span.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package segment

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/ausocean/utils/logging"
	"github.com/ausocean/wagon/video"
)

// JPEG quality used when persisting frames.
const jpegQuality = 95

// Sample is a persisted frame of a wagon.
type Sample struct {
	Index int
	Path  string
}

// Sink persists a frame belonging to a wagon and returns where it was stored.
type Sink interface {
	Persist(ordinal int, f video.Frame) (string, error)
}

// FramePath returns the path of the frame with the given stream index for
// the given wagon, i.e. <dir>/wagon_<ordinal>_frame_<index>.<ext>.
func FramePath(dir string, ordinal, index int, ext string) string {
	return filepath.Join(dir, fmt.Sprintf("wagon_%d_frame_%d.%s", ordinal, index, ext))
}

// DiskSink is a Sink that writes frames as image files into a directory.
type DiskSink struct {
	dir string
	ext string
}

// NewDiskSink returns a new DiskSink writing into dir, creating it if needed.
// format is one of jpg, jpeg or png.
func NewDiskSink(dir, format string) (*DiskSink, error) {
	ext := strings.ToLower(strings.TrimPrefix(format, "."))
	if _, err := imaging.FormatFromExtension(ext); err != nil {
		return nil, fmt.Errorf("unsupported frame format %q: %w", format, err)
	}
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, fmt.Errorf("could not create frame directory: %w", err)
	}
	return &DiskSink{dir: dir, ext: ext}, nil
}

// Persist implements Sink.
func (d *DiskSink) Persist(ordinal int, f video.Frame) (string, error) {
	path := FramePath(d.dir, ordinal, f.Index, d.ext)
	err := imaging.Save(f.Image, path, imaging.JPEGQuality(jpegQuality))
	if err != nil {
		return "", fmt.Errorf("could not save frame: %w", err)
	}
	return path, nil
}

// Sampler selects the frames of a wagon to persist: those whose absolute
// stream index is a multiple of the interval.
type Sampler struct {
	interval int
	sink     Sink
	log      logging.Logger
}

// NewSampler returns a new Sampler persisting every interval'th frame to sink.
func NewSampler(interval uint, sink Sink, l logging.Logger) (*Sampler, error) {
	if interval == 0 {
		return nil, fmt.Errorf("frame interval must be positive")
	}
	return &Sampler{interval: int(interval), sink: sink, log: l}, nil
}

// Selected returns true if the frame at idx should be persisted.
func (s *Sampler) Selected(idx int) bool { return idx%s.interval == 0 }

// Sample persists f for the wagon if it is selected. A failed write is logged
// and the frame is skipped.
func (s *Sampler) Sample(ordinal int, f video.Frame) (Sample, bool) {
	if !s.Selected(f.Index) {
		return Sample{}, false
	}
	path, err := s.sink.Persist(ordinal, f)
	if err != nil {
		s.log.Error("could not persist frame", "wagon", ordinal, "index", f.Index, "error", err.Error())
		return Sample{}, false
	}
	s.log.Debug("saved frame", "wagon", ordinal, "path", path)
	return Sample{Index: f.Index, Path: path}, true
}
