/*
DESCRIPTION
  dir.go provides a Stream over a directory of pre-decoded image frames.

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
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ausocean/utils/logging"
	"github.com/disintegration/imaging"
	"github.com/maruel/natural"
)

// Dir is a Stream of the image files in a directory, read in natural order
// of their names so that frame_2 comes before frame_10.
type Dir struct {
	path  string
	files []string
	n     int
	log   logging.Logger
	mu    sync.Mutex
}

// OpenDir returns a new Dir for the image files at path.
func OpenDir(path string, l logging.Logger) (*Dir, error) {
	files, err := ImageFiles(path)
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return natural.Less(files[i], files[j]) })
	l.Debug("opened frame directory", "path", path, "frames", len(files))
	return &Dir{path: path, files: files, log: l}, nil
}

// Next implements Stream. A frame that cannot be decoded ends the stream.
func (d *Dir) Next() (Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.files == nil {
		return Frame{}, errors.New("frame directory is closed")
	}
	if d.n >= len(d.files) {
		return Frame{}, io.EOF
	}

	name := d.files[d.n]
	img, err := imaging.Open(filepath.Join(d.path, name))
	if err != nil {
		d.log.Warning("could not decode frame, ending stream", "file", name, "error", err.Error())
		d.n = len(d.files)
		return Frame{}, io.EOF
	}
	f := Frame{Index: d.n, Image: img}
	d.n++
	return f, nil
}

// Close implements Stream; further reads will fail.
func (d *Dir) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.files = nil
	return nil
}

// ImageFiles returns the names of the png, jpg and jpeg files in dir in
// lexical order.
func ImageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("could not read frame directory: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg":
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}
