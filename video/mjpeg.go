/*
DESCRIPTION
  mjpeg.go provides a Stream over a Motion JPEG file, i.e. a series of
  concatenated JPEG images, decoded without OpenCV.

AUTHORS
  Dan Kortschak <dan@ausocean.org>
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package video

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/ausocean/utils/logging"
)

// soi is the JPEG start of image marker.
var soi = []byte{0xff, 0xd8}

// IsMJPEG returns true if path names a Motion JPEG file.
func IsMJPEG(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mjpeg", ".mjpg":
		return true
	}
	return false
}

// MJPEG is a Stream of the frames of a Motion JPEG file.
type MJPEG struct {
	f   *os.File
	r   *bufio.Reader
	n   int
	log logging.Logger
	mu  sync.Mutex
}

// OpenMJPEG opens the Motion JPEG file at path.
func OpenMJPEG(path string, l logging.Logger) (*MJPEG, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open mjpeg file: %w", err)
	}
	l.Debug("opened mjpeg file", "path", path)
	return &MJPEG{f: f, r: bufio.NewReader(f), log: l}, nil
}

// Next implements Stream. A truncated or undecodable frame ends the stream.
func (m *MJPEG) Next() (Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.f == nil {
		return Frame{}, errors.New("mjpeg file is closed")
	}

	buf, err := lexJPEG(m.r)
	if err == io.EOF {
		return Frame{}, io.EOF
	}
	if err != nil {
		m.log.Warning("could not lex frame, ending stream", "index", m.n, "error", err.Error())
		return Frame{}, io.EOF
	}
	img, err := imaging.Decode(bytes.NewReader(buf))
	if err != nil {
		m.log.Warning("could not decode frame, ending stream", "index", m.n, "error", err.Error())
		return Frame{}, io.EOF
	}
	f := Frame{Index: m.n, Image: img}
	m.n++
	return f, nil
}

// Close implements Stream.
func (m *MJPEG) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.f == nil {
		return nil
	}
	err := m.f.Close()
	m.f = nil
	return err
}

// lexJPEG reads the next complete JPEG image from r. It returns io.EOF if r
// is exhausted before a new image starts, and io.ErrUnexpectedEOF if it is
// exhausted part way through one.
func lexJPEG(r *bufio.Reader) ([]byte, error) {
	buf := make([]byte, 2, 4<<10)
	n, err := io.ReadFull(r, buf)
	if n == 0 && err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, io.ErrUnexpectedEOF
	}
	if !bytes.Equal(buf, soi) {
		return nil, fmt.Errorf("not JPEG frame start: %#v", buf)
	}

	nImg := 1
	var last byte
	for {
		b, err := r.ReadByte()
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		if err != nil {
			return nil, err
		}
		buf = append(buf, b)

		if last == 0xff && b == 0xd8 {
			nImg++
		}
		if last == 0xff && b == 0xd9 {
			nImg--
		}
		if nImg == 0 {
			return buf, nil
		}
		last = b
	}
}
