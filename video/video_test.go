/*
DESCRIPTION
  video_test.go provides testing for the in-memory and directory streams.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package video

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ausocean/utils/logging"
	"github.com/disintegration/imaging"
	"github.com/google/go-cmp/cmp"
)

func grayFrame(v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

// drain reads s until it errors, returning the indices read and the final error.
func drain(s Stream) ([]int, error) {
	var idx []int
	for {
		f, err := s.Next()
		if err != nil {
			return idx, err
		}
		idx = append(idx, f.Index)
	}
}

func TestSlice(t *testing.T) {
	s := NewSlice([]image.Image{grayFrame(0), grayFrame(1), grayFrame(2)})
	got, err := drain(s)
	if err != io.EOF {
		t.Fatalf("expected io.EOF, got: %v", err)
	}
	if want := []int{0, 1, 2}; !cmp.Equal(got, want) {
		t.Errorf("unexpected indices\nwant: %v\ngot: %v", want, got)
	}
}

func TestDir(t *testing.T) {
	dir := t.TempDir()
	for i, name := range []string{"frame_002.png", "frame_000.png", "frame_001.jpg"} {
		err := imaging.Save(grayFrame(uint8(i*10)), filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("could not write frame: %v", err)
		}
	}
	err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a frame"), 0644)
	if err != nil {
		t.Fatalf("could not write file: %v", err)
	}

	s, err := Open(dir, (*logging.TestLogger)(t))
	if err != nil {
		t.Fatalf("could not open frame directory: %v", err)
	}
	defer s.Close()

	var got []color.Gray
	for {
		f, err := s.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, color.GrayModel.Convert(f.Image.At(0, 0)).(color.Gray))
	}

	// Lexical order: frame_000 (10), frame_001 (20, lossy), frame_002 (0).
	if len(got) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(got))
	}
	if got[0].Y != 10 || got[2].Y != 0 {
		t.Errorf("frames not read in name order: %v", got)
	}
}

func TestDirNaturalOrder(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 12; i++ {
		err := imaging.Save(grayFrame(uint8(i*20)), filepath.Join(dir, fmt.Sprintf("frame_%d.png", i)))
		if err != nil {
			t.Fatalf("could not write frame: %v", err)
		}
	}

	s, err := OpenDir(dir, (*logging.TestLogger)(t))
	if err != nil {
		t.Fatalf("could not open frame directory: %v", err)
	}
	defer s.Close()

	var got []uint8
	for {
		f, err := s.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, color.GrayModel.Convert(f.Image.At(0, 0)).(color.Gray).Y)
	}
	want := []uint8{0, 20, 40, 60, 80, 100, 120, 140, 160, 180, 200, 220}
	if !cmp.Equal(got, want) {
		t.Errorf("frames not read in numeric order\nwant: %v\ngot:  %v", want, got)
	}

	// Batch pairing keeps plain name order.
	names, err := ImageFiles(dir)
	if err != nil {
		t.Fatalf("could not list frames: %v", err)
	}
	if names[2] != "frame_10.png" {
		t.Errorf("expected lexical order from ImageFiles, got: %v", names)
	}
}

func TestDirCorruptFrameEndsStream(t *testing.T) {
	dir := t.TempDir()
	err := imaging.Save(grayFrame(5), filepath.Join(dir, "a.png"))
	if err != nil {
		t.Fatalf("could not write frame: %v", err)
	}
	err = os.WriteFile(filepath.Join(dir, "b.jpg"), []byte("garbage"), 0644)
	if err != nil {
		t.Fatalf("could not write file: %v", err)
	}
	err = imaging.Save(grayFrame(6), filepath.Join(dir, "c.png"))
	if err != nil {
		t.Fatalf("could not write frame: %v", err)
	}

	s, err := OpenDir(dir, (*logging.TestLogger)(t))
	if err != nil {
		t.Fatalf("could not open frame directory: %v", err)
	}
	got, err := drain(s)
	if err != io.EOF {
		t.Fatalf("expected io.EOF, got: %v", err)
	}
	if want := []int{0}; !cmp.Equal(got, want) {
		t.Errorf("unexpected indices\nwant: %v\ngot: %v", want, got)
	}
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.mp4"), (*logging.TestLogger)(t))
	if err == nil {
		t.Fatal("expected error opening missing source")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not exist error, got: %v", err)
	}
}

func TestMJPEG(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < 3; i++ {
		err := imaging.Encode(&buf, grayFrame(uint8(i*100)), imaging.JPEG)
		if err != nil {
			t.Fatalf("could not encode frame: %v", err)
		}
	}
	var tail bytes.Buffer
	err := imaging.Encode(&tail, grayFrame(0), imaging.JPEG)
	if err != nil {
		t.Fatalf("could not encode frame: %v", err)
	}
	buf.Write(tail.Bytes()[:tail.Len()/2])

	path := filepath.Join(t.TempDir(), "pass.mjpeg")
	err = os.WriteFile(path, buf.Bytes(), 0644)
	if err != nil {
		t.Fatalf("could not write file: %v", err)
	}

	s, err := Open(path, (*logging.TestLogger)(t))
	if err != nil {
		t.Fatalf("could not open mjpeg: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*MJPEG); !ok {
		t.Fatalf("expected mjpeg stream, got %T", s)
	}

	got, err := drain(s)
	if err != io.EOF {
		t.Fatalf("expected io.EOF, got: %v", err)
	}
	if want := []int{0, 1, 2}; !cmp.Equal(got, want) {
		t.Errorf("unexpected indices\nwant: %v\ngot: %v", want, got)
	}
}

func TestLexJPEGNotJPEG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.mjpg")
	err := os.WriteFile(path, []byte("not a jpeg stream"), 0644)
	if err != nil {
		t.Fatalf("could not write file: %v", err)
	}
	m, err := OpenMJPEG(path, (*logging.TestLogger)(t))
	if err != nil {
		t.Fatalf("could not open mjpeg: %v", err)
	}
	defer m.Close()
	if _, err := m.Next(); err != io.EOF {
		t.Errorf("expected io.EOF for invalid stream, got: %v", err)
	}
}
