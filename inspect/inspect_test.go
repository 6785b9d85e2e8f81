/*
DESCRIPTION
  inspect_test.go provides testing for wagon pairing and the inspection
  pipeline.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package inspect

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/utils/logging"
	"github.com/ausocean/wagon/config"
	"github.com/ausocean/wagon/depth"
	"github.com/ausocean/wagon/motion"
	"github.com/ausocean/wagon/segment"
	"github.com/ausocean/wagon/video"
)

// recordLogger keeps warnings so tests can check them.
type recordLogger struct {
	t        *testing.T
	mu       sync.Mutex
	warnings []string
}

func (l *recordLogger) Log(lvl int8, msg string, args ...interface{}) {}
func (l *recordLogger) SetLevel(lvl int8)                             {}
func (l *recordLogger) Debug(msg string, args ...interface{})         {}
func (l *recordLogger) Info(msg string, args ...interface{})          {}

func (l *recordLogger) Error(msg string, args ...interface{}) {
	l.t.Log(append([]interface{}{msg}, args...)...)
}

func (l *recordLogger) Fatal(msg string, args ...interface{}) {
	l.t.Fatal(msg)
}

func (l *recordLogger) Warning(msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, msg)
}

func (l *recordLogger) warned(s string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, w := range l.warnings {
		if strings.Contains(w, s) {
			return true
		}
	}
	return false
}

// stubAnnotator copies nothing and reports an artifact path per input.
type stubAnnotator struct {
	fail map[string]bool
}

func (a *stubAnnotator) Run(path string) (string, error) {
	if a.fail[filepath.Base(path)] {
		return "", errors.New("detection failed")
	}
	return "damage/" + filepath.Base(path), nil
}

// stubVolumer returns a volume derived from the filled path, failing for
// configured names.
type stubVolumer struct {
	fail map[string]bool
}

func (v *stubVolumer) Volume(emptyPath, filledPath string) (float64, error) {
	if v.fail[filepath.Base(filledPath)] {
		return 0, depth.ErrEstimation
	}
	return float64(len(filepath.Base(filledPath))), nil
}

// passResult builds a segmentation result of n wagons, each with one
// persisted frame written to dir. Ordinals in missing have their frame
// removed from disk.
func passResult(t *testing.T, dir string, n int, missing ...int) *segment.Result {
	t.Helper()
	r := &segment.Result{}
	for o := 1; o <= n; o++ {
		idx := o * 10
		path := segment.FramePath(dir, o, idx, "png")
		err := os.WriteFile(path, []byte("frame"), 0644)
		if err != nil {
			t.Fatalf("could not write frame: %v", err)
		}
		r.Wagons = append(r.Wagons, segment.Wagon{
			Ordinal: o, First: idx, Last: idx + 5,
			Frames: []segment.Sample{{Index: idx, Path: path}},
		})
	}
	for _, o := range missing {
		os.Remove(r.Wagons[o-1].Frames[0].Path)
	}
	return r
}

func newPipeline(t *testing.T, l logging.Logger, options ...func(*Pipeline) error) *Pipeline {
	t.Helper()
	c := config.Config{Logger: l, FrameInterval: 1, FrameFormat: "png", Workers: 1}
	p, err := New(c, options...)
	if err != nil {
		t.Fatalf("could not create pipeline: %v", err)
	}
	return p
}

func keys[V any](m map[int]V) []int {
	var k []int
	for o := range m {
		k = append(k, o)
	}
	sort.Ints(k)
	return k
}

func TestPairMismatch(t *testing.T) {
	l := &recordLogger{t: t}
	p := newPipeline(t, l, WithAnnotator(&stubAnnotator{}), WithVolumer(&stubVolumer{}))

	res, err := p.Pair(context.Background(), passResult(t, t.TempDir(), 5), passResult(t, t.TempDir(), 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !l.warned("mismatch") {
		t.Error("expected count mismatch warning")
	}
	if want := []int{1, 2, 3}; !cmp.Equal(keys(res.Damage), want) || !cmp.Equal(keys(res.Volumes), want) {
		t.Errorf("unexpected ordinals\ndamage: %v\nvolumes: %v", keys(res.Damage), keys(res.Volumes))
	}
	if want := []int{4, 5}; !cmp.Equal(res.UnpairedEmpty, want) {
		t.Errorf("unexpected unpaired empty ordinals\nwant: %v\ngot:  %v", want, res.UnpairedEmpty)
	}
	if len(res.UnpairedFilled) != 0 || len(res.Skipped) != 0 {
		t.Errorf("unexpected unpaired filled %v or skipped %v", res.UnpairedFilled, res.Skipped)
	}
	if res.EmptyCount != 5 || res.FilledCount != 3 {
		t.Errorf("unexpected counts: %d, %d", res.EmptyCount, res.FilledCount)
	}
	if want := []int{1, 2, 3}; !cmp.Equal(res.Ordinals(), want) {
		t.Errorf("unexpected ordinals: %v", res.Ordinals())
	}
}

func TestPairMissingFrame(t *testing.T) {
	for _, workers := range []int{1, 3} {
		t.Run(fmt.Sprintf("workers %d", workers), func(t *testing.T) {
			l := &recordLogger{t: t}
			p := newPipeline(t, l, WithAnnotator(&stubAnnotator{}), WithVolumer(&stubVolumer{}), Workers(workers))

			res, err := p.Pair(context.Background(), passResult(t, t.TempDir(), 5), passResult(t, t.TempDir(), 5, 2))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			want := []int{1, 3, 4, 5}
			if !cmp.Equal(keys(res.Damage), want) || !cmp.Equal(keys(res.Volumes), want) {
				t.Errorf("unexpected ordinals\ndamage: %v\nvolumes: %v", keys(res.Damage), keys(res.Volumes))
			}
			if !cmp.Equal(res.Skipped, []int{2}) {
				t.Errorf("expected ordinal 2 skipped, got: %v", res.Skipped)
			}
			if !l.warned("missing") {
				t.Error("expected missing image warning")
			}
			if l.warned("mismatch") {
				t.Error("unexpected count mismatch warning")
			}
		})
	}
}

func TestPairRepresentativeFrame(t *testing.T) {
	l := &recordLogger{t: t}
	c := config.Config{Logger: l, RepresentativeFrame: 1}
	p, err := New(c, WithVolumer(&stubVolumer{}))
	if err != nil {
		t.Fatalf("could not create pipeline: %v", err)
	}

	empty := passResult(t, t.TempDir(), 2)
	filled := passResult(t, t.TempDir(), 2)
	extra := segment.FramePath(filepath.Dir(filled.Wagons[0].Frames[0].Path), 1, 1000, "png")
	err = os.WriteFile(extra, []byte("frame"), 0644)
	if err != nil {
		t.Fatalf("could not write frame: %v", err)
	}
	for _, r := range []*segment.Result{empty, filled} {
		r.Wagons[0].Frames = append(r.Wagons[0].Frames, segment.Sample{Index: 1000, Path: extra})
	}

	res, err := p.Pair(context.Background(), empty, filled)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cmp.Equal(res.Skipped, []int{2}) {
		t.Errorf("expected wagon with one frame skipped, got: %v", res.Skipped)
	}
	if v := res.Volumes[1]; !v.Measured() || v.Volume != float64(len("wagon_1_frame_1000.png")) {
		t.Errorf("second frame not used for wagon 1: %+v", v)
	}
	if len(res.Damage) != 0 {
		t.Errorf("damage recorded without annotator: %v", res.Damage)
	}
}

func TestPairStageFailures(t *testing.T) {
	l := &recordLogger{t: t}
	p := newPipeline(t, l,
		WithAnnotator(&stubAnnotator{fail: map[string]bool{"wagon_1_frame_10.png": true}}),
		WithVolumer(&stubVolumer{fail: map[string]bool{"wagon_2_frame_20.png": true}}),
	)

	res, err := p.Pair(context.Background(), passResult(t, t.TempDir(), 2), passResult(t, t.TempDir(), 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := res.Damage[1]; ok {
		t.Error("damage artifact recorded for failed detection")
	}
	if v, ok := res.Volumes[1]; !ok || !v.Measured() {
		t.Errorf("volume for wagon 1 should be measured despite damage failure: %+v", v)
	}
	v, ok := res.Volumes[2]
	if !ok || v.Measured() || !errors.Is(v.Err, depth.ErrEstimation) || v.Volume != 0 {
		t.Errorf("expected unmeasured volume for wagon 2, got: %+v", v)
	}
}

func TestPairCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := newPipeline(t, &recordLogger{t: t}, WithVolumer(&stubVolumer{}))
	_, err := p.Pair(ctx, passResult(t, t.TempDir(), 3), passResult(t, t.TempDir(), 3))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation error, got: %v", err)
	}
}

// sweep returns n black frames with a white square moving through the
// frames in [first, last] of each span.
func sweep(n int, spans ...[2]int) []image.Image {
	imgs := make([]image.Image, n)
	for i := range imgs {
		img := image.NewRGBA(image.Rect(0, 0, 160, 64))
		draw.Draw(img, img.Bounds(), &image.Uniform{color.Black}, image.Point{}, draw.Src)
		for _, s := range spans {
			if i < s[0] || i > s[1] {
				continue
			}
			x := ((i - s[0]) * 8) % 144
			draw.Draw(img, image.Rect(x, 24, x+16, 40), &image.Uniform{color.White}, image.Point{}, draw.Src)
		}
		imgs[i] = img
	}
	return imgs
}

func TestRun(t *testing.T) {
	streams := map[string][]image.Image{
		"empty.mp4":  sweep(30, [2]int{3, 9}, [2]int{13, 19}, [2]int{23, 27}),
		"filled.mp4": sweep(22, [2]int{2, 8}, [2]int{12, 18}),
	}
	open := func(path string, l logging.Logger) (video.Stream, error) {
		imgs, ok := streams[path]
		if !ok {
			return nil, os.ErrNotExist
		}
		return video.NewSlice(imgs), nil
	}

	dir := t.TempDir()
	l := &recordLogger{t: t}
	c := config.Config{
		Logger:                l,
		EmptyVideo:            "empty.mp4",
		FilledVideo:           "filled.mp4",
		EmptyFrameDir:         filepath.Join(dir, "empty"),
		FilledFrameDir:        filepath.Join(dir, "filled"),
		MotionFilter:          config.MotionBasic,
		MotionMinArea:         100,
		MotionHistory:         500,
		MotionVarThreshold:    50,
		MotionBinaryThreshold: 200,
		FrameInterval:         2,
		FrameFormat:           "png",
		Workers:               2,
	}
	p, err := New(c, WithOpener(open), WithVolumer(&stubVolumer{}), WithAnnotator(&stubAnnotator{}))
	if err != nil {
		t.Fatalf("could not create pipeline: %v", err)
	}

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.EmptyCount != 3 || res.FilledCount != 2 {
		t.Fatalf("unexpected wagon counts: empty %d, filled %d", res.EmptyCount, res.FilledCount)
	}
	if !cmp.Equal(res.UnpairedEmpty, []int{3}) {
		t.Errorf("unexpected unpaired empty: %v", res.UnpairedEmpty)
	}
	if want := []int{1, 2}; !cmp.Equal(res.Ordinals(), want) {
		t.Errorf("unexpected ordinals: %v", res.Ordinals())
	}

	// The first persisted frame of each wagon is the first even index of its span.
	want := map[int]string{1: "damage/wagon_1_frame_4.png", 2: "damage/wagon_2_frame_14.png"}
	if !cmp.Equal(res.Damage, want) {
		t.Errorf("unexpected damage artifacts\nwant: %v\ngot:  %v", want, res.Damage)
	}
	if v := res.Volumes[2]; v.Volume != float64(len("wagon_2_frame_12.png")) {
		t.Errorf("unexpected filled frame used for wagon 2: %+v", v)
	}
}

// patternDetector reports motion for frames marked '#' in its pattern.
type patternDetector struct {
	pattern string
	n       int
}

func (d *patternDetector) Detect(img image.Image) bool {
	present := d.n < len(d.pattern) && d.pattern[d.n] == '#'
	d.n++
	return present
}

func (d *patternDetector) Close() error { return nil }

func TestRunWithDetector(t *testing.T) {
	patterns := map[string]string{
		"empty.mp4":  "..##..##..",
		"filled.mp4": ".###......##",
	}
	open := func(path string, l logging.Logger) (video.Stream, error) {
		imgs := make([]image.Image, len(patterns[path]))
		for i := range imgs {
			imgs[i] = image.NewGray(image.Rect(0, 0, 8, 8))
		}
		return video.NewSlice(imgs), nil
	}

	// Passes are extracted in order, so detectors are handed out in order.
	var made []string
	detector := func(c config.Config) (motion.Detector, error) {
		name := []string{"empty.mp4", "filled.mp4"}[len(made)]
		made = append(made, name)
		return &patternDetector{pattern: patterns[name]}, nil
	}

	dir := t.TempDir()
	c := config.Config{
		Logger:         &recordLogger{t: t},
		EmptyVideo:     "empty.mp4",
		FilledVideo:    "filled.mp4",
		EmptyFrameDir:  filepath.Join(dir, "empty"),
		FilledFrameDir: filepath.Join(dir, "filled"),
		FrameInterval:  1,
		FrameFormat:    "png",
	}
	p, err := New(c, WithOpener(open), WithDetector(detector), WithVolumer(&stubVolumer{}), WithAnnotator(&stubAnnotator{}))
	if err != nil {
		t.Fatalf("could not create pipeline: %v", err)
	}

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(made) != 2 {
		t.Fatalf("expected one detector per pass, got %d", len(made))
	}
	if res.EmptyCount != 2 || res.FilledCount != 2 {
		t.Fatalf("unexpected wagon counts: empty %d, filled %d", res.EmptyCount, res.FilledCount)
	}
	want := map[int]string{1: "damage/wagon_1_frame_2.png", 2: "damage/wagon_2_frame_6.png"}
	if !cmp.Equal(res.Damage, want) {
		t.Errorf("unexpected damage artifacts\nwant: %v\ngot:  %v", want, res.Damage)
	}
	if got := keys(res.Volumes); !cmp.Equal(got, []int{1, 2}) {
		t.Errorf("unexpected volume ordinals: %v", got)
	}
}

func TestRunOnePassUnopenable(t *testing.T) {
	open := func(path string, l logging.Logger) (video.Stream, error) {
		if path == "filled.mp4" {
			return nil, os.ErrNotExist
		}
		return video.NewSlice(sweep(12, [2]int{2, 6})), nil
	}
	dir := t.TempDir()
	c := config.Config{
		Logger:                &recordLogger{t: t},
		EmptyVideo:            "empty.mp4",
		FilledVideo:           "filled.mp4",
		EmptyFrameDir:         filepath.Join(dir, "empty"),
		FilledFrameDir:        filepath.Join(dir, "filled"),
		MotionMinArea:         100,
		MotionHistory:         500,
		MotionVarThreshold:    50,
		MotionBinaryThreshold: 200,
		FrameInterval:         1,
		FrameFormat:           "png",
	}
	p, err := New(c, WithOpener(open))
	if err != nil {
		t.Fatalf("could not create pipeline: %v", err)
	}
	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.EmptyCount != 1 || res.FilledCount != 0 {
		t.Errorf("unexpected counts: empty %d, filled %d", res.EmptyCount, res.FilledCount)
	}
	if !cmp.Equal(res.UnpairedEmpty, []int{1}) {
		t.Errorf("unexpected unpaired empty: %v", res.UnpairedEmpty)
	}
}

func TestRunBothPassesUnopenable(t *testing.T) {
	open := func(path string, l logging.Logger) (video.Stream, error) { return nil, os.ErrNotExist }
	c := config.Config{Logger: &recordLogger{t: t}, EmptyVideo: "a", FilledVideo: "b", FrameInterval: 1}
	p, err := New(c, WithOpener(open))
	if err != nil {
		t.Fatalf("could not create pipeline: %v", err)
	}
	_, err = p.Run(context.Background())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not exist error, got: %v", err)
	}
}

func TestOptionErrors(t *testing.T) {
	c := config.Config{Logger: &recordLogger{t: t}}
	if _, err := New(c, Workers(0)); !errors.Is(err, ErrInvalidWorkers) {
		t.Errorf("expected invalid workers error, got: %v", err)
	}
	if _, err := New(c, WithOpener(nil)); !errors.Is(err, ErrNilOption) {
		t.Errorf("expected nil option error, got: %v", err)
	}
	if _, err := New(c, WithDetector(nil)); !errors.Is(err, ErrNilOption) {
		t.Errorf("expected nil option error, got: %v", err)
	}
}
