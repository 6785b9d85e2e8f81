/*
DESCRIPTION
  inspect.go provides the pipeline coordinator. It segments the empty and
  filled passes, pairs their wagons by ordinal and runs damage detection and
  volume estimation on each pair.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package inspect coordinates a wagon inspection run over an empty and a
// filled pass of video.
package inspect

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/ausocean/utils/logging"
	"github.com/ausocean/wagon/config"
	"github.com/ausocean/wagon/motion"
	"github.com/ausocean/wagon/segment"
	"github.com/ausocean/wagon/video"
)

// Pass names.
const (
	Empty  = "empty"
	Filled = "filled"
)

// Annotator produces an annotated damage image for the image at path and
// returns the path of the artifact.
type Annotator interface {
	Run(path string) (string, error)
}

// Volumer estimates the material volume between an empty and a filled image
// of the same wagon.
type Volumer interface {
	Volume(emptyPath, filledPath string) (float64, error)
}

// Opener opens a video source.
type Opener func(path string, l logging.Logger) (video.Stream, error)

// DetectorFactory returns a new motion detector. It is called once per pass
// so no background state is shared between passes.
type DetectorFactory func(c config.Config) (motion.Detector, error)

// VolumeResult is the volume estimate of one wagon.
type VolumeResult struct {
	Volume float64
	Err    error // Non-nil if the volume could not be measured.
}

// Measured returns true if the volume was measured.
func (v VolumeResult) Measured() bool { return v.Err == nil }

// Results holds the outcome of an inspection run.
type Results struct {
	Damage  map[int]string       // Annotated damage image by ordinal.
	Volumes map[int]VolumeResult // Volume estimate by ordinal.

	Skipped        []int // Paired ordinals missing a representative frame.
	UnpairedEmpty  []int // Empty pass ordinals beyond the filled count.
	UnpairedFilled []int // Filled pass ordinals beyond the empty count.

	EmptyCount  int
	FilledCount int
}

// Ordinals returns the ordinals with a damage or volume result, in order.
func (r *Results) Ordinals() []int {
	seen := make(map[int]bool)
	var ords []int
	for o := range r.Damage {
		seen[o] = true
		ords = append(ords, o)
	}
	for o := range r.Volumes {
		if !seen[o] {
			ords = append(ords, o)
		}
	}
	sort.Ints(ords)
	return ords
}

// Pipeline runs an inspection.
type Pipeline struct {
	cfg         config.Config
	log         logging.Logger
	open        Opener
	newDetector DetectorFactory
	damage      Annotator
	volume      Volumer
	workers     int
}

// New returns a new Pipeline configured by c and the given options. Without
// an Annotator or Volumer the corresponding stage is skipped.
func New(c config.Config, options ...func(*Pipeline) error) (*Pipeline, error) {
	p := &Pipeline{
		cfg:         c,
		log:         c.Logger,
		open:        video.Open,
		newDetector: motion.New,
		workers:     int(c.Workers),
	}
	for _, option := range options {
		err := option(p)
		if err != nil {
			return nil, fmt.Errorf("could not apply option: %w", err)
		}
	}
	if p.workers < 1 {
		p.workers = 1
	}
	return p, nil
}

// Run segments both passes and processes every paired wagon. Failure to
// open one pass leaves it with zero wagons; Run only fails when neither pass
// can be segmented or ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context) (*Results, error) {
	empty, errE := p.Extract(Empty, p.cfg.EmptyVideo, p.cfg.EmptyFrameDir)
	if errE != nil {
		p.log.Error("could not segment pass", "pass", Empty, "error", errE.Error())
		empty = &segment.Result{}
	}
	filled, errF := p.Extract(Filled, p.cfg.FilledVideo, p.cfg.FilledFrameDir)
	if errF != nil {
		p.log.Error("could not segment pass", "pass", Filled, "error", errF.Error())
		filled = &segment.Result{}
	}
	if errE != nil && errF != nil {
		return nil, multierr.Combine(errE, errF)
	}
	return p.Pair(ctx, empty, filled)
}

// Extract segments the video at src with a fresh detector, persisting
// sampled frames into dir.
func (p *Pipeline) Extract(pass, src, dir string) (*segment.Result, error) {
	p.log.Info("extracting frames", "pass", pass, "video", src)

	s, err := p.open(src, p.log)
	if err != nil {
		return nil, fmt.Errorf("could not open %s video: %w", pass, err)
	}
	defer s.Close()

	det, err := p.newDetector(p.cfg)
	if err != nil {
		return nil, fmt.Errorf("could not create motion detector: %w", err)
	}
	defer det.Close()

	sink, err := segment.NewDiskSink(dir, p.cfg.FrameFormat)
	if err != nil {
		return nil, err
	}
	smp, err := segment.NewSampler(p.cfg.FrameInterval, sink, p.log)
	if err != nil {
		return nil, err
	}

	res, err := segment.New(det, smp, p.log).Run(s)
	if err != nil {
		return nil, fmt.Errorf("could not segment %s video: %w", pass, err)
	}
	p.log.Info("extracted frames", "pass", pass, "wagons", res.Count(), "frames", res.Frames)
	return res, nil
}

// Pair aligns the wagons of the two passes by ordinal and processes every
// pair that has a representative frame on both sides.
func (p *Pipeline) Pair(ctx context.Context, empty, filled *segment.Result) (*Results, error) {
	ce, cf := empty.Count(), filled.Count()
	p.log.Info("wagon counts", "empty", ce, "filled", cf)
	if ce != cf {
		p.log.Warning("wagon count mismatch", "empty", ce, "filled", cf)
	}

	res := &Results{
		Damage:      make(map[int]string),
		Volumes:     make(map[int]VolumeResult),
		EmptyCount:  ce,
		FilledCount: cf,
	}
	n := min(ce, cf)
	for o := n + 1; o <= ce; o++ {
		res.UnpairedEmpty = append(res.UnpairedEmpty, o)
	}
	for o := n + 1; o <= cf; o++ {
		res.UnpairedFilled = append(res.UnpairedFilled, o)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for o := 1; o <= n; o++ {
		ep, eok := p.representative(empty, o)
		fp, fok := p.representative(filled, o)
		if !eok || !fok {
			p.log.Warning("missing images for wagon, skipping", "wagon", o, "empty", eok, "filled", fok)
			res.Skipped = append(res.Skipped, o)
			continue
		}
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p.process(o, ep, fp, res, &mu)
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return res, fmt.Errorf("wagon processing interrupted: %w", err)
	}
	return res, nil
}

// representative returns the path of the frame standing in for wagon o of r.
func (p *Pipeline) representative(r *segment.Result, o int) (string, bool) {
	w, ok := r.Wagon(o)
	if !ok {
		return "", false
	}
	i := int(p.cfg.RepresentativeFrame)
	if i >= len(w.Frames) {
		return "", false
	}
	path := w.Frames[i].Path
	if _, err := os.Stat(path); err != nil {
		p.log.Debug("representative frame unavailable", "wagon", o, "path", path, "error", err.Error())
		return "", false
	}
	return path, true
}

// process runs damage detection and volume estimation for wagon o.
func (p *Pipeline) process(o int, emptyPath, filledPath string, res *Results, mu *sync.Mutex) {
	if p.damage != nil {
		out, err := p.damage.Run(emptyPath)
		if err != nil {
			p.log.Error("damage detection failed", "wagon", o, "error", err.Error())
		} else {
			p.log.Info("damage detected", "wagon", o, "output", out)
			mu.Lock()
			res.Damage[o] = out
			mu.Unlock()
		}
	}

	if p.volume != nil {
		v, err := p.volume.Volume(emptyPath, filledPath)
		if err != nil {
			p.log.Error("volume estimation failed", "wagon", o, "error", err.Error())
		} else {
			p.log.Info("estimated volume", "wagon", o, "volume", v)
		}
		mu.Lock()
		res.Volumes[o] = VolumeResult{Volume: v, Err: err}
		mu.Unlock()
	}
}
