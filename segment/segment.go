/*
DESCRIPTION
  segment.go provides the wagon segmenter, a two state machine driven by a
  per-frame motion flag that partitions a video stream into wagon instances.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package segment partitions a video stream into wagon instances using a
// motion detector, and persists a sparse set of frames for each wagon.
package segment

import (
	"errors"
	"io"

	"github.com/ausocean/utils/logging"
	"github.com/ausocean/wagon/motion"
	"github.com/ausocean/wagon/video"
)

// State is the state of the segmenter between frames.
type State int

// Segmenter states.
const (
	Absent State = iota
	Tracking
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Tracking:
		return "tracking"
	default:
		return "unknown"
	}
}

// Wagon is a single wagon instance found in one pass.
type Wagon struct {
	Ordinal int      // 1-based, unique within the pass.
	First   int      // Index of the first frame of the present span.
	Last    int      // Index of the last frame of the present span.
	Frames  []Sample // Persisted frames, in index order.
}

// Result is the outcome of segmenting one stream.
type Result struct {
	Wagons []Wagon
	Frames int // Number of frames read.
}

// Count returns the number of wagons found.
func (r *Result) Count() int { return len(r.Wagons) }

// Wagon returns the wagon with the given ordinal.
func (r *Result) Wagon(ordinal int) (Wagon, bool) {
	if ordinal < 1 || ordinal > len(r.Wagons) {
		return Wagon{}, false
	}
	return r.Wagons[ordinal-1], true
}

// Segmenter holds the motion state of a single stream. A Segmenter must not
// be reused for another stream.
type Segmenter struct {
	det     motion.Detector
	sampler *Sampler
	log     logging.Logger

	state   State
	ordinal int
	cur     *Wagon
	wagons  []Wagon
}

// New returns a new Segmenter using det for motion detection and s for
// frame persistence.
func New(det motion.Detector, s *Sampler, l logging.Logger) *Segmenter {
	return &Segmenter{det: det, sampler: s, log: l}
}

// State returns the current state of the segmenter.
func (s *Segmenter) State() State { return s.state }

// Run reads stream to its end, feeding every frame through the motion
// detector and state machine. A read error other than io.EOF is treated as
// the end of the stream. Run does not close stream.
func (s *Segmenter) Run(stream video.Stream) (*Result, error) {
	var n int
	for {
		f, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.log.Warning("could not read frame, ending stream", "index", n, "error", err.Error())
			break
		}
		s.Step(f)
		n++
	}
	s.finish(n - 1)

	s.log.Info("segmented stream", "frames", n, "wagons", len(s.wagons))
	return &Result{Wagons: s.wagons, Frames: n}, nil
}

// Step advances the state machine by one frame.
func (s *Segmenter) Step(f video.Frame) {
	present := s.det.Detect(f.Image)

	switch s.state {
	case Absent:
		if !present {
			return
		}
		s.open(f.Index)
		s.sample(f)
	case Tracking:
		if !present {
			s.finish(f.Index - 1)
			return
		}
		s.cur.Last = f.Index
		s.sample(f)
	}
}

// open transitions from Absent to Tracking, starting a new wagon.
func (s *Segmenter) open(idx int) {
	s.ordinal++
	s.cur = &Wagon{Ordinal: s.ordinal, First: idx, Last: idx}
	s.state = Tracking
	s.log.Debug("wagon entered", "wagon", s.ordinal, "index", idx)
}

// finish transitions from Tracking to Absent, finalizing the current wagon
// with last as the index of its final present frame.
func (s *Segmenter) finish(last int) {
	if s.state != Tracking {
		return
	}
	s.cur.Last = last
	s.wagons = append(s.wagons, *s.cur)
	s.log.Debug("wagon left", "wagon", s.cur.Ordinal, "first", s.cur.First, "last", last, "frames", len(s.cur.Frames))
	s.cur = nil
	s.state = Absent
}

func (s *Segmenter) sample(f video.Frame) {
	if s.sampler == nil {
		return
	}
	smp, ok := s.sampler.Sample(s.cur.Ordinal, f)
	if ok {
		s.cur.Frames = append(s.cur.Frames, smp)
	}
}
