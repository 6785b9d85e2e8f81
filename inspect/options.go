/*
DESCRIPTION
  options.go provides option functions that can be provided to the Pipeline
  constructor New. These select the perception capabilities, the video
  source and the degree of per-wagon concurrency.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package inspect

import "errors"

var (
	ErrNilOption      = errors.New("nil option value")
	ErrInvalidWorkers = errors.New("invalid worker count")
)

// WithAnnotator is an option that can be passed to New to enable damage
// detection on the empty frame of each wagon.
func WithAnnotator(a Annotator) func(*Pipeline) error {
	return func(p *Pipeline) error {
		if a == nil {
			return ErrNilOption
		}
		p.damage = a
		p.log.Debug("damage detection enabled")
		return nil
	}
}

// WithVolumer is an option that can be passed to New to enable volume
// estimation for each wagon pair.
func WithVolumer(v Volumer) func(*Pipeline) error {
	return func(p *Pipeline) error {
		if v == nil {
			return ErrNilOption
		}
		p.volume = v
		p.log.Debug("volume estimation enabled")
		return nil
	}
}

// WithOpener is an option that can be passed to New to replace the video
// source opener, video.Open by default.
func WithOpener(o Opener) func(*Pipeline) error {
	return func(p *Pipeline) error {
		if o == nil {
			return ErrNilOption
		}
		p.open = o
		return nil
	}
}

// WithDetector is an option that can be passed to New to replace the motion
// detector factory, motion.New by default.
func WithDetector(f DetectorFactory) func(*Pipeline) error {
	return func(p *Pipeline) error {
		if f == nil {
			return ErrNilOption
		}
		p.newDetector = f
		return nil
	}
}

// Workers is an option that can be passed to New to set the number of
// wagons processed concurrently, overriding the config.
func Workers(n int) func(*Pipeline) error {
	return func(p *Pipeline) error {
		if n < 1 {
			return ErrInvalidWorkers
		}
		p.workers = n
		p.log.Debug("configured workers", "workers", n)
		return nil
	}
}
