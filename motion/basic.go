/*
DESCRIPTION
  A motion detector that keeps a running average background model in pure
  Go. Pixels that deviate from the background are marked foreground, the
  mask is binarized and its 8-connected regions are measured; a frame has
  motion if any region is larger than the configured minimum area.

AUTHORS
  Ella Pietraroia <ella@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package motion

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ausocean/utils/logging"
	"github.com/ausocean/wagon/config"
)

const (
	defaultBasicHistory   = 500
	defaultBasicThreshold = 50.0
	defaultBasicCut       = 200
)

// Foreground pixels still leak into the background at this fraction of the
// learning rate, so objects present at stream start eventually clear.
const foregroundLearn = 0.05

// Basic is a motion detector using a running average background model.
type Basic struct {
	log     logging.Logger
	area    float64 // Region area in pixels that must be exceeded for motion.
	history uint    // Number of frames the background is seeded over.
	thresh  float64 // Deviation from the background that marks a pixel foreground.
	cut     uint8   // Binarization cut applied to the foreground mask.

	bg   []float64 // Background intensity per pixel.
	mask []uint8   // Foreground mask of the latest frame.
	w, h int
	n    uint // Frames seen.

	seen  []bool // Scratch space for region labelling.
	stack []int
}

// NewBasic returns a pointer to a new Basic motion detector.
func NewBasic(c config.Config) *Basic {
	// Validate parameters.
	if c.MotionHistory == 0 {
		c.LogInvalidField("MotionHistory", defaultBasicHistory)
		c.MotionHistory = defaultBasicHistory
	}
	if c.MotionVarThreshold <= 0 {
		c.LogInvalidField("MotionVarThreshold", defaultBasicThreshold)
		c.MotionVarThreshold = defaultBasicThreshold
	}
	if c.MotionBinaryThreshold == 0 || c.MotionBinaryThreshold > 255 {
		c.LogInvalidField("MotionBinaryThreshold", defaultBasicCut)
		c.MotionBinaryThreshold = defaultBasicCut
	}

	return &Basic{
		log:     c.Logger,
		area:    c.MotionMinArea,
		history: c.MotionHistory,
		thresh:  c.MotionVarThreshold,
		cut:     uint8(c.MotionBinaryThreshold),
	}
}

// Close implements io.Closer.
func (b *Basic) Close() error { return nil }

// Detect performs the motion detection on a frame. It returns true
// if motion is detected.
func (b *Basic) Detect(img image.Image) bool {
	gray := imaging.Grayscale(img)
	w, h := gray.Rect.Dx(), gray.Rect.Dy()

	// The first frame, or a change in frame size, seeds a new background.
	if b.bg == nil || w != b.w || h != b.h {
		if b.bg != nil {
			b.log.Warning("frame size changed, reseeding background", "width", w, "height", h)
		}
		b.seed(gray, w, h)
		return false
	}

	// Learning rate averages over the frames seen until the history
	// window is full, after which it becomes an exponential average.
	b.n++
	alpha := 1 / float64(min(b.n, b.history))
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+4*w]
		for x := 0; x < w; x++ {
			i := y*w + x
			v := float64(row[4*x])
			d := v - b.bg[i]
			if math.Abs(d) > b.thresh {
				b.mask[i] = 0xff
				b.bg[i] += alpha * foregroundLearn * d
			} else {
				b.mask[i] = 0x00
				b.bg[i] += alpha * d
			}
		}
	}

	return b.largestRegion(b.area) > b.area
}

func (b *Basic) seed(gray *image.NRGBA, w, h int) {
	b.w, b.h, b.n = w, h, 1
	b.bg = make([]float64, w*h)
	b.mask = make([]uint8, w*h)
	b.seen = make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			b.bg[y*w+x] = float64(gray.Pix[y*gray.Stride+4*x])
		}
	}
}

// largestRegion returns the pixel area of the largest 8-connected region of
// the binarized mask. It returns early once a region larger than limit is
// found.
func (b *Basic) largestRegion(limit float64) float64 {
	for i := range b.seen {
		b.seen[i] = false
	}

	var largest int
	for start, v := range b.mask {
		if v <= b.cut || b.seen[start] {
			continue
		}

		area := 0
		b.seen[start] = true
		b.stack = append(b.stack[:0], start)
		for len(b.stack) > 0 {
			p := b.stack[len(b.stack)-1]
			b.stack = b.stack[:len(b.stack)-1]
			area++

			px, py := p%b.w, p/b.w
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					x, y := px+dx, py+dy
					if x < 0 || y < 0 || x >= b.w || y >= b.h {
						continue
					}
					q := y*b.w + x
					if b.seen[q] || b.mask[q] <= b.cut {
						continue
					}
					b.seen[q] = true
					b.stack = append(b.stack, q)
				}
			}
		}

		if area > largest {
			largest = area
			if float64(largest) > limit {
				break
			}
		}
	}
	return float64(largest)
}
