/*
DESCRIPTION
  depth.go provides the normalized depth field type, the estimator interface
  and the min/max normalization shared by all estimators.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package depth provides relative depth estimation for wagon images and the
// estimation of carried material volume from the depth difference between
// an empty and a filled image of the same wagon.
package depth

import (
	"image"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// ErrEstimation is wrapped by every error that prevents a volume from being
// measured.
var ErrEstimation = errors.New("depth estimation failed")

// ErrSizeMismatch is returned when the depth fields of a pair have
// different dimensions.
var ErrSizeMismatch = errors.Wrap(ErrEstimation, "depth field sizes differ")

// Estimator produces a normalized depth field from the image at path.
type Estimator interface {
	Estimate(path string) (*Field, error)
}

// Field is a per-pixel relative depth map, normalized to [0,255] from the
// raw range of the image it was estimated from. Fields of different images
// are only comparable through this local normalization.
type Field struct {
	W, H int
	Pix  []uint8 // Row major, W*H values.
}

// Gray returns the field as a grayscale image.
func (f *Field) Gray() *image.Gray {
	return &image.Gray{Pix: f.Pix, Stride: f.W, Rect: image.Rect(0, 0, f.W, f.H)}
}

// Normalize maps raw, a w by h row major depth map, linearly onto [0,255]
// using its own minimum and maximum, truncating to 8 bits. A flat map
// normalizes to all zeros.
func Normalize(raw []float32, w, h int) (*Field, error) {
	if w <= 0 || h <= 0 || len(raw) != w*h {
		return nil, errors.Wrapf(ErrEstimation, "raw depth map of length %d does not fit %dx%d", len(raw), w, h)
	}

	v := make([]float64, len(raw))
	for i, r := range raw {
		v[i] = float64(r)
	}
	lo, hi := floats.Min(v), floats.Max(v)

	f := &Field{W: w, H: h, Pix: make([]uint8, len(v))}
	if hi == lo {
		return f, nil
	}
	scale := 255 / (hi - lo)
	for i, d := range v {
		f.Pix[i] = uint8((d - lo) * scale)
	}
	return f, nil
}
