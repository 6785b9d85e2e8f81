/*
DESCRIPTION
  differencer.go provides volume estimation by differencing the depth fields
  of an empty and a filled image of the same wagon.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package depth

import (
	"path/filepath"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/ausocean/utils/logging"
	"github.com/ausocean/wagon/video"
)

// Differencer estimates material volume from pairs of wagon images.
type Differencer struct {
	est       Estimator
	pixelArea float64
	log       logging.Logger
}

// NewDifferencer returns a new Differencer. pixelArea scales the summed
// depth difference into volume units.
func NewDifferencer(est Estimator, pixelArea float64, l logging.Logger) *Differencer {
	return &Differencer{est: est, pixelArea: pixelArea, log: l}
}

// Volume returns the material volume between the empty and filled images.
// A volume of zero with a nil error means no material was found; any
// failure to measure returns zero and an error wrapping ErrEstimation.
func (d *Differencer) Volume(emptyPath, filledPath string) (float64, error) {
	empty, err := d.estimate(emptyPath)
	if err != nil {
		return 0, err
	}
	filled, err := d.estimate(filledPath)
	if err != nil {
		return 0, err
	}

	diff, err := Difference(empty, filled)
	if err != nil {
		return 0, err
	}
	v := floats.Sum(diff) * d.pixelArea
	d.log.Debug("computed volume", "empty", emptyPath, "filled", filledPath, "volume", v)
	return v, nil
}

func (d *Differencer) estimate(path string) (*Field, error) {
	f, err := d.est.Estimate(path)
	if errors.Is(err, ErrEstimation) {
		return nil, err
	}
	if err != nil {
		return nil, errors.Wrapf(ErrEstimation, "%s: %v", path, err)
	}
	if f == nil {
		return nil, errors.Wrapf(ErrEstimation, "%s: no depth field", path)
	}
	return f, nil
}

// Difference returns filled minus empty per pixel, with negative values
// clamped to zero.
func Difference(empty, filled *Field) ([]float64, error) {
	if empty.W != filled.W || empty.H != filled.H {
		return nil, errors.Wrapf(ErrSizeMismatch, "empty %dx%d, filled %dx%d", empty.W, empty.H, filled.W, filled.H)
	}
	diff := make([]float64, len(empty.Pix))
	for i := range diff {
		if d := float64(filled.Pix[i]) - float64(empty.Pix[i]); d > 0 {
			diff[i] = d
		}
	}
	return diff, nil
}

// Pair is the volume estimate of one pair of images matched by position.
type Pair struct {
	Wagon  int // 1-based position in the sorted listings.
	Empty  string
	Filled string
	Volume float64
	Err    error
}

// PairDirs lists the images in emptyDir and filledDir in name order and
// estimates the volume of each pair at the same position. Surplus images in
// the longer listing are ignored.
func (d *Differencer) PairDirs(emptyDir, filledDir string) ([]Pair, error) {
	empty, err := video.ImageFiles(emptyDir)
	if err != nil {
		return nil, errors.Wrap(err, "could not list empty frames")
	}
	filled, err := video.ImageFiles(filledDir)
	if err != nil {
		return nil, errors.Wrap(err, "could not list filled frames")
	}
	if len(empty) != len(filled) {
		d.log.Warning("frame count mismatch", "empty", len(empty), "filled", len(filled))
	}

	n := min(len(empty), len(filled))
	pairs := make([]Pair, 0, n)
	for i := 0; i < n; i++ {
		p := Pair{
			Wagon:  i + 1,
			Empty:  filepath.Join(emptyDir, empty[i]),
			Filled: filepath.Join(filledDir, filled[i]),
		}
		p.Volume, p.Err = d.Volume(p.Empty, p.Filled)
		if p.Err != nil {
			d.log.Error("could not estimate volume", "wagon", p.Wagon, "error", p.Err.Error())
		} else {
			d.log.Info("estimated volume", "wagon", p.Wagon, "volume", p.Volume)
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}
