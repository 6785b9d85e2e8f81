/*
DESCRIPTION
  summary.go provides aggregate statistics over the volume estimates of an
  inspection run.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package report

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ausocean/wagon/inspect"
)

// Summary holds statistics of the measured volumes of a run.
type Summary struct {
	Measured int     // Wagons with a measured volume.
	Failed   int     // Wagons whose volume could not be measured.
	Total    float64 // Sum of measured volumes.
	Mean     float64
	StdDev   float64 // Sample standard deviation; zero with fewer than two measurements.
}

// Summarize returns the Summary of r.
func Summarize(r *inspect.Results) Summary {
	var s Summary
	var v []float64
	for _, o := range r.Ordinals() {
		res, ok := r.Volumes[o]
		if !ok {
			continue
		}
		if !res.Measured() {
			s.Failed++
			continue
		}
		v = append(v, res.Volume)
	}
	s.Measured = len(v)
	switch len(v) {
	case 0:
	case 1:
		s.Total, s.Mean = v[0], v[0]
	default:
		s.Total = floats.Sum(v)
		s.Mean, s.StdDev = stat.MeanStdDev(v, nil)
	}
	return s
}
