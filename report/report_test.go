/*
DESCRIPTION
  report_test.go provides testing for PDF report generation and the volume
  summary.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package report

import (
	"bytes"
	"image"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ausocean/utils/logging"
	"github.com/ausocean/wagon/depth"
	"github.com/ausocean/wagon/inspect"
)

func results(t *testing.T, n int) *inspect.Results {
	dir := t.TempDir()
	r := &inspect.Results{
		Damage:        make(map[int]string),
		Volumes:       make(map[int]inspect.VolumeResult),
		Skipped:       []int{2},
		UnpairedEmpty: []int{n + 1, n + 2},
		EmptyCount:    n + 2,
		FilledCount:   n,
	}
	for o := 1; o <= n; o++ {
		if o == 2 {
			continue
		}
		path := filepath.Join(dir, "wagon.png")
		if o%3 == 0 {
			path = filepath.Join(dir, "missing.png")
		}
		r.Damage[o] = path
		r.Volumes[o] = inspect.VolumeResult{Volume: float64(o) * 10.5}
	}
	r.Volumes[1] = inspect.VolumeResult{Err: depth.ErrEstimation}

	err := imaging.Save(image.NewRGBA(image.Rect(0, 0, 64, 32)), filepath.Join(dir, "wagon.png"))
	if err != nil {
		t.Fatalf("could not write damage image: %v", err)
	}
	return r
}

func TestGenerate(t *testing.T) {
	for _, n := range []int{0, 3, 25} {
		var buf bytes.Buffer
		err := Generate(&buf, "Wagon Damage & Volume Report", results(t, n), (*logging.TestLogger)(t))
		if err != nil {
			t.Fatalf("%d wagons: unexpected error: %v", n, err)
		}
		if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
			t.Errorf("%d wagons: output is not a pdf", n)
		}
	}
}

func TestLayout(t *testing.T) {
	tests := []struct {
		wagons   int
		want     []string
		absent   []string
		minPages int
		maxPages int
	}{
		{
			wagons: 0,
			want: []string{
				"Title",
				"Damage Detection Results",
				"Material Volume Estimations",
				"Summary",
				"Wagons counted: 2 empty, 0 filled",
				"Wagon 1: could not measure",
				"Volumes measured: 0, could not measure: 1",
				"Skipped (missing images): 2",
				"Unpaired empty wagons: 1, 2",
			},
			absent:   []string{"Total volume: 0.00 cubic meters"},
			minPages: 1,
			maxPages: 1,
		},
		{
			wagons: 3,
			want: []string{
				"Wagon 1: Damage Detected",
				"Wagon 3: Damage Detected",
				"No Image Available",
				"Wagon 1: could not measure",
				"Wagon 3: 31.50 cubic meters",
				"Volumes measured: 1, could not measure: 1",
				"Total volume: 31.50 cubic meters",
				"Skipped (missing images): 2",
				"Unpaired empty wagons: 4, 5",
			},
			absent:   []string{"Wagon 2: Damage Detected", "Unpaired filled wagons: "},
			minPages: 2,
			maxPages: 2,
		},
		{
			wagons: 25,
			want: []string{
				"Wagon 25: Damage Detected",
				"Wagon 24: 252.00 cubic meters",
				"Unpaired empty wagons: 26, 27",
			},
			minPages: 4,
			maxPages: 100,
		},
	}

	for _, test := range tests {
		w, err := layout("Title", results(t, test.wagons), (*logging.TestLogger)(t))
		if err != nil {
			t.Fatalf("%d wagons: unexpected error: %v", test.wagons, err)
		}
		lines := make(map[string]bool)
		for _, l := range w.lines {
			lines[l] = true
		}
		for _, s := range test.want {
			if !lines[s] {
				t.Errorf("%d wagons: missing line %q\ngot: %q", test.wagons, s, w.lines)
			}
		}
		for _, s := range test.absent {
			if lines[s] {
				t.Errorf("%d wagons: unexpected line %q", test.wagons, s)
			}
		}
		if w.pages < test.minPages || w.pages > test.maxPages {
			t.Errorf("%d wagons: got %d pages, want %d to %d", test.wagons, w.pages, test.minPages, test.maxPages)
		}
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "wagon_report.pdf")
	err := WriteFile(path, "Report", results(t, 4), (*logging.TestLogger)(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("could not read report: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Error("report is not a pdf")
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		vols map[int]inspect.VolumeResult
		want Summary
	}{
		{
			name: "none",
			want: Summary{},
		},
		{
			name: "single",
			vols: map[int]inspect.VolumeResult{1: {Volume: 4}},
			want: Summary{Measured: 1, Total: 4, Mean: 4},
		},
		{
			name: "with failure",
			vols: map[int]inspect.VolumeResult{
				1: {Volume: 2},
				2: {Err: depth.ErrEstimation},
				3: {Volume: 4},
				4: {Volume: 6},
			},
			want: Summary{Measured: 3, Failed: 1, Total: 12, Mean: 4, StdDev: 2},
		},
	}

	for _, test := range tests {
		r := &inspect.Results{Volumes: test.vols}
		got := Summarize(r)
		if !cmp.Equal(got, test.want, cmpopts.EquateApprox(0, 1e-9)) {
			t.Errorf("%s: unexpected summary\nwant: %+v\ngot:  %+v", test.name, test.want, got)
		}
		if math.IsNaN(got.StdDev) {
			t.Errorf("%s: std dev is NaN", test.name)
		}
	}
}
