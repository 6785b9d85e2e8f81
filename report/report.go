/*
DESCRIPTION
  report.go renders the results of an inspection run as a PDF document with
  a damage section, a volume section, a run summary and a volume chart.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package report provides PDF reporting of wagon inspection results.
package report

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	xfont "golang.org/x/image/font"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgpdf"

	"github.com/ausocean/utils/logging"
	"github.com/ausocean/wagon/inspect"
)

// Page layout in points on a US letter page.
const (
	pageW = 612
	pageH = 792

	margin  = 100 // Left margin, and the lowest baseline before a page break.
	titleX  = 200
	titleY  = 750
	topY    = 750 // First baseline of a continuation page.
	startY  = 700 // First section baseline of the first page.
	imageW  = 200
	imageH  = 100
	chartH  = 350
	section = 30 // Space before and after a section heading.
	line    = 20
	entry   = 30
)

// Font sizes.
const (
	titleSize   = 14
	headingSize = 12
	bodySize    = 12
)

// writer lays text and images out down successive pages. It keeps the text
// it has written and the number of pages used.
type writer struct {
	c                    *vgpdf.Canvas
	y                    vg.Length
	title, head, regular font.Face
	lines                []string
	pages                int
}

func newWriter() *writer {
	bold := plot.DefaultFont
	bold.Variant = "Sans"
	bold.Weight = xfont.WeightBold
	regular := plot.DefaultFont
	regular.Variant = "Sans"

	c := vgpdf.New(pageW, pageH)
	c.SetColor(color.Black)
	return &writer{
		c:       c,
		y:       startY,
		title:   font.DefaultCache.Lookup(bold, titleSize),
		head:    font.DefaultCache.Lookup(bold, headingSize),
		regular: font.DefaultCache.Lookup(regular, bodySize),
		pages:   1,
	}
}

// fit starts a new page if the next entry would fall below the margin.
func (w *writer) fit() {
	if w.y < margin {
		w.newPage()
	}
}

func (w *writer) newPage() {
	w.c.NextPage()
	w.c.SetColor(color.Black)
	w.y = topY
	w.pages++
}

func (w *writer) text(f font.Face, x, y vg.Length, s string) {
	w.c.FillString(f, vg.Point{X: x, Y: y}, s)
	w.lines = append(w.lines, s)
}

// heading writes a section heading with the usual spacing around it.
func (w *writer) heading(s string) {
	w.y -= section
	w.fit()
	w.text(w.head, margin, w.y, s)
	w.y -= section
}

// entry writes a line of body text and advances by adv.
func (w *writer) entry(s string, adv vg.Length) {
	w.fit()
	w.text(w.regular, margin, w.y, s)
	w.y -= adv
}

// Generate writes a PDF report of r titled title to dst.
func Generate(dst io.Writer, title string, r *inspect.Results, l logging.Logger) error {
	w, err := layout(title, r, l)
	if err != nil {
		return err
	}
	_, err = w.c.WriteTo(dst)
	if err != nil {
		return errors.Wrap(err, "could not write pdf")
	}
	return nil
}

// layout draws every page of the report onto a new writer.
func layout(title string, r *inspect.Results, l logging.Logger) (*writer, error) {
	w := newWriter()
	w.text(w.title, titleX, titleY, title)

	// heading advances before writing, so the first heading lands on startY.
	w.y += section
	w.heading("Damage Detection Results")
	for _, o := range r.Ordinals() {
		path, ok := r.Damage[o]
		if !ok {
			continue
		}
		img, err := imaging.Open(path)
		if err != nil {
			l.Warning("could not load damage image", "wagon", o, "path", path, "error", err.Error())
			w.entry(fmt.Sprintf("Wagon %d: Damage Detected", o), line)
			w.entry("No Image Available", line)
			continue
		}
		if w.y-imageH-line < 0 {
			w.newPage()
		}
		w.entry(fmt.Sprintf("Wagon %d: Damage Detected", o), line)
		rect := vg.Rectangle{
			Min: vg.Point{X: margin, Y: w.y - imageH},
			Max: vg.Point{X: margin + imageW, Y: w.y},
		}
		w.c.DrawImage(rect, img)
		w.y -= imageH + line
	}

	w.heading("Material Volume Estimations")
	for _, o := range r.Ordinals() {
		v, ok := r.Volumes[o]
		if !ok {
			continue
		}
		if !v.Measured() {
			w.entry(fmt.Sprintf("Wagon %d: could not measure", o), entry)
			continue
		}
		w.entry(fmt.Sprintf("Wagon %d: %.2f cubic meters", o, v.Volume), entry)
	}

	s := Summarize(r)
	w.heading("Summary")
	w.entry(fmt.Sprintf("Wagons counted: %d empty, %d filled", r.EmptyCount, r.FilledCount), line)
	w.entry(fmt.Sprintf("Volumes measured: %d, could not measure: %d", s.Measured, s.Failed), line)
	if s.Measured > 0 {
		w.entry(fmt.Sprintf("Total volume: %.2f cubic meters", s.Total), line)
		w.entry(fmt.Sprintf("Mean volume: %.2f cubic meters (std dev %.2f)", s.Mean, s.StdDev), line)
	}
	if len(r.Skipped) > 0 {
		w.entry("Skipped (missing images): "+ordinals(r.Skipped), line)
	}
	if len(r.UnpairedEmpty) > 0 {
		w.entry("Unpaired empty wagons: "+ordinals(r.UnpairedEmpty), line)
	}
	if len(r.UnpairedFilled) > 0 {
		w.entry("Unpaired filled wagons: "+ordinals(r.UnpairedFilled), line)
	}

	if s.Measured > 0 {
		err := w.chart(r)
		if err != nil {
			return nil, errors.Wrap(err, "could not draw volume chart")
		}
	}
	return w, nil
}

// chart draws a bar chart of the measured volumes on a new page.
func (w *writer) chart(r *inspect.Results) error {
	var vals plotter.Values
	var names []string
	for _, o := range r.Ordinals() {
		v, ok := r.Volumes[o]
		if !ok || !v.Measured() {
			continue
		}
		vals = append(vals, v.Volume)
		names = append(names, strconv.Itoa(o))
	}

	p := plot.New()
	p.Title.Text = "Material Volume by Wagon"
	p.X.Label.Text = "Wagon"
	p.Y.Label.Text = "Volume (cubic meters)"
	bars, err := plotter.NewBarChart(vals, vg.Points(20))
	if err != nil {
		return err
	}
	bars.Color = color.RGBA{R: 0x43, G: 0x63, B: 0xd8, A: 0xff}
	p.Add(bars)
	p.NominalX(names...)

	w.newPage()
	p.Draw(draw.Canvas{
		Canvas: w.c,
		Rectangle: vg.Rectangle{
			Min: vg.Point{X: margin / 2, Y: pageH - margin/2 - chartH},
			Max: vg.Point{X: pageW - margin/2, Y: pageH - margin/2},
		},
	})
	return nil
}

func ordinals(o []int) string {
	s := make([]string, len(o))
	for i, v := range o {
		s[i] = strconv.Itoa(v)
	}
	return strings.Join(s, ", ")
}

// WriteFile writes the report to path, creating its directory if needed.
func WriteFile(path, title string, r *inspect.Results, l logging.Logger) error {
	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return errors.Wrap(err, "could not create report directory")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "could not create report")
	}
	err = Generate(f, title, r, l)
	if err != nil {
		f.Close()
		return err
	}
	err = f.Close()
	if err != nil {
		return errors.Wrap(err, "could not close report")
	}
	l.Info("report successfully generated", "path", path)
	return nil
}
