/*
DESCRIPTION
  damage.go provides the damage detector interface and an annotator that
  runs a detector on a wagon image and saves the image with the detected
  damage instances drawn over it.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package damage provides surface damage detection for wagon images.
package damage

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/ausocean/utils/logging"
	"github.com/ausocean/wagon/video"
)

// Instance is a single detected damage region.
type Instance struct {
	Class string
	Score float64
	Box   image.Rectangle
	Mask  *image.Alpha // In image coordinates; may be nil.
}

// Detector finds damage instances in an image.
type Detector interface {
	Detect(img image.Image) ([]Instance, error)
}

// Annotation drawing parameters.
const (
	labelSize   = 14.0
	lineWidth   = 2.0
	maskAlpha   = 0x60
	jpegQuality = 95
)

var palette = []color.RGBA{
	{R: 0xe6, G: 0x19, B: 0x4b, A: 0xff},
	{R: 0x3c, G: 0xb4, B: 0x4b, A: 0xff},
	{R: 0xff, G: 0xe1, B: 0x19, A: 0xff},
	{R: 0x43, G: 0x63, B: 0xd8, A: 0xff},
	{R: 0xf5, G: 0x82, B: 0x31, A: 0xff},
	{R: 0x91, G: 0x1e, B: 0xb4, A: 0xff},
}

var font *truetype.Font

func init() {
	var err error
	font, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// Annotator runs a Detector over wagon images and saves annotated copies.
type Annotator struct {
	det  Detector
	dir  string
	conf float64
	log  logging.Logger
}

// NewAnnotator returns a new Annotator writing into dir. Instances scoring
// below conf are discarded.
func NewAnnotator(det Detector, dir string, conf float64, l logging.Logger) (*Annotator, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, errors.Wrap(err, "could not create damage directory")
	}
	return &Annotator{det: det, dir: dir, conf: conf, log: l}, nil
}

// Run detects damage in the image at path and writes the annotated image to
// the output directory under the same base name, returning the output path.
func (a *Annotator) Run(path string) (string, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "could not open image")
	}

	all, err := a.det.Detect(img)
	if err != nil {
		return "", errors.Wrapf(err, "could not detect damage in %s", path)
	}
	var kept []Instance
	for _, inst := range all {
		if inst.Score >= a.conf {
			kept = append(kept, inst)
		}
	}

	out := filepath.Join(a.dir, filepath.Base(path))
	err = imaging.Save(Annotate(img, kept), out, imaging.JPEGQuality(jpegQuality))
	if err != nil {
		return "", errors.Wrap(err, "could not save annotated image")
	}
	a.log.Info("damage annotated", "input", path, "output", out, "instances", len(kept), "discarded", len(all)-len(kept))
	return out, nil
}

// RunDir runs the annotator on every image in dir, in name order, returning
// the output paths of those that succeeded. Failures are logged and
// returned combined.
func (a *Annotator) RunDir(dir string) ([]string, error) {
	files, err := video.ImageFiles(dir)
	if err != nil {
		return nil, err
	}
	a.log.Info("starting damage detection", "dir", dir, "images", len(files))

	var outs []string
	var errs error
	for _, name := range files {
		out, err := a.Run(filepath.Join(dir, name))
		if err != nil {
			a.log.Error("damage detection failed", "image", name, "error", err.Error())
			errs = multierr.Append(errs, err)
			continue
		}
		outs = append(outs, out)
	}
	return outs, errs
}

// Annotate returns a copy of img with the masks, boxes and labels of insts
// drawn over it.
func Annotate(img image.Image, insts []Instance) image.Image {
	dc := gg.NewContextForImage(img)
	dst := dc.Image().(draw.Image)

	for i, inst := range insts {
		c := palette[i%len(palette)]
		if inst.Mask != nil {
			tint := color.RGBA{R: c.R, G: c.G, B: c.B, A: maskAlpha}
			draw.DrawMask(dst, inst.Mask.Rect, &image.Uniform{tint}, image.Point{}, inst.Mask, inst.Mask.Rect.Min, draw.Over)
		}
	}

	dc.SetFontFace(truetype.NewFace(font, &truetype.Options{Size: labelSize}))
	dc.SetLineWidth(lineWidth)
	for i, inst := range insts {
		c := palette[i%len(palette)]
		r := inst.Box
		dc.SetColor(c)
		dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
		dc.Stroke()
		dc.DrawStringAnchored(label(inst), float64(r.Min.X)+2, float64(r.Min.Y)-2, 0, 0)
	}
	return dc.Image()
}

func label(inst Instance) string {
	return fmt.Sprintf("%s %.0f%%", inst.Class, inst.Score*100)
}

// Mask returns an alpha mask covering box from a score grid of gw by gh
// values, scaled to the box by nearest neighbour and binarized at cut.
func Mask(grid []float32, gw, gh int, box image.Rectangle, cut float32) *image.Alpha {
	box = box.Canon()
	m := image.NewAlpha(box)
	if box.Empty() || gw <= 0 || gh <= 0 || len(grid) < gw*gh {
		return m
	}

	src := image.NewGray(image.Rect(0, 0, gw, gh))
	for i := range src.Pix {
		if grid[i] > cut {
			src.Pix[i] = 0xff
		}
	}
	scaled := imaging.Resize(src, box.Dx(), box.Dy(), imaging.NearestNeighbor)
	for y := 0; y < box.Dy(); y++ {
		for x := 0; x < box.Dx(); x++ {
			m.Pix[y*m.Stride+x] = scaled.Pix[y*scaled.Stride+4*x]
		}
	}
	return m
}
