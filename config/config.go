/*
NAME
  config.go

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config contains the configuration settings for a wagon inspection run.
package config

import (
	"errors"

	"github.com/ausocean/utils/logging"
	"go.uber.org/multierr"
)

// The different motion detection algorithms.
const (
	MotionBasic = iota
	MotionMOG
	MotionKNN
)

// ErrMissing is wrapped by the errors returned from Validate for each
// required variable that has not been provided.
var ErrMissing = errors.New("required variable missing")

// ErrInvalid is wrapped by the errors returned from Validate for each
// required variable that was provided with an unusable value.
var ErrInvalid = errors.New("required variable invalid")

// Config provides parameters relevant to a wagon inspection run. A new config
// is constructed once at start up and passed to each component constructor.
// Defaults for tunable fields are defined in variables.go; the fields listed
// in the Required table must be supplied.
type Config struct {
	// Logger holds an implementation of the Logger interface.
	// This must be set for any component to work correctly.
	Logger logging.Logger

	// LogLevel is the logging verbosity level.
	// Valid values are defined by enums from the logger package: logging.Debug,
	// logging.Info, logging.Warning logging.Error, logging.Fatal.
	LogLevel int8

	EmptyVideo  string // Video of the empty wagon pass, or a directory of frames.
	FilledVideo string // Video of the filled wagon pass, or a directory of frames.

	EmptyFrameDir  string // Output directory for representative frames of the empty pass.
	FilledFrameDir string // Output directory for representative frames of the filled pass.
	DamageDir      string // Output directory for annotated damage images.
	ReportPath     string // Destination of the PDF report.
	ReportTitle    string

	// DatabasePath is the location of the SQLite run history. An empty path
	// disables the run history.
	DatabasePath string

	MotionFilter          uint8   // Motion detection algorithm, one of MotionBasic, MotionMOG or MotionKNN.
	MotionMinArea         float64 // Minimum region area in pixels that counts as wagon motion.
	MotionHistory         uint    // Number of frames the background model is seeded over.
	MotionVarThreshold    float64 // Deviation from the background that marks a pixel foreground.
	MotionBinaryThreshold uint    // Intensity cut applied to the foreground mask.
	MotionKernel          uint    // Size of kernel used for removing noise (KNN only).

	FrameInterval uint   // Stride in frames between persisted frames of a wagon.
	FrameFormat   string // Image format of persisted frames: jpg, jpeg or png.

	// RepresentativeFrame selects which persisted frame of a wagon (0 based)
	// stands in for it in damage detection and volume estimation.
	RepresentativeFrame uint

	// Workers bounds the number of wagons processed concurrently once both
	// passes have been segmented. 1 processes wagons sequentially.
	Workers uint

	PixelArea      float64 // Physical area represented by one depth pixel.
	DepthModelPath string  // ONNX monocular depth model.
	DepthInputSize uint    // Square input size of the depth model.

	ConfidenceThreshold float64  // Minimum score of a reported damage instance.
	DamageModelPath     string   // Instance segmentation model weights.
	DamageModelConfig   string   // Instance segmentation model graph description.
	DamageClasses       []string // Class names indexed by model class ID.

	// provided holds the names of the variables given to Update, so that a
	// zero value can be told apart from an absent one.
	provided map[string]bool
}

// Validate checks for any errors in the config fields and defaults settings
// if particular parameters have not been defined. Every required variable
// that is missing is reported in the returned error.
func (c *Config) Validate() error {
	return c.validate(func(string) bool { return true })
}

// Require is like Validate but only reports the named required variables
// as missing. It is used by modes that need a subset of the configuration.
func (c *Config) Require(names ...string) error {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	return c.validate(func(n string) bool { return want[n] })
}

func (c *Config) validate(check func(name string) bool) error {
	var err error
	for _, v := range Variables {
		if v.Required != nil && check(v.Name) && !v.Required(c) {
			err = multierr.Append(err, missing(v.Name))
		} else if v.Check != nil && check(v.Name) {
			err = multierr.Append(err, v.Check(c))
		}
		if v.Validate != nil {
			v.Validate(c)
		}
	}
	return err
}

// Update takes a map of configuration variable names and their corresponding
// values, parses the string values and converting into correct type, and then
// sets the config struct fields as appropriate.
func (c *Config) Update(vars map[string]string) {
	for _, value := range Variables {
		if v, ok := vars[value.Name]; ok && value.Update != nil {
			value.Update(c, v)
			if c.provided == nil {
				c.provided = make(map[string]bool)
			}
			c.provided[value.Name] = true
		}
	}
}

func (c *Config) LogInvalidField(name string, def interface{}) {
	c.Logger.Info(name+" bad or unset, defaulting", name, def)
}
