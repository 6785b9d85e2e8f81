/*
DESCRIPTION
  variables.go contains a list of structs that provide a variable Name, type in
  a string format, a function for updating the variable in the Config struct
  from a string, a function reporting whether a required variable is present
  and finally, a validation function to default the corresponding field value
  in the Config.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ausocean/utils/logging"
)

// Config map Keys.
const (
	KeyConfidenceThreshold   = "ConfidenceThreshold"
	KeyDamageClasses         = "DamageClasses"
	KeyDamageDir             = "DamageDir"
	KeyDamageModelConfig     = "DamageModelConfig"
	KeyDamageModelPath       = "DamageModelPath"
	KeyDatabasePath          = "DatabasePath"
	KeyDepthInputSize        = "DepthInputSize"
	KeyDepthModelPath        = "DepthModelPath"
	KeyEmptyFrameDir         = "EmptyFrameDir"
	KeyEmptyVideo            = "EmptyVideo"
	KeyFilledFrameDir        = "FilledFrameDir"
	KeyFilledVideo           = "FilledVideo"
	KeyFrameFormat           = "FrameFormat"
	KeyFrameInterval         = "FrameInterval"
	KeyLogging               = "logging"
	KeyMotionBinaryThreshold = "MotionBinaryThreshold"
	KeyMotionFilter          = "MotionFilter"
	KeyMotionHistory         = "MotionHistory"
	KeyMotionKernel          = "MotionKernel"
	KeyMotionMinArea         = "MotionMinArea"
	KeyMotionVarThreshold    = "MotionVarThreshold"
	KeyPixelArea             = "PixelArea"
	KeyReportPath            = "ReportPath"
	KeyReportTitle           = "ReportTitle"
	KeyRepresentativeFrame   = "RepresentativeFrame"
	KeyWorkers               = "Workers"
)

// Config map parameter types.
const (
	typeString = "string"
	typeUint   = "uint"
	typeFloat  = "float"
)

// Default variable values.
const (
	defaultVerbosity   = logging.Info
	defaultReportTitle = "Wagon Damage & Volume Report"

	// Motion detection defaults.
	defaultMotionFilter          = MotionBasic
	defaultMotionHistory         = 500
	defaultMotionVarThreshold    = 50
	defaultMotionBinaryThreshold = 200
	defaultMotionKernel          = 3

	// Frame sampling defaults.
	defaultFrameFormat = "jpg"
	defaultWorkers     = 1

	// Perception model defaults.
	defaultDepthInputSize = 384
)

// Variables describes the variables that can be used to configure a run.
// These structs provide the name and type of variable, a function for updating
// this variable in a Config, a function reporting the presence of required
// variables, a function for checking the value of a present required
// variable, and a function for validating the value of the variable.
var Variables = []struct {
	Name     string
	Type     string
	Update   func(*Config, string)
	Required func(*Config) bool
	Check    func(*Config) error
	Validate func(*Config)
}{
	{
		Name:     KeyConfidenceThreshold,
		Type:     typeFloat,
		Update:   func(c *Config, v string) { c.ConfidenceThreshold = parseFloat(KeyConfidenceThreshold, v, c) },
		Required: func(c *Config) bool { return c.provided[KeyConfidenceThreshold] || c.ConfidenceThreshold != 0 },
		Check: func(c *Config) error {
			if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
				return fmt.Errorf("%w: %s must be within [0, 1], got %v", ErrInvalid, KeyConfidenceThreshold, c.ConfidenceThreshold)
			}
			return nil
		},
	},
	{
		Name: KeyDamageClasses,
		Type: typeString,
		Update: func(c *Config, v string) {
			c.DamageClasses = nil
			for _, s := range strings.Split(v, ",") {
				if s = strings.TrimSpace(s); s != "" {
					c.DamageClasses = append(c.DamageClasses, s)
				}
			}
		},
	},
	{
		Name:     KeyDamageDir,
		Type:     typeString,
		Update:   func(c *Config, v string) { c.DamageDir = v },
		Required: func(c *Config) bool { return c.DamageDir != "" },
	},
	{
		Name:   KeyDamageModelConfig,
		Type:   typeString,
		Update: func(c *Config, v string) { c.DamageModelConfig = v },
	},
	{
		Name:   KeyDamageModelPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.DamageModelPath = v },
	},
	{
		Name:   KeyDatabasePath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.DatabasePath = v },
	},
	{
		Name:   KeyDepthInputSize,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.DepthInputSize = parseUint(KeyDepthInputSize, v, c) },
		Validate: func(c *Config) {
			c.DepthInputSize = lessThanOrEqual(KeyDepthInputSize, c.DepthInputSize, 0, c, defaultDepthInputSize)
		},
	},
	{
		Name:   KeyDepthModelPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.DepthModelPath = v },
	},
	{
		Name:     KeyEmptyFrameDir,
		Type:     typeString,
		Update:   func(c *Config, v string) { c.EmptyFrameDir = v },
		Required: func(c *Config) bool { return c.EmptyFrameDir != "" },
	},
	{
		Name:     KeyEmptyVideo,
		Type:     typeString,
		Update:   func(c *Config, v string) { c.EmptyVideo = v },
		Required: func(c *Config) bool { return c.EmptyVideo != "" },
	},
	{
		Name:     KeyFilledFrameDir,
		Type:     typeString,
		Update:   func(c *Config, v string) { c.FilledFrameDir = v },
		Required: func(c *Config) bool { return c.FilledFrameDir != "" },
	},
	{
		Name:     KeyFilledVideo,
		Type:     typeString,
		Update:   func(c *Config, v string) { c.FilledVideo = v },
		Required: func(c *Config) bool { return c.FilledVideo != "" },
	},
	{
		Name:   KeyFrameFormat,
		Type:   "enum:jpg,jpeg,png",
		Update: func(c *Config, v string) { c.FrameFormat = strings.ToLower(v) },
		Validate: func(c *Config) {
			switch c.FrameFormat {
			case "jpg", "jpeg", "png":
			default:
				c.LogInvalidField(KeyFrameFormat, defaultFrameFormat)
				c.FrameFormat = defaultFrameFormat
			}
		},
	},
	{
		Name:     KeyFrameInterval,
		Type:     typeUint,
		Update:   func(c *Config, v string) { c.FrameInterval = parseUint(KeyFrameInterval, v, c) },
		Required: func(c *Config) bool { return c.FrameInterval > 0 },
	},
	{
		Name: KeyLogging,
		Type: "enum:Debug,Info,Warning,Error,Fatal",
		Update: func(c *Config, v string) {
			switch v {
			case "Debug":
				c.LogLevel = logging.Debug
			case "Info":
				c.LogLevel = logging.Info
			case "Warning":
				c.LogLevel = logging.Warning
			case "Error":
				c.LogLevel = logging.Error
			case "Fatal":
				c.LogLevel = logging.Fatal
			default:
				c.Logger.Warning("invalid Logging param", "value", v)
			}
		},
		Validate: func(c *Config) {
			switch c.LogLevel {
			case logging.Debug, logging.Info, logging.Warning, logging.Error, logging.Fatal:
			default:
				c.LogInvalidField("LogLevel", defaultVerbosity)
				c.LogLevel = defaultVerbosity
			}
		},
	},
	{
		Name:   KeyMotionBinaryThreshold,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.MotionBinaryThreshold = parseUint(KeyMotionBinaryThreshold, v, c) },
		Validate: func(c *Config) {
			if c.MotionBinaryThreshold == 0 || c.MotionBinaryThreshold > 255 {
				c.LogInvalidField(KeyMotionBinaryThreshold, defaultMotionBinaryThreshold)
				c.MotionBinaryThreshold = defaultMotionBinaryThreshold
			}
		},
	},
	{
		Name: KeyMotionFilter,
		Type: "enum:Basic,MOG,KNN",
		Update: func(c *Config, v string) {
			c.MotionFilter = parseEnum(
				KeyMotionFilter,
				v,
				map[string]uint8{
					"basic": MotionBasic,
					"mog":   MotionMOG,
					"knn":   MotionKNN,
				},
				c,
			)
		},
		Validate: func(c *Config) {
			if c.MotionFilter > MotionKNN {
				c.LogInvalidField(KeyMotionFilter, defaultMotionFilter)
				c.MotionFilter = defaultMotionFilter
			}
		},
	},
	{
		Name:   KeyMotionHistory,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.MotionHistory = parseUint(KeyMotionHistory, v, c) },
		Validate: func(c *Config) {
			c.MotionHistory = lessThanOrEqual(KeyMotionHistory, c.MotionHistory, 0, c, defaultMotionHistory)
		},
	},
	{
		Name:   KeyMotionKernel,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.MotionKernel = parseUint(KeyMotionKernel, v, c) },
		Validate: func(c *Config) {
			c.MotionKernel = lessThanOrEqual(KeyMotionKernel, c.MotionKernel, 0, c, defaultMotionKernel)
		},
	},
	{
		Name:     KeyMotionMinArea,
		Type:     typeFloat,
		Update:   func(c *Config, v string) { c.MotionMinArea = parseFloat(KeyMotionMinArea, v, c) },
		Required: func(c *Config) bool { return c.MotionMinArea > 0 },
	},
	{
		Name:   KeyMotionVarThreshold,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.MotionVarThreshold = parseFloat(KeyMotionVarThreshold, v, c) },
		Validate: func(c *Config) {
			if c.MotionVarThreshold <= 0 {
				c.LogInvalidField(KeyMotionVarThreshold, defaultMotionVarThreshold)
				c.MotionVarThreshold = defaultMotionVarThreshold
			}
		},
	},
	{
		Name:     KeyPixelArea,
		Type:     typeFloat,
		Update:   func(c *Config, v string) { c.PixelArea = parseFloat(KeyPixelArea, v, c) },
		Required: func(c *Config) bool { return c.PixelArea > 0 },
	},
	{
		Name:     KeyReportPath,
		Type:     typeString,
		Update:   func(c *Config, v string) { c.ReportPath = v },
		Required: func(c *Config) bool { return c.ReportPath != "" },
	},
	{
		Name:   KeyReportTitle,
		Type:   typeString,
		Update: func(c *Config, v string) { c.ReportTitle = v },
		Validate: func(c *Config) {
			if c.ReportTitle == "" {
				c.LogInvalidField(KeyReportTitle, defaultReportTitle)
				c.ReportTitle = defaultReportTitle
			}
		},
	},
	{
		Name:   KeyRepresentativeFrame,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.RepresentativeFrame = parseUint(KeyRepresentativeFrame, v, c) },
	},
	{
		Name:   KeyWorkers,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.Workers = parseUint(KeyWorkers, v, c) },
		Validate: func(c *Config) {
			c.Workers = lessThanOrEqual(KeyWorkers, c.Workers, 0, c, defaultWorkers)
		},
	},
}

func missing(name string) error {
	return fmt.Errorf("%w: %s", ErrMissing, name)
}

func parseUint(n, v string, c *Config) uint {
	_v, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected unsigned int for param %s", n), "value", v)
	}
	return uint(_v)
}

func parseFloat(n, v string, c *Config) float64 {
	_v, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected float for param %s", n), "value", v)
	}
	return _v
}

func parseEnum(n, v string, enums map[string]uint8, c *Config) uint8 {
	_v, ok := enums[strings.ToLower(v)]
	if !ok {
		c.Logger.Warning(fmt.Sprintf("invalid value for %s param", n), "value", v)
	}
	return _v
}

func lessThanOrEqual(n string, v, cmp uint, c *Config, def uint) uint {
	if v <= cmp {
		c.LogInvalidField(n, def)
		return def
	}
	return v
}
