/*
DESCRIPTION
  wagonscan is a command line interface for wagon inspection. It segments
  wagons from an empty and a filled pass of video, detects surface damage,
  estimates carried material volume and writes a PDF report. The user can
  provide configuration by passing a JSON string directly, or by specifying
  a file containing the JSON.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Dan Kortschak <dan@ausocean.org>
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package wagonscan is a command line interface for wagon inspection.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/pprof"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/utils/logging"
	"github.com/ausocean/wagon/config"
	"github.com/ausocean/wagon/damage"
	"github.com/ausocean/wagon/depth"
	"github.com/ausocean/wagon/inspect"
	"github.com/ausocean/wagon/report"
	"github.com/ausocean/wagon/store"
)

// Current software version.
const version = "v0.1.0"

// Logging configuration.
const (
	defaultLogPath = "wagonscan.log"
	logMaxSize     = 500 // MB
	logMaxBackup   = 10
	logMaxAge      = 28 // days
	logVerbosity   = logging.Info
	logSuppress    = true
)

// Misc constants.
const (
	pkg         = "wagonscan: "
	profilePath = "wagonscan.prof"
)

// This is set to true if the 'profile' build tag is provided on build.
var canProfile = false

func main() {
	var (
		showVersion   = flag.Bool("version", false, "show version")
		configPtr     = flag.String("config", "", "Provide configuration JSON (see readme for further information).")
		configFilePtr = flag.String("config-file", "", "Location of configuration file (see readme for further information).")
		logPathPtr    = flag.String("log-path", defaultLogPath, "Location of the rotated log file.")
		logLevelPtr   = flag.String("log-level", "", "Logging verbosity (Debug, Info, Warning, Error, Fatal), overriding the config.")
		damageOnly    = flag.Bool("damage-only", false, "Only run damage detection over the empty frame directory.")
		volumeOnly    = flag.Bool("volume-only", false, "Only estimate volumes over the empty and filled frame directories.")
	)
	flag.Parse()
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Create lumberjack logger to handle logging to file.
	fileLog := &lumberjack.Logger{
		Filename:   *logPathPtr,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	log := logging.New(logVerbosity, io.MultiWriter(fileLog, os.Stdout), logSuppress)
	log.Info("starting wagonscan", "version", version)

	// If built with the profile tag, we will start CPU profiling.
	if canProfile {
		profile(log)
		defer pprof.StopCPUProfile()
		log.Info("profiling started")
	}

	vars, err := readConfig(*configPtr, *configFilePtr)
	if err != nil {
		log.Fatal(pkg+"could not read config", "error", err.Error())
	}
	if *logLevelPtr != "" {
		vars[config.KeyLogging] = *logLevelPtr
	}
	log.Debug("got config", "config", vars)

	cfg := config.Config{Logger: log}
	cfg.Update(vars)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch {
	case *damageOnly && *volumeOnly:
		log.Fatal(pkg + "cannot use both -damage-only and -volume-only")
	case *damageOnly:
		err = damageDir(&cfg)
	case *volumeOnly:
		err = volumeDirs(&cfg)
	default:
		err = inspectRun(ctx, &cfg)
	}
	if err != nil {
		log.Fatal(pkg+"failed", "error", err.Error())
	}
	log.Info("finished")
}

// readConfig returns the config map from a JSON string or a JSON file. It
// is an error to provide both.
func readConfig(s, path string) (map[string]string, error) {
	var vars map[string]string
	switch {
	case s != "" && path != "":
		return nil, fmt.Errorf("cannot define both command-line config and file config")
	case s != "":
		err := json.Unmarshal([]byte(s), &vars)
		if err != nil {
			return nil, fmt.Errorf("could not decode JSON config: %w", err)
		}
	case path != "":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("could not open config file: %w", err)
		}
		defer f.Close()
		err = json.NewDecoder(f).Decode(&vars)
		if err != nil {
			return nil, fmt.Errorf("could not decode JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("no config provided, use -config or -config-file")
	}
	if vars == nil {
		vars = map[string]string{}
	}
	return vars, nil
}

// inspectRun runs the full pipeline and writes the report.
func inspectRun(ctx context.Context, cfg *config.Config) error {
	err := cfg.Validate()
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	cfg.Logger.SetLevel(cfg.LogLevel)
	log := cfg.Logger
	started := time.Now()

	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				log.Warning("could not release model", "error", err.Error())
			}
		}
	}()

	var opts []func(*inspect.Pipeline) error
	ann, c, err := newAnnotator(cfg)
	if err != nil {
		log.Error("damage detection disabled", "error", err.Error())
	} else {
		closers = append(closers, c)
		opts = append(opts, inspect.WithAnnotator(ann))
	}
	dif, c, err := newDifferencer(cfg)
	if err != nil {
		log.Error("volume estimation disabled", "error", err.Error())
	} else {
		closers = append(closers, c)
		opts = append(opts, inspect.WithVolumer(dif))
	}

	p, err := inspect.New(*cfg, opts...)
	if err != nil {
		return fmt.Errorf("could not create pipeline: %w", err)
	}
	res, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("inspection failed: %w", err)
	}

	err = report.WriteFile(cfg.ReportPath, cfg.ReportTitle, res, log)
	if err != nil {
		return fmt.Errorf("could not write report: %w", err)
	}

	if cfg.DatabasePath == "" {
		return nil
	}
	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("could not open run history: %w", err)
	}
	id, err := db.RecordRun(ctx, started, cfg.ReportPath, res)
	err = multierr.Append(err, db.Close())
	if err != nil {
		return fmt.Errorf("could not record run: %w", err)
	}
	log.Info("recorded run", "id", id)
	return nil
}

// damageDir runs damage detection over every frame of the empty frame
// directory.
func damageDir(cfg *config.Config) error {
	err := cfg.Require(config.KeyEmptyFrameDir, config.KeyDamageDir, config.KeyConfidenceThreshold)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	cfg.Logger.SetLevel(cfg.LogLevel)

	ann, c, err := newAnnotator(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	outs, err := ann.RunDir(cfg.EmptyFrameDir)
	cfg.Logger.Info("damage detection completed", "annotated", len(outs))
	return err
}

// volumeDirs estimates volumes for the frames of the empty and filled frame
// directories, paired by position in name order.
func volumeDirs(cfg *config.Config) error {
	err := cfg.Require(config.KeyEmptyFrameDir, config.KeyFilledFrameDir, config.KeyPixelArea)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	cfg.Logger.SetLevel(cfg.LogLevel)

	dif, c, err := newDifferencer(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	pairs, err := dif.PairDirs(cfg.EmptyFrameDir, cfg.FilledFrameDir)
	if err != nil {
		return err
	}
	var failed int
	for _, p := range pairs {
		if p.Err != nil {
			failed++
		}
	}
	cfg.Logger.Info("volume estimation completed", "pairs", len(pairs), "failed", failed)
	return nil
}

func newAnnotator(cfg *config.Config) (*damage.Annotator, io.Closer, error) {
	if cfg.DamageModelPath == "" {
		return nil, nil, fmt.Errorf("%s not set", config.KeyDamageModelPath)
	}
	det, err := damage.NewMaskRCNN(cfg.DamageModelPath, cfg.DamageModelConfig, cfg.DamageClasses, cfg.ConfidenceThreshold)
	if err != nil {
		return nil, nil, fmt.Errorf("could not load damage model: %w", err)
	}
	ann, err := damage.NewAnnotator(det, cfg.DamageDir, cfg.ConfidenceThreshold, cfg.Logger)
	if err != nil {
		det.Close()
		return nil, nil, err
	}
	return ann, det, nil
}

func newDifferencer(cfg *config.Config) (*depth.Differencer, io.Closer, error) {
	if cfg.DepthModelPath == "" {
		return nil, nil, fmt.Errorf("%s not set", config.KeyDepthModelPath)
	}
	est, err := depth.NewMiDaS(cfg.DepthModelPath, cfg.DepthInputSize)
	if err != nil {
		return nil, nil, fmt.Errorf("could not load depth model: %w", err)
	}
	return depth.NewDifferencer(est, cfg.PixelArea, cfg.Logger), est, nil
}

// profile creates a CPU profile at profilePath.
func profile(l logging.Logger) {
	f, err := os.Create(profilePath)
	if err != nil {
		l.Fatal(pkg+"could not create CPU profile", "error", err.Error())
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		l.Fatal(pkg+"could not start CPU profile", "error", err.Error())
	}
}
