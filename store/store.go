/*
DESCRIPTION
  store.go provides a SQLite backed history of inspection runs and the per
  wagon results of each run.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package store records inspection runs in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	_ "modernc.org/sqlite"

	"github.com/ausocean/wagon/inspect"
)

// Wagon statuses.
const (
	StatusMeasured = "measured"
	StatusFailed   = "failed"
	StatusSkipped  = "skipped"
	StatusUnpaired = "unpaired"
	StatusNoVolume = "no volume"
)

const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		run_id            TEXT PRIMARY KEY,
		started           TIMESTAMP,
		empty_count       BIGINT,
		filled_count      BIGINT,
		report_path       TEXT
	);
	CREATE TABLE IF NOT EXISTS wagons (
		run_id            TEXT,
		ordinal           BIGINT,
		status            TEXT,
		volume            DOUBLE,
		damage_path       TEXT,
		error             TEXT,
		PRIMARY KEY(run_id, ordinal),
		FOREIGN KEY(run_id) REFERENCES runs(run_id)
	);
`

// DB is a run history database.
type DB struct {
	*sql.DB
}

// Run is a recorded inspection run.
type Run struct {
	ID          string
	Started     time.Time
	EmptyCount  int
	FilledCount int
	ReportPath  string
}

// Wagon is the recorded outcome for one wagon of a run.
type Wagon struct {
	Ordinal    int
	Status     string
	Volume     float64
	DamagePath string
	Error      string
}

// Open opens, creating if needed, the database at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(schema)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("could not create schema: %w", err), db.Close())
	}
	return &DB{db}, nil
}

// RecordRun stores r as a new run started at started and returns its ID.
func (db *DB) RecordRun(ctx context.Context, started time.Time, reportPath string, r *inspect.Results) (id string, err error) {
	id = uuid.NewString()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, tx.Rollback())
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, started, empty_count, filled_count, report_path) VALUES (?, ?, ?, ?, ?)`,
		id, started.UTC(), r.EmptyCount, r.FilledCount, reportPath,
	)
	if err != nil {
		return "", fmt.Errorf("could not insert run: %w", err)
	}

	for _, w := range wagons(r) {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO wagons (run_id, ordinal, status, volume, damage_path, error) VALUES (?, ?, ?, ?, ?, ?)`,
			id, w.Ordinal, w.Status, w.Volume, w.DamagePath, w.Error,
		)
		if err != nil {
			return "", fmt.Errorf("could not insert wagon %d: %w", w.Ordinal, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return "", fmt.Errorf("could not commit run: %w", err)
	}
	return id, nil
}

// wagons flattens r into one record per ordinal known to the run.
func wagons(r *inspect.Results) []Wagon {
	var ws []Wagon
	for _, o := range r.Ordinals() {
		w := Wagon{Ordinal: o, Status: StatusNoVolume, DamagePath: r.Damage[o]}
		if v, ok := r.Volumes[o]; ok {
			w.Status, w.Volume = StatusMeasured, v.Volume
			if !v.Measured() {
				w.Status, w.Error = StatusFailed, v.Err.Error()
			}
		}
		ws = append(ws, w)
	}
	for _, o := range r.Skipped {
		ws = append(ws, Wagon{Ordinal: o, Status: StatusSkipped})
	}
	for _, o := range r.UnpairedEmpty {
		ws = append(ws, Wagon{Ordinal: o, Status: StatusUnpaired})
	}
	for _, o := range r.UnpairedFilled {
		ws = append(ws, Wagon{Ordinal: o, Status: StatusUnpaired})
	}
	return ws
}

// Runs returns the recorded runs, most recent first.
func (db *DB) Runs(ctx context.Context) ([]Run, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT run_id, started, empty_count, filled_count, report_path FROM runs ORDER BY started DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("could not query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		err := rows.Scan(&r.ID, &r.Started, &r.EmptyCount, &r.FilledCount, &r.ReportPath)
		if err != nil {
			return nil, fmt.Errorf("could not scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Wagons returns the wagon records of the run with the given ID, in
// ordinal order.
func (db *DB) Wagons(ctx context.Context, runID string) ([]Wagon, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT ordinal, status, volume, damage_path, error FROM wagons WHERE run_id = ? ORDER BY ordinal`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("could not query wagons: %w", err)
	}
	defer rows.Close()

	var ws []Wagon
	for rows.Next() {
		var w Wagon
		err := rows.Scan(&w.Ordinal, &w.Status, &w.Volume, &w.DamagePath, &w.Error)
		if err != nil {
			return nil, fmt.Errorf("could not scan wagon: %w", err)
		}
		ws = append(ws, w)
	}
	return ws, rows.Err()
}
