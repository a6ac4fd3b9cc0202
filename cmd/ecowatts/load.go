package main

import (
	"fmt"
	"os"

	"github.com/jgoulah/ecowatts/internal/database"
	"github.com/jgoulah/ecowatts/internal/normalize"
	"github.com/jgoulah/ecowatts/internal/source"
	"github.com/jgoulah/ecowatts/pkg/models"
)

// loadTable reads and normalizes an export, using the cache when enabled
func loadTable(path string) (*models.Table, error) {
	layout := cfg.GetTimestampLayout()

	var db *database.DB
	var fingerprint string
	if cacheEnabled() {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening input: %w", err)
		}
		fingerprint, err = database.Fingerprint(f, cfg.Columns, layout, cfg.Sheet)
		f.Close()
		if err != nil {
			return nil, err
		}

		db, err = openDB()
		if err != nil {
			return nil, fmt.Errorf("opening cache: %w", err)
		}
		defer db.Close()

		table, diag, ok, err := db.LoadTable(fingerprint)
		if err != nil {
			log.Warn().Err(err).Msg("cache lookup failed, normalizing from source")
		} else if ok {
			log.Debug().Str("file", path).Str("fingerprint", fingerprint[:12]).Int("rows", table.Len()).Msg("using cached table")
			reportDiagnostics(path, table, diag)
			return table, nil
		}
	}

	raw, err := source.Load(path, cfg.Sheet)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	table, diag, err := normalize.New(layout).Normalize(raw, cfg.Columns)
	if err != nil {
		return nil, fmt.Errorf("normalizing %s: %w", path, err)
	}
	reportDiagnostics(path, table, diag)

	if db != nil {
		if err := db.SaveTable(fingerprint, path, table, diag); err != nil {
			log.Warn().Err(err).Msg("could not cache normalized table")
		}
	}

	return table, nil
}

// reportDiagnostics logs how many rows were dropped and why
func reportDiagnostics(path string, table *models.Table, diag models.Diagnostics) {
	log.Info().Str("file", path).Int("rows", table.Len()).Int("dropped", diag.Total()).Msg("loaded readings")
	for _, reason := range diag.Reasons() {
		log.Warn().Str("reason", reason).Int("rows", diag[reason]).Msg("dropped rows")
	}
}
