package database

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jgoulah/ecowatts/internal/normalize"
	"github.com/jgoulah/ecowatts/pkg/models"
	_ "modernc.org/sqlite"
)

const timeLayout = "2006-01-02 15:04:05.999999999"

// DB wraps the database connection
type DB struct {
	conn *sql.DB
}

// CachedTable describes one cached normalization result
type CachedTable struct {
	Fingerprint string
	Source      string
	Rows        int
	Dropped     int
	CreatedAt   time.Time
}

// New creates a new database connection and initializes the schema
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the necessary tables
func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS normalized_tables (
		fingerprint TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		fields TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS readings (
		fingerprint TEXT NOT NULL,
		seq INTEGER NOT NULL,
		timestamp TEXT NOT NULL,
		usage REAL NOT NULL,
		appliance TEXT NOT NULL DEFAULT '',
		room TEXT NOT NULL DEFAULT '',
		cost REAL,
		PRIMARY KEY (fingerprint, seq)
	);
	CREATE TABLE IF NOT EXISTS diagnostics (
		fingerprint TEXT NOT NULL,
		reason TEXT NOT NULL,
		count INTEGER NOT NULL,
		PRIMARY KEY (fingerprint, reason)
	);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Fingerprint identifies a raw input together with the settings used to read and
// normalize it. sheet selects the XLSX worksheet and is empty for CSV.
func Fingerprint(raw io.Reader, cols normalize.ColumnMap, layout, sheet string) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, raw); err != nil {
		return "", fmt.Errorf("hashing input: %w", err)
	}
	fmt.Fprintf(h, "\x00%s\x00%s\x00%s\x00%s\x00%s\x00%s\x00%s",
		cols.Timestamp, cols.Usage, cols.Appliance, cols.Room, cols.Cost, layout, sheet)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SaveTable stores a normalized table and its diagnostics, replacing any previous entry
func (db *DB) SaveTable(fingerprint, source string, table *models.Table, diag models.Diagnostics) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteEntry(tx, fingerprint); err != nil {
		return err
	}

	names := make([]string, 0, len(table.Fields()))
	for _, f := range table.Fields() {
		names = append(names, string(f))
	}
	fields := strings.Join(names, ",")
	createdAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(`INSERT INTO normalized_tables (fingerprint, source, fields, created_at) VALUES (?, ?, ?, ?)`,
		fingerprint, source, fields, createdAt); err != nil {
		return fmt.Errorf("inserting table: %w", err)
	}

	stmt, err := tx.Prepare(`
	INSERT INTO readings (fingerprint, seq, timestamp, usage, appliance, room, cost)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	var insertErr error
	table.Each(func(i int, r models.Record) {
		if insertErr != nil {
			return
		}
		var cost sql.NullFloat64
		if r.HasCost {
			cost = sql.NullFloat64{Float64: r.Cost, Valid: true}
		}
		_, insertErr = stmt.Exec(fingerprint, i, r.Timestamp.Format(timeLayout), r.Usage, r.Appliance, r.Room, cost)
	})
	if insertErr != nil {
		return fmt.Errorf("inserting reading: %w", insertErr)
	}

	for reason, count := range diag {
		if _, err := tx.Exec(`INSERT INTO diagnostics (fingerprint, reason, count) VALUES (?, ?, ?)`,
			fingerprint, reason, count); err != nil {
			return fmt.Errorf("inserting diagnostics: %w", err)
		}
	}

	return tx.Commit()
}

// LoadTable retrieves a cached table. ok is false when nothing is cached for the fingerprint.
func (db *DB) LoadTable(fingerprint string) (table *models.Table, diag models.Diagnostics, ok bool, err error) {
	var fields string
	err = db.conn.QueryRow(`SELECT fields FROM normalized_tables WHERE fingerprint = ?`, fingerprint).Scan(&fields)
	if err == sql.ErrNoRows {
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, fmt.Errorf("querying table: %w", err)
	}

	rows, err := db.conn.Query(`
	SELECT timestamp, usage, appliance, room, cost
	FROM readings
	WHERE fingerprint = ?
	ORDER BY seq
	`, fingerprint)
	if err != nil {
		return nil, nil, false, fmt.Errorf("querying readings: %w", err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var r models.Reading
		var tsStr string
		var cost sql.NullFloat64

		if err := rows.Scan(&tsStr, &r.Usage, &r.Appliance, &r.Room, &cost); err != nil {
			return nil, nil, false, fmt.Errorf("scanning row: %w", err)
		}

		r.Timestamp, err = time.Parse(timeLayout, tsStr)
		if err != nil {
			return nil, nil, false, fmt.Errorf("parsing timestamp: %w", err)
		}
		if cost.Valid {
			r.Cost = cost.Float64
			r.HasCost = true
		}

		records = append(records, models.NewRecord(r))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, false, err
	}

	diag, err = db.loadDiagnostics(fingerprint)
	if err != nil {
		return nil, nil, false, err
	}

	return models.NewTable(records, parseFields(fields)...), diag, true, nil
}

func (db *DB) loadDiagnostics(fingerprint string) (models.Diagnostics, error) {
	rows, err := db.conn.Query(`SELECT reason, count FROM diagnostics WHERE fingerprint = ?`, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("querying diagnostics: %w", err)
	}
	defer rows.Close()

	diag := models.Diagnostics{}
	for rows.Next() {
		var reason string
		var count int
		if err := rows.Scan(&reason, &count); err != nil {
			return nil, fmt.Errorf("scanning diagnostics: %w", err)
		}
		diag[reason] = count
	}
	return diag, rows.Err()
}

// ListTables returns all cached tables, newest first
func (db *DB) ListTables() ([]CachedTable, error) {
	query := `
	SELECT t.fingerprint, t.source, t.created_at,
		(SELECT COUNT(*) FROM readings r WHERE r.fingerprint = t.fingerprint),
		(SELECT COALESCE(SUM(d.count), 0) FROM diagnostics d WHERE d.fingerprint = t.fingerprint)
	FROM normalized_tables t
	ORDER BY t.created_at DESC
	`

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("querying cached tables: %w", err)
	}
	defer rows.Close()

	var results []CachedTable
	for rows.Next() {
		var ct CachedTable
		var createdAt string
		if err := rows.Scan(&ct.Fingerprint, &ct.Source, &createdAt, &ct.Rows, &ct.Dropped); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		ct.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		results = append(results, ct)
	}

	return results, rows.Err()
}

// Purge removes every cached table and returns how many were removed
func (db *DB) Purge() (int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM normalized_tables`)
	if err != nil {
		return 0, fmt.Errorf("purging tables: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM readings`); err != nil {
		return 0, fmt.Errorf("purging readings: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM diagnostics`); err != nil {
		return 0, fmt.Errorf("purging diagnostics: %w", err)
	}

	n, _ := res.RowsAffected()
	return int(n), tx.Commit()
}

func deleteEntry(tx *sql.Tx, fingerprint string) error {
	for _, table := range []string{"normalized_tables", "readings", "diagnostics"} {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE fingerprint = ?`, fingerprint); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return nil
}

func parseFields(s string) []models.Field {
	var out []models.Field
	for _, name := range strings.Split(s, ",") {
		if name != "" {
			out = append(out, models.Field(name))
		}
	}
	return out
}
