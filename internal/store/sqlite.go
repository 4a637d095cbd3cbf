package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/storefront/internal/ir"
	"github.com/roach88/storefront/internal/queryir"
	"github.com/roach88/storefront/internal/querysql"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - records(id, body)
const currentSchemaVersion = 1

const recordsTable = "records"

// SQLite stores records as JSON documents in SQLite.
// List filters are compiled to SQL by querysql.
type SQLite struct {
	db       *sql.DB
	seq      *Sequence
	compiler *querysql.SQLCompiler
}

// OpenSQLite opens a SQLite store at path. ":memory:" gives a private,
// transient database. Reopening a file resumes the id sequence after the
// highest stored id.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// A :memory: database lives and dies with its connection, and SQLite
	// only supports one writer at a time. Keep exactly one connection open.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	var maxID int64
	if err := db.QueryRow("SELECT COALESCE(MAX(id), 0) FROM " + recordsTable).Scan(&maxID); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read id sequence: %w", err)
	}

	return &SQLite{
		db:       db,
		seq:      NewSequenceAt(maxID),
		compiler: querysql.NewSQLCompiler(),
	}, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and records the schema version.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

func (s *SQLite) Insert(ctx context.Context, rec ir.IRObject) (ir.IRObject, error) {
	stored := rec.Clone()
	if stored == nil {
		stored = ir.IRObject{}
	}
	id := s.seq.Next()
	stored["id"] = ir.IRInt(id)

	body, err := marshalRecord(stored)
	if err != nil {
		return nil, fmt.Errorf("insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, "INSERT INTO "+recordsTable+" (id, body) VALUES (?, ?)", id, body); err != nil {
		return nil, fmt.Errorf("insert: %w", err)
	}
	return stored, nil
}

func (s *SQLite) Get(ctx context.Context, id int64) (ir.IRObject, bool, error) {
	var body string
	err := s.db.QueryRowContext(ctx, "SELECT body FROM "+recordsTable+" WHERE id = ?", id).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %d: %w", id, err)
	}

	rec, err := ir.UnmarshalIRObject([]byte(body))
	if err != nil {
		return nil, false, fmt.Errorf("get %d: decode body: %w", id, err)
	}
	return rec, true, nil
}

func (s *SQLite) Put(ctx context.Context, rec ir.IRObject) error {
	id, ok := rec.ID()
	if !ok {
		return fmt.Errorf("put: record has no integer id")
	}

	body, err := marshalRecord(rec)
	if err != nil {
		return fmt.Errorf("put %d: %w", id, err)
	}

	res, err := s.db.ExecContext(ctx, "UPDATE "+recordsTable+" SET body = ? WHERE id = ?", body, id)
	if err != nil {
		return fmt.Errorf("put %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("put %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("put %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+recordsTable+" WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete %d: %w", id, err)
	}
	return n > 0, nil
}

// Scan runs the compiled query, then re-applies p in Go. SQL narrows the
// rows; queryir decides the final match (SQLite cannot fold Unicode case).
func (s *SQLite) Scan(ctx context.Context, p queryir.Predicate) ([]ir.IRObject, error) {
	query, params, err := s.compiler.Compile(queryir.Select{From: recordsTable, Filter: p})
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	defer rows.Close()

	recs := make([]ir.IRObject, 0)
	for rows.Next() {
		var id int64
		var body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		rec, err := ir.UnmarshalIRObject([]byte(body))
		if err != nil {
			return nil, fmt.Errorf("scan row %d: decode body: %w", id, err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return queryir.Filter(p, recs), nil
}

func (s *SQLite) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+recordsTable).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *SQLite) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

func marshalRecord(rec ir.IRObject) (string, error) {
	data, err := rec.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	return string(data), nil
}
