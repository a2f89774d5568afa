package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/Xuanwo/ast-grep/pkg/lang"
	"github.com/Xuanwo/ast-grep/pkg/types"
)

// SQLiteStore implements Store using SQLite via the pure-Go driver.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a SQLite-based store.
// Use ":memory:" for an in-memory database (useful for testing).
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One connection keeps concurrent writers serialized instead of
	// surfacing SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// AddRuleMatch stores one rule match record.
func (s *SQLiteStore) AddRuleMatch(rec types.RuleMatchRecord) error {
	metaJSON, labelsJSON, err := encodeExtras(rec)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO matches (file, rule_id, severity, message, text, replacement,
			start_offset, end_offset, start_line, start_col, end_line, end_col,
			language, meta_json, labels_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.File,
		rec.RuleID,
		rec.Severity.String(),
		rec.Message,
		rec.Text,
		rec.Replacement,
		rec.Range.ByteOffset.Start,
		rec.Range.ByteOffset.End,
		rec.Range.Start.Line,
		rec.Range.Start.Column,
		rec.Range.End.Line,
		rec.Range.End.Column,
		string(rec.Language),
		metaJSON,
		labelsJSON,
	)
	if err != nil {
		return fmt.Errorf("inserting match: %w", err)
	}
	return nil
}

// RuleMatches retrieves all stored records in insertion order.
func (s *SQLiteStore) RuleMatches() ([]types.RuleMatchRecord, error) {
	return s.queryMatches("SELECT "+matchColumns+" FROM matches ORDER BY id", nil)
}

// MatchesForFile retrieves the records of one file in insertion order.
func (s *SQLiteStore) MatchesForFile(path string) ([]types.RuleMatchRecord, error) {
	return s.queryMatches("SELECT "+matchColumns+" FROM matches WHERE file = ? ORDER BY id", []any{path})
}

// Count reports how many records are stored.
func (s *SQLiteStore) Count() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM matches").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting matches: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const matchColumns = `file, rule_id, severity, message, text, replacement,
	start_offset, end_offset, start_line, start_col, end_line, end_col,
	language, meta_json, labels_json`

func (s *SQLiteStore) queryMatches(query string, args []any) ([]types.RuleMatchRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying matches: %w", err)
	}
	defer rows.Close()

	var records []types.RuleMatchRecord
	for rows.Next() {
		rec, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating matches: %w", err)
	}
	return records, nil
}

func scanMatch(rows *sql.Rows) (types.RuleMatchRecord, error) {
	var rec types.RuleMatchRecord
	var severity, language string
	var replacement, metaJSON, labelsJSON sql.NullString

	err := rows.Scan(
		&rec.File,
		&rec.RuleID,
		&severity,
		&rec.Message,
		&rec.Text,
		&replacement,
		&rec.Range.ByteOffset.Start,
		&rec.Range.ByteOffset.End,
		&rec.Range.Start.Line,
		&rec.Range.Start.Column,
		&rec.Range.End.Line,
		&rec.Range.End.Column,
		&language,
		&metaJSON,
		&labelsJSON,
	)
	if err != nil {
		return rec, fmt.Errorf("scanning match: %w", err)
	}

	parsed, err := types.ParseSeverity(severity)
	if err != nil {
		return rec, fmt.Errorf("parsing severity: %w", err)
	}
	rec.Severity = parsed
	rec.Language = lang.Language(language)

	if replacement.Valid {
		rec.Replacement = &replacement.String
	}
	if metaJSON.Valid {
		if err := json.Unmarshal([]byte(metaJSON.String), &rec.MetaVariables); err != nil {
			return rec, fmt.Errorf("unmarshaling metavariables: %w", err)
		}
	}
	if labelsJSON.Valid {
		if err := json.Unmarshal([]byte(labelsJSON.String), &rec.Labels); err != nil {
			return rec, fmt.Errorf("unmarshaling labels: %w", err)
		}
	}
	return rec, nil
}

// encodeExtras marshals the optional JSON columns. Absent parts store as
// NULL so replay restores the same absent fields.
func encodeExtras(rec types.RuleMatchRecord) (metaJSON, labelsJSON *string, err error) {
	if rec.MetaVariables != nil {
		data, err := json.Marshal(rec.MetaVariables)
		if err != nil {
			return nil, nil, fmt.Errorf("marshaling metavariables: %w", err)
		}
		s := string(data)
		metaJSON = &s
	}
	if len(rec.Labels) > 0 {
		data, err := json.Marshal(rec.Labels)
		if err != nil {
			return nil, nil, fmt.Errorf("marshaling labels: %w", err)
		}
		s := string(data)
		labelsJSON = &s
	}
	return metaJSON, labelsJSON, nil
}
