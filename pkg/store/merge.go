package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// MergeConfig configures the merge operation.
type MergeConfig struct {
	// SourcePaths are the database files to merge from.
	SourcePaths []string
	// DestPath is the destination database file.
	DestPath string
}

// MergeStats tracks merge operation statistics.
type MergeStats struct {
	MatchesMerged     int
	DuplicatesSkipped int
	SourcesProcessed  int
}

// matchKey identifies a match across databases: the same rule reporting
// the same span of the same file is the same match.
type matchKey struct {
	file   string
	ruleID string
	start  int64
	end    int64
}

// Merge combines multiple scan databases into one. Duplicates keep the
// first copy seen; the destination may already hold matches.
func Merge(cfg MergeConfig) (*MergeStats, error) {
	if len(cfg.SourcePaths) == 0 {
		return nil, fmt.Errorf("no source databases specified")
	}
	if cfg.DestPath == "" {
		return nil, fmt.Errorf("destination path is required")
	}

	dest, err := sql.Open("sqlite", cfg.DestPath)
	if err != nil {
		return nil, fmt.Errorf("opening destination database: %w", err)
	}
	defer dest.Close()
	dest.SetMaxOpenConns(1)

	if err := CreateSchema(dest); err != nil {
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	seen, err := destKeys(dest)
	if err != nil {
		return nil, fmt.Errorf("reading destination matches: %w", err)
	}

	stats := &MergeStats{}
	for _, sourcePath := range cfg.SourcePaths {
		if err := mergeFrom(dest, sourcePath, seen, stats); err != nil {
			return stats, fmt.Errorf("merging from %s: %w", sourcePath, err)
		}
		stats.SourcesProcessed++
	}

	return stats, nil
}

// destKeys indexes the matches already in the destination, so merging
// into a non-empty database skips what it already holds.
func destKeys(db *sql.DB) (map[matchKey]bool, error) {
	rows, err := db.Query("SELECT file, rule_id, start_offset, end_offset FROM matches")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := make(map[matchKey]bool)
	for rows.Next() {
		var k matchKey
		if err := rows.Scan(&k.file, &k.ruleID, &k.start, &k.end); err != nil {
			return nil, err
		}
		seen[k] = true
	}
	return seen, rows.Err()
}

// mergeFrom copies new matches from a source database to the destination.
func mergeFrom(dest *sql.DB, sourcePath string, seen map[matchKey]bool, stats *MergeStats) error {
	source, err := sql.Open("sqlite", sourcePath)
	if err != nil {
		return fmt.Errorf("opening source database: %w", err)
	}
	defer source.Close()

	rows, err := source.Query("SELECT " + matchColumns + " FROM matches ORDER BY id")
	if err != nil {
		return fmt.Errorf("reading matches: %w", err)
	}
	defer rows.Close()

	tx, err := dest.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT INTO matches (" + matchColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for rows.Next() {
		var (
			file, ruleID, severity, message, text, language string
			replacement, metaJSON, labelsJSON               sql.NullString
			startOffset, endOffset, startLine, startCol     int64
			endLine, endCol                                 int64
		)
		if err := rows.Scan(&file, &ruleID, &severity, &message, &text, &replacement,
			&startOffset, &endOffset, &startLine, &startCol, &endLine, &endCol,
			&language, &metaJSON, &labelsJSON); err != nil {
			return fmt.Errorf("scanning match: %w", err)
		}

		key := matchKey{file: file, ruleID: ruleID, start: startOffset, end: endOffset}
		if seen[key] {
			stats.DuplicatesSkipped++
			continue
		}
		seen[key] = true

		if _, err := stmt.Exec(file, ruleID, severity, message, text, replacement,
			startOffset, endOffset, startLine, startCol, endLine, endCol,
			language, metaJSON, labelsJSON); err != nil {
			return fmt.Errorf("inserting match: %w", err)
		}
		stats.MatchesMerged++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating matches: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
