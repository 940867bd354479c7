package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// Source represents a journal source, either a local path or a Git URL.
type Source struct {
	ID          int64
	Path        string
	LastScanned sql.NullTime
}

// InsertSource inserts a new source path into the database and returns its ID.
func (db *DB) InsertSource(path string) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO sources (path)
		VALUES (?)
	`, path)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for source %s: %w", path, err)
	}
	return id, nil
}

// FindSourceByPath retrieves a source from the database by its path.
func (db *DB) FindSourceByPath(path string) (*Source, error) {
	var s Source
	row := db.conn.QueryRow(`
		SELECT id, path, last_scanned
		FROM sources WHERE path = ?
	`, path)

	err := row.Scan(&s.ID, &s.Path, &s.LastScanned)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Source not found
		}
		return nil, fmt.Errorf("failed to find source by path %s: %w", path, err)
	}
	return &s, nil
}

// AllSources retrieves all stored sources from the database.
func (db *DB) AllSources() ([]Source, error) {
	rows, err := db.conn.Query(`
		SELECT id, path, last_scanned
		FROM sources ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.Path, &s.LastScanned); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, nil
}

// DeleteSource removes a source. Posts and cards imported from it stay.
func (db *DB) DeleteSource(id int64) error {
	if _, err := db.conn.Exec(`DELETE FROM sources WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete source %d: %w", id, err)
	}
	return nil
}

// TouchSource updates the last_scanned timestamp for a source.
func (db *DB) TouchSource(id int64, at time.Time) error {
	if _, err := db.conn.Exec(`
		UPDATE sources
		SET last_scanned = ?
		WHERE id = ?
	`, at, id); err != nil {
		return fmt.Errorf("failed to update last scanned for source ID %d: %w", id, err)
	}
	return nil
}
