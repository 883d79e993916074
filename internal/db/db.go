// Package db persists count events in an embedded sqlite database.
package db

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/roadmetrics/vcount/count"
)

type DB struct {
	*sql.DB
}

// NewDB opens the sqlite database at path, creating the schema when
// missing.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS count_events (
			identity          BIGINT,
			class             TEXT,
			running_total     BIGINT,
			counted_at        BIGINT
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// RecordCountEvent journals one count event with the current time.
func (db *DB) RecordCountEvent(event count.CountEvent) error {
	_, err := db.Exec(
		`INSERT INTO count_events (identity, class, running_total, counted_at) VALUES (?, ?, ?, ?)`,
		int64(event.ID),
		event.Class,
		event.Total,
		time.Now().Unix(),
	)
	return err
}

// CountEventRow is one journaled count event. CountedAt is unix seconds.
type CountEventRow struct {
	Identity     int64  `json:"identity"`
	Class        string `json:"class"`
	RunningTotal int    `json:"running_total"`
	CountedAt    int64  `json:"counted_at"`
}

// CountEvents returns the most recent events, newest first. Non-positive
// limit means 100.
func (db *DB) CountEvents(limit int) ([]CountEventRow, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(
		`SELECT identity, class, running_total, counted_at
		 FROM count_events
		 ORDER BY counted_at DESC, rowid DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []CountEventRow
	for rows.Next() {
		var event CountEventRow
		if err := rows.Scan(&event.Identity, &event.Class, &event.RunningTotal, &event.CountedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// EventSummary aggregates the whole journal.
type EventSummary struct {
	TotalCount int            `json:"total_count"`
	ByClass    map[string]int `json:"by_class"`
}

// Summary aggregates all journaled events per class.
func (db *DB) Summary() (EventSummary, error) {
	summary := EventSummary{ByClass: make(map[string]int)}
	rows, err := db.Query(`SELECT class, COUNT(*) FROM count_events GROUP BY class`)
	if err != nil {
		return summary, err
	}
	defer rows.Close()

	for rows.Next() {
		var class string
		var n int
		if err := rows.Scan(&class, &n); err != nil {
			return summary, err
		}
		summary.ByClass[class] = n
		summary.TotalCount += n
	}
	if err := rows.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// Clear wipes the journal.
func (db *DB) Clear() error {
	_, err := db.Exec(`DELETE FROM count_events`)
	return err
}
