package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"trendag/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStorage struct {
	db    *sql.DB
	mutex sync.RWMutex
}

func NewSQLiteStorage(dataDir string) (*SQLiteStorage, error) {
	// Ensure data directory exists with secure permissions (0750)
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %v", err)
	}

	dbPath := filepath.Join(dataDir, "trendag.db")
	log.Printf("Initializing database at: %s", dbPath)

	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_synchronous=NORMAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 30000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			log.Printf("Warning: failed to set %s: %v", pragma, err)
		}
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %v", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS topic_history (
		keyword TEXT PRIMARY KEY,
		peak_score REAL NOT NULL,
		cumulative_mentions INTEGER NOT NULL,
		first_tracked TIMESTAMP NOT NULL,
		last_updated TIMESTAMP NOT NULL,
		points TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_topic_history_updated ON topic_history(last_updated);

	CREATE TABLE IF NOT EXISTS run_records (
		run_number INTEGER PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		duration_ms INTEGER NOT NULL,
		success INTEGER NOT NULL,
		items_fetched INTEGER NOT NULL,
		items_after_dedup INTEGER NOT NULL,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_run_records_started ON run_records(started_at);
	`
	_, err := db.Exec(schema)
	return err
}

func (s *SQLiteStorage) SaveTopicHistory(h *models.TopicHistory) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	points, err := json.Marshal(h.Points)
	if err != nil {
		return fmt.Errorf("failed to encode history points: %v", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO topic_history (keyword, peak_score, cumulative_mentions, first_tracked, last_updated, points)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(keyword) DO UPDATE SET
			peak_score = excluded.peak_score,
			cumulative_mentions = excluded.cumulative_mentions,
			last_updated = excluded.last_updated,
			points = excluded.points`,
		h.Keyword, h.PeakScore, h.CumulativeMentions, h.FirstTracked, h.LastUpdated, string(points))
	if err != nil {
		return fmt.Errorf("failed to save topic history for '%s': %v", h.Keyword, err)
	}
	return nil
}

func (s *SQLiteStorage) LoadTopicHistory(keyword string) (*models.TopicHistory, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	row := s.db.QueryRow(`
		SELECT keyword, peak_score, cumulative_mentions, first_tracked, last_updated, points
		FROM topic_history WHERE keyword = ?`, keyword)

	return scanTopicHistory(row)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTopicHistory(row rowScanner) (*models.TopicHistory, error) {
	var h models.TopicHistory
	var points string
	if err := row.Scan(&h.Keyword, &h.PeakScore, &h.CumulativeMentions, &h.FirstTracked, &h.LastUpdated, &points); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("topic history not found")
		}
		return nil, fmt.Errorf("failed to scan topic history: %v", err)
	}
	if err := json.Unmarshal([]byte(points), &h.Points); err != nil {
		return nil, fmt.Errorf("failed to decode history points: %v", err)
	}
	return &h, nil
}

func (s *SQLiteStorage) LoadAllTopicHistories() ([]models.TopicHistory, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	rows, err := s.db.Query(`
		SELECT keyword, peak_score, cumulative_mentions, first_tracked, last_updated, points
		FROM topic_history ORDER BY peak_score DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query topic histories: %v", err)
	}
	defer rows.Close()

	var out []models.TopicHistory
	for rows.Next() {
		h, err := scanTopicHistory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *h)
	}
	return out, rows.Err()
}

func (s *SQLiteStorage) SaveRunRecord(rec *models.RunRecord) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO run_records (run_number, started_at, duration_ms, success, items_fetched, items_after_dedup, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_number) DO UPDATE SET
			started_at = excluded.started_at,
			duration_ms = excluded.duration_ms,
			success = excluded.success,
			items_fetched = excluded.items_fetched,
			items_after_dedup = excluded.items_after_dedup,
			error = excluded.error`,
		rec.RunNumber, rec.StartedAt, rec.Duration.Milliseconds(), rec.Success,
		rec.ItemsFetched, rec.ItemsAfterDedup, rec.Error)
	if err != nil {
		return fmt.Errorf("failed to save run record %d: %v", rec.RunNumber, err)
	}
	return nil
}

func (s *SQLiteStorage) RecentRuns(limit int) ([]models.RunRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT run_number, started_at, duration_ms, success, items_fetched, items_after_dedup, COALESCE(error, '')
		FROM run_records ORDER BY run_number DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query run records: %v", err)
	}
	defer rows.Close()

	var out []models.RunRecord
	for rows.Next() {
		var rec models.RunRecord
		var durationMS int64
		if err := rows.Scan(&rec.RunNumber, &rec.StartedAt, &durationMS, &rec.Success,
			&rec.ItemsFetched, &rec.ItemsAfterDedup, &rec.Error); err != nil {
			return nil, fmt.Errorf("failed to scan run record: %v", err)
		}
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStorage) PruneHistory(retention time.Duration) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cutoff := time.Now().Add(-retention)
	result, err := s.db.Exec(`DELETE FROM topic_history WHERE last_updated < ?`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune topic history: %v", err)
	}
	if n, err := result.RowsAffected(); err == nil && n > 0 {
		log.Printf("Pruned %d stale topic histories", n)
	}

	_, err = s.db.Exec(`DELETE FROM run_records WHERE started_at < ?`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune run records: %v", err)
	}
	return nil
}

func (s *SQLiteStorage) GetDatabaseStats() (map[string]interface{}, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stats := make(map[string]interface{})

	var topics, runs int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM topic_history`).Scan(&topics); err != nil {
		return nil, fmt.Errorf("failed to count topic histories: %v", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM run_records`).Scan(&runs); err != nil {
		return nil, fmt.Errorf("failed to count run records: %v", err)
	}

	stats["topic_histories"] = topics
	stats["run_records"] = runs
	return stats, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
