package storage

import (
	"time"

	"trendag/internal/models"
)

// Storage defines the durable archive behind the in-memory pipeline: topic
// history summaries and per-cycle run records.
type Storage interface {
	SaveTopicHistory(h *models.TopicHistory) error
	LoadTopicHistory(keyword string) (*models.TopicHistory, error)
	LoadAllTopicHistories() ([]models.TopicHistory, error)
	SaveRunRecord(rec *models.RunRecord) error
	RecentRuns(limit int) ([]models.RunRecord, error)
	PruneHistory(retention time.Duration) error
	GetDatabaseStats() (map[string]interface{}, error)
	Close() error
}
