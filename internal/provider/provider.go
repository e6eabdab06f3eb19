package provider

import (
	"context"
	"time"

	"trendag/internal/models"
)

// Record is the raw shape a provider returns. Fields other than Title and
// Body are optional; normalization fills in safe defaults.
type Record struct {
	Title       string
	Body        string
	URL         string
	Author      string
	Source      string
	PublishedAt time.Time
	Shares      int
	Comments    int
	Reactions   int
}

// Provider is the contract every external feed adapter implements. A failed
// fetch must return an error; the scheduler treats it as "degraded, empty
// result" for that provider only.
type Provider interface {
	Name() string
	Type() models.ProviderType
	Priority() int
	Fetch(ctx context.Context, query string) ([]Record, error)
}
