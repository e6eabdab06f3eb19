package provider

import (
	"context"

	"trendag/internal/models"
)

// StaticProvider serves a fixed record set, or a fixed error. Used in tests
// and for seeding a local instance without network access.
type StaticProvider struct {
	name         string
	providerType models.ProviderType
	priority     int
	records      []Record
	err          error
}

func NewStaticProvider(name string, providerType models.ProviderType, priority int, records []Record) *StaticProvider {
	return &StaticProvider{
		name:         name,
		providerType: providerType,
		priority:     priority,
		records:      records,
	}
}

// NewFailingProvider returns a provider whose Fetch always fails.
func NewFailingProvider(name string, providerType models.ProviderType, err error) *StaticProvider {
	return &StaticProvider{
		name:         name,
		providerType: providerType,
		priority:     1,
		err:          err,
	}
}

func (p *StaticProvider) Name() string              { return p.name }
func (p *StaticProvider) Type() models.ProviderType { return p.providerType }
func (p *StaticProvider) Priority() int             { return p.priority }

func (p *StaticProvider) Fetch(ctx context.Context, query string) ([]Record, error) {
	if p.err != nil {
		return nil, p.err
	}
	out := make([]Record, len(p.records))
	copy(out, p.records)
	return out, nil
}

// SetRecords swaps the served record set between cycles.
func (p *StaticProvider) SetRecords(records []Record) {
	p.records = records
}

// SetError makes every subsequent Fetch fail with err; nil restores the
// record set.
func (p *StaticProvider) SetError(err error) {
	p.err = err
}
