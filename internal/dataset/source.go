// Package dataset loads the analytics and search console exports, normalizes
// them and publishes immutable snapshots for the rest of the engine.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"searchlens/internal/config"
	"searchlens/internal/records"
)

var (
	// ErrNotFound is returned when no source object exists for a dataset.
	ErrNotFound = errors.New("dataset not found")
	// ErrNotLoaded is returned when no snapshot has been published yet.
	ErrNotLoaded = errors.New("dataset not loaded")
)

// Kind identifies one of the two datasets.
type Kind string

// Dataset kinds
const (
	KindAnalytics Kind = "analytics"
	KindSearch    Kind = "search"
)

// Kinds lists both datasets.
var Kinds = []Kind{KindAnalytics, KindSearch}

// Label is the human name used in error messages.
func (k Kind) Label() string {
	switch k {
	case KindAnalytics:
		return "Analytics"
	case KindSearch:
		return "Search Console"
	default:
		return string(k)
	}
}

// Metadata describes where a dataset was read from.
type Metadata struct {
	Source       string    `json:"source"`
	RecordCount  int       `json:"recordCount"`
	LastModified time.Time `json:"lastModified"`
}

// Payload is the raw content of one dataset.
type Payload struct {
	Rows     []records.Row
	Metadata Metadata
}

// Source fetches raw dataset rows.
type Source interface {
	Fetch(ctx context.Context, kind Kind) (Payload, error)
	// Describe names the location data is read from.
	Describe() string
}

// NotFoundError lists every location that was tried for a dataset.
type NotFoundError struct {
	Kind      Kind
	Searched  []string
	Directory string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s CSV file not found in %s (tried %s)",
		e.Kind.Label(), e.Directory, strings.Join(e.Searched, ", "))
}

// Unwrap lets errors.Is match ErrNotFound.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewSource builds the source selected by configuration.
func NewSource(ctx context.Context, logger *slog.Logger, cfg *config.Config) (Source, error) {
	switch cfg.DataSource {
	case config.S3Source:
		client, err := NewS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewS3Source(logger, client, cfg.S3Bucket, map[Kind]string{
			KindAnalytics: cfg.S3AnalyticsKey,
			KindSearch:    cfg.S3SearchKey,
		}), nil
	case config.FileSource, "":
		return NewFileSource(logger, cfg.DataDirectory, map[Kind][]string{
			KindAnalytics: cfg.AnalyticsFiles(),
			KindSearch:    cfg.SearchFiles(),
		}), nil
	default:
		return nil, fmt.Errorf("unsupported data source: %s", cfg.DataSource)
	}
}
