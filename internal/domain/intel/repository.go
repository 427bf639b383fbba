package intel

import (
	"context"
	"time"

	types "github.com/marcuskncheung/new-intel-platform-sub000/pkg/types/intel"
)

// LinkRepository is the persistence port for intelligence links.
type LinkRepository interface {
	// Insert stores a new link.  Implementations must enforce uniqueness of
	// (poi_id, source_type, source_id) and return ErrCodeConflict when the
	// triple already exists.
	Insert(ctx context.Context, l *Link) error

	// Find returns the link for the triple, or (nil, nil) when absent.
	Find(ctx context.Context, poiID string, st types.SourceType, sourceID string) (*Link, error)

	// UpdateConfidence refines the stored confidence score of an existing
	// link.  No other field is ever updated.
	UpdateConfidence(ctx context.Context, poiID string, st types.SourceType, sourceID string, confidence float64) error

	// ListByPoi returns all links referencing the profile, newest first.
	ListByPoi(ctx context.Context, poiID string) ([]*Link, error)

	// DeleteBySource removes every link owned by the source record.  Called
	// from the source-record deletion cascade.
	DeleteBySource(ctx context.Context, st types.SourceType, sourceID string) (int64, error)

	// CountByPoi returns the number of links referencing the profile.
	CountByPoi(ctx context.Context, poiID string) (int64, error)
}

// LegacyLinkWriter mirrors registrations into the backward-compatibility
// table consumed by the previous generation of reporting queries.  Failures
// here must never fail the primary registration.
type LegacyLinkWriter interface {
	Write(ctx context.Context, l *Link) error
}

// SourceRecord is one row of a source table carrying candidate-person data,
// as seen by the batch refresh.  Name fields may hold comma-separated
// multi-person lists exactly as extracted.
type SourceRecord struct {
	ID            string
	NamesEnglish  string
	NamesChinese  string
	AgentNumber   string
	LicenseNumber string
	Company       string
	Role          string
	ReceivedAt    time.Time
}

// SourceRepository enumerates source records for the batch refresh.
type SourceRepository interface {
	// ScanCandidates returns every record of the given source type that
	// carries any candidate-person data.
	ScanCandidates(ctx context.Context, st types.SourceType) ([]*SourceRecord, error)
}
