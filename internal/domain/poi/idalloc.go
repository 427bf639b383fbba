package poi

import (
	"context"
	"fmt"
	"time"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/logging"
)

// timestampFallbackLayout formats the degraded identifier suffix: YYMMDDHHmm.
const timestampFallbackLayout = "0601021504"

// IDAllocator produces the next stable POI display identifier.  The primary
// strategy reads the highest existing numeric suffix and increments it; any
// read or parse failure degrades to a timestamp-derived identifier so the
// allocator always yields an ID rather than failing the whole operation, at
// the cost of sequential readability in that rare case.
//
// The read-then-increment is not race-free on its own.  Callers serialize
// creation behind a distributed lock, and the repository's unique constraint
// on PoiID plus the writer's retry closes the remaining window.
type IDAllocator struct {
	repo   ProfileRepository
	clock  func() time.Time
	logger logging.Logger
}

// NewIDAllocator constructs an allocator over the profile repository.
func NewIDAllocator(repo ProfileRepository, logger logging.Logger) *IDAllocator {
	return &IDAllocator{
		repo:   repo,
		clock:  time.Now,
		logger: logger.Named("idalloc"),
	}
}

// WithClock overrides the time source; used by tests to pin the fallback.
func (a *IDAllocator) WithClock(clock func() time.Time) *IDAllocator {
	a.clock = clock
	return a
}

// NextID returns the next POI identifier, zero-padded to at least three
// digits ("POI-001").  It never returns an error.
func (a *IDAllocator) NextID(ctx context.Context) string {
	maxID, err := a.repo.MaxPoiID(ctx)
	if err != nil {
		a.logger.Warn("max POI id read failed, using timestamp fallback", logging.Err(err))
		return a.fallbackID()
	}
	if maxID == "" {
		return FormatPoiID(1)
	}
	suffix, ok := parsePoiSuffix(maxID)
	if !ok {
		a.logger.Warn("unparseable max POI id, using timestamp fallback",
			logging.String("max_id", maxID),
		)
		return a.fallbackID()
	}
	return FormatPoiID(suffix + 1)
}

func (a *IDAllocator) fallbackID() string {
	return PoiIDPrefix + a.clock().Format(timestampFallbackLayout)
}

// FormatPoiID renders a numeric suffix as a display identifier, zero-padded
// to three digits.  Suffixes beyond 999 widen naturally.
func FormatPoiID(n int) string {
	return fmt.Sprintf("%s%03d", PoiIDPrefix, n)
}
