package poi

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/logging"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/errors"
)

func TestIDAllocator_FirstID(t *testing.T) {
	repo := newMemProfileRepo()
	alloc := NewIDAllocator(repo, logging.NewNopLogger())
	assert.Equal(t, "POI-001", alloc.NextID(context.Background()))
}

func TestIDAllocator_Increments(t *testing.T) {
	repo := newMemProfileRepo()
	repo.seedProfile("POI-041", "A", "", "", "", "")
	repo.seedProfile("POI-042", "B", "", "", "", "")

	alloc := NewIDAllocator(repo, logging.NewNopLogger())
	assert.Equal(t, "POI-043", alloc.NextID(context.Background()))
}

func TestIDAllocator_WidensBeyondThreeDigits(t *testing.T) {
	repo := newMemProfileRepo()
	repo.seedProfile("POI-999", "A", "", "", "", "")

	alloc := NewIDAllocator(repo, logging.NewNopLogger())
	assert.Equal(t, "POI-1000", alloc.NextID(context.Background()))
}

func TestIDAllocator_TimestampFallbackOnReadFailure(t *testing.T) {
	repo := newMemProfileRepo()
	repo.maxIDErr = errors.New(errors.ErrCodeDatabaseError, "down")

	fixed := time.Date(2026, 8, 29, 14, 5, 0, 0, time.UTC)
	alloc := NewIDAllocator(repo, logging.NewNopLogger()).WithClock(func() time.Time { return fixed })

	// Degrades to POI-<YYMMDDHHmm> instead of failing.
	assert.Equal(t, "POI-2608291405", alloc.NextID(context.Background()))
}

func TestIDAllocator_MonotonicOverCreations(t *testing.T) {
	repo := newMemProfileRepo()
	alloc := NewIDAllocator(repo, logging.NewNopLogger())
	ctx := context.Background()

	prev := -1
	for i := 0; i < 25; i++ {
		id := alloc.NextID(ctx)
		n, ok := parsePoiSuffix(id)
		assert.True(t, ok)
		assert.Greater(t, n, prev)
		prev = n
		repo.seedProfile(id, "Person", "", "", "", "")
	}
}

func TestFormatPoiID(t *testing.T) {
	assert.Equal(t, "POI-001", FormatPoiID(1))
	assert.Equal(t, "POI-042", FormatPoiID(42))
	assert.Equal(t, "POI-1234", FormatPoiID(1234))
}
