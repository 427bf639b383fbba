package intel_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/domain/intel"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/domain/poi"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/logging"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/testutil"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/errors"
	types "github.com/marcuskncheung/new-intel-platform-sub000/pkg/types/intel"
)

func newFixture() (*intel.Registrar, *testutil.MemLinkRepo, *testutil.MemProfileRepo, *testutil.MemLegacyWriter) {
	links := testutil.NewMemLinkRepo()
	profiles := testutil.NewMemProfileRepo()
	legacy := &testutil.MemLegacyWriter{}
	profiles.Seed(&poi.Profile{PoiID: "POI-001", NameEnglish: "Chan Tai Man"})
	reg := intel.NewRegistrar(links, legacy, profiles, logging.NewNopLogger())
	return reg, links, profiles, legacy
}

func TestRegistrar_CreatesLinkAndBumpsStatistics(t *testing.T) {
	reg, links, profiles, legacy := newFixture()
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	reg.WithClock(func() time.Time { return at })

	created, err := reg.Register(context.Background(), "POI-001", types.SourceEmail, "email-42", types.ExtractionAI, 0.92)
	require.NoError(t, err)
	assert.True(t, created)

	link := links.Get("POI-001", types.SourceEmail, "email-42")
	require.NotNil(t, link)
	assert.Equal(t, types.ExtractionAI, link.ExtractionMethod)
	assert.Equal(t, 0.92, link.ConfidenceScore)

	p := profiles.Get("POI-001")
	assert.Equal(t, 1, p.EmailCount)
	require.NotNil(t, p.FirstMentionedDate)
	assert.Equal(t, at, *p.FirstMentionedDate)
	assert.Equal(t, at, *p.LastMentionedDate)

	require.Len(t, legacy.Writes, 1)
}

func TestRegistrar_IdempotentOnSameTriple(t *testing.T) {
	reg, links, profiles, _ := newFixture()
	ctx := context.Background()

	created, err := reg.Register(ctx, "POI-001", types.SourceEmail, "email-42", types.ExtractionAI, 0.9)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = reg.Register(ctx, "POI-001", types.SourceEmail, "email-42", types.ExtractionAI, 0.9)
	require.NoError(t, err)
	assert.False(t, created)

	assert.Equal(t, 1, links.Len())
	assert.Equal(t, 1, profiles.Get("POI-001").EmailCount, "mention counted exactly once")
}

func TestRegistrar_ConfidenceOnlyRefinesUpward(t *testing.T) {
	reg, links, _, _ := newFixture()
	ctx := context.Background()

	_, err := reg.Register(ctx, "POI-001", types.SourcePatrol, "patrol-7", types.ExtractionAI, 0.70)
	require.NoError(t, err)

	_, err = reg.Register(ctx, "POI-001", types.SourcePatrol, "patrol-7", types.ExtractionRefresh, 0.95)
	require.NoError(t, err)
	assert.Equal(t, 0.95, links.Get("POI-001", types.SourcePatrol, "patrol-7").ConfidenceScore)

	_, err = reg.Register(ctx, "POI-001", types.SourcePatrol, "patrol-7", types.ExtractionRefresh, 0.40)
	require.NoError(t, err)
	assert.Equal(t, 0.95, links.Get("POI-001", types.SourcePatrol, "patrol-7").ConfidenceScore)
}

func TestRegistrar_LegacyWriteFailureIsIsolated(t *testing.T) {
	reg, links, _, legacy := newFixture()
	legacy.Err = errors.New(errors.ErrCodeDatabaseError, "legacy table gone")

	created, err := reg.Register(context.Background(), "POI-001", types.SourceWhatsApp, "chat-1", types.ExtractionManual, 1.0)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, links.Len())
}

func TestRegistrar_NilLegacyWriter(t *testing.T) {
	links := testutil.NewMemLinkRepo()
	profiles := testutil.NewMemProfileRepo()
	profiles.Seed(&poi.Profile{PoiID: "POI-001", NameEnglish: "Chan Tai Man"})
	reg := intel.NewRegistrar(links, nil, profiles, logging.NewNopLogger())

	created, err := reg.Register(context.Background(), "POI-001", types.SourceEmail, "email-1", types.ExtractionManual, 1.0)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestRegistrar_InsertRaceTreatedAsAlreadyRegistered(t *testing.T) {
	// The lookup misses but the insert conflicts, as when a concurrent
	// registration lands between the two.
	links := testutil.NewMemLinkRepo()
	links.InsertErr = errors.Conflict("duplicate link")
	profiles := testutil.NewMemProfileRepo()
	profiles.Seed(&poi.Profile{PoiID: "POI-001", NameEnglish: "Chan Tai Man"})
	reg := intel.NewRegistrar(links, nil, profiles, logging.NewNopLogger())

	created, err := reg.Register(context.Background(), "POI-001", types.SourceEmail, "email-9", types.ExtractionAI, 0.8)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 0, profiles.Get("POI-001").EmailCount, "loser does not double-count the mention")
}

func TestRegistrar_ValidatesInput(t *testing.T) {
	reg, _, _, _ := newFixture()
	ctx := context.Background()

	cases := []struct {
		name       string
		poiID      string
		st         types.SourceType
		sourceID   string
		method     types.ExtractionMethod
		confidence float64
	}{
		{"missing poi id", "", types.SourceEmail, "email-1", types.ExtractionAI, 0.9},
		{"bad source type", "POI-001", types.SourceType("CARRIER_PIGEON"), "email-1", types.ExtractionAI, 0.9},
		{"missing source id", "POI-001", types.SourceEmail, "", types.ExtractionAI, 0.9},
		{"bad method", "POI-001", types.SourceEmail, "email-1", types.ExtractionMethod("GUESS"), 0.9},
		{"confidence above one", "POI-001", types.SourceEmail, "email-1", types.ExtractionAI, 1.2},
		{"negative confidence", "POI-001", types.SourceEmail, "email-1", types.ExtractionAI, -0.1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := reg.Register(ctx, tc.poiID, tc.st, tc.sourceID, tc.method, tc.confidence)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeLinkRegistration))
		})
	}
}

func TestRegistrar_UnknownProfileFailsRegistration(t *testing.T) {
	reg, _, _, _ := newFixture()

	_, err := reg.Register(context.Background(), "POI-404", types.SourceEmail, "email-1", types.ExtractionAI, 0.9)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeLinkRegistration))
}
