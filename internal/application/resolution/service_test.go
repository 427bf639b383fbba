package resolution

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/domain/intel"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/domain/poi"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/logging"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/testutil"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/errors"
	types "github.com/marcuskncheung/new-intel-platform-sub000/pkg/types/intel"
)

type capturingPublisher struct {
	mu      sync.Mutex
	created []string
	updated []string
	links   []string
	err     error
}

func (p *capturingPublisher) PublishPoiCreated(_ context.Context, prof *poi.Profile) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.created = append(p.created, prof.PoiID)
	return nil
}

func (p *capturingPublisher) PublishPoiUpdated(_ context.Context, prof *poi.Profile) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.updated = append(p.updated, prof.PoiID)
	return nil
}

func (p *capturingPublisher) PublishLinkRegistered(_ context.Context, l *intel.Link) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.links = append(p.links, l.Key())
	return nil
}

type capturingIndexer struct {
	indexed []string
	err     error
}

func (x *capturingIndexer) IndexProfile(_ context.Context, p *poi.Profile) error {
	if x.err != nil {
		return x.err
	}
	x.indexed = append(x.indexed, p.PoiID)
	return nil
}

type countingLocker struct {
	locks int
	err   error
}

func (l *countingLocker) Lock(context.Context, string) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.locks++
	return func() {}, nil
}

type fixture struct {
	svc      *Service
	profiles *testutil.MemProfileRepo
	links    *testutil.MemLinkRepo
	events   *capturingPublisher
	indexer  *capturingIndexer
	locker   *countingLocker
}

func newFixture() *fixture {
	profiles := testutil.NewMemProfileRepo()
	links := testutil.NewMemLinkRepo()
	events := &capturingPublisher{}
	indexer := &capturingIndexer{}
	locker := &countingLocker{}

	cfg := poi.DefaultMatchConfig()
	logger := logging.NewNopLogger()
	scorer := poi.NewScorer(cfg)
	matcher := poi.NewMatcher(profiles, cfg, scorer, logger)
	alloc := poi.NewIDAllocator(profiles, logger)
	writer := poi.NewWriter(profiles, alloc, poi.NewNormalizer(cfg), logger)
	registrar := intel.NewRegistrar(links, nil, profiles, logger)

	svc := NewService(matcher, writer, registrar, locker, events, indexer, nil, logger)
	return &fixture{svc: svc, profiles: profiles, links: links, events: events, indexer: indexer, locker: locker}
}

func TestService_CreatesProfileAndLink(t *testing.T) {
	f := newFixture()

	results, err := f.svc.Resolve(context.Background(), &ResolveInput{
		SourceType: types.SourceEmail,
		SourceID:   "email-1",
		Method:     types.ExtractionAI,
		Candidates: []CandidateInput{{
			NameEnglish: "Leung Sheung Man",
			NameChinese: "梁尚文",
			Company:     "AIA",
			Confidence:  0.9,
		}},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.True(t, r.Success)
	assert.Equal(t, "created", r.Action)
	assert.Equal(t, "POI-001", r.PoiID)
	assert.NotEmpty(t, r.ProfileID)
	assert.True(t, r.LinkCreated)

	assert.Equal(t, 1, f.links.Len())
	assert.Equal(t, []string{"POI-001"}, f.events.created)
	assert.Equal(t, []string{"POI-001/EMAIL/email-1"}, f.events.links)
	assert.Equal(t, []string{"POI-001"}, f.indexer.indexed)
	assert.Equal(t, 1, f.locker.locks, "creation path goes through the allocation lock")
	assert.Equal(t, 1, f.profiles.Get("POI-001").EmailCount)
}

func TestService_SecondMentionUpdatesExistingProfile(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Resolve(ctx, &ResolveInput{
		SourceType: types.SourceEmail,
		SourceID:   "email-1",
		Candidates: []CandidateInput{{NameEnglish: "Leung Sheung Man", NameChinese: "梁尚文"}},
	})
	require.NoError(t, err)

	// Same person, fuller English name, new source record.
	results, err := f.svc.Resolve(ctx, &ResolveInput{
		SourceType: types.SourceWhatsApp,
		SourceID:   "chat-9",
		Candidates: []CandidateInput{{NameEnglish: "LEUNG SHEUNG MAN EMERSON", NameChinese: "梁尚文"}},
	})
	require.NoError(t, err)

	r := results[0]
	assert.True(t, r.Success)
	assert.Equal(t, "updated", r.Action)
	assert.Equal(t, "POI-001", r.PoiID)
	assert.True(t, r.LinkCreated)

	p := f.profiles.Get("POI-001")
	assert.Equal(t, "Leung Sheung Man", p.NameEnglish, "merge mode keeps the stored name")
	assert.Equal(t, 1, p.EmailCount)
	assert.Equal(t, 1, p.WhatsAppCount)
	assert.Equal(t, 1, f.locker.locks, "update path does not take the allocation lock")
}

func TestService_ReplayIsIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	in := &ResolveInput{
		SourceType: types.SourceEmail,
		SourceID:   "email-1",
		Candidates: []CandidateInput{{NameEnglish: "Chan Tai Man", NameChinese: "陳大文"}},
	}

	first, err := f.svc.Resolve(ctx, in)
	require.NoError(t, err)
	second, err := f.svc.Resolve(ctx, in)
	require.NoError(t, err)

	assert.True(t, first[0].LinkCreated)
	assert.False(t, second[0].LinkCreated)
	assert.Equal(t, 1, f.links.Len())
	assert.Equal(t, 1, f.profiles.Get("POI-001").EmailCount)
}

func TestService_InvalidCandidateRejectedWithoutAbortingBatch(t *testing.T) {
	f := newFixture()

	results, err := f.svc.Resolve(context.Background(), &ResolveInput{
		SourceType: types.SourceEmail,
		SourceID:   "email-1",
		Candidates: []CandidateInput{
			{Company: "AIA"}, // no name, no agent number
			{NameEnglish: "Chan Tai Man"},
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.False(t, results[0].Success)
	assert.Equal(t, "rejected", results[0].Action)
	assert.True(t, results[1].Success)
	assert.Equal(t, "created", results[1].Action)
}

func TestService_NoSourceIDSkipsLinking(t *testing.T) {
	f := newFixture()

	results, err := f.svc.Resolve(context.Background(), &ResolveInput{
		Candidates: []CandidateInput{{NameEnglish: "Chan Tai Man"}},
	})
	require.NoError(t, err)

	assert.True(t, results[0].Success)
	assert.False(t, results[0].LinkCreated)
	assert.Equal(t, 0, f.links.Len())
}

func TestService_RejectsUnsupportedSourceType(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Resolve(context.Background(), &ResolveInput{
		SourceType: types.SourceType("PIGEON"),
		SourceID:   "p-1",
		Candidates: []CandidateInput{{NameEnglish: "Chan Tai Man"}},
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSourceUnsupported))
}

func TestService_PublishAndIndexFailuresAreIsolated(t *testing.T) {
	f := newFixture()
	f.events.err = errors.New(errors.ErrCodeExternalService, "broker down")
	f.indexer.err = errors.New(errors.ErrCodeExternalService, "search down")

	results, err := f.svc.Resolve(context.Background(), &ResolveInput{
		SourceType: types.SourceEmail,
		SourceID:   "email-1",
		Candidates: []CandidateInput{{NameEnglish: "Chan Tai Man"}},
	})
	require.NoError(t, err)
	assert.True(t, results[0].Success)
	assert.Equal(t, 1, f.links.Len())
}

func TestService_LockFailureDegradesToUnserializedCreate(t *testing.T) {
	f := newFixture()
	f.locker.err = errors.New(errors.ErrCodeCacheError, "redis down")

	results, err := f.svc.Resolve(context.Background(), &ResolveInput{
		Candidates: []CandidateInput{{NameEnglish: "Chan Tai Man"}},
	})
	require.NoError(t, err)
	assert.True(t, results[0].Success)
	assert.Equal(t, "POI-001", results[0].PoiID)
}

func TestService_ManualDefaultsConfidenceToCertain(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Resolve(context.Background(), &ResolveInput{
		SourceType: types.SourcePatrol,
		SourceID:   "patrol-3",
		Candidates: []CandidateInput{{NameEnglish: "Chan Tai Man"}},
	})
	require.NoError(t, err)

	link := f.links.Get("POI-001", types.SourcePatrol, "patrol-3")
	require.NotNil(t, link)
	assert.Equal(t, types.ExtractionManual, link.ExtractionMethod)
	assert.Equal(t, 1.0, link.ConfidenceScore)
}
