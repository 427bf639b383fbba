package poi

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/logging"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/errors"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/types/intel"
)

func newTestWriter(repo *memProfileRepo) *Writer {
	cfg := DefaultMatchConfig()
	alloc := NewIDAllocator(repo, logging.NewNopLogger())
	return NewWriter(repo, alloc, NewNormalizer(cfg), logging.NewNopLogger())
}

func TestWriter_CreateNewProfile(t *testing.T) {
	repo := newMemProfileRepo()
	w := newTestWriter(repo)

	res, err := w.Write(context.Background(), &Candidate{
		NameEnglish: "  Leung Sheung Man  ",
		NameChinese: "梁尚文",
		AgentNumber: "AG-100",
		Company:     "AIA",
	}, nil, intel.ModeMerge, "EMAIL")
	require.NoError(t, err)

	assert.Equal(t, ActionCreated, res.Action)
	assert.Equal(t, "POI-001", res.Profile.PoiID)
	assert.Equal(t, "Leung Sheung Man", res.Profile.NameEnglish)
	assert.Equal(t, "梁尚文", res.Profile.NameChinese)
	assert.Equal(t, "AG-100", res.Profile.AgentNumber)
	assert.Equal(t, intel.StatusActive, res.Profile.Status)
	assert.Equal(t, "EMAIL", res.Profile.CreatedBy)
	assert.NotEmpty(t, res.Profile.ID)
	assert.Contains(t, res.Profile.NameNormalized, "leung sheung man")
	assert.Contains(t, res.Profile.NameNormalized, "梁尚文")
}

func TestWriter_CreateRetriesOnIDCollision(t *testing.T) {
	repo := newMemProfileRepo()
	repo.seedProfile("POI-005", "Existing", "", "", "", "")
	// First insert hits a duplicate-key conflict, as if a concurrent writer
	// claimed the allocated id between the max-id read and our insert.
	repo.insertErrs = []error{errors.Conflict("duplicate poi_id")}

	w := newTestWriter(repo)
	res, err := w.Write(context.Background(), &Candidate{NameEnglish: "New Person"}, nil, intel.ModeMerge, "EMAIL")
	require.NoError(t, err)

	assert.Equal(t, ActionCreated, res.Action)
	assert.Equal(t, "POI-006", res.Profile.PoiID)
}

func TestWriter_CreateFailsAfterRetry(t *testing.T) {
	repo := newMemProfileRepo()
	repo.insertErrs = []error{
		errors.Conflict("duplicate poi_id"),
		errors.Conflict("duplicate poi_id"),
	}

	w := newTestWriter(repo)
	_, err := w.Write(context.Background(), &Candidate{NameEnglish: "New Person"}, nil, intel.ModeMerge, "EMAIL")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseError))
}

func TestWriter_SkipIfExists(t *testing.T) {
	repo := newMemProfileRepo()
	existing := repo.seedProfile("POI-001", "Chan Tai Man", "", "", "", "Prudential")

	w := newTestWriter(repo)
	res, err := w.Write(context.Background(), &Candidate{
		NameEnglish: "Chan Tai Man",
		Company:     "AIA",
	}, existing, intel.ModeSkipIfExists, "EMAIL")
	require.NoError(t, err)

	assert.Equal(t, ActionSkipped, res.Action)
	assert.Equal(t, "Prudential", res.Profile.Company)

	stored, err := repo.FindByPoiID(context.Background(), "POI-001")
	require.NoError(t, err)
	assert.Equal(t, "Prudential", stored.Company)
	assert.Equal(t, 1, stored.Version)
}

func TestWriter_MergeFillsOnlyEmptyFields(t *testing.T) {
	repo := newMemProfileRepo()
	existing := repo.seedProfile("POI-001", "Chan Tai Man", "", "", "", "Prudential")

	w := newTestWriter(repo)
	res, err := w.Write(context.Background(), &Candidate{
		NameEnglish: "Chan T M", // non-empty stored value wins in merge mode
		NameChinese: "陳大文",
		AgentNumber: "AG-777",
		Company:     "AIA",
		Role:        "Agent",
	}, existing, intel.ModeMerge, "EMAIL")
	require.NoError(t, err)

	assert.Equal(t, ActionUpdated, res.Action)
	assert.Equal(t, "Chan Tai Man", res.Profile.NameEnglish)
	assert.Equal(t, "陳大文", res.Profile.NameChinese)
	assert.Equal(t, "AG-777", res.Profile.AgentNumber)
	assert.Equal(t, "Prudential", res.Profile.Company)
	assert.Equal(t, "Agent", res.Profile.Role)
	assert.Contains(t, res.Profile.NameNormalized, "陳大文")
	assert.Equal(t, 2, res.Profile.Version)
	require.NotNil(t, res.Profile.LastMentionedDate)
}

func TestWriter_OverwriteReplacesNames(t *testing.T) {
	repo := newMemProfileRepo()
	existing := repo.seedProfile("POI-001", "Chan Tai Man", "陳大文", "", "LIC-OLD", "Prudential")

	w := newTestWriter(repo)
	res, err := w.Write(context.Background(), &Candidate{
		NameEnglish:   "Chan Tai Man Edward",
		LicenseNumber: "LIC-NEW",
	}, existing, intel.ModeOverwrite, "PATROL")
	require.NoError(t, err)

	assert.Equal(t, "Chan Tai Man Edward", res.Profile.NameEnglish)
	assert.Equal(t, "陳大文", res.Profile.NameChinese, "empty candidate field never clears a stored name")
	assert.Equal(t, "LIC-NEW", res.Profile.LicenseNumber)
	assert.Contains(t, res.Profile.NameNormalized, "chan tai man edward")
}

func TestWriter_AgentNumberNeverOverwritten(t *testing.T) {
	repo := newMemProfileRepo()
	existing := repo.seedProfile("POI-001", "Chan Tai Man", "", "AG-001", "", "")

	w := newTestWriter(repo)
	for _, mode := range []intel.UpdateMode{intel.ModeMerge, intel.ModeOverwrite} {
		res, err := w.Write(context.Background(), &Candidate{
			NameEnglish: "Chan Tai Man",
			AgentNumber: "AG-999",
		}, existing, mode, "EMAIL")
		require.NoError(t, err)
		assert.Equal(t, "AG-001", res.Profile.AgentNumber, "mode %s", mode)
	}
}

func TestWriter_RejectsMergedProfile(t *testing.T) {
	repo := newMemProfileRepo()
	merged := repo.seedProfile("POI-002", "Old Identity", "", "", "", "")
	merged.Status = intel.StatusMerged
	merged.MergedIntoPoiID = "POI-001"

	w := newTestWriter(repo)
	_, err := w.Write(context.Background(), &Candidate{NameEnglish: "Old Identity"}, merged, intel.ModeMerge, "EMAIL")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeProfileMerged))
}

func TestWriter_RejectsInvalidMode(t *testing.T) {
	repo := newMemProfileRepo()
	w := newTestWriter(repo)

	_, err := w.Write(context.Background(), &Candidate{NameEnglish: "X"}, nil, intel.UpdateMode("upsert"), "EMAIL")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestWriter_UpdateRefreshesLastMentioned(t *testing.T) {
	repo := newMemProfileRepo()
	earlier := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	existing := repo.seedProfile("POI-001", "Chan Tai Man", "", "", "", "")
	existing.LastMentionedDate = &earlier

	fixed := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	w := newTestWriter(repo).WithClock(func() time.Time { return fixed })

	res, err := w.Write(context.Background(), &Candidate{NameEnglish: "Chan Tai Man"}, existing, intel.ModeMerge, "EMAIL")
	require.NoError(t, err)
	require.NotNil(t, res.Profile.LastMentionedDate)
	assert.Equal(t, fixed, *res.Profile.LastMentionedDate)
	assert.Equal(t, fixed, res.Profile.UpdatedAt)
}
