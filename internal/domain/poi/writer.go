package poi

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/logging"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/errors"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/types/common"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/types/intel"
)

// WriteAction describes what a Write call did.
type WriteAction string

const (
	ActionCreated WriteAction = "created"
	ActionUpdated WriteAction = "updated"
	ActionSkipped WriteAction = "skipped"
)

// WriteResult is the outcome of a profile write.
type WriteResult struct {
	Action  WriteAction
	Profile *Profile
}

// Writer creates or updates POI profiles under a selectable merge policy.
// It is the only sanctioned mutation path for profile fields; the merge and
// overwrite contracts live here and nowhere else.
//
// Shared rules regardless of mode:
//   - an agent number is filled when empty, but a differing non-empty agent
//     number is never overwritten, only logged — identity numbers are
//     authoritative once set;
//   - a differing license number IS updated (renewal or correction, not an
//     identity conflict);
//   - company and role are filled when empty;
//   - NameNormalized is recomputed whenever either name field changes.
type Writer struct {
	repo   ProfileRepository
	alloc  *IDAllocator
	norm   *Normalizer
	clock  func() time.Time
	logger logging.Logger
}

// NewWriter constructs a Writer.
func NewWriter(repo ProfileRepository, alloc *IDAllocator, norm *Normalizer, logger logging.Logger) *Writer {
	return &Writer{
		repo:   repo,
		alloc:  alloc,
		norm:   norm,
		clock:  time.Now,
		logger: logger.Named("writer"),
	}
}

// WithClock overrides the time source; used by tests.
func (w *Writer) WithClock(clock func() time.Time) *Writer {
	w.clock = clock
	return w
}

// Write applies the candidate to the matched profile under the given mode, or
// creates a new profile when matched is nil.  createdBy records the source
// tag on creation.
func (w *Writer) Write(ctx context.Context, c *Candidate, matched *Profile, mode intel.UpdateMode, createdBy string) (*WriteResult, error) {
	if !mode.IsValid() {
		return nil, errors.NewValidationError("mode", "unsupported update mode: "+mode.String())
	}

	if matched == nil {
		return w.create(ctx, c, createdBy)
	}
	if mode == intel.ModeSkipIfExists {
		return &WriteResult{Action: ActionSkipped, Profile: matched}, nil
	}
	return w.update(ctx, c, matched, mode)
}

func (w *Writer) create(ctx context.Context, c *Candidate, createdBy string) (*WriteResult, error) {
	now := w.clock().UTC()
	p := &Profile{
		BaseEntity: common.BaseEntity{
			ID:        common.ID(uuid.NewString()),
			CreatedAt: now,
			UpdatedAt: now,
			Version:   1,
		},
		PoiID:         w.alloc.NextID(ctx),
		NameEnglish:   strings.TrimSpace(c.NameEnglish),
		NameChinese:   strings.TrimSpace(c.NameChinese),
		AgentNumber:   strings.TrimSpace(c.AgentNumber),
		LicenseNumber: strings.TrimSpace(c.LicenseNumber),
		Company:       strings.TrimSpace(c.Company),
		Role:          strings.TrimSpace(c.Role),
		Status:        intel.StatusActive,
		CreatedBy:     createdBy,
	}
	p.RecomputeNormalizedName(w.norm)

	err := w.repo.Insert(ctx, p)
	if errors.IsCode(err, errors.ErrCodeConflict) {
		// A concurrent writer claimed the same identifier between our
		// read-max and insert.  Re-allocate once and retry.
		w.logger.Warn("POI id collision on insert, retrying with fresh id",
			logging.String("poi_id", p.PoiID),
		)
		p.PoiID = w.alloc.NextID(ctx)
		err = w.repo.Insert(ctx, p)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "profile insert failed")
	}

	w.logger.Info("profile created",
		logging.String("poi_id", p.PoiID),
		logging.String("name", c.DisplayName()),
		logging.String("created_by", createdBy),
	)
	return &WriteResult{Action: ActionCreated, Profile: p}, nil
}

func (w *Writer) update(ctx context.Context, c *Candidate, p *Profile, mode intel.UpdateMode) (*WriteResult, error) {
	if p.Status == intel.StatusMerged {
		return nil, errors.New(errors.ErrCodeProfileMerged, "cannot write to merged profile").
			WithDetail("poi_id=" + p.PoiID)
	}

	namesChanged := false

	candEng := strings.TrimSpace(c.NameEnglish)
	candChi := strings.TrimSpace(c.NameChinese)
	if mode == intel.ModeOverwrite {
		if candEng != "" && candEng != p.NameEnglish {
			p.NameEnglish = candEng
			namesChanged = true
		}
		if candChi != "" && candChi != p.NameChinese {
			p.NameChinese = candChi
			namesChanged = true
		}
	} else {
		if p.NameEnglish == "" && candEng != "" {
			p.NameEnglish = candEng
			namesChanged = true
		}
		if p.NameChinese == "" && candChi != "" {
			p.NameChinese = candChi
			namesChanged = true
		}
	}

	if agent := strings.TrimSpace(c.AgentNumber); agent != "" {
		switch {
		case p.AgentNumber == "":
			p.AgentNumber = agent
		case p.AgentNumber != agent:
			w.logger.Warn("agent number mismatch, keeping stored value",
				logging.String("poi_id", p.PoiID),
				logging.String("stored", p.AgentNumber),
				logging.String("supplied", agent),
			)
		}
	}

	// License numbers renew; a differing value replaces the stored one.
	if license := strings.TrimSpace(c.LicenseNumber); license != "" && license != p.LicenseNumber {
		p.LicenseNumber = license
	}

	if p.Company == "" {
		p.Company = strings.TrimSpace(c.Company)
	}
	if p.Role == "" {
		p.Role = strings.TrimSpace(c.Role)
	}

	if namesChanged {
		p.RecomputeNormalizedName(w.norm)
	}

	now := w.clock().UTC()
	last := now
	p.LastMentionedDate = &last
	p.UpdatedAt = now
	p.Version++

	if err := w.repo.Update(ctx, p); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "profile update failed")
	}
	return &WriteResult{Action: ActionUpdated, Profile: p}, nil
}
