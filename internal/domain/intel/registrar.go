package intel

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/domain/poi"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/logging"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/errors"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/types/common"
	types "github.com/marcuskncheung/new-intel-platform-sub000/pkg/types/intel"
)

// Registrar records which source records mention which POI.  Registration is
// idempotent on the (poi_id, source_type, source_id) triple: the first call
// creates the link and bumps the profile's per-source mention statistics,
// every later call is a no-op apart from upward confidence refinement.
//
// The legacy writer mirrors links into the compatibility table; it is
// optional and its failures are logged, never propagated.
type Registrar struct {
	links    LinkRepository
	legacy   LegacyLinkWriter
	profiles poi.ProfileRepository
	clock    func() time.Time
	logger   logging.Logger
}

// NewRegistrar constructs a Registrar.  legacy may be nil when no
// compatibility table is configured.
func NewRegistrar(links LinkRepository, legacy LegacyLinkWriter, profiles poi.ProfileRepository, logger logging.Logger) *Registrar {
	return &Registrar{
		links:    links,
		legacy:   legacy,
		profiles: profiles,
		clock:    time.Now,
		logger:   logger.Named("registrar"),
	}
}

// WithClock overrides the time source; used by tests.
func (r *Registrar) WithClock(clock func() time.Time) *Registrar {
	r.clock = clock
	return r
}

// Register records the association between a POI and a source record.  It
// returns true when a new link was created, false when the triple was
// already registered.
func (r *Registrar) Register(ctx context.Context, poiID string, st types.SourceType, sourceID string, method types.ExtractionMethod, confidence float64) (bool, error) {
	now := r.clock().UTC()
	link := &Link{
		BaseEntity: common.BaseEntity{
			ID:        common.ID(uuid.NewString()),
			CreatedAt: now,
			UpdatedAt: now,
			Version:   1,
		},
		PoiID:            poiID,
		SourceType:       st,
		SourceID:         sourceID,
		ExtractionMethod: method,
		ConfidenceScore:  confidence,
	}
	if err := link.Validate(); err != nil {
		return false, err
	}

	existing, err := r.links.Find(ctx, poiID, st, sourceID)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeLinkRegistration, "link lookup failed").
			WithDetail(link.Key())
	}
	if existing != nil {
		r.refineConfidence(ctx, existing, confidence)
		return false, nil
	}

	err = r.links.Insert(ctx, link)
	if errors.IsCode(err, errors.ErrCodeConflict) {
		// A concurrent registration won the race; the triple is stored and
		// its counter was already bumped by the winner.
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeLinkRegistration, "link insert failed").
			WithDetail(link.Key())
	}

	if err := r.recordMention(ctx, poiID, st, now); err != nil {
		return false, err
	}

	if r.legacy != nil {
		if err := r.legacy.Write(ctx, link); err != nil {
			// Compatibility mirror only; the primary registration stands.
			r.logger.Warn("legacy link write failed",
				logging.String("link", link.Key()),
				logging.String("code", string(errors.ErrCodeSecondaryLinkWrite)),
				logging.Err(err),
			)
		}
	}

	r.logger.Info("link registered",
		logging.String("link", link.Key()),
		logging.String("method", method.String()),
		logging.Float64("confidence", confidence),
	)
	return true, nil
}

// refineConfidence raises the stored score when a stronger signal arrives.
// Confidence never decreases, and refinement failures do not affect the
// registration outcome.
func (r *Registrar) refineConfidence(ctx context.Context, existing *Link, confidence float64) {
	if confidence <= existing.ConfidenceScore {
		return
	}
	if err := r.links.UpdateConfidence(ctx, existing.PoiID, existing.SourceType, existing.SourceID, confidence); err != nil {
		r.logger.Warn("confidence refinement failed",
			logging.String("link", existing.Key()),
			logging.Err(err),
		)
	}
}

func (r *Registrar) recordMention(ctx context.Context, poiID string, st types.SourceType, at time.Time) error {
	p, err := r.profiles.FindByPoiID(ctx, poiID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeLinkRegistration, "profile statistics update failed").
			WithDetail(poiID)
	}
	p.RecordMention(st, at)
	p.UpdatedAt = at
	p.Version++
	if err := r.profiles.Update(ctx, p); err != nil {
		return errors.Wrap(err, errors.ErrCodeLinkRegistration, "profile statistics update failed").
			WithDetail(poiID)
	}
	return nil
}
