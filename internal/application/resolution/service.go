// Package resolution drives the candidate-to-profile pipeline: validate the
// extracted mention, match it against the known POI population, create or
// update the profile, and register the intelligence link.  This is the only
// entry point the HTTP boundary, the Kafka worker, and the batch refresh go
// through.
package resolution

import (
	"context"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/domain/intel"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/domain/poi"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/logging"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/metrics"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/errors"
	types "github.com/marcuskncheung/new-intel-platform-sub000/pkg/types/intel"
)

// allocLockKey serializes profile creation across instances so the ID
// allocator's read-then-increment stays sequential.
const allocLockKey = "poi:alloc"

// Locker serializes critical sections across service instances.  Unlock is
// returned rather than exposed so a held lock cannot leak past its scope.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// EventPublisher emits domain events after successful writes.  Publishing is
// fire-and-forget from the caller's view: failures are logged, never
// propagated.
type EventPublisher interface {
	PublishPoiCreated(ctx context.Context, p *poi.Profile) error
	PublishPoiUpdated(ctx context.Context, p *poi.Profile) error
	PublishLinkRegistered(ctx context.Context, l *intel.Link) error
}

// ProfileIndexer mirrors profiles into the operator search index.  Isolated
// like event publishing.
type ProfileIndexer interface {
	IndexProfile(ctx context.Context, p *poi.Profile) error
}

// CandidateInput is one extracted mention as submitted by a caller.
type CandidateInput struct {
	NameEnglish   string  `json:"name_english"`
	NameChinese   string  `json:"name_chinese"`
	AgentNumber   string  `json:"agent_number"`
	LicenseNumber string  `json:"license_number"`
	Company       string  `json:"company"`
	Role          string  `json:"role"`
	Confidence    float64 `json:"confidence"`
}

// ResolveInput carries a batch of candidates from one source record.
type ResolveInput struct {
	SourceType types.SourceType       `json:"source_type"`
	SourceID   string                 `json:"source_id"`
	Method     types.ExtractionMethod `json:"extraction_method"`
	Mode       types.UpdateMode       `json:"update_mode"`
	Candidates []CandidateInput       `json:"candidates"`
}

// ResolveResult reports the outcome for one candidate.
type ResolveResult struct {
	Success     bool   `json:"success"`
	Action      string `json:"action"`
	PoiID       string `json:"poi_id,omitempty"`
	ProfileID   string `json:"profile_id,omitempty"`
	LinkCreated bool   `json:"link_created"`
	Message     string `json:"message,omitempty"`
}

// Service wires the domain pipeline together.
type Service struct {
	matcher   *poi.Matcher
	writer    *poi.Writer
	registrar *intel.Registrar
	locker    Locker
	events    EventPublisher
	indexer   ProfileIndexer
	metrics   *metrics.Metrics
	logger    logging.Logger
}

// NewService constructs the resolution service.  locker, events, indexer and
// m may each be nil; the corresponding step is then skipped.
func NewService(
	matcher *poi.Matcher,
	writer *poi.Writer,
	registrar *intel.Registrar,
	locker Locker,
	events EventPublisher,
	indexer ProfileIndexer,
	m *metrics.Metrics,
	logger logging.Logger,
) *Service {
	return &Service{
		matcher:   matcher,
		writer:    writer,
		registrar: registrar,
		locker:    locker,
		events:    events,
		indexer:   indexer,
		metrics:   m,
		logger:    logger.Named("resolution"),
	}
}

// Resolve processes every candidate in the input and returns one result per
// candidate, in order.  A failing candidate never aborts the rest of the
// batch.
func (s *Service) Resolve(ctx context.Context, in *ResolveInput) ([]ResolveResult, error) {
	if in.SourceID != "" && !in.SourceType.IsValid() {
		return nil, errors.New(errors.ErrCodeSourceUnsupported, "unsupported source type").
			WithDetail(in.SourceType.String())
	}
	mode := in.Mode
	if mode == "" {
		mode = types.ModeMerge
	}
	method := in.Method
	if method == "" {
		method = types.ExtractionManual
	}

	results := make([]ResolveResult, 0, len(in.Candidates))
	for i := range in.Candidates {
		results = append(results, s.resolveOne(ctx, in, &in.Candidates[i], mode, method))
	}
	return results, nil
}

func (s *Service) resolveOne(ctx context.Context, in *ResolveInput, ci *CandidateInput, mode types.UpdateMode, method types.ExtractionMethod) ResolveResult {
	c := &poi.Candidate{
		NameEnglish:   ci.NameEnglish,
		NameChinese:   ci.NameChinese,
		AgentNumber:   ci.AgentNumber,
		LicenseNumber: ci.LicenseNumber,
		Company:       ci.Company,
		Role:          ci.Role,
	}
	if err := c.Validate(); err != nil {
		s.metrics.RecordResolution("rejected")
		return ResolveResult{Success: false, Action: "rejected", Message: err.Error()}
	}

	matched, err := s.matcher.Match(ctx, c)
	if err != nil {
		s.metrics.RecordResolution("error")
		return ResolveResult{Success: false, Action: "error", Message: err.Error()}
	}

	res, err := s.write(ctx, c, matched, mode, in.SourceType)
	if err != nil {
		s.metrics.RecordResolution("error")
		return ResolveResult{Success: false, Action: "error", Message: err.Error()}
	}
	s.metrics.RecordResolution(string(res.Action))

	out := ResolveResult{
		Success:   true,
		Action:    string(res.Action),
		PoiID:     res.Profile.PoiID,
		ProfileID: string(res.Profile.ID),
	}

	if in.SourceID != "" {
		confidence := ci.Confidence
		if confidence == 0 && method == types.ExtractionManual {
			confidence = 1.0
		}
		created, err := s.registrar.Register(ctx, res.Profile.PoiID, in.SourceType, in.SourceID, method, confidence)
		if err != nil {
			out.Success = false
			out.Message = err.Error()
			return out
		}
		out.LinkCreated = created
		if created {
			s.metrics.RecordLinkCreated()
			s.publishLink(ctx, res.Profile.PoiID, in, method, confidence)
		}
	}

	s.propagate(ctx, res)
	return out
}

// write runs the profile mutation, serializing the creation path behind the
// allocation lock so concurrent creates do not race the ID sequence.  Lock
// acquisition failure degrades to an unserialized create; the repository's
// unique constraint plus the writer's retry still guarantee correctness.
func (s *Service) write(ctx context.Context, c *poi.Candidate, matched *poi.Profile, mode types.UpdateMode, st types.SourceType) (*poi.WriteResult, error) {
	if matched == nil && s.locker != nil {
		unlock, err := s.locker.Lock(ctx, allocLockKey)
		if err != nil {
			s.logger.Warn("allocation lock unavailable, creating unserialized", logging.Err(err))
		} else {
			defer unlock()
		}
	}
	return s.writer.Write(ctx, c, matched, mode, st.String())
}

// propagate mirrors the write into the event stream and the search index.
// Both are isolated: the resolution outcome never depends on them.
func (s *Service) propagate(ctx context.Context, res *poi.WriteResult) {
	if s.events != nil {
		var err error
		switch res.Action {
		case poi.ActionCreated:
			err = s.events.PublishPoiCreated(ctx, res.Profile)
		case poi.ActionUpdated:
			err = s.events.PublishPoiUpdated(ctx, res.Profile)
		}
		if err != nil {
			s.logger.Warn("event publish failed",
				logging.String("poi_id", res.Profile.PoiID),
				logging.Err(err),
			)
		}
	}
	if s.indexer != nil && res.Action != poi.ActionSkipped {
		if err := s.indexer.IndexProfile(ctx, res.Profile); err != nil {
			s.logger.Warn("search index update failed",
				logging.String("poi_id", res.Profile.PoiID),
				logging.Err(err),
			)
		}
	}
}

func (s *Service) publishLink(ctx context.Context, poiID string, in *ResolveInput, method types.ExtractionMethod, confidence float64) {
	if s.events == nil {
		return
	}
	l := &intel.Link{
		PoiID:            poiID,
		SourceType:       in.SourceType,
		SourceID:         in.SourceID,
		ExtractionMethod: method,
		ConfidenceScore:  confidence,
	}
	if err := s.events.PublishLinkRegistered(ctx, l); err != nil {
		s.logger.Warn("link event publish failed",
			logging.String("link", l.Key()),
			logging.Err(err),
		)
	}
}
