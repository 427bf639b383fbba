// Package refresh implements the batch re-resolution job: it walks every
// source table in a fixed order, re-derives candidate tuples from the stored
// extraction fields, and drives each tuple through the resolution pipeline
// in merge mode.  The job is re-runnable at any time; convergence rests on
// the writer's merge semantics and the registrar's idempotence.
package refresh

import (
	"context"
	"time"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/application/resolution"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/domain/intel"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/domain/poi"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/logging"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/metrics"
	types "github.com/marcuskncheung/new-intel-platform-sub000/pkg/types/intel"
)

// refreshConfidence is the link confidence assigned to re-derived mentions;
// below manual certainty, above speculative AI extractions.
const refreshConfidence = 0.75

// SourceStats aggregates the refresh outcome for one source type.
type SourceStats struct {
	SourceType   string `json:"source_type"`
	Scanned      int    `json:"scanned"`
	Created      int    `json:"created"`
	Updated      int    `json:"updated"`
	LinksCreated int    `json:"links_created"`
	Errors       int    `json:"errors"`
}

// Report is the outcome of one refresh run, sources listed in scan order.
type Report struct {
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Sources    []SourceStats `json:"sources"`
}

// ReportArchiver persists the run report for audit.  Archive failures never
// fail the refresh itself.
type ReportArchiver interface {
	Archive(ctx context.Context, r *Report) error
}

// Orchestrator runs the batch refresh.
type Orchestrator struct {
	sources  intel.SourceRepository
	resolver *resolution.Service
	archiver ReportArchiver
	metrics  *metrics.Metrics
	clock    func() time.Time
	logger   logging.Logger
}

// NewOrchestrator constructs an Orchestrator.  archiver and m may be nil.
func NewOrchestrator(sources intel.SourceRepository, resolver *resolution.Service, archiver ReportArchiver, m *metrics.Metrics, logger logging.Logger) *Orchestrator {
	return &Orchestrator{
		sources:  sources,
		resolver: resolver,
		archiver: archiver,
		metrics:  m,
		clock:    time.Now,
		logger:   logger.Named("refresh"),
	}
}

// WithClock overrides the time source; used by tests.
func (o *Orchestrator) WithClock(clock func() time.Time) *Orchestrator {
	o.clock = clock
	return o
}

// RefreshAll walks every source type in the fixed scan order and returns the
// per-source report.  It is best-effort throughout: a failing record or even
// a whole failing source is counted and skipped, never fatal.
func (o *Orchestrator) RefreshAll(ctx context.Context) (*Report, error) {
	report := &Report{StartedAt: o.clock().UTC()}

	for _, st := range types.AllSourceTypes {
		stats := o.refreshSource(ctx, st)
		report.Sources = append(report.Sources, stats)
		o.logger.Info("source refreshed",
			logging.String("source_type", st.String()),
			logging.Int("scanned", stats.Scanned),
			logging.Int("created", stats.Created),
			logging.Int("updated", stats.Updated),
			logging.Int("links_created", stats.LinksCreated),
			logging.Int("errors", stats.Errors),
		)
	}

	report.FinishedAt = o.clock().UTC()
	if o.archiver != nil {
		if err := o.archiver.Archive(ctx, report); err != nil {
			o.logger.Warn("refresh report archive failed", logging.Err(err))
		}
	}
	return report, nil
}

func (o *Orchestrator) refreshSource(ctx context.Context, st types.SourceType) SourceStats {
	stats := SourceStats{SourceType: st.String()}

	records, err := o.sources.ScanCandidates(ctx, st)
	if err != nil {
		o.logger.Error("source scan failed",
			logging.String("source_type", st.String()),
			logging.Err(err),
		)
		stats.Errors++
		o.metrics.RecordRefreshOutcome(st.String(), "scan_error")
		return stats
	}

	for _, rec := range records {
		stats.Scanned++
		o.refreshRecord(ctx, st, rec, &stats)
	}
	return stats
}

func (o *Orchestrator) refreshRecord(ctx context.Context, st types.SourceType, rec *intel.SourceRecord, stats *SourceStats) {
	tuples := poi.SplitCandidateNames(rec.NamesEnglish, rec.NamesChinese, poi.Candidate{
		AgentNumber:   rec.AgentNumber,
		LicenseNumber: rec.LicenseNumber,
		Company:       rec.Company,
		Role:          rec.Role,
	})
	if len(tuples) == 0 {
		return
	}

	in := &resolution.ResolveInput{
		SourceType: st,
		SourceID:   rec.ID,
		Method:     types.ExtractionRefresh,
		Mode:       types.ModeMerge,
	}
	for _, tu := range tuples {
		in.Candidates = append(in.Candidates, resolution.CandidateInput{
			NameEnglish:   tu.NameEnglish,
			NameChinese:   tu.NameChinese,
			AgentNumber:   tu.AgentNumber,
			LicenseNumber: tu.LicenseNumber,
			Company:       tu.Company,
			Role:          tu.Role,
			Confidence:    refreshConfidence,
		})
	}

	results, err := o.resolver.Resolve(ctx, in)
	if err != nil {
		stats.Errors++
		o.metrics.RecordRefreshOutcome(st.String(), "error")
		o.logger.Warn("record resolution failed",
			logging.String("source_type", st.String()),
			logging.String("source_id", rec.ID),
			logging.Err(err),
		)
		return
	}

	for _, r := range results {
		switch {
		case !r.Success:
			stats.Errors++
			o.metrics.RecordRefreshOutcome(st.String(), "error")
		case r.Action == string(poi.ActionCreated):
			stats.Created++
			o.metrics.RecordRefreshOutcome(st.String(), "created")
		case r.Action == string(poi.ActionUpdated):
			stats.Updated++
			o.metrics.RecordRefreshOutcome(st.String(), "updated")
		default:
			o.metrics.RecordRefreshOutcome(st.String(), "skipped")
		}
		if r.LinkCreated {
			stats.LinksCreated++
		}
	}
}
