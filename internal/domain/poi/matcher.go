package poi

import (
	"context"
	"strings"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/logging"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/errors"
)

// Matcher resolves a candidate mention against the existing profile
// population.  A nil profile with a nil error means "no match found"; an
// error means the scan itself failed.  The two are never conflated.
type Matcher struct {
	cfg    MatchConfig
	scorer *Scorer
	repo   ProfileRepository
	logger logging.Logger
}

// NewMatcher constructs a Matcher over the given repository.
func NewMatcher(repo ProfileRepository, cfg MatchConfig, scorer *Scorer, logger logging.Logger) *Matcher {
	return &Matcher{
		cfg:    cfg,
		scorer: scorer,
		repo:   repo,
		logger: logger.Named("matcher"),
	}
}

// Match returns the best-matching active profile for the candidate, or nil
// when no profile qualifies.
//
// Priority order:
//  1. exact agent-number / license-number match — highest confidence, short
//     circuits all name logic;
//  2. name-similarity search across all active profiles under the dual-name
//     combination rule, accepted at or above the configured threshold with
//     the lowest POI identifier winning ties;
//  3. hard-identifier conflict check on the winner — textual similarity
//     never overrides a differing agent or license number.
func (m *Matcher) Match(ctx context.Context, c *Candidate) (*Profile, error) {
	if agent := strings.TrimSpace(c.AgentNumber); agent != "" {
		p, err := m.repo.FindActiveByAgentNumber(ctx, agent)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeMatchFailed, "agent number lookup failed")
		}
		if p != nil {
			m.logger.Debug("matched by agent number",
				logging.String("poi_id", p.PoiID),
				logging.String("agent_number", agent),
			)
			return p, nil
		}
	}
	if license := strings.TrimSpace(c.LicenseNumber); license != "" {
		p, err := m.repo.FindActiveByLicense(ctx, license)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeMatchFailed, "license number lookup failed")
		}
		if p != nil {
			m.logger.Debug("matched by license number",
				logging.String("poi_id", p.PoiID),
			)
			return p, nil
		}
	}

	profiles, err := m.repo.FindAllActive(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMatchFailed, "active profile scan failed")
	}

	var best *Profile
	bestScore := 0.0
	for _, p := range profiles {
		score := m.combinedScore(c, p)
		if score < m.cfg.MatchThreshold {
			continue
		}
		if best == nil || score > bestScore || (score == bestScore && poiIDLess(p, best)) {
			best = p
			bestScore = score
		}
	}
	if best == nil {
		return nil, nil
	}

	if conflictField := hardIdentifierConflict(c, best); conflictField != "" {
		m.logger.Warn("rejecting textual match on hard identifier conflict",
			logging.String("poi_id", best.PoiID),
			logging.String("candidate", c.DisplayName()),
			logging.String("field", conflictField),
			logging.Float64("score", bestScore),
		)
		return nil, nil
	}

	m.logger.Debug("matched by name similarity",
		logging.String("poi_id", best.PoiID),
		logging.Float64("score", bestScore),
	)
	return best, nil
}

// combinedScore applies the dual-name combination rule:
//
//   - when candidate and profile both carry both names, the two per-script
//     similarities are combined conservatively: one exact name plus one
//     strong name is a full match; a near-exact English name with at least
//     weak Chinese agreement is a tolerant variant match (0.90); both names
//     strong is a full match; anything else takes the minimum of the two, so
//     a high English score can never paper over a Chinese identity conflict;
//   - when either side is missing a script, the better of the two available
//     similarities is used;
//   - a small bonus applies when both sides carry a similar company string.
func (m *Matcher) combinedScore(c *Candidate, p *Profile) float64 {
	engSim := 0.0
	if strings.TrimSpace(c.NameEnglish) != "" && strings.TrimSpace(p.NameEnglish) != "" {
		engSim = m.scorer.Score(c.NameEnglish, p.NameEnglish)
	}
	chiSim := 0.0
	if strings.TrimSpace(c.NameChinese) != "" && strings.TrimSpace(p.NameChinese) != "" {
		chiSim = m.scorer.Score(c.NameChinese, p.NameChinese)
	}

	var overall float64
	if c.HasBothNames() && p.HasBothNames() {
		strong := m.cfg.StrongNameThreshold
		switch {
		case engSim >= 1.0 && chiSim >= strong, chiSim >= 1.0 && engSim >= strong:
			overall = 1.0
		case engSim >= m.cfg.VariantEnglishThreshold && chiSim >= m.cfg.VariantChineseFloor:
			overall = 0.90
		case engSim >= strong && chiSim >= strong:
			overall = 1.0
		default:
			overall = engSim
			if chiSim < overall {
				overall = chiSim
			}
		}
	} else {
		overall = engSim
		if chiSim > overall {
			overall = chiSim
		}
	}

	if c.Company != "" && p.Company != "" {
		if m.scorer.Score(c.Company, p.Company) > m.cfg.CompanyBonusThreshold {
			overall += m.cfg.CompanyBonus
			if overall > 1.0 {
				overall = 1.0
			}
		}
	}
	return overall
}

// hardIdentifierConflict returns the name of the conflicting identifier field
// when the candidate and profile both carry a non-empty, differing agent or
// license number, or "" when there is no conflict.
func hardIdentifierConflict(c *Candidate, p *Profile) string {
	ca, pa := strings.TrimSpace(c.AgentNumber), strings.TrimSpace(p.AgentNumber)
	if ca != "" && pa != "" && ca != pa {
		return "agent_number"
	}
	cl, pl := strings.TrimSpace(c.LicenseNumber), strings.TrimSpace(p.LicenseNumber)
	if cl != "" && pl != "" && cl != pl {
		return "license_number"
	}
	return ""
}

// poiIDLess orders profiles by numeric POI suffix, identifiers without a
// parseable suffix last.  Used as the deterministic tie-break at equal score.
func poiIDLess(a, b *Profile) bool {
	na, okA := a.NumericSuffix()
	nb, okB := b.NumericSuffix()
	switch {
	case okA && okB:
		return na < nb
	case okA:
		return true
	case okB:
		return false
	default:
		return a.PoiID < b.PoiID
	}
}
