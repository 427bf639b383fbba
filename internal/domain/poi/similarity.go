// Package poi implements the entity-resolution core for Person-of-Interest
// profiles: name normalization, cross-script similarity scoring, candidate
// matching with hard-identifier conflict detection, stable identifier
// allocation, and merge/overwrite profile writing.  All business rules that
// decide whether two mentions are the same person live here; persistence is
// behind the repository interfaces in repository.go.
package poi

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Similarity weights of the scoring decision list.  These encode the shape of
// the algorithm rather than operational tuning and are deliberately not
// configuration: changing them changes what "the same person" means.
const (
	// scoreCJKIdentical is awarded when the Han subsequences of both names
	// are identical, tolerating a trailing Latin nickname.
	scoreCJKIdentical = 0.95

	// weightCJKContainment scales a Han-subsequence containment match by the
	// length ratio of the two subsequences.
	weightCJKContainment = 0.85

	// weightCJKOverlap discounts a bare shared-character signal.  CJK names
	// are short, so character overlap alone is weak evidence.
	weightCJKOverlap = 0.7

	// scoreWordSubsetStrong is awarded when one Latin word set contains the
	// other and the length guard holds.
	scoreWordSubsetStrong = 0.95

	// weightWordSubsetDemoted applies when the subset condition holds but the
	// length guard fails (e.g. a bare surname inside a full name).
	weightWordSubsetDemoted = 0.75

	// weightWordOverlap blends non-subset word overlap into the Latin score.
	weightWordOverlap = 0.85
)

// MatchConfig carries the tunable thresholds and keyword lists of the scorer
// and matcher.  It is an explicit value object so deployments can adjust
// matching behavior without code edits; DefaultMatchConfig returns the
// production defaults.
type MatchConfig struct {
	// MatchThreshold is the minimum combined score at which the matcher
	// accepts a profile.
	MatchThreshold float64

	// StrongNameThreshold is the per-name similarity both scripts must reach
	// for a dual-name strong match.
	StrongNameThreshold float64

	// VariantEnglishThreshold and VariantChineseFloor bound the tolerant
	// variant rule: a near-exact English match with at least weak Chinese
	// agreement.
	VariantEnglishThreshold float64
	VariantChineseFloor     float64

	// CompanyBonus is added when both sides carry a similar company string;
	// CompanyBonusThreshold is the company similarity required to earn it.
	CompanyBonus          float64
	CompanyBonusThreshold float64

	// Honorifics are stripped from names before comparison.
	Honorifics []string

	// CompanyKeywords classify a string as company-like.  Matched
	// case-insensitively as substrings; a company name can never match a
	// person name.
	CompanyKeywords []string
}

// DefaultMatchConfig returns the production matching configuration.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		MatchThreshold:          0.80,
		StrongNameThreshold:     0.80,
		VariantEnglishThreshold: 0.95,
		VariantChineseFloor:     0.50,
		CompanyBonus:            0.05,
		CompanyBonusThreshold:   0.80,
		Honorifics: []string{
			"mr", "mrs", "ms", "miss", "dr", "prof", "sir", "madam", "mdm", "jr", "sr",
		},
		CompanyKeywords: []string{
			"limited", "ltd", "holdings", "company", "corporation", "consultant",
			"consultancy", "agency", "group", "insurance brokers",
			"有限公司", "集團", "控股", "顧問", "保險經紀",
		},
	}
}

// Scorer computes a similarity in [0,1] between two names, with distinct
// strategies for Latin-script and CJK-script input and an explicit
// company-vs-person veto.  A Scorer is immutable and safe for concurrent use.
type Scorer struct {
	cfg  MatchConfig
	norm *Normalizer
}

// NewScorer constructs a Scorer with the given configuration.
func NewScorer(cfg MatchConfig) *Scorer {
	return &Scorer{cfg: cfg, norm: NewNormalizer(cfg)}
}

// Normalizer exposes the scorer's name normalizer so callers recomputing
// stored normalized names use the exact same canonical form.
func (s *Scorer) Normalizer() *Normalizer {
	return s.norm
}

// Score returns the similarity between two raw name strings.  The rules form
// an ordered decision list; the first matching rule wins:
//
//  1. empty input on either side → 0
//  2. exactly one side company-like → 0 (veto, before any fuzzy comparison)
//  3. exact normalized match → 1
//  4. both sides contain Han characters → CJK subsequence rules
//  5. Latin path: edit-distance ratio with a word-set containment bonus
func (s *Scorer) Score(a, b string) float64 {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return 0.0
	}

	aCompany := s.companyLike(a)
	bCompany := s.companyLike(b)
	if aCompany != bCompany {
		return 0.0
	}

	na := s.norm.Normalize(a)
	nb := s.norm.Normalize(b)
	if na == "" || nb == "" {
		return 0.0
	}
	if na == nb {
		return 1.0
	}

	if containsCJK(na) && containsCJK(nb) {
		return scoreCJK(na, nb)
	}

	return scoreLatin(na, nb)
}

// companyLike reports whether the string matches any configured company
// keyword as a case-insensitive substring.
func (s *Scorer) companyLike(v string) bool {
	lower := strings.ToLower(v)
	for _, kw := range s.cfg.CompanyKeywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// scoreCJK compares the Han subsequences of two normalized names.  CJK names
// are 2-4 characters; a single differing character is a different person, so
// they never receive ordinary fuzzy-string credit.
func scoreCJK(na, nb string) float64 {
	ca := cjkSubsequence(na)
	cb := cjkSubsequence(nb)
	if len(ca) == 0 || len(cb) == 0 {
		return 0.0
	}

	sa, sb := string(ca), string(cb)
	if sa == sb {
		return scoreCJKIdentical
	}

	shorter, longer := sa, sb
	if len(ca) > len(cb) {
		shorter, longer = sb, sa
	}
	if strings.Contains(longer, shorter) {
		ratio := float64(len([]rune(shorter))) / float64(len([]rune(longer)))
		return weightCJKContainment * ratio
	}

	setA := make(map[rune]struct{}, len(ca))
	for _, r := range ca {
		setA[r] = struct{}{}
	}
	setB := make(map[rune]struct{}, len(cb))
	for _, r := range cb {
		setB[r] = struct{}{}
	}
	shared := 0
	for r := range setA {
		if _, ok := setB[r]; ok {
			shared++
		}
	}
	if shared == 0 {
		return 0.0
	}
	larger := len(setA)
	if len(setB) > larger {
		larger = len(setB)
	}
	return float64(shared) / float64(larger) * weightCJKOverlap
}

// scoreLatin compares two normalized Latin-script names: an edit-distance
// sequence ratio blended with word-set containment.  The containment rule is
// only strong evidence when the shorter side has at least two words and the
// longer side is no more than twice its word count, which keeps a bare
// surname from matching a full name.
func scoreLatin(na, nb string) float64 {
	seqRatio := sequenceRatio(na, nb)

	wordsA := wordSet(na)
	wordsB := wordSet(nb)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return seqRatio
	}

	shared := 0
	for w := range wordsA {
		if _, ok := wordsB[w]; ok {
			shared++
		}
	}
	smaller, larger := len(wordsA), len(wordsB)
	if smaller > larger {
		smaller, larger = larger, smaller
	}
	overlapRatio := float64(shared) / float64(larger)

	if shared == smaller { // one word set contains the other
		if smaller >= 2 && larger <= 2*smaller {
			return scoreWordSubsetStrong
		}
		return overlapRatio * weightWordSubsetDemoted
	}

	if blended := overlapRatio * weightWordOverlap; blended > seqRatio {
		return blended
	}
	return seqRatio
}

// sequenceRatio converts Levenshtein edit distance into a 0-1 similarity.
func sequenceRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 0.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	if dist >= longest {
		return 0.0
	}
	return 1.0 - float64(dist)/float64(longest)
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}
