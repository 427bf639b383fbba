package poi

import (
	"strconv"
	"strings"
	"time"

	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/types/common"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/types/intel"
)

// PoiIDPrefix is the display-identifier prefix of every POI profile.
const PoiIDPrefix = "POI-"

// Profile is the canonical identity record for an alleged person.  It is the
// aggregate root of the POI bounded context: all mutations must go through
// the Writer and the link Registrar so the merge/overwrite contracts and the
// derived statistics stay consistent.  No caller mutates profile fields
// directly.
type Profile struct {
	common.BaseEntity

	// PoiID is the stable human-readable identifier ("POI-001").  It is never
	// reused or mutated after creation; links reference profiles by this
	// value rather than by row identity so internal storage can be reshaped
	// without breaking them.
	PoiID string `json:"poi_id"`

	// ── Identity ─────────────────────────────────────────────────────────────
	NameEnglish string `json:"name_english"`
	NameChinese string `json:"name_chinese"`

	// NameNormalized is derived: the pipe-joined normalized forms of the two
	// name fields.  It must be recomputed whenever either name field changes.
	NameNormalized string   `json:"name_normalized"`
	Aliases        []string `json:"aliases,omitempty"`

	// ── Professional ─────────────────────────────────────────────────────────
	AgentNumber   string `json:"agent_number"`
	LicenseNumber string `json:"license_number"`
	Company       string `json:"company"`
	Role          string `json:"role"`

	// ── Lifecycle ────────────────────────────────────────────────────────────
	Status          intel.ProfileStatus `json:"status"`
	MergedIntoPoiID string              `json:"merged_into_poi_id,omitempty"`
	CreatedBy       string              `json:"created_by"`

	// ── Derived statistics (updated on link creation only) ───────────────────
	EmailCount         int        `json:"email_count"`
	WhatsAppCount      int        `json:"whatsapp_count"`
	PatrolCount        int        `json:"patrol_count"`
	SurveillanceCount  int        `json:"surveillance_count"`
	HandDeliveredCount int        `json:"hand_delivered_count"`
	FirstMentionedDate *time.Time `json:"first_mentioned_date,omitempty"`
	LastMentionedDate  *time.Time `json:"last_mentioned_date,omitempty"`
}

// IsActive reports whether the profile participates in matching and ID
// allocation.  Merged profiles are frozen tombstones.
func (p *Profile) IsActive() bool {
	return p.Status != intel.StatusMerged
}

// HasBothNames reports whether both the English and Chinese name fields are
// populated, enabling the dual-name matching rule.
func (p *Profile) HasBothNames() bool {
	return strings.TrimSpace(p.NameEnglish) != "" && strings.TrimSpace(p.NameChinese) != ""
}

// RecomputeNormalizedName re-derives NameNormalized from the current name
// fields using the supplied normalizer.  Call after every name mutation.
func (p *Profile) RecomputeNormalizedName(n *Normalizer) {
	var parts []string
	if v := n.Normalize(p.NameEnglish); v != "" {
		parts = append(parts, v)
	}
	if v := n.Normalize(p.NameChinese); v != "" {
		parts = append(parts, v)
	}
	p.NameNormalized = strings.Join(parts, "|")
}

// NumericSuffix parses the numeric portion of the PoiID.  The boolean is
// false when the identifier does not carry a plain integer suffix (malformed
// input; timestamp-fallback identifiers do parse, as ten-digit integers).
func (p *Profile) NumericSuffix() (int, bool) {
	return parsePoiSuffix(p.PoiID)
}

func parsePoiSuffix(poiID string) (int, bool) {
	if !strings.HasPrefix(poiID, PoiIDPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(poiID, PoiIDPrefix))
	if err != nil {
		return 0, false
	}
	return n, true
}

// MentionCount returns the per-source mention counter for the given channel.
func (p *Profile) MentionCount(st intel.SourceType) int {
	switch st {
	case intel.SourceEmail:
		return p.EmailCount
	case intel.SourceWhatsApp:
		return p.WhatsAppCount
	case intel.SourcePatrol:
		return p.PatrolCount
	case intel.SourceSurveillance:
		return p.SurveillanceCount
	case intel.SourceReceivedByHand:
		return p.HandDeliveredCount
	default:
		return 0
	}
}

// RecordMention increments the per-source counter and maintains the first/last
// mentioned dates: first is set only when currently unset, last is always
// refreshed.  Called by the link registrar exactly once per new link.
func (p *Profile) RecordMention(st intel.SourceType, at time.Time) {
	switch st {
	case intel.SourceEmail:
		p.EmailCount++
	case intel.SourceWhatsApp:
		p.WhatsAppCount++
	case intel.SourcePatrol:
		p.PatrolCount++
	case intel.SourceSurveillance:
		p.SurveillanceCount++
	case intel.SourceReceivedByHand:
		p.HandDeliveredCount++
	}
	if p.FirstMentionedDate == nil {
		first := at
		p.FirstMentionedDate = &first
	}
	last := at
	p.LastMentionedDate = &last
}

// TotalMentions sums the per-source counters.
func (p *Profile) TotalMentions() int {
	return p.EmailCount + p.WhatsAppCount + p.PatrolCount + p.SurveillanceCount + p.HandDeliveredCount
}

// ToDict flattens the profile into the serializable form exposed to the rest
// of the system: identity, professional, and statistics fields only.  No
// internal matching state leaks through this view.
func (p *Profile) ToDict() map[string]interface{} {
	d := map[string]interface{}{
		"poi_id":               p.PoiID,
		"name_english":         p.NameEnglish,
		"name_chinese":         p.NameChinese,
		"name_normalized":      p.NameNormalized,
		"aliases":              p.Aliases,
		"agent_number":         p.AgentNumber,
		"license_number":       p.LicenseNumber,
		"company":              p.Company,
		"role":                 p.Role,
		"status":               p.Status.String(),
		"created_by":           p.CreatedBy,
		"email_count":          p.EmailCount,
		"whatsapp_count":       p.WhatsAppCount,
		"patrol_count":         p.PatrolCount,
		"surveillance_count":   p.SurveillanceCount,
		"hand_delivered_count": p.HandDeliveredCount,
		"total_mentions":       p.TotalMentions(),
	}
	if p.MergedIntoPoiID != "" {
		d["merged_into_poi_id"] = p.MergedIntoPoiID
	}
	if p.FirstMentionedDate != nil {
		d["first_mentioned_date"] = p.FirstMentionedDate.UTC().Format(time.RFC3339)
	}
	if p.LastMentionedDate != nil {
		d["last_mentioned_date"] = p.LastMentionedDate.UTC().Format(time.RFC3339)
	}
	return d
}
