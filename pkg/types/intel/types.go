// Package intel defines the shared enumerations of the intelligence domain:
// source channels, extraction methods, profile lifecycle states, and profile
// update modes.  These types cross every layer boundary (HTTP, Kafka, SQL),
// so their string values are part of the platform's wire and storage contract
// and must never be renamed.
package intel

import (
	"fmt"
)

// ─────────────────────────────────────────────────────────────────────────────
// SourceType — the intelligence channel a mention arrived through
// ─────────────────────────────────────────────────────────────────────────────

// SourceType identifies the intelligence channel a source record belongs to.
type SourceType string

const (
	SourceEmail          SourceType = "EMAIL"
	SourceWhatsApp       SourceType = "WHATSAPP"
	SourcePatrol         SourceType = "PATROL"
	SourceSurveillance   SourceType = "SURVEILLANCE"
	SourceReceivedByHand SourceType = "RECEIVED_BY_HAND"
)

// AllSourceTypes is the fixed scan order used by the batch refresh.  The order
// is part of the refresh contract: reports list sources in this sequence.
var AllSourceTypes = []SourceType{
	SourceEmail,
	SourceWhatsApp,
	SourcePatrol,
	SourceSurveillance,
	SourceReceivedByHand,
}

// IsValid reports whether the source type is one of the supported channels.
func (s SourceType) IsValid() bool {
	switch s {
	case SourceEmail, SourceWhatsApp, SourcePatrol, SourceSurveillance, SourceReceivedByHand:
		return true
	default:
		return false
	}
}

// String returns the string representation of the source type.
func (s SourceType) String() string {
	return string(s)
}

// ParseSourceType parses a string into a SourceType.
func ParseSourceType(s string) (SourceType, error) {
	st := SourceType(s)
	if st.IsValid() {
		return st, nil
	}
	return "", fmt.Errorf("unsupported source type: %q", s)
}

// ─────────────────────────────────────────────────────────────────────────────
// ExtractionMethod — who or what produced a candidate mention
// ─────────────────────────────────────────────────────────────────────────────

// ExtractionMethod records the provenance of a candidate: whether it was keyed
// in by an operator, produced by the AI extraction pipeline, or re-derived by
// the batch refresh.
type ExtractionMethod string

const (
	ExtractionManual  ExtractionMethod = "MANUAL"
	ExtractionAI      ExtractionMethod = "AI"
	ExtractionRefresh ExtractionMethod = "REFRESH"
	ExtractionImport  ExtractionMethod = "IMPORT"
)

// IsValid reports whether the extraction method is known.
func (m ExtractionMethod) IsValid() bool {
	switch m {
	case ExtractionManual, ExtractionAI, ExtractionRefresh, ExtractionImport:
		return true
	default:
		return false
	}
}

// String returns the string representation of the extraction method.
func (m ExtractionMethod) String() string {
	return string(m)
}

// ─────────────────────────────────────────────────────────────────────────────
// ProfileStatus — POI profile lifecycle
// ─────────────────────────────────────────────────────────────────────────────

// ProfileStatus is the lifecycle state of a POI profile.  Matching and ID
// allocation only ever consider profiles whose status is not StatusMerged.
type ProfileStatus string

const (
	StatusActive   ProfileStatus = "ACTIVE"
	StatusMerged   ProfileStatus = "MERGED"
	StatusArchived ProfileStatus = "ARCHIVED"
)

// IsValid reports whether the status is a known lifecycle state.
func (s ProfileStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusMerged, StatusArchived:
		return true
	default:
		return false
	}
}

// String returns the string representation of the profile status.
func (s ProfileStatus) String() string {
	return string(s)
}

// ─────────────────────────────────────────────────────────────────────────────
// UpdateMode — profile write policy
// ─────────────────────────────────────────────────────────────────────────────

// UpdateMode selects the merge policy applied when a candidate resolves to an
// existing profile.
type UpdateMode string

const (
	// ModeMerge fills only currently-empty fields.  Safe for automated
	// ingestion; the default for all non-manual sources.
	ModeMerge UpdateMode = "merge"

	// ModeOverwrite replaces names outright when a differing non-empty value
	// is supplied.  Reserved for deliberate operator corrections.
	ModeOverwrite UpdateMode = "overwrite"

	// ModeSkipIfExists returns without mutation when a match is found.
	ModeSkipIfExists UpdateMode = "skip_if_exists"
)

// IsValid reports whether the update mode is known.
func (m UpdateMode) IsValid() bool {
	switch m {
	case ModeMerge, ModeOverwrite, ModeSkipIfExists:
		return true
	default:
		return false
	}
}

// String returns the string representation of the update mode.
func (m UpdateMode) String() string {
	return string(m)
}

// ParseUpdateMode parses a string into an UpdateMode, defaulting to ModeMerge
// for the empty string.
func ParseUpdateMode(s string) (UpdateMode, error) {
	if s == "" {
		return ModeMerge, nil
	}
	m := UpdateMode(s)
	if m.IsValid() {
		return m, nil
	}
	return "", fmt.Errorf("unsupported update mode: %q", s)
}
