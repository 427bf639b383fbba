package intel

import (
	"fmt"
	"strings"

	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/errors"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/types/common"
	types "github.com/marcuskncheung/new-intel-platform-sub000/pkg/types/intel"
)

// Link associates one POI profile with one source record.  The triple
// (PoiID, SourceType, SourceID) is unique; re-registering it is a no-op.
// Links reference the profile by its stable display identifier rather than
// by row identity, so profile storage can be reshaped without breaking them.
// A link is never mutated after creation except for confidence refinement,
// and is removed only when the underlying source record is deleted.
type Link struct {
	common.BaseEntity

	PoiID            string                 `json:"poi_id"`
	SourceType       types.SourceType       `json:"source_type"`
	SourceID         string                 `json:"source_id"`
	ExtractionMethod types.ExtractionMethod `json:"extraction_method"`
	ConfidenceScore  float64                `json:"confidence_score"`
}

// Validate checks the registration triple and metadata before any write.
func (l *Link) Validate() error {
	if strings.TrimSpace(l.PoiID) == "" {
		return errors.New(errors.ErrCodeLinkRegistration, "link requires a poi_id")
	}
	if !l.SourceType.IsValid() {
		return errors.New(errors.ErrCodeLinkRegistration, "unsupported source type").
			WithDetail(l.SourceType.String())
	}
	if strings.TrimSpace(l.SourceID) == "" {
		return errors.New(errors.ErrCodeLinkRegistration, "link requires a source_id")
	}
	if !l.ExtractionMethod.IsValid() {
		return errors.New(errors.ErrCodeLinkRegistration, "unsupported extraction method").
			WithDetail(l.ExtractionMethod.String())
	}
	if l.ConfidenceScore < 0 || l.ConfidenceScore > 1 {
		return errors.New(errors.ErrCodeLinkRegistration, "confidence score out of range").
			WithDetail(fmt.Sprintf("%g", l.ConfidenceScore))
	}
	return nil
}

// Key renders the unique registration triple, used in logs and cache keys.
func (l *Link) Key() string {
	return fmt.Sprintf("%s/%s/%s", l.PoiID, l.SourceType, l.SourceID)
}
