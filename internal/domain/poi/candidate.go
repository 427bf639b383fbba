package poi

import (
	"strings"

	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/errors"
)

// Candidate is one extracted mention of an alleged person: a raw attribute
// tuple not yet tied to a profile.  Candidates are transient; they are always
// attached to exactly one (source_type, source_id) pair by the caller.
type Candidate struct {
	NameEnglish   string `json:"name_english"`
	NameChinese   string `json:"name_chinese"`
	AgentNumber   string `json:"agent_number"`
	LicenseNumber string `json:"license_number"`
	Company       string `json:"company"`
	Role          string `json:"role"`
}

// Validate rejects candidates that carry neither a name nor an agent number.
// Such mentions are unresolvable and must be discarded before matching.
func (c *Candidate) Validate() error {
	if strings.TrimSpace(c.NameEnglish) == "" &&
		strings.TrimSpace(c.NameChinese) == "" &&
		strings.TrimSpace(c.AgentNumber) == "" {
		return errors.New(errors.ErrCodeInvalidCandidate, "candidate has no name and no agent number")
	}
	return nil
}

// HasBothNames reports whether both name fields are populated.
func (c *Candidate) HasBothNames() bool {
	return strings.TrimSpace(c.NameEnglish) != "" && strings.TrimSpace(c.NameChinese) != ""
}

// DisplayName returns the best available label for logging.
func (c *Candidate) DisplayName() string {
	if v := strings.TrimSpace(c.NameEnglish); v != "" {
		return v
	}
	if v := strings.TrimSpace(c.NameChinese); v != "" {
		return v
	}
	return c.AgentNumber
}

// SplitCandidateNames parses multi-valued comma-separated name lists into
// per-person candidates.  English and Chinese positions are paired by index
// when both lists are multi-valued; when the counts differ the shorter list
// is padded with empty strings.  Both ASCII and fullwidth commas delimit.
//
// Shared attributes (agent number, company, role) apply to every produced
// candidate only when exactly one person is listed; for multi-person lists
// they are ambiguous and left empty.
func SplitCandidateNames(english, chinese string, shared Candidate) []Candidate {
	eng := splitNameList(english)
	chi := splitNameList(chinese)

	n := len(eng)
	if len(chi) > n {
		n = len(chi)
	}
	if n == 0 {
		return nil
	}

	out := make([]Candidate, 0, n)
	for i := 0; i < n; i++ {
		c := Candidate{}
		if i < len(eng) {
			c.NameEnglish = eng[i]
		}
		if i < len(chi) {
			c.NameChinese = chi[i]
		}
		if n == 1 {
			c.AgentNumber = shared.AgentNumber
			c.LicenseNumber = shared.LicenseNumber
			c.Company = shared.Company
			c.Role = shared.Role
		}
		out = append(out, c)
	}
	return out
}

func splitNameList(s string) []string {
	s = strings.ReplaceAll(s, "，", ",")
	s = strings.ReplaceAll(s, "、", ",")
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
