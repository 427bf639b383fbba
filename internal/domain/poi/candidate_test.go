package poi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/errors"
)

func TestCandidate_Validate(t *testing.T) {
	assert.NoError(t, (&Candidate{NameEnglish: "Chan Tai Man"}).Validate())
	assert.NoError(t, (&Candidate{NameChinese: "陳大文"}).Validate())
	assert.NoError(t, (&Candidate{AgentNumber: "AG-001"}).Validate())

	err := (&Candidate{Company: "AIA", Role: "Agent"}).Validate()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidCandidate))

	err = (&Candidate{NameEnglish: "   "}).Validate()
	require.Error(t, err)
}

func TestCandidate_DisplayName(t *testing.T) {
	assert.Equal(t, "Chan Tai Man", (&Candidate{NameEnglish: " Chan Tai Man ", NameChinese: "陳大文"}).DisplayName())
	assert.Equal(t, "陳大文", (&Candidate{NameChinese: "陳大文"}).DisplayName())
	assert.Equal(t, "AG-001", (&Candidate{AgentNumber: "AG-001"}).DisplayName())
}

func TestSplitCandidateNames_SinglePersonKeepsSharedAttrs(t *testing.T) {
	shared := Candidate{AgentNumber: "AG-001", LicenseNumber: "LIC-1", Company: "AIA", Role: "Agent"}

	out := SplitCandidateNames("Chan Tai Man", "陳大文", shared)
	require.Len(t, out, 1)
	assert.Equal(t, "Chan Tai Man", out[0].NameEnglish)
	assert.Equal(t, "陳大文", out[0].NameChinese)
	assert.Equal(t, "AG-001", out[0].AgentNumber)
	assert.Equal(t, "AIA", out[0].Company)
}

func TestSplitCandidateNames_PairsByIndex(t *testing.T) {
	out := SplitCandidateNames("Chan Tai Man, Leung Sheung Man", "陳大文，梁尚文", Candidate{Company: "AIA"})
	require.Len(t, out, 2)
	assert.Equal(t, "Chan Tai Man", out[0].NameEnglish)
	assert.Equal(t, "陳大文", out[0].NameChinese)
	assert.Equal(t, "Leung Sheung Man", out[1].NameEnglish)
	assert.Equal(t, "梁尚文", out[1].NameChinese)

	// Shared attributes are ambiguous for multi-person lists.
	assert.Empty(t, out[0].Company)
	assert.Empty(t, out[1].Company)
}

func TestSplitCandidateNames_PadsShorterList(t *testing.T) {
	out := SplitCandidateNames("Chan Tai Man, Leung Sheung Man, Wong Siu Ming", "陳大文", Candidate{})
	require.Len(t, out, 3)
	assert.Equal(t, "陳大文", out[0].NameChinese)
	assert.Empty(t, out[1].NameChinese)
	assert.Empty(t, out[2].NameChinese)
}

func TestSplitCandidateNames_EnumerationComma(t *testing.T) {
	out := SplitCandidateNames("", "陳大文、梁尚文", Candidate{})
	require.Len(t, out, 2)
	assert.Equal(t, "陳大文", out[0].NameChinese)
	assert.Equal(t, "梁尚文", out[1].NameChinese)
}

func TestSplitCandidateNames_Empty(t *testing.T) {
	assert.Nil(t, SplitCandidateNames("", "", Candidate{AgentNumber: "AG-001"}))
	assert.Nil(t, SplitCandidateNames(" , ,", "，", Candidate{}))
}
