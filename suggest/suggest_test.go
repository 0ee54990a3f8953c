package suggest

import (
	"testing"

	"github.com/giygas/israeldrugs-mcp/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRank_OrdersByScoreAndLimits(t *testing.T) {
	got := Rank([]string{"Dexamol", "Acamolit", "Acamol"}, "acamo", 2)

	require.Len(t, got, 2)
	assert.Equal(t, "Acamol", got[0].Name)
	assert.Equal(t, "Acamolit", got[1].Name)
	assert.GreaterOrEqual(t, got[0].Score, got[1].Score)
	assert.Equal(t, entities.ConfidenceHigh, got[0].Confidence)
}

func TestRank_StableOnTies(t *testing.T) {
	got := Rank([]string{"Zeta", "Beta", "Meta"}, "q", 0)

	require.Len(t, got, 3)
	assert.Equal(t, got[0].Score, got[1].Score)
	assert.Equal(t, []string{"Zeta", "Beta", "Meta"}, []string{got[0].Name, got[1].Name, got[2].Name})
}

func TestRank_TiesPreferShorterNames(t *testing.T) {
	// both score 0 against the query
	got := Rank([]string{"Abcdef", "Abc", "Xyz"}, "qq", 0)

	require.Len(t, got, 3)
	assert.Equal(t, got[0].Score, got[2].Score)
	assert.Equal(t, []string{"Abc", "Xyz", "Abcdef"}, []string{got[0].Name, got[1].Name, got[2].Name})
}

func TestRank_Tiers(t *testing.T) {
	got := Rank([]string{"Paracetamol", "Novoparacetamolum", "Ibuprofen"}, "paracetamol", 0)

	require.Len(t, got, 3)
	assert.Equal(t, entities.ConfidenceHigh, got[0].Confidence)   // exact
	assert.Equal(t, entities.ConfidenceMedium, got[1].Confidence) // substring
	assert.Equal(t, entities.ConfidenceLow, got[2].Confidence)
}

func TestRank_DeduplicatesIgnoringCase(t *testing.T) {
	got := Rank([]string{"Acamol", "ACAMOL", " acamol ", "", "Acamolit"}, "acamol", 0)

	require.Len(t, got, 2)
	assert.Equal(t, "Acamol", got[0].Name)
}

func TestRank_NoLimitAndEmptyInput(t *testing.T) {
	assert.Len(t, Rank([]string{"a1", "b2", "c3"}, "x", -1), 3)
	assert.Empty(t, Rank(nil, "acamol", 5))
}

func TestRank_ScoresInRange(t *testing.T) {
	for _, s := range Rank([]string{"אקמול", "Acamol", "X"}, "אקמ", 0) {
		assert.GreaterOrEqual(t, s.Score, 0.0)
		assert.LessOrEqual(t, s.Score, 1.0)
	}
}

func TestClassifyName(t *testing.T) {
	tests := []struct {
		name string
		want entities.NameType
	}{
		{"PARACETAMOL", entities.NameActiveIngredient},
		{"IBUPROFEN 200", entities.NameActiveIngredient},
		{"Acamol", entities.NameTradeName},
		{"Advil Forte", entities.NameTradeName},
		{"ACamol", entities.NameUnknown},
		{"A", entities.NameUnknown},
		{"ASA", entities.NameUnknown},
		{"acamol", entities.NameUnknown},
		{"אקמול", entities.NameUnknown},
		{"", entities.NameUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyName(tt.name))
		})
	}
}
