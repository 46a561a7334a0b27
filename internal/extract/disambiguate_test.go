package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HabtB/Pharmacy-Pickup/internal/detection"
)

func nums(values ...int) []NumberToken {
	out := make([]NumberToken, len(values))
	for i, v := range values {
		out[i] = NumberToken{Value: v}
	}
	return out
}

func hasWarningPrefix(r *CandidateRecord, prefix string) bool {
	for _, w := range r.Warnings {
		if strings.HasPrefix(w, prefix) {
			return true
		}
	}
	return false
}

func TestDisambiguate_SingleRecord(t *testing.T) {
	tests := []struct {
		name        string
		numbers     []NumberToken
		wantPick    int
		wantMax     *int
		wantCurrent *int
		wantWarning string
	}{
		{name: "single number", numbers: nums(18), wantPick: 18},
		{name: "two numbers", numbers: nums(8, 12), wantPick: 8, wantWarning: WarnLowConfidence},
		{name: "exact triple", numbers: nums(25, 30, 5), wantPick: 25, wantMax: intp(30), wantCurrent: intp(5)},
		{name: "within tolerance", numbers: nums(7, 10, 6), wantPick: 7, wantMax: intp(10), wantCurrent: intp(6)},
		{name: "triple after noise", numbers: nums(100, 4, 10, 6), wantPick: 4, wantMax: intp(10), wantCurrent: intp(6)},
		{name: "gap triple", numbers: nums(12, 99, 20, 8), wantPick: 12, wantMax: intp(20), wantCurrent: intp(8)},
		{name: "mismatch", numbers: nums(7, 3, 90), wantPick: 7, wantMax: intp(3), wantCurrent: intp(90), wantWarning: WarnFormulaMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &CandidateRecord{Name: "x", Numbers: tt.numbers}
			Disambiguate([]*CandidateRecord{r}, DefaultOptions())

			require.NotNil(t, r.Pick)
			assert.Equal(t, tt.wantPick, *r.Pick)
			assert.Equal(t, tt.wantMax, r.Max)
			assert.Equal(t, tt.wantCurrent, r.Current)
			if tt.wantWarning == "" {
				assert.Empty(t, r.Warnings)
			} else {
				assert.True(t, hasWarningPrefix(r, tt.wantWarning), "warnings: %v", r.Warnings)
			}
		})
	}
}

func intp(v int) *int { return &v }

func TestDisambiguate_FormulaHoldsOrFlagged(t *testing.T) {
	inputs := [][]int{
		{25, 30, 5}, {1, 2, 3}, {40, 1, 60, 20}, {3, 3, 3, 3, 3}, {9, 0, 0}, {200, 400, 200, 7},
	}
	opts := DefaultOptions()
	for _, in := range inputs {
		r := &CandidateRecord{Numbers: nums(in...)}
		Disambiguate([]*CandidateRecord{r}, opts)
		require.NotNil(t, r.Pick)
		require.NotNil(t, r.Max)
		require.NotNil(t, r.Current)
		d := *r.Pick - (*r.Max - *r.Current)
		if d < 0 {
			d = -d
		}
		if d > opts.FormulaTolerance {
			assert.True(t, hasWarningPrefix(r, WarnFormulaMismatch), "input %v", in)
		}
	}
}

func TestDisambiguate_ColumnAgreementBreaksTies(t *testing.T) {
	r := &CandidateRecord{Numbers: []NumberToken{
		{Value: 4, Column: detection.ColumnPickAmount},
		{Value: 9, Column: detection.ColumnCurrent},
		{Value: 10, Column: detection.ColumnMax},
		{Value: 5, Column: detection.ColumnCurrent},
	}}
	opts := DefaultOptions()
	opts.FormulaTolerance = 1
	Disambiguate([]*CandidateRecord{r}, opts)

	require.NotNil(t, r.Max)
	assert.Equal(t, 4, *r.Pick)
	assert.Equal(t, 10, *r.Max)
	assert.Equal(t, 5, *r.Current)
}

func TestDisambiguate_Redistribution(t *testing.T) {
	donor := &CandidateRecord{Name: "donor", Row: 0, Numbers: nums(12, 20, 8, 4, 10, 6)}
	needy := &CandidateRecord{Name: "needy", Row: 5}
	empty := &CandidateRecord{Name: "empty", Row: 9}

	Disambiguate([]*CandidateRecord{donor, needy, empty}, DefaultOptions())

	assert.Equal(t, 4, *donor.Pick, "later triple wins")
	assert.Equal(t, 12, *needy.Pick)
	assert.Equal(t, 20, *needy.Max)
	assert.Contains(t, needy.Warnings, WarnRedistributed)
	assert.Equal(t, 0, *empty.Pick)
	assert.Contains(t, empty.Warnings, WarnNoPick)
}

// Two needy records compete for one preferred donor. The cheaper overall
// assignment gives it to the closer record, whatever the record order.
func TestDisambiguate_AssignmentIsOrderIndependent(t *testing.T) {
	build := func() map[string]*CandidateRecord {
		return map[string]*CandidateRecord{
			"near-donor": {Name: "near-donor", Row: 9, Numbers: nums(12, 20, 8, 5, 9, 4)},
			"far-donor":  {Name: "far-donor", Row: 0, Numbers: nums(40, 50, 10, 3, 5, 2)},
			"a":          {Name: "a", Row: 1},
			"b":          {Name: "b", Row: 10},
		}
	}
	orders := [][]string{
		{"far-donor", "a", "near-donor", "b"},
		{"b", "near-donor", "a", "far-donor"},
		{"a", "b", "far-donor", "near-donor"},
	}
	for _, order := range orders {
		recs := build()
		list := make([]*CandidateRecord, len(order))
		for i, k := range order {
			list[i] = recs[k]
		}
		Disambiguate(list, DefaultOptions())

		assert.Equal(t, 40, *recs["a"].Pick, "order %v", order)
		assert.Equal(t, 12, *recs["b"].Pick, "order %v", order)
		assert.Equal(t, 5, *recs["near-donor"].Pick)
		assert.Equal(t, 3, *recs["far-donor"].Pick)
	}
}

func TestHungarian(t *testing.T) {
	cost := [][]float64{
		{4, 1, 3},
		{2, 0, 5},
		{3, 2, 2},
	}
	assert.Equal(t, []int{1, 0, 2}, hungarian(cost))

	rect := [][]float64{
		{10, 1, 7},
		{1, 10, 7},
	}
	assert.Equal(t, []int{1, 0}, hungarian(rect))
	assert.Nil(t, hungarian(nil))
}
