package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(name, strength, form, floor string, pick int) ValidatedRecord {
	return newValidatedRecord(&CandidateRecord{
		Name: name, Strength: strength, Form: form, Floor: floor, Pick: &pick,
	})
}

func names(rs []ValidatedRecord) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Name()
	}
	return out
}

func TestDedup(t *testing.T) {
	in := []ValidatedRecord{
		record("gabapentin", "100 mg", "capsule", "8E-1", 25),
		record("gabapentin (NEURONTIN)", "100 mg", "capsule", "8E-1", 25),
		record("gabapentin", "100 mg", "capsule", "9W-2", 4),
		record("gabapentin", "300 mg", "capsule", "8E-1", 2),
		record("midodrine", "5 mg", "tablet", "8E-1", 18),
		record("MIDODRINE", "5 mg", "tablet", "8E-1", 18),
	}
	got := names(Dedup(in))
	assert.Equal(t, []string{
		"gabapentin (NEURONTIN)",
		"gabapentin",
		"gabapentin",
		"midodrine",
	}, got)
}

func TestNormalizer_Forms(t *testing.T) {
	tests := []struct {
		name, form, want string
	}{
		{"dextrose 50% (DEXTROSE 50%)", "injection", "syringe"},
		{"dextrose 50%", "vial", "syringe"},
		{"ceftriaxone (ROCEPHIN)", "vial", "bag"},
		{"cefazolin", "injection", "bag"},
		{"rocuronium (ROCURONIUM)", "vial", "vial"},
		{"famotidine", "mini bag", "bag"},
		{"famotidine", "IVPB", "bag"},
		{"amoxicillin", "suspension", "liquid"},
		{"lidocaine patch", "each", "patch"},
		{"sodium chloride bag", "ea", "bag"},
		{"polyethylene glycol", "each", "packet"},
		{"midodrine", "tablet", "tablet"},
	}
	n := NewNormalizer(DefaultOptions())
	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.form, func(t *testing.T) {
			out := n.Apply([]ValidatedRecord{record(tt.name, "1 mg", tt.form, "8E-1", 1)})
			require.Len(t, out, 1)
			assert.Equal(t, tt.want, out[0].Form())
		})
	}
}

func TestNormalizer_Names(t *testing.T) {
	in := []ValidatedRecord{record("  gabapentin   (NEURONTIN) ", "100 mg", "capsule", "8E-1", 25)}

	out := NewNormalizer(DefaultOptions()).Apply(in)
	require.Len(t, out, 1)
	assert.Equal(t, "gabapentin (NEURONTIN)", out[0].Name())

	opts := DefaultOptions()
	opts.TitleCaseNames = true
	out = NewNormalizer(opts).Apply(in)
	require.Len(t, out, 1)
	assert.Equal(t, "Gabapentin (Neurontin)", out[0].Name())
}

func TestNormalizer_CustomCorrections(t *testing.T) {
	opts := DefaultOptions()
	opts.FormCorrections = []FormCorrection{{NameContains: "insulin", From: []string{"vial"}, To: "pen"}}
	opts.IVRoster = []string{}
	n := NewNormalizer(opts)

	out := n.Apply([]ValidatedRecord{
		record("insulin glargine", "100 units", "vial", "8E-1", 1),
		record("dextrose 50%", "25 g", "vial", "8E-1", 1),
	})
	require.Len(t, out, 2)
	assert.Equal(t, "pen", out[0].Form())
	assert.Equal(t, "vial", out[1].Form())
}
