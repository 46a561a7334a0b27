package extract

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HabtB/Pharmacy-Pickup/internal/detection"
)

type cell struct {
	text string
	x    int
}

// tableRow lays out cells on one line at y, each 10px per character wide.
func tableRow(y int, cells ...cell) []detection.WordToken {
	out := make([]detection.WordToken, 0, len(cells))
	for _, c := range cells {
		out = append(out, detection.WordToken{
			Text:   c.text,
			Bounds: detection.Bounds{X1: c.x, Y1: y, X2: c.x + 10*len(c.text), Y2: y + 20},
		})
	}
	return out
}

// Column x positions: description 100, pick 530, max 810, current 900.
func headerTokens() []detection.WordToken {
	return tableRow(50,
		cell{"Device", 10}, cell{"Med", 100}, cell{"Description", 150},
		cell{"Pick", 520}, cell{"Amount", 565}, cell{"Max", 800}, cell{"Current", 880},
	)
}

func scenarioPage() Page {
	var toks []detection.WordToken
	toks = append(toks, headerTokens()...)
	toks = append(toks, tableRow(100, cell{"8E-1", 10})...)
	toks = append(toks, tableRow(130, cell{"gabapentin", 100})...)
	toks = append(toks, tableRow(160, cell{"(NEURONTIN)", 100})...)
	toks = append(toks, tableRow(190,
		cell{"100", 100}, cell{"mg", 135}, cell{"capsule", 165},
		cell{"25", 535}, cell{"30", 810}, cell{"5", 910})...)
	toks = append(toks, tableRow(230, cell{"midodrine", 100}, cell{"18", 535})...)
	toks = append(toks, tableRow(260, cell{"5", 100}, cell{"mg", 115}, cell{"tablet", 145})...)

	text := strings.Join([]string{
		"Device Med Description Pick Amount Max Current",
		"8E-1",
		"gabapentin",
		"(NEURONTIN)",
		"100 mg capsule 25 30 5",
		"midodrine 18",
		"5 mg tablet",
	}, "\n")
	return Page{ID: "scenario", Tokens: toks, FullText: text}
}

const lineModePage = `Device: 6E-2_CICU
Med Description | Pick Area | Pick Amount | Pick Actual | Max | Current Amount
dextrose 50%
(DEXTROSE 50%)
25 g (50 mL)
syringe
2
3
1
rocuronium
(ROCURONIUM)
10 mg/1 mL (5
mL) vial
4
6
2
albumin 5%
(ALBUTEIN) 12.5
g (250 mL) iv soln.
4
10
6
midodrine
(PROAMATINE) 5
mg tablet
18
20
2
NORepinephrine
in NS (LEVOPHED
in NS (8mg)) 8
mg (250 mL)
IVPB
2
6
4
lidocaine 4%
(SALONPAS) 1
each patch
6
20
14
`

func newTestEngine(t *testing.T, options ...EngineOption) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultOptions(), options...)
	require.NoError(t, err)
	return e
}

func TestEngine_ColumnScenarios(t *testing.T) {
	res, err := newTestEngine(t).Extract(context.Background(), scenarioPage())
	require.NoError(t, err)
	assert.Equal(t, ModeColumns, res.Mode)
	require.Len(t, res.Records, 2)

	gaba := res.Records[0]
	assert.Equal(t, "gabapentin (NEURONTIN)", gaba.Name())
	assert.Equal(t, "100 mg", gaba.Strength())
	assert.Equal(t, "capsule", gaba.Form())
	assert.Equal(t, "8E-1", gaba.Floor())
	assert.Equal(t, 25, gaba.PickAmount())
	m, ok := gaba.Max()
	assert.True(t, ok)
	assert.Equal(t, 30, m)
	c, ok := gaba.Current()
	assert.True(t, ok)
	assert.Equal(t, 5, c)
	assert.Empty(t, gaba.Warnings())

	mido := res.Records[1]
	assert.Equal(t, "midodrine", mido.Name())
	assert.Equal(t, "5 mg", mido.Strength())
	assert.Equal(t, 18, mido.PickAmount())
	assert.Empty(t, mido.Warnings())
}

func TestEngine_DrugNameWithHeaderKeyword(t *testing.T) {
	page := scenarioPage()
	page.Tokens = append(page.Tokens, tableRow(300, cell{"rizatriptan", 100}, cell{"(MAXALT)", 220}, cell{"12", 535})...)
	page.Tokens = append(page.Tokens, tableRow(330, cell{"10", 100}, cell{"mg", 125}, cell{"tablet", 155})...)
	page.FullText += "\nrizatriptan (MAXALT) 12\n10 mg tablet"

	res, err := newTestEngine(t).Extract(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, ModeColumns, res.Mode)
	require.Len(t, res.Records, 3)
	assert.Equal(t, "gabapentin (NEURONTIN)", res.Records[0].Name())
	assert.Equal(t, 25, res.Records[0].PickAmount())

	riza := res.Records[2]
	assert.Equal(t, "rizatriptan (MAXALT)", riza.Name())
	assert.Equal(t, "10 mg", riza.Strength())
	assert.Equal(t, "tablet", riza.Form())
	assert.Equal(t, 12, riza.PickAmount())
	assert.Equal(t, "8E-1", riza.Floor())
}

func TestEngine_FloorChangeToNorthUnit(t *testing.T) {
	var toks []detection.WordToken
	toks = append(toks, headerTokens()...)
	toks = append(toks, tableRow(100, cell{"8E-1", 10})...)
	toks = append(toks, tableRow(130, cell{"gabapentin", 100})...)
	toks = append(toks, tableRow(160,
		cell{"100", 100}, cell{"mg", 135}, cell{"capsule", 165}, cell{"25", 535})...)
	toks = append(toks, tableRow(200, cell{"5N-1", 10})...)
	toks = append(toks, tableRow(230, cell{"midodrine", 100}, cell{"18", 535})...)
	toks = append(toks, tableRow(260, cell{"5", 100}, cell{"mg", 115}, cell{"tablet", 145})...)

	res, err := newTestEngine(t).Extract(context.Background(), Page{ID: "floors", Tokens: toks})
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "8E-1", res.Records[0].Floor())
	assert.Equal(t, "midodrine", res.Records[1].Name())
	assert.Equal(t, "5N-1", res.Records[1].Floor())
	assert.Empty(t, res.Records[1].Warnings())
}

func TestEngine_LineFallback(t *testing.T) {
	res, err := newTestEngine(t).Extract(context.Background(), Page{ID: "p1", FullText: lineModePage})
	require.NoError(t, err)
	assert.Equal(t, ModeLines, res.Mode)

	type row struct {
		name, strength, form string
		pick                 int
	}
	want := []row{
		{"dextrose 50% (DEXTROSE 50%)", "25 g", "syringe", 2},
		{"rocuronium (ROCURONIUM)", "10 mg/1 mL", "vial", 4},
		{"albumin 5% (ALBUTEIN)", "12.5 g", "bag", 4},
		{"midodrine (PROAMATINE)", "5 mg", "tablet", 18},
		{"NORepinephrine in NS (LEVOPHED in NS)", "8 mg", "bag", 2},
		{"lidocaine 4% (SALONPAS)", "1 each", "patch", 6},
	}
	require.Len(t, res.Records, len(want))
	for i, w := range want {
		r := res.Records[i]
		assert.Equal(t, w.name, r.Name())
		assert.Equal(t, w.strength, r.Strength(), w.name)
		assert.Equal(t, w.form, r.Form(), w.name)
		assert.Equal(t, w.pick, r.PickAmount(), w.name)
		assert.Equal(t, "6E-2_CICU", r.Floor(), w.name)
	}
}

func TestEngine_HeaderlessTokensFallBackToText(t *testing.T) {
	page := Page{
		Tokens:   tableRow(10, cell{"midodrine", 10}, cell{"5", 120}, cell{"mg", 140}),
		FullText: "Device: 8E-1\nmidodrine 5 mg tablet\n18",
	}
	res, err := newTestEngine(t).Extract(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, ModeLines, res.Mode)
	require.Len(t, res.Records, 1)
	assert.Equal(t, 18, res.Records[0].PickAmount())
}

func TestEngine_StructureNotFound(t *testing.T) {
	page := Page{ID: "blank", Tokens: tableRow(10, cell{"hello", 10}, cell{"world", 100})}
	res, err := newTestEngine(t).Extract(context.Background(), page)
	assert.True(t, errors.Is(err, ErrStructureNotFound))
	require.NotNil(t, res)
	assert.Empty(t, res.Records)
	assert.Equal(t, ModeNone, res.Mode)

	opts := DefaultOptions()
	opts.DisableLineFallback = true
	e, err := NewEngine(opts)
	require.NoError(t, err)
	_, err = e.Extract(context.Background(), Page{FullText: lineModePage})
	assert.ErrorIs(t, err, ErrStructureNotFound)
}

func TestEngine_Deterministic(t *testing.T) {
	e := newTestEngine(t)
	var outputs []string
	for i := 0; i < 5; i++ {
		res, err := e.Extract(context.Background(), Page{ID: "p", FullText: lineModePage})
		require.NoError(t, err)
		b, err := json.Marshal(res.Records)
		require.NoError(t, err)
		outputs = append(outputs, string(b))
	}
	for _, o := range outputs[1:] {
		assert.Equal(t, outputs[0], o)
	}
}

// Every record name must appear in the page text it was extracted from.
func TestEngine_NamesTraceToSource(t *testing.T) {
	e := newTestEngine(t)
	for _, page := range []Page{scenarioPage(), {FullText: lineModePage}} {
		res, err := e.Extract(context.Background(), page)
		require.NoError(t, err)
		src := strings.Join(strings.Fields(strings.ToLower(page.FullText)), " ")
		for _, r := range res.Records {
			main := strings.ToLower(strings.TrimSpace(strings.SplitN(r.Name(), "(", 2)[0]))
			assert.Contains(t, src, main)
		}
	}
}

func TestEngine_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestEngine(t).Extract(ctx, scenarioPage())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_InvalidFloorPattern(t *testing.T) {
	opts := DefaultOptions()
	opts.FloorPattern = "("
	_, err := NewEngine(opts)
	assert.Error(t, err)
}

type stubChecker struct {
	verdicts []Verdict
	err      error
	calls    int
}

func (s *stubChecker) CheckNames(_ context.Context, names []string) ([]Verdict, error) {
	s.calls++
	return s.verdicts, s.err
}

func TestEngine_NameChecker(t *testing.T) {
	t.Run("invalid verdict drops the record", func(t *testing.T) {
		c := &stubChecker{verdicts: []Verdict{VerdictValid, VerdictInvalid}}
		res, err := newTestEngine(t, WithNameChecker(c)).Extract(context.Background(), scenarioPage())
		require.NoError(t, err)
		assert.Equal(t, 1, c.calls)
		require.Len(t, res.Records, 1)
		assert.Equal(t, "gabapentin (NEURONTIN)", res.Records[0].Name())
		assert.Equal(t, 1, res.Discarded)
	})
	t.Run("errors fail open", func(t *testing.T) {
		c := &stubChecker{err: errors.New("timeout")}
		res, err := newTestEngine(t, WithNameChecker(c)).Extract(context.Background(), scenarioPage())
		require.NoError(t, err)
		assert.Len(t, res.Records, 2)
	})
	t.Run("unknown verdicts keep records", func(t *testing.T) {
		c := &stubChecker{verdicts: []Verdict{VerdictUnknown, VerdictUnknown}}
		res, err := newTestEngine(t, WithNameChecker(c)).Extract(context.Background(), scenarioPage())
		require.NoError(t, err)
		assert.Len(t, res.Records, 2)
	})
	t.Run("short verdict list fails open", func(t *testing.T) {
		c := &stubChecker{verdicts: []Verdict{VerdictInvalid}}
		res, err := newTestEngine(t, WithNameChecker(c)).Extract(context.Background(), scenarioPage())
		require.NoError(t, err)
		assert.Len(t, res.Records, 2)
	})
}

func TestValidatedRecord_JSON(t *testing.T) {
	res, err := newTestEngine(t).Extract(context.Background(), scenarioPage())
	require.NoError(t, err)
	b, err := json.Marshal(res.Records[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name": "gabapentin (NEURONTIN)",
		"strength": "100 mg",
		"form": "capsule",
		"floor": "8E-1",
		"pick_amount": 25,
		"max": 30,
		"current": 5
	}`, string(b))
}
