package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxpilot-ai/taxpilot/internal/model"
)

func TestExtractAmounts(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    []float64
	}{
		{"plain number", "I made 75000 last year", []float64{75000}},
		{"currency symbol", "my salary is $82,500", []float64{82500}},
		{"cents", "exactly $64,123.45", []float64{64123.45}},
		{"noise filtered", "I'm 34 and made 50000", []float64{50000}},
		{"boundary is noise", "100", nil},
		{"just above boundary", "101", []float64{101}},
		{"multiple amounts", "wages 60000 plus a 5000 bonus", []float64{60000, 5000}},
		{"no numbers", "no income to report yet", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractAmounts(tt.message))
		})
	}
}

func TestClassifyRecordsLargestAmount(t *testing.T) {
	p := newTestPipeline(nil, nil)

	out := p.Classify(context.Background(), model.Return{
		UserMessage: "I earned $75,000 in wages and got a $2,000 gift",
	})

	require.Len(t, out.IncomeItems, 1)
	item := out.IncomeItems[0]
	assert.Equal(t, model.IncomeW2, item.Type)
	assert.Equal(t, "W-2 Employment", item.Source)
	assert.InDelta(t, 75000, item.Amount, 0.001)
	assert.InDelta(t, 75000*0.167, item.FederalWithheld, 0.001)
	assert.InDelta(t, 75000*0.05, item.StateWithheld, 0.001)

	assert.InDelta(t, 75000, out.TotalIncome, 0.001)
	assert.InDelta(t, 75000*0.167, out.TotalWithheld, 0.001)
}

func TestClassifyAppendOnly(t *testing.T) {
	p := newTestPipeline(nil, nil)

	first := p.Classify(context.Background(), model.Return{UserMessage: "I made 60000"})
	require.Len(t, first.IncomeItems, 1)

	// Re-mentioning the number records it again. Duplicate accumulation is
	// a documented limitation of amount inference.
	second := first
	second.UserMessage = "like I said, 60000"
	second = p.Classify(context.Background(), second)

	require.Len(t, second.IncomeItems, 2)
	assert.InDelta(t, 120000, second.TotalIncome, 0.001)
}

func TestClassifyRecomputesTotalsFromItems(t *testing.T) {
	p := newTestPipeline(nil, nil)

	out := p.Classify(context.Background(), model.Return{
		UserMessage: "no numbers here",
		IncomeItems: []model.IncomeItem{
			{Type: model.IncomeW2, Amount: 40000, FederalWithheld: 6000, StateWithheld: 2000},
			{Type: model.Income1099, Amount: 10000, FederalWithheld: 500},
		},
		// Stale totals must be overwritten.
		TotalIncome:   999999,
		TotalWithheld: 999999,
	})

	assert.Len(t, out.IncomeItems, 2)
	assert.InDelta(t, 50000, out.TotalIncome, 0.001)
	assert.InDelta(t, 6500, out.TotalWithheld, 0.001)
}

func TestClassifyCards(t *testing.T) {
	p := newTestPipeline(nil, nil)

	out := p.Classify(context.Background(), model.Return{UserMessage: "I made $55,000"})

	require.Len(t, out.Cards, 2)
	assert.Equal(t, model.CardIncome, out.Cards[0].Type)
	assert.Equal(t, "W2 Income Recorded", out.Cards[0].Title)
	assert.Equal(t, "Employer (from W-2)", out.Cards[0].Data["employer"])

	assert.Equal(t, model.CardProgress, out.Cards[1].Type)
	assert.Equal(t, 3, out.Cards[1].Data["step"])
	assert.Contains(t, out.Response, "I've recorded your income of $55,000.00")
}

func TestClassifyNoAmounts(t *testing.T) {
	p := newTestPipeline(nil, nil)

	out := p.Classify(context.Background(), model.Return{UserMessage: "nothing yet"})

	assert.Empty(t, out.IncomeItems)
	assert.Zero(t, out.TotalIncome)
	require.Len(t, out.Cards, 1)
	assert.Equal(t, model.CardProgress, out.Cards[0].Type)
	assert.Contains(t, out.Response, "$0.00")
}
