package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxpilot-ai/taxpilot/internal/model"
)

func TestNextStage(t *testing.T) {
	tests := []struct {
		name     string
		current  model.Stage
		state    model.Return
		wantNext model.Stage
		wantOK   bool
	}{
		{
			name:     "intake loops without filing status",
			current:  model.StageIntake,
			state:    model.Return{TotalIncome: 50000},
			wantNext: model.StageIntake,
			wantOK:   false,
		},
		{
			name:     "intake loops without income",
			current:  model.StageIntake,
			state:    model.Return{FilingStatus: model.StatusSingle},
			wantNext: model.StageIntake,
			wantOK:   false,
		},
		{
			name:     "intake advances with both",
			current:  model.StageIntake,
			state:    model.Return{FilingStatus: model.StatusSingle, TotalIncome: 50000},
			wantNext: model.StageClassify,
			wantOK:   true,
		},
		{
			name:     "classify to deduct unconditionally",
			current:  model.StageClassify,
			state:    model.Return{},
			wantNext: model.StageDeduct,
			wantOK:   true,
		},
		{
			name:     "deduct to form builder",
			current:  model.StageDeduct,
			wantNext: model.StageFormBuild,
			wantOK:   true,
		},
		{
			name:     "form builder to review",
			current:  model.StageFormBuild,
			wantNext: model.StageReview,
			wantOK:   true,
		},
		{
			name:    "review terminal when clean",
			current: model.StageReview,
			state:   model.Return{Completed: true},
			wantOK:  false,
		},
		{
			name:    "review terminal when awaiting review",
			current: model.StageReview,
			state:   model.Return{Completed: true, NeedsReview: true},
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, ok := NextStage(tt.current, tt.state)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantNext, next)
			}
		})
	}
}

func TestRunFirstTurnStaysInIntake(t *testing.T) {
	// Income only gets populated by the classifier, so a fresh session's
	// first turn always terminates in intake even when it mentions wages.
	p := newTestPipeline(&MockConversation{Errors: []error{errors.New("down")}}, nil)

	out := p.Run(context.Background(), model.NewReturn("s1"), "I'm single and I made $75,000")

	assert.Equal(t, model.StageIntake, out.Stage)
	assert.Equal(t, model.StatusSingle, out.FilingStatus)
	assert.Zero(t, out.TotalIncome)
	assert.False(t, out.Completed)
}

func TestRunSecondTurnCompletesPipeline(t *testing.T) {
	conv := &MockConversation{Errors: []error{errors.New("down"), errors.New("down")}}
	p := newTestPipeline(conv, nil)

	state := p.Run(context.Background(), model.NewReturn("s1"), "I'm Jordan, filing single")
	require.Equal(t, model.StageIntake, state.Stage)
	require.Equal(t, model.StatusSingle, state.FilingStatus)

	// Second turn: intake re-runs, then classification picks up the wage
	// figure... but routing is evaluated after intake, before classify has
	// recorded income, so income must already exist. A third turn carries
	// it through.
	state = p.Run(context.Background(), state, "I made $50,000 last year")
	require.Equal(t, model.StageIntake, state.Stage)

	state.TotalIncome = 50000
	state.TotalWithheld = 8350
	state.IncomeItems = []model.IncomeItem{{
		Type: model.IncomeW2, Source: "W-2 Employment", Amount: 50000, FederalWithheld: 8350,
	}}

	final := p.Run(context.Background(), state, "let's finish up")

	assert.Equal(t, model.StageReview, final.Stage)
	assert.True(t, final.Completed)
	assert.InDelta(t, 50000, final.TotalIncome, 0.001)
	assert.InDelta(t, 15000, final.StandardDeduction, 0.001)
	assert.InDelta(t, 35000, final.TaxableIncome, 0.001)
}

func TestRunEndToEndScenario(t *testing.T) {
	p := newTestPipeline(&MockConversation{Errors: []error{errors.New("down")}}, nil)

	state := model.NewReturn("e2e")
	state.FilingStatus = model.StatusMarriedFilingJointly
	state.Name = "Sam"
	state.IncomeItems = []model.IncomeItem{{
		Type: model.IncomeW2, Source: "W-2 Employment", Amount: 90000, FederalWithheld: 18000,
	}}
	state.TotalIncome = 90000
	state.TotalWithheld = 18000

	final := p.Run(context.Background(), state, "calculate my refund")

	assert.InDelta(t, 60000, final.TaxableIncome, 0.001)
	assert.InDelta(t, 6723.00, final.FederalTax, 0.001)
	assert.InDelta(t, 11277.00, final.EstimatedRefund, 0.001)
	assert.True(t, final.Completed)

	// A refund over $5,000 fires the large-refund rule.
	require.NotEmpty(t, final.ReviewFlags)
	fields := make([]string, 0, len(final.ReviewFlags))
	for _, f := range final.ReviewFlags {
		fields = append(fields, f.FieldName)
	}
	assert.Contains(t, fields, "Large Refund Amount")
	assert.True(t, final.NeedsReview)
}

func TestRunDoesNotMutateStoredState(t *testing.T) {
	p := newTestPipeline(&MockConversation{Errors: []error{errors.New("down")}}, nil)

	stored := model.NewReturn("s2")
	stored.IncomeItems = []model.IncomeItem{{Type: model.IncomeW2, Amount: 1000}}

	_ = p.Run(context.Background(), stored, "hello")

	assert.Equal(t, "", stored.UserMessage)
	require.Len(t, stored.IncomeItems, 1)
	assert.InDelta(t, 1000, stored.IncomeItems[0].Amount, 0.001)
}
