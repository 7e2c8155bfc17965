package pipeline

import (
	"context"
	"log/slog"

	"github.com/taxpilot-ai/taxpilot/internal/model"
)

// Pipeline sequences the interview stages for one session turn.
type Pipeline struct {
	conversation Conversation
	knowledge    Knowledge
	logger       *slog.Logger
}

// New creates a pipeline with its external collaborators.
func New(conversation Conversation, kb Knowledge, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		conversation: conversation,
		knowledge:    kb,
		logger:       logger,
	}
}

// stageFunc is one pipeline stage: consume a state value, return the next.
type stageFunc func(context.Context, model.Return) model.Return

func (p *Pipeline) stages() map[model.Stage]stageFunc {
	return map[model.Stage]stageFunc{
		model.StageIntake:    p.Intake,
		model.StageClassify:  p.Classify,
		model.StageDeduct:    p.Deduct,
		model.StageFormBuild: p.FormBuild,
		model.StageReview:    p.Review,
	}
}

// route is one conditional edge out of a stage. A nil condition always
// matches. Next == the source stage means the turn ends there and the
// session waits for the next message.
type route struct {
	condition func(model.Return) bool
	next      model.Stage
}

// transitions is the routing table. Routes are evaluated in order after
// the source stage runs; the first matching route wins. Review has no
// outgoing routes: both its end and awaiting-review outcomes terminate
// the turn.
var transitions = map[model.Stage][]route{
	model.StageIntake: {
		{condition: readyToClassify, next: model.StageClassify},
		{next: model.StageIntake},
	},
	model.StageClassify:  {{next: model.StageDeduct}},
	model.StageDeduct:    {{next: model.StageFormBuild}},
	model.StageFormBuild: {{next: model.StageReview}},
	model.StageReview:    {},
}

// readyToClassify gates entry into income classification. TotalIncome is
// only populated by the classifier stage, so a brand-new session always
// spends its first turn in intake even when the opening message mentions a
// wage figure. That two-turn minimum is intentional; do not relax it here.
func readyToClassify(r model.Return) bool {
	return r.FilingStatus != model.StatusUnknown && r.TotalIncome > 0
}

// NextStage resolves the routing table for a stage that just ran. The
// second result is false when the turn terminates, either because the
// stage is terminal or because the matched route loops back to the same
// stage.
func NextStage(current model.Stage, r model.Return) (model.Stage, bool) {
	for _, rt := range transitions[current] {
		if rt.condition != nil && !rt.condition(r) {
			continue
		}
		if rt.next == current {
			return current, false
		}
		return rt.next, true
	}
	return current, false
}

// maxSteps bounds a single turn. The longest legal path is the five
// stages; anything past that indicates a routing bug.
const maxSteps = 8

// Run processes one user turn: starting at intake, stages execute and the
// routing table decides what runs next until the turn terminates. The
// returned state fully replaces the session's stored state.
func (p *Pipeline) Run(ctx context.Context, r model.Return, message string) model.Return {
	state := r.Clone()
	state.UserMessage = message

	stages := p.stages()
	current := model.StageIntake

	for step := 0; step < maxSteps; step++ {
		state = stages[current](ctx, state)

		next, ok := NextStage(current, state)
		if !ok {
			break
		}
		current = next
	}

	p.logger.Info("turn complete",
		slog.String("session_id", state.SessionID),
		slog.String("stage", string(state.Stage)),
		slog.Float64("confidence", state.ConfidenceScore),
		slog.Bool("needs_review", state.NeedsReview))

	return state
}
