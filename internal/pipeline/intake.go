package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/taxpilot-ai/taxpilot/internal/model"
)

// extractFilingStatus matches filing-status keywords in a lowercased
// message. The married variants require both words to be present.
func extractFilingStatus(lower string) model.FilingStatus {
	switch {
	case strings.Contains(lower, "single"):
		return model.StatusSingle
	case strings.Contains(lower, "married") && strings.Contains(lower, "joint"):
		return model.StatusMarriedFilingJointly
	case strings.Contains(lower, "married") && strings.Contains(lower, "separate"):
		return model.StatusMarriedFilingSeparately
	case strings.Contains(lower, "head") && strings.Contains(lower, "household"):
		return model.StatusHeadOfHousehold
	case strings.Contains(lower, "widow"), strings.Contains(lower, "qualifying"):
		return model.StatusQualifyingWidow
	default:
		return model.StatusUnknown
	}
}

// namePattern matches a self-introduction and captures everything after
// it. Case-insensitive on the original string: lowercasing a message can
// change its byte length for some Unicode characters, so a byte offset
// found in a lowered copy must never be applied to the original.
var namePattern = regexp.MustCompile(`(?is)\b(?:my name is|i'm|i am)\s+(.+)`)

// extractName pulls a name out of the message: text after a known
// introduction, up to the first comma, period, or " and". The extracted
// text keeps its original case.
func extractName(message string) string {
	m := namePattern.FindStringSubmatch(message)
	if m == nil {
		return ""
	}
	rest := strings.TrimSpace(m[1])
	for _, sep := range []string{",", ".", " and"} {
		if cut := strings.Index(rest, sep); cut >= 0 {
			rest = rest[:cut]
		}
	}
	return strings.TrimSpace(rest)
}

// Intake collects personal information from the user's message. Filing
// status and name are only set when still missing; a set value is never
// overwritten. The reply comes from the conversation model, with a
// deterministic question as fallback.
func (p *Pipeline) Intake(ctx context.Context, r model.Return) model.Return {
	out := r.Clone()
	lower := strings.ToLower(r.UserMessage)

	if out.FilingStatus == model.StatusUnknown {
		out.FilingStatus = extractFilingStatus(lower)
	}
	if out.Name == "" {
		out.Name = extractName(r.UserMessage)
	}

	systemPrompt := fmt.Sprintf(intakePrompt,
		orNotProvided(out.Name),
		out.FilingStatus.Display(),
		orNotProvided(out.ResidenceState),
		out.Dependents,
		len(out.IncomeItems),
	)

	reply, err := p.conversation.Chat(ctx, systemPrompt, r.UserMessage)
	if err != nil {
		p.logger.Debug("conversation model unavailable, using fallback",
			slog.String("session_id", r.SessionID), slog.String("error", err.Error()))
		reply = intakeFallback(out)
	}

	step, label := 1, "Personal Information"
	if out.FilingStatus != model.StatusUnknown {
		step, label = 2, "Income Information"
	}

	out.Stage = model.StageIntake
	out.Response = reply
	out.Cards = []model.Card{progressCard(step, label)}
	return out
}

// intakeFallback picks a deterministic question by which field is still
// missing.
func intakeFallback(r model.Return) string {
	switch {
	case r.FilingStatus == model.StatusUnknown:
		return "Thanks! What is your filing status? (Single, Married Filing Jointly, Married Filing Separately, Head of Household, or Qualifying Widow/Widower)"
	case r.Name == "":
		return fmt.Sprintf("Filing status set to %s. What's your name?", r.FilingStatus.Display())
	default:
		return fmt.Sprintf("Great, %s! Now let's gather your income. Do you have a W-2 from an employer?", r.Name)
	}
}

func orNotProvided(s string) string {
	if s == "" {
		return "Not provided"
	}
	return s
}

func progressCard(step int, label string) model.Card {
	return model.Card{
		Type:  model.CardProgress,
		Title: "Tax Return Progress",
		Data: map[string]any{
			"step":  step,
			"total": 5,
			"label": label,
		},
	}
}
