package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/taxpilot-ai/taxpilot/internal/common"
	"github.com/taxpilot-ai/taxpilot/internal/model"
)

// amountPattern matches dollar amounts: optional currency symbol, digit
// groups with optional thousands separators, optional two-decimal cents.
var amountPattern = regexp.MustCompile(`\$?([\d,]+(?:\.\d{2})?)`)

// Withholding estimates applied to inferred W-2 wages until real form data
// is available.
const (
	federalWithholdingEstimate = 0.167
	stateWithholdingEstimate   = 0.05

	// Amounts at or below this are treated as noise (ages, dates, phone
	// number fragments).
	amountNoiseFloor = 100
)

// extractAmounts returns all parseable dollar amounts above the noise
// floor.
func extractAmounts(message string) []float64 {
	var amounts []float64
	for _, match := range amountPattern.FindAllStringSubmatch(message, -1) {
		raw := strings.ReplaceAll(match[1], ",", "")
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value <= amountNoiseFloor {
			continue
		}
		amounts = append(amounts, value)
	}
	return amounts
}

// Classify scans the message for income amounts and records the largest as
// W-2 wages with estimated withholding. Items are append-only: a number
// mentioned across several turns is recorded each time, so repeated
// mentions double-count until the filer corrects them.
func (p *Pipeline) Classify(_ context.Context, r model.Return) model.Return {
	out := r.Clone()

	if amounts := extractAmounts(r.UserMessage); len(amounts) > 0 {
		wages := amounts[0]
		for _, a := range amounts[1:] {
			if a > wages {
				wages = a
			}
		}
		out.IncomeItems = append(out.IncomeItems, model.IncomeItem{
			Source:          "W-2 Employment",
			Type:            model.IncomeW2,
			PayerName:       "Employer (from W-2)",
			Amount:          wages,
			FederalWithheld: wages * federalWithholdingEstimate,
			StateWithheld:   wages * stateWithholdingEstimate,
		})
	}

	out.TotalIncome = 0
	out.TotalWithheld = 0
	for _, item := range out.IncomeItems {
		out.TotalIncome += item.Amount
		out.TotalWithheld += item.FederalWithheld
	}

	var cards []model.Card
	if len(out.IncomeItems) > 0 {
		latest := out.IncomeItems[len(out.IncomeItems)-1]
		cards = append(cards, model.Card{
			Type:  model.CardIncome,
			Title: fmt.Sprintf("%s Income Recorded", strings.ToUpper(string(latest.Type))),
			Data: map[string]any{
				"employer":         orNA(latest.PayerName),
				"wages":            latest.Amount,
				"federal_withheld": latest.FederalWithheld,
				"state_withheld":   latest.StateWithheld,
			},
		})
	}
	cards = append(cards, progressCard(3, "Deductions & Credits"))

	out.Stage = model.StageClassify
	out.Response = fmt.Sprintf("I've recorded your income of %s. Let me analyze potential deductions for you...", common.Dollars(out.TotalIncome, 2))
	out.Cards = cards
	return out
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
