// Package tax implements the 2025 federal tax tables: progressive bracket
// computation and standard deduction amounts by filing status.
package tax

import (
	"math"

	"github.com/taxpilot-ai/taxpilot/internal/model"
)

// Bracket is one progressive tax bracket. Upper is math.Inf(1) for the top
// bracket.
type Bracket struct {
	Lower float64
	Upper float64
	Rate  float64
}

// brackets2025 holds the 2025 federal income tax brackets per filing status.
// Married filing jointly and qualifying widow(er) share identical edges.
var brackets2025 = map[model.FilingStatus][]Bracket{
	model.StatusSingle: {
		{0, 11925, 0.10},
		{11925, 48475, 0.12},
		{48475, 103350, 0.22},
		{103350, 197300, 0.24},
		{197300, 250525, 0.32},
		{250525, 626350, 0.35},
		{626350, math.Inf(1), 0.37},
	},
	model.StatusMarriedFilingJointly: {
		{0, 23850, 0.10},
		{23850, 96950, 0.12},
		{96950, 206700, 0.22},
		{206700, 394600, 0.24},
		{394600, 501050, 0.32},
		{501050, 751600, 0.35},
		{751600, math.Inf(1), 0.37},
	},
	model.StatusMarriedFilingSeparately: {
		{0, 11925, 0.10},
		{11925, 48475, 0.12},
		{48475, 103350, 0.22},
		{103350, 197300, 0.24},
		{197300, 250525, 0.32},
		{250525, 375800, 0.35},
		{375800, math.Inf(1), 0.37},
	},
	model.StatusHeadOfHousehold: {
		{0, 17000, 0.10},
		{17000, 64850, 0.12},
		{64850, 103350, 0.22},
		{103350, 197300, 0.24},
		{197300, 250500, 0.32},
		{250500, 626350, 0.35},
		{626350, math.Inf(1), 0.37},
	},
	model.StatusQualifyingWidow: {
		{0, 23850, 0.10},
		{23850, 96950, 0.12},
		{96950, 206700, 0.22},
		{206700, 394600, 0.24},
		{394600, 501050, 0.32},
		{501050, 751600, 0.35},
		{751600, math.Inf(1), 0.37},
	},
}

const topRate = 0.37

// bracketsFor returns the bracket table for a status, falling back to
// single for an unknown status.
func bracketsFor(status model.FilingStatus) []Bracket {
	if b, ok := brackets2025[status]; ok {
		return b
	}
	return brackets2025[model.StatusSingle]
}

// FederalTax computes federal income tax on taxable income using the
// progressive brackets for the given filing status. The result is rounded
// to cents.
func FederalTax(taxableIncome float64, status model.FilingStatus) float64 {
	var tax float64
	for _, b := range bracketsFor(status) {
		if taxableIncome <= b.Lower {
			break
		}
		tax += (math.Min(taxableIncome, b.Upper) - b.Lower) * b.Rate
	}
	return math.Round(tax*100) / 100
}

// EffectiveRate returns total tax divided by taxable income, or 0 when
// income is not positive.
func EffectiveRate(taxableIncome float64, status model.FilingStatus) float64 {
	if taxableIncome <= 0 {
		return 0
	}
	return FederalTax(taxableIncome, status) / taxableIncome
}

// MarginalRate returns the rate applied to the next dollar of income: the
// rate of the first bracket whose upper bound covers the income.
func MarginalRate(taxableIncome float64, status model.FilingStatus) float64 {
	for _, b := range bracketsFor(status) {
		if taxableIncome <= b.Upper {
			return b.Rate
		}
	}
	return topRate
}
