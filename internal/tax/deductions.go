package tax

import "github.com/taxpilot-ai/taxpilot/internal/model"

// standardDeductions2025 holds the 2025 standard deduction per filing status.
var standardDeductions2025 = map[model.FilingStatus]float64{
	model.StatusSingle:                  15000,
	model.StatusMarriedFilingJointly:    30000,
	model.StatusMarriedFilingSeparately: 15000,
	model.StatusHeadOfHousehold:         22500,
	model.StatusQualifyingWidow:         30000,
}

const defaultStandardDeduction = 15000

// StandardDeduction returns the 2025 standard deduction for a filing
// status. An unknown status gets the single-filer amount.
func StandardDeduction(status model.FilingStatus) float64 {
	if amount, ok := standardDeductions2025[status]; ok {
		return amount
	}
	return defaultStandardDeduction
}
