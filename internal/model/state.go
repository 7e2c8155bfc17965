// Package model defines the core domain models used throughout the application.
package model

// Stage identifies a pipeline stage.
type Stage string

// Pipeline stage constants.
const (
	StageIntake    Stage = "intake"
	StageClassify  Stage = "classifier"
	StageDeduct    Stage = "deduction"
	StageFormBuild Stage = "form_builder"
	StageReview    Stage = "review"
)

// FilingStatus is the IRS household/marital category that selects
// deduction and bracket tables.
type FilingStatus string

// Filing status constants.
const (
	StatusUnknown                 FilingStatus = ""
	StatusSingle                  FilingStatus = "single"
	StatusMarriedFilingJointly    FilingStatus = "married_filing_jointly"
	StatusMarriedFilingSeparately FilingStatus = "married_filing_separately"
	StatusHeadOfHousehold         FilingStatus = "head_of_household"
	StatusQualifyingWidow         FilingStatus = "qualifying_widow"
)

// Display returns a human-readable form of the filing status.
func (s FilingStatus) Display() string {
	switch s {
	case StatusSingle:
		return "Single"
	case StatusMarriedFilingJointly:
		return "Married Filing Jointly"
	case StatusMarriedFilingSeparately:
		return "Married Filing Separately"
	case StatusHeadOfHousehold:
		return "Head of Household"
	case StatusQualifyingWidow:
		return "Qualifying Widow(er)"
	default:
		return "Not provided"
	}
}

// IncomeType categorizes an income source.
type IncomeType string

// Income type constants.
const (
	IncomeW2             IncomeType = "w2"
	Income1099           IncomeType = "1099"
	IncomeSelfEmployment IncomeType = "self_employment"
	IncomeInvestment     IncomeType = "investment"
	IncomeRental         IncomeType = "rental"
	IncomeOther          IncomeType = "other"
)

// IncomeItem is a single income source reported by the filer.
type IncomeItem struct {
	Source          string     `json:"source"`
	Type            IncomeType `json:"type"`
	PayerName       string     `json:"payer_name,omitempty"`
	Amount          float64    `json:"amount"`
	FederalWithheld float64    `json:"federal_withheld"`
	StateWithheld   float64    `json:"state_withheld"`
}

// DeductionItem is a single deduction candidate.
type DeductionItem struct {
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Reference   string  `json:"reference,omitempty"`
	Amount      float64 `json:"amount"`
	Confidence  float64 `json:"confidence"`
	Itemized    bool    `json:"itemized"`
	AISuggested bool    `json:"ai_suggested"`
}

// ReviewFlag marks a field of the computed return for human review.
type ReviewFlag struct {
	FieldName  string  `json:"field_name"`
	FieldValue string  `json:"field_value"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// Card is a structured display element emitted alongside response text.
type Card struct {
	Type  string         `json:"type"`
	Title string         `json:"title"`
	Data  map[string]any `json:"data"`
}

// Card type constants.
const (
	CardProgress  = "progress_card"
	CardIncome    = "income_card"
	CardDeduction = "deduction_card"
	CardRefund    = "refund_card"
	CardReview    = "review_card"
)

// Return is the full pipeline state for one session: everything collected
// from the conversation plus every derived tax figure. Stages receive a
// value copy and return a new value; nothing mutates a stored Return in
// place.
type Return struct {
	// Session
	SessionID   string `json:"session_id"`
	UserMessage string `json:"user_message"`

	// Personal
	Name           string       `json:"name,omitempty"`
	FilingStatus   FilingStatus `json:"filing_status,omitempty"`
	ResidenceState string       `json:"state,omitempty"`
	Dependents     int          `json:"dependents"`

	// Income
	IncomeItems   []IncomeItem `json:"income_items"`
	TotalIncome   float64      `json:"total_income"`
	TotalWithheld float64      `json:"total_withheld"`

	// Deductions
	Deductions        []DeductionItem `json:"deductions"`
	StandardDeduction float64         `json:"standard_deduction"`
	ItemizedTotal     float64         `json:"itemized_total"`
	UseStandard       bool            `json:"use_standard"`

	// Tax calculation
	TaxableIncome   float64 `json:"taxable_income"`
	FederalTax      float64 `json:"federal_tax"`
	Credits         float64 `json:"credits"`
	EstimatedRefund float64 `json:"estimated_refund"`

	// Review
	ConfidenceScore float64      `json:"confidence_score"`
	ReviewFlags     []ReviewFlag `json:"review_flags"`
	NeedsReview     bool         `json:"needs_review"`

	// Flow control
	Stage     Stage  `json:"current_node"`
	Response  string `json:"response"`
	Cards     []Card `json:"cards"`
	Completed bool   `json:"completed"`
}

// NewReturn creates a fresh session state positioned at the intake stage.
func NewReturn(sessionID string) Return {
	return Return{
		SessionID:   sessionID,
		Stage:       StageIntake,
		UseStandard: true,
	}
}

// Clone returns a deep copy of the state. Slice fields are copied so that
// a stage appending to its copy never aliases the caller's slices.
func (r Return) Clone() Return {
	out := r
	if r.IncomeItems != nil {
		out.IncomeItems = make([]IncomeItem, len(r.IncomeItems))
		copy(out.IncomeItems, r.IncomeItems)
	}
	if r.Deductions != nil {
		out.Deductions = make([]DeductionItem, len(r.Deductions))
		copy(out.Deductions, r.Deductions)
	}
	if r.ReviewFlags != nil {
		out.ReviewFlags = make([]ReviewFlag, len(r.ReviewFlags))
		copy(out.ReviewFlags, r.ReviewFlags)
	}
	if r.Cards != nil {
		out.Cards = make([]Card, len(r.Cards))
		for i, c := range r.Cards {
			out.Cards[i] = c.clone()
		}
	}
	return out
}

func (c Card) clone() Card {
	out := c
	if c.Data != nil {
		out.Data = make(map[string]any, len(c.Data))
		for k, v := range c.Data {
			out.Data[k] = v
		}
	}
	return out
}
