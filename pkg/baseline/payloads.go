package baseline

// Typed payload schemas for each module type. Payloads travel as
// schema-versioned JSON documents; the validator decodes them into these
// structs so the per-type rules can be an exhaustive match instead of ad
// hoc field probing.

// MandateTermsPayload describes the mandate terms module.
type MandateTermsPayload struct {
	InvestmentObjective string            `json:"investmentObjective"`
	Strategy            string            `json:"strategy"`
	InstrumentScope     []InstrumentScope `json:"instrumentScope"`
	TicketSizeMin       float64           `json:"ticketSizeMin"`
	TicketSizeMax       float64           `json:"ticketSizeMax"`
	Currency            string            `json:"currency"`
	HorizonYears        int               `json:"horizonYears"`
}

// InstrumentScope names one permitted instrument class and its allocation cap.
type InstrumentScope struct {
	InstrumentClass  string  `json:"instrumentClass"`
	MaxAllocationPct float64 `json:"maxAllocationPct"`
}

// ExclusionsPayload describes the exclusions module.
type ExclusionsPayload struct {
	Rules []ExclusionRule `json:"rules"`
}

// ExclusionRule excludes a category of deals with matching criteria.
type ExclusionRule struct {
	Category  string   `json:"category"`
	Criteria  string   `json:"criteria"`
	Rationale string   `json:"rationale"`
	Keywords  []string `json:"keywords"`
}

// RiskAppetitePayload describes the risk appetite module.
type RiskAppetitePayload struct {
	Tolerance  string      `json:"tolerance"`
	Limits     []RiskLimit `json:"limits"`
	Commentary string      `json:"commentary"`
}

// RiskLimit is a quantitative exposure limit.
type RiskLimit struct {
	Metric    string  `json:"metric"`
	Threshold float64 `json:"threshold"`
	Unit      string  `json:"unit"`
	HardLimit bool    `json:"hardLimit"`
}

// Risk tolerance levels accepted by the validator.
const (
	ToleranceConservative = "conservative"
	ToleranceModerate     = "moderate"
	ToleranceAggressive   = "aggressive"
)

// GovernanceThresholdsPayload describes the governance thresholds module.
type GovernanceThresholdsPayload struct {
	ApprovalLevels []ApprovalLevel `json:"approvalLevels"`
	QuorumPct      float64         `json:"quorumPct"`
}

// ApprovalLevel routes deals above an amount to a set of approvers.
type ApprovalLevel struct {
	Name              string   `json:"name"`
	ThresholdAmount   float64  `json:"thresholdAmount"`
	RequiredApprovers []string `json:"requiredApprovers"`
}

// ReportingObligationsPayload describes the reporting obligations module.
type ReportingObligationsPayload struct {
	Reports []ReportDefinition `json:"reports"`
}

// ReportDefinition is one recurring report the portfolio owes its stakeholders.
type ReportDefinition struct {
	Type       string   `json:"type"`
	Frequency  string   `json:"frequency"`
	Recipients []string `json:"recipients"`
	Notes      string   `json:"notes"`
}

// Report frequencies accepted by the validator.
const (
	FrequencyMonthly    = "monthly"
	FrequencyQuarterly  = "quarterly"
	FrequencySemiAnnual = "semi_annual"
	FrequencyAnnual     = "annual"
)
