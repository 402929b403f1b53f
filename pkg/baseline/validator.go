package baseline

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ValidationError describes one structural or referential problem in a
// module payload.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ModuleValidation is the validator's result for one module payload.
type ModuleValidation struct {
	IsValid bool              `json:"isValid"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

// ValidateModule checks a module payload for structural validity. It is
// pure and stateless: the same payload always yields the same result and
// no I/O happens. Callers persist the result as a cache of the last run.
func ValidateModule(moduleType ModuleType, payload map[string]any) ModuleValidation {
	var errs []ValidationError

	switch moduleType {
	case ModuleMandateTerms:
		var p MandateTermsPayload
		if err := decodePayload(payload, &p); err != nil {
			errs = append(errs, ValidationError{Field: "payload", Message: err.Error()})
			break
		}
		if strings.TrimSpace(p.InvestmentObjective) == "" {
			errs = append(errs, ValidationError{Field: "investmentObjective", Message: "investment objective is required"})
		}
		if len(p.InstrumentScope) == 0 {
			errs = append(errs, ValidationError{Field: "instrumentScope", Message: "at least one instrument scope entry is required"})
		}
		for i, sc := range p.InstrumentScope {
			if strings.TrimSpace(sc.InstrumentClass) == "" {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("instrumentScope[%d].instrumentClass", i),
					Message: "instrument class is required",
				})
			}
			if sc.MaxAllocationPct < 0 || sc.MaxAllocationPct > 100 {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("instrumentScope[%d].maxAllocationPct", i),
					Message: "allocation must be between 0 and 100",
				})
			}
		}
		if p.TicketSizeMin > 0 && p.TicketSizeMax > 0 && p.TicketSizeMin > p.TicketSizeMax {
			errs = append(errs, ValidationError{Field: "ticketSizeMin", Message: "minimum ticket size exceeds maximum"})
		}
		if p.Currency != "" && len(p.Currency) != 3 {
			errs = append(errs, ValidationError{Field: "currency", Message: "currency must be a 3-letter ISO code"})
		}

	case ModuleExclusions:
		var p ExclusionsPayload
		if err := decodePayload(payload, &p); err != nil {
			errs = append(errs, ValidationError{Field: "payload", Message: err.Error()})
			break
		}
		seen := make(map[string]bool)
		for i, rule := range p.Rules {
			if strings.TrimSpace(rule.Category) == "" {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("rules[%d].category", i),
					Message: "exclusion category is required",
				})
				continue
			}
			if seen[rule.Category] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("rules[%d].category", i),
					Message: fmt.Sprintf("duplicate exclusion category %q", rule.Category),
				})
			}
			seen[rule.Category] = true
			if strings.TrimSpace(rule.Criteria) == "" {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("rules[%d].criteria", i),
					Message: "exclusion criteria is required",
				})
			}
		}

	case ModuleRiskAppetite:
		var p RiskAppetitePayload
		if err := decodePayload(payload, &p); err != nil {
			errs = append(errs, ValidationError{Field: "payload", Message: err.Error()})
			break
		}
		switch p.Tolerance {
		case ToleranceConservative, ToleranceModerate, ToleranceAggressive:
		case "":
			errs = append(errs, ValidationError{Field: "tolerance", Message: "risk tolerance is required"})
		default:
			errs = append(errs, ValidationError{Field: "tolerance", Message: fmt.Sprintf("unknown risk tolerance %q", p.Tolerance)})
		}
		for i, limit := range p.Limits {
			if strings.TrimSpace(limit.Metric) == "" {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("limits[%d].metric", i),
					Message: "limit metric is required",
				})
			}
			if limit.Threshold <= 0 {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("limits[%d].threshold", i),
					Message: "limit threshold must be positive",
				})
			}
		}

	case ModuleGovernanceThresholds:
		var p GovernanceThresholdsPayload
		if err := decodePayload(payload, &p); err != nil {
			errs = append(errs, ValidationError{Field: "payload", Message: err.Error()})
			break
		}
		if len(p.ApprovalLevels) == 0 {
			errs = append(errs, ValidationError{Field: "approvalLevels", Message: "at least one approval level is required"})
		}
		prev := -1.0
		for i, level := range p.ApprovalLevels {
			if len(level.RequiredApprovers) == 0 {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("approvalLevels[%d].requiredApprovers", i),
					Message: "approval level needs a non-empty required-approvers list",
				})
			}
			if i > 0 && level.ThresholdAmount <= prev {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("approvalLevels[%d].thresholdAmount", i),
					Message: "approval level thresholds must be strictly increasing",
				})
			}
			prev = level.ThresholdAmount
		}
		if p.QuorumPct < 0 || p.QuorumPct > 100 {
			errs = append(errs, ValidationError{Field: "quorumPct", Message: "quorum must be between 0 and 100"})
		}

	case ModuleReportingObligations:
		var p ReportingObligationsPayload
		if err := decodePayload(payload, &p); err != nil {
			errs = append(errs, ValidationError{Field: "payload", Message: err.Error()})
			break
		}
		for i, report := range p.Reports {
			if strings.TrimSpace(report.Type) == "" {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("reports[%d].type", i),
					Message: "report type is required",
				})
			}
			switch report.Frequency {
			case FrequencyMonthly, FrequencyQuarterly, FrequencySemiAnnual, FrequencyAnnual:
			case "":
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("reports[%d].frequency", i),
					Message: "report frequency is required",
				})
			default:
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("reports[%d].frequency", i),
					Message: fmt.Sprintf("unknown report frequency %q", report.Frequency),
				})
			}
			if len(report.Recipients) == 0 {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("reports[%d].recipients", i),
					Message: "report needs at least one recipient",
				})
			}
		}

	default:
		errs = append(errs, ValidationError{Field: "moduleType", Message: fmt.Sprintf("unknown module type %q", moduleType)})
	}

	return ModuleValidation{IsValid: len(errs) == 0, Errors: errs}
}

// ModuleCompleteness reports whether the payload covers all categories the
// schema defines. Completeness is looser than validity and drives progress
// UI only: a module can be complete but invalid, or incomplete but valid
// (an empty payload has nothing to be wrong).
func ModuleCompleteness(moduleType ModuleType, payload map[string]any) bool {
	switch moduleType {
	case ModuleMandateTerms:
		var p MandateTermsPayload
		if decodePayload(payload, &p) != nil {
			return false
		}
		return p.InvestmentObjective != "" && p.Strategy != "" &&
			len(p.InstrumentScope) > 0 && p.Currency != "" &&
			p.TicketSizeMax > 0
	case ModuleExclusions:
		var p ExclusionsPayload
		if decodePayload(payload, &p) != nil {
			return false
		}
		return len(p.Rules) > 0
	case ModuleRiskAppetite:
		var p RiskAppetitePayload
		if decodePayload(payload, &p) != nil {
			return false
		}
		return p.Tolerance != "" && len(p.Limits) > 0
	case ModuleGovernanceThresholds:
		var p GovernanceThresholdsPayload
		if decodePayload(payload, &p) != nil {
			return false
		}
		return len(p.ApprovalLevels) > 0
	case ModuleReportingObligations:
		var p ReportingObligationsPayload
		if decodePayload(payload, &p) != nil {
			return false
		}
		return len(p.Reports) > 0
	}
	return false
}

// decodePayload round-trips a loosely typed JSON document into its typed
// schema. Unknown fields are rejected so typos surface as validation
// errors instead of silently dropped configuration.
func decodePayload(payload map[string]any, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("payload is not serializable: %v", err)
	}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("payload does not match schema: %v", err)
	}
	return nil
}
