package domain

// ViolationType names the check that a response failed.
type ViolationType string

const (
	ViolationInjectionReflection ViolationType = "prompt_injection_reflection"
	ViolationDangerousTool       ViolationType = "dangerous_tool_usage"
	ViolationTruthContradiction  ViolationType = "master_truth_violation"
	ViolationCredentialLeak      ViolationType = "credential_leakage"
)

// Severity grades a violation. Critical violations force rejection of the
// whole response.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ConfidencePenalty is how much one violation of this severity reduces the
// verdict confidence.
func (s Severity) ConfidencePenalty() float32 {
	switch s {
	case SeverityCritical:
		return 0.4
	case SeverityHigh:
		return 0.2
	default:
		return 0.1
	}
}

// Violation is one safety check failure found during the response audit.
type Violation struct {
	Type     ViolationType `json:"type"`
	Severity Severity      `json:"severity"`
	Details  string        `json:"details"`
	Tools    []ToolMatch   `json:"tools,omitempty"`
	TruthKey string        `json:"truth_key,omitempty"`
}

// AuditVerdict is the combined outcome of the post-generation self-audit.
// Safe is true exactly when Violations is empty. Confidence starts at 1.0 and
// is reduced per violation severity, floored at 0.
type AuditVerdict struct {
	Safe       bool        `json:"is_safe"`
	Violations []Violation `json:"violations"`
	Confidence float32     `json:"confidence"`
}

// HasCritical reports whether any violation is of critical severity.
func (v AuditVerdict) HasCritical() bool {
	for _, viol := range v.Violations {
		if viol.Severity == SeverityCritical {
			return true
		}
	}
	return false
}
