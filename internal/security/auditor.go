package security

import (
	"fmt"
	"regexp"

	"github.com/kivosy/aegis/internal/domain"
)

// credentialPatterns catch high-entropy-looking secrets in generated text:
// key=value assignments, bearer tokens, and vendor-prefixed API keys.
var credentialPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(api[_-]?key|password|token|secret)\s*[:=]\s*["']?[\w-]{10,}`),
	regexp.MustCompile(`Bearer\s+[\w-]{20,}`),
	regexp.MustCompile(`sk-[a-zA-Z0-9]{20,}`),
}

// Auditor performs the post-generation self-criticism pass: it re-checks a
// model response for injection echoes, dangerous tool usage, core truth
// contradictions, and credential leakage before the response is trusted.
type Auditor struct {
	scanner *Scanner
	truths  *TruthTable
}

func NewAuditor(scanner *Scanner, truths *TruthTable) *Auditor {
	return &Auditor{scanner: scanner, truths: truths}
}

// Audit runs all four checks and unions their violations. A single critical
// violation marks the whole response unsafe for forwarding. The prompt
// argument is part of the audit contract but unused: every current check
// scans the response alone, and the verdict must not depend on what the
// caller claims the model saw.
func (a *Auditor) Audit(response, _ string) domain.AuditVerdict {
	var violations []domain.Violation

	// 1. Injection echo: the response parrots an injected instruction back.
	if echo := a.scanner.Scan(response); echo.Suspicious {
		violations = append(violations, domain.Violation{
			Type:     domain.ViolationInjectionReflection,
			Severity: domain.SeverityHigh,
			Details:  fmt.Sprintf("response contains %d suspicious pattern match(es), possible injection echo", len(echo.Matches)),
		})
	}

	// 2. Dangerous tool usage.
	if tools := ScanForDangerousTools(response); tools.RequiresApproval {
		violations = append(violations, domain.Violation{
			Type:     domain.ViolationDangerousTool,
			Severity: domain.SeverityCritical,
			Details:  "response requests dangerous tool usage",
			Tools:    tools.Found,
		})
	}

	// 3. Core truth contradiction (same co-occurrence heuristic as claim
	// verification, applied to the full response).
	if key, correction, contradicted := a.truths.ContradictionFor(response); contradicted {
		violations = append(violations, domain.Violation{
			Type:     domain.ViolationTruthContradiction,
			Severity: domain.SeverityHigh,
			Details:  correction,
			TruthKey: key,
		})
	}

	// 4. Credential leakage.
	for _, p := range credentialPatterns {
		if p.MatchString(response) {
			violations = append(violations, domain.Violation{
				Type:     domain.ViolationCredentialLeak,
				Severity: domain.SeverityCritical,
				Details:  "response may contain exposed credentials",
			})
			break
		}
	}

	confidence := float32(1.0)
	for _, v := range violations {
		confidence -= v.Severity.ConfidencePenalty()
	}
	if confidence < 0 {
		confidence = 0
	}

	return domain.AuditVerdict{
		Safe:       len(violations) == 0,
		Violations: violations,
		Confidence: confidence,
	}
}
