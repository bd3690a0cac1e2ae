package security

import (
	"regexp"
	"time"

	"github.com/kivosy/aegis/internal/domain"
)

// PatternRule pairs one detection regex with the threat level it signals.
// The rule set is fixed at build time and never mutated at runtime, so no
// conversational input can disable a rule.
type PatternRule struct {
	Pattern *regexp.Regexp
	Level   domain.ThreatLevel
}

func rule(expr string, level domain.ThreatLevel) PatternRule {
	return PatternRule{Pattern: regexp.MustCompile(`(?i)` + expr), Level: level}
}

// SuspiciousPatterns is the ordered injection-detection ruleset. It is
// exported as a data value so tests can assert coverage of each rule.
var SuspiciousPatterns = []PatternRule{
	// Direct instruction overrides
	rule(`ignore\s+(all\s+)?(previous|prior|above)\s+(instructions?|prompts?)`, domain.ThreatHigh),
	rule(`disregard\s+(all\s+)?(previous|prior|above)`, domain.ThreatHigh),
	rule(`forget\s+(everything|all|your)\s+(instructions?|rules?|guidelines?)`, domain.ThreatHigh),

	// Role manipulation
	rule(`you\s+are\s+now\s+(a|an)\s+`, domain.ThreatCritical),
	rule(`new\s+instructions?:`, domain.ThreatHigh),
	rule(`system\s*:?\s*(prompt|override|command)`, domain.ThreatCritical),
	rule(`act\s+as\s+(if\s+)?you\s+(are|were)`, domain.ThreatMedium),

	// Identity gaslighting
	rule(`(you|your)\s+(real|actual|true)\s+(name|identity|role)\s+is`, domain.ThreatHigh),
	rule(`(IU|아이유).*(유튜버|youtuber)`, domain.ThreatMedium),
	rule(`공장장.*(비서|secretary)`, domain.ThreatMedium),

	// Dangerous commands
	rule(`\bexec\b.*command\s*=`, domain.ThreatCritical),
	rule(`rm\s+-rf`, domain.ThreatCritical),
	rule(`delete\s+all\s+(emails?|files?|data)`, domain.ThreatCritical),
	rule(`elevated\s*=\s*true`, domain.ThreatHigh),

	// Tag injection
	rule(`</?system>`, domain.ThreatHigh),
	rule(`\]\s*\n\s*\[?(system|assistant|user)\]?:`, domain.ThreatHigh),
	rule(`<<<EXTERNAL_UNTRUSTED_CONTENT>>>`, domain.ThreatLow),

	// Credential extraction
	rule(`(show|reveal|tell)\s+(me\s+)?(your\s+)?(api[\s_-]?key|password|token|secret)`, domain.ThreatCritical),
	rule(`what\s+is\s+your\s+(system|internal)\s+prompt`, domain.ThreatHigh),
}

// Scanner detects prompt-injection attempts against a fixed rule set.
type Scanner struct {
	rules []PatternRule
	now   func() time.Time
}

func NewScanner() *Scanner {
	return &Scanner{rules: SuspiciousPatterns, now: time.Now}
}

// Scan classifies text against every rule. It is a pure function over the
// rule set: the whole text is scanned (confidence depends on total match
// count) and the reported level is the maximum over all matches.
func (s *Scanner) Scan(text string) domain.ScanResult {
	var matches []domain.MatchEvidence
	maxLevel := domain.ThreatSafe

	for _, r := range s.rules {
		for _, loc := range r.Pattern.FindAllStringIndex(text, -1) {
			matches = append(matches, domain.MatchEvidence{
				Pattern:     r.Pattern.String(),
				MatchedText: text[loc[0]:loc[1]],
				Position:    loc[0],
				Level:       r.Level,
			})
			if r.Level > maxLevel {
				maxLevel = r.Level
			}
		}
	}

	var confidence float32
	if len(matches) > 0 {
		confidence = float32(len(matches)) * 0.3
		if confidence > 1.0 {
			confidence = 1.0
		}
		// Severe patterns set a confidence floor regardless of count.
		switch maxLevel {
		case domain.ThreatCritical:
			if confidence < 0.9 {
				confidence = 0.9
			}
		case domain.ThreatHigh:
			if confidence < 0.7 {
				confidence = 0.7
			}
		}
	}

	return domain.ScanResult{
		Suspicious: len(matches) > 0,
		Level:      maxLevel,
		Matches:    matches,
		Confidence: confidence,
		Timestamp:  s.now(),
	}
}
