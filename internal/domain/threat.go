package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ThreatLevel classifies the severity of a detected suspicious pattern.
// Levels are totally ordered: Safe < Low < Medium < High < Critical.
type ThreatLevel int

const (
	ThreatSafe ThreatLevel = iota
	ThreatLow
	ThreatMedium
	ThreatHigh
	ThreatCritical
)

func (l ThreatLevel) String() string {
	switch l {
	case ThreatSafe:
		return "safe"
	case ThreatLow:
		return "low"
	case ThreatMedium:
		return "medium"
	case ThreatHigh:
		return "high"
	case ThreatCritical:
		return "critical"
	default:
		return fmt.Sprintf("threat(%d)", int(l))
	}
}

func (l ThreatLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *ThreatLevel) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "safe":
		*l = ThreatSafe
	case "low":
		*l = ThreatLow
	case "medium":
		*l = ThreatMedium
	case "high":
		*l = ThreatHigh
	case "critical":
		*l = ThreatCritical
	default:
		return fmt.Errorf("unknown threat level: %q", s)
	}
	return nil
}

// MatchEvidence records a single pattern hit within scanned text.
type MatchEvidence struct {
	Pattern     string      `json:"pattern"`
	MatchedText string      `json:"matched_text"`
	Position    int         `json:"position"`
	Level       ThreatLevel `json:"threat_level"`
}

// ScanResult is the outcome of running the threat scanner over one text.
// Suspicious is true exactly when Matches is non-empty.
type ScanResult struct {
	Suspicious bool            `json:"is_suspicious"`
	Level      ThreatLevel     `json:"threat_level"`
	Matches    []MatchEvidence `json:"matches"`
	Confidence float32         `json:"confidence"`
	Timestamp  time.Time       `json:"timestamp"`
}
