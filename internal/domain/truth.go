package domain

// CoreTruth is an immutable fact that the conversational pipeline can never
// add, remove, or alter. The set is fixed at process start; extension happens
// only through the offline administrative path.
type CoreTruth struct {
	Key        string  `json:"key"`
	Statement  string  `json:"statement"`
	Confidence float32 `json:"confidence"`
	Immutable  bool    `json:"immutable"`
}

// ClaimSource identifies which extraction pass produced a claim.
type ClaimSource string

const (
	ClaimSourcePattern ClaimSource = "pattern"
	ClaimSourceModel   ClaimSource = "model"
)

// ClaimType mirrors the fact taxonomy of the learning pipeline.
type ClaimType string

const (
	ClaimTypeFact       ClaimType = "fact"
	ClaimTypePreference ClaimType = "preference"
	ClaimTypeHabit      ClaimType = "habit"
	ClaimTypeGoal       ClaimType = "goal"
)

func ValidClaimType(t string) bool {
	switch ClaimType(t) {
	case ClaimTypeFact, ClaimTypePreference, ClaimTypeHabit, ClaimTypeGoal:
		return true
	}
	return false
}

// Claim is an unverified candidate fact extracted from conversation. Claims
// are transient: they become Facts only after passing truth verification,
// otherwise they are routed to quarantine.
type Claim struct {
	Text       string      `json:"text"`
	Source     ClaimSource `json:"source"`
	Type       ClaimType   `json:"type"`
	Confidence float32     `json:"confidence"`
}
