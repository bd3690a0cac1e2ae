package domain

import (
	"time"

	"github.com/google/uuid"
)

// Channel identifies the messaging surface a turn arrived on.
type Channel string

const (
	ChannelKakao    Channel = "kakao"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelLine     Channel = "line"
)

func ValidChannel(c string) bool {
	switch Channel(c) {
	case ChannelKakao, ChannelWhatsApp, ChannelLine:
		return true
	}
	return false
}

// TurnStatus is the terminal classification of one pipeline pass.
type TurnStatus string

const (
	// TurnOK means the response passed the audit and was forwarded.
	TurnOK TurnStatus = "ok"
	// TurnSecurityBlocked means a critical audit violation rejected the
	// response; the caller received the fixed security-block payload.
	TurnSecurityBlocked TurnStatus = "security_blocked"
	// TurnUnavailable means the model transport failed before generation.
	TurnUnavailable TurnStatus = "unavailable"
)

// SafetyState is the tri-state security summary of a turn. It defaults to
// unknown, never to safe, when a check could not run.
type SafetyState string

const (
	SafetySafe    SafetyState = "safe"
	SafetyUnsafe  SafetyState = "unsafe"
	SafetyUnknown SafetyState = "unknown"
)

// SecurityMetadata is persisted with every turn record so that violations
// stay visible even when later pipeline stages fail.
type SecurityMetadata struct {
	InputScan   ScanResult    `json:"input_scan"`
	Quarantined bool          `json:"quarantined"`
	Verdict     *AuditVerdict `json:"self_criticism,omitempty"`
	Overall     SafetyState   `json:"overall"`
}

// Record is the durable per-turn document: the raw inbound text (never the
// wrapped rewrite), the response as returned to the caller, and the security
// metadata of the pass.
type Record struct {
	ID        uuid.UUID        `json:"id"`
	Channel   Channel          `json:"channel"`
	Content   string           `json:"content"`
	Response  string           `json:"response"`
	Status    TurnStatus       `json:"status"`
	Security  SecurityMetadata `json:"security"`
	Learned   int              `json:"learnings_extracted"`
	CreatedAt time.Time        `json:"created_at"`
}

// TurnResult is what the pipeline returns to its caller for one message.
type TurnResult struct {
	RecordID    uuid.UUID        `json:"record_id"`
	Status      TurnStatus       `json:"status"`
	Response    string           `json:"response"`
	Security    SecurityMetadata `json:"security"`
	Commands    []CommandResult  `json:"commands,omitempty"`
	Learned     int              `json:"learnings_extracted"`
	Quarantined int              `json:"claims_quarantined"`
}

// Session tracks counters for the lifetime of one conversational session.
type Session struct {
	ID             uuid.UUID `json:"session_id"`
	StartedAt      time.Time `json:"started_at"`
	MessageCount   int       `json:"message_count"`
	LearningCount  int       `json:"learning_count"`
	SecurityAlerts int       `json:"security_alerts"`
}
