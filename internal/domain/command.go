package domain

import "time"

// CommandTag is one `[CMD: NAME|ARGS]` tag parsed out of generated text.
// Tags are consumed immediately by the tool guard and never persisted.
type CommandTag struct {
	Type     string `json:"type"`
	RawArgs  string `json:"raw_args"`
	Position int    `json:"position"`
}

// ToolMatchKind classifies what a dangerous-tool scan matched on.
type ToolMatchKind string

const (
	ToolMatchRestrictedCommand ToolMatchKind = "restricted_command"
	ToolMatchShellExec         ToolMatchKind = "shell_execution"
	ToolMatchFileDelete        ToolMatchKind = "file_deletion"
	ToolMatchFileWrite         ToolMatchKind = "file_modification"
	ToolMatchNetworkRequest    ToolMatchKind = "network_request"
	ToolMatchCredentialAccess  ToolMatchKind = "credential_access"
)

// ToolMatch records one dangerous construct found in generated text.
type ToolMatch struct {
	Kind        ToolMatchKind `json:"kind"`
	Command     string        `json:"command,omitempty"`
	MatchedText string        `json:"matched_text"`
	Position    int           `json:"position"`
}

// ToolScan is the result of scanning a response for dangerous tool usage.
type ToolScan struct {
	Found            []ToolMatch `json:"tools_found"`
	RequiresApproval bool        `json:"requires_approval"`
}

// AuditStatus is the three-way classification of a gated command.
type AuditStatus string

const (
	AuditExecuted        AuditStatus = "executed"
	AuditBlocked         AuditStatus = "blocked"
	AuditPendingApproval AuditStatus = "pending_approval"
)

// AuditEntry is one append-only record of a command gating decision. Entries
// are written before any side-effecting action runs.
type AuditEntry struct {
	ID          int64       `json:"id"`
	CommandType string      `json:"command_type"`
	CommandArgs string      `json:"command_args"`
	Status      AuditStatus `json:"status"`
	Reason      string      `json:"reason"`
	CreatedAt   time.Time   `json:"created_at"`
}

// CommandResult reports the gate's decision for one command tag in a turn.
type CommandResult struct {
	Tag    CommandTag  `json:"tag"`
	Status AuditStatus `json:"status"`
	Reason string      `json:"reason,omitempty"`
	Output string      `json:"output,omitempty"`
}
