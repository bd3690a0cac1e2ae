package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/kivosy/aegis/internal/domain"
	"github.com/kivosy/aegis/internal/security"
)

// DangerousCommands is the blacklist. It is compiled into the binary and
// cannot be extended or shadowed by configuration; a blacklisted command is
// blocked even when the whitelist also names it.
var DangerousCommands = map[string]string{
	"EXEC":   "Shell execution (RCE risk)",
	"SHELL":  "Shell command (RCE risk)",
	"DELETE": "File deletion (data loss risk)",
	"WRITE":  "File modification (data corruption risk)",
	"SPAWN":  "Process spawn (resource exhaustion risk)",
	"EVAL":   "Code evaluation (arbitrary code execution)",
}

// Dispatcher executes one whitelisted command.
type Dispatcher interface {
	Dispatch(ctx context.Context, tag domain.CommandTag) (string, error)
}

// GateService decides the fate of every command tag found in accepted
// responses. Decision order is fixed: blacklist, then whitelist, then
// pending approval for anything unknown. Every decision is written to the
// audit trail before the command runs.
type GateService struct {
	auditStore domain.AuditStore
	dispatcher Dispatcher
	whitelist  map[string]bool
	logger     *zap.Logger
}

func NewGateService(as domain.AuditStore, dispatcher Dispatcher, safeCommands []string, logger *zap.Logger) *GateService {
	whitelist := make(map[string]bool, len(safeCommands))
	for _, cmd := range safeCommands {
		whitelist[cmd] = true
	}
	return &GateService{
		auditStore: as,
		dispatcher: dispatcher,
		whitelist:  whitelist,
		logger:     logger,
	}
}

// GateResponse parses command tags out of generated text and gates each one.
// An audit write failure stops the command from running; the log-then-act
// order is absolute.
func (s *GateService) GateResponse(ctx context.Context, text string) ([]domain.CommandResult, error) {
	tags := security.ParseCommandTags(text)
	if len(tags) == 0 {
		return nil, nil
	}

	results := make([]domain.CommandResult, 0, len(tags))
	for _, tag := range tags {
		result, err := s.gateOne(ctx, tag)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *GateService) gateOne(ctx context.Context, tag domain.CommandTag) (domain.CommandResult, error) {
	if reason, blacklisted := DangerousCommands[tag.Type]; blacklisted {
		if err := s.audit(ctx, tag, domain.AuditBlocked, reason); err != nil {
			return domain.CommandResult{}, err
		}
		s.logger.Warn("blocked dangerous command",
			zap.String("command", tag.Type),
			zap.String("reason", reason))
		return domain.CommandResult{Tag: tag, Status: domain.AuditBlocked, Reason: reason}, nil
	}

	if s.whitelist[tag.Type] {
		if err := s.audit(ctx, tag, domain.AuditExecuted, "whitelisted"); err != nil {
			return domain.CommandResult{}, err
		}
		output, err := s.dispatcher.Dispatch(ctx, tag)
		if err != nil {
			s.logger.Error("whitelisted command dispatch failed",
				zap.String("command", tag.Type),
				zap.Error(err))
			output = "dispatch failed: " + err.Error()
		}
		return domain.CommandResult{Tag: tag, Status: domain.AuditExecuted, Reason: "whitelisted", Output: output}, nil
	}

	if err := s.audit(ctx, tag, domain.AuditPendingApproval, "unknown_command"); err != nil {
		return domain.CommandResult{}, err
	}
	s.logger.Info("unknown command held for approval", zap.String("command", tag.Type))
	return domain.CommandResult{Tag: tag, Status: domain.AuditPendingApproval, Reason: "unknown_command"}, nil
}

func (s *GateService) audit(ctx context.Context, tag domain.CommandTag, status domain.AuditStatus, reason string) error {
	return s.auditStore.Append(ctx, &domain.AuditEntry{
		CommandType: tag.Type,
		CommandArgs: tag.RawArgs,
		Status:      status,
		Reason:      reason,
	})
}
