package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kivosy/aegis/internal/domain"
	"github.com/kivosy/aegis/internal/security"
)

var ErrContentEmpty = errors.New("content is required")

const defaultTemperature = 0.7

// unavailableResponse is the fixed payload returned when the model transport
// fails. It is deliberately constant so channel clients can pattern-match it.
const unavailableResponse = `<summary>Jarvis is currently on vacation! 🕊️✨</summary>
<insight>Even AI secretaries need rest sometimes. (Connection failed)</insight>
<suggestion>Please check if the model endpoint is running, then try again!</suggestion>`

// securityBlockedResponse carries the violation summary but never any part of
// the rejected model output.
const securityBlockedResponse = `<summary>🛡️ Security system blocked a potentially unsafe response</summary>
<insight>Detected violations: %s</insight>
<suggestion>The request has been logged. Please rephrase your query.</suggestion>`

// PipelineService runs every inbound message through the fixed stage order:
// input scan, quarantine wrap, generation, response audit, learning
// extraction, command gating, persistence. Stages after a rejection or a
// transport failure are skipped, never reordered.
type PipelineService struct {
	scanner      *security.Scanner
	wrapper      *security.Wrapper
	auditor      *security.Auditor
	llmClient    domain.LLMClient
	contextSvc   *ContextService
	extractor    *ExtractorService
	facts        *FactService
	gate         *GateService
	recordStore  domain.RecordStore
	sessionStore domain.SessionStore
	logger       *zap.Logger
}

func NewPipelineService(
	scanner *security.Scanner,
	wrapper *security.Wrapper,
	auditor *security.Auditor,
	llmClient domain.LLMClient,
	contextSvc *ContextService,
	extractor *ExtractorService,
	facts *FactService,
	gate *GateService,
	recordStore domain.RecordStore,
	sessionStore domain.SessionStore,
	logger *zap.Logger,
) *PipelineService {
	return &PipelineService{
		scanner:      scanner,
		wrapper:      wrapper,
		auditor:      auditor,
		llmClient:    llmClient,
		contextSvc:   contextSvc,
		extractor:    extractor,
		facts:        facts,
		gate:         gate,
		recordStore:  recordStore,
		sessionStore: sessionStore,
		logger:       logger,
	}
}

// ProcessMessage handles one inbound turn end to end and always returns a
// TurnResult describing what happened, even on degraded paths. external marks
// content the caller did not author directly (webhook relay, forwarded text);
// such content is always wrapped, whatever the scan says.
func (s *PipelineService) ProcessMessage(ctx context.Context, channel domain.Channel, content string, external bool) (*domain.TurnResult, error) {
	if content == "" {
		return nil, ErrContentEmpty
	}

	s.logger.Info("message received",
		zap.String("channel", string(channel)),
		zap.Int("length", len(content)),
		zap.Bool("external", external))

	// Stage 1: input scan. High or critical findings, or an external-source
	// flag, route the text through the quarantine wrapper; the wrapped form
	// goes only into the user turn.
	inputScan := s.scanner.Scan(content)
	quarantined := false
	userPrompt := content
	if inputScan.Suspicious {
		s.logger.Warn("suspicious input detected",
			zap.String("threat_level", inputScan.Level.String()),
			zap.Int("matches", len(inputScan.Matches)),
			zap.Float32("confidence", inputScan.Confidence))
	}
	switch {
	case inputScan.Suspicious && inputScan.Level >= domain.ThreatHigh:
		userPrompt = s.wrapper.Wrap(content, "user_input_suspicious")
		quarantined = true
	case external:
		userPrompt = s.wrapper.Wrap(content, "external_content")
		quarantined = true
	}

	session, err := s.sessionStore.Current(ctx)
	if err != nil {
		s.logger.Warn("session load failed, continuing without counters", zap.Error(err))
		session = nil
	}

	// Stage 2: generation against the trusted system context.
	systemPrompt := s.contextSvc.BuildSystemPrompt(ctx, content, session)
	response, err := s.llmClient.Complete(ctx, systemPrompt, userPrompt, defaultTemperature)
	if err != nil {
		s.logger.Error("model transport failed", zap.Error(err))
		return s.finishUnavailable(ctx, channel, content, inputScan, quarantined, session)
	}

	// Stage 3: response audit.
	verdict := s.auditor.Audit(response, userPrompt)
	if verdict.HasCritical() {
		s.logger.Warn("response rejected by audit",
			zap.Int("violations", len(verdict.Violations)),
			zap.Float32("confidence", verdict.Confidence))
		return s.finishBlocked(ctx, channel, content, inputScan, quarantined, verdict, session)
	}
	if !verdict.Safe {
		s.logger.Warn("response passed audit with non-critical violations",
			zap.Int("violations", len(verdict.Violations)))
	}

	// Stage 4: learning extraction from the raw user message. Failure here
	// never fails the turn.
	outcome := &LearnOutcome{}
	claims := s.extractor.Extract(ctx, content)
	if len(claims) > 0 {
		if learned, err := s.facts.Learn(ctx, claims); err != nil {
			s.logger.Error("learning persistence failed, continuing", zap.Error(err))
		} else {
			outcome = learned
		}
	}

	// Stage 5: command gating over the accepted response only.
	commands, err := s.gate.GateResponse(ctx, response)
	if err != nil {
		s.logger.Error("command gating aborted", zap.Error(err))
	}

	overall := domain.SafetySafe
	if inputScan.Suspicious || !verdict.Safe {
		overall = domain.SafetyUnsafe
	}
	meta := domain.SecurityMetadata{
		InputScan:   inputScan,
		Quarantined: quarantined,
		Verdict:     &verdict,
		Overall:     overall,
	}

	record := s.persistRecord(ctx, channel, content, response, domain.TurnOK, meta, outcome.Stored)
	s.bumpSession(ctx, session, outcome.Stored, outcome.Quarantined+inputAlert(quarantined))

	return &domain.TurnResult{
		RecordID:    record.ID,
		Status:      domain.TurnOK,
		Response:    response,
		Security:    meta,
		Commands:    commands,
		Learned:     outcome.Stored,
		Quarantined: outcome.Quarantined,
	}, nil
}

func (s *PipelineService) finishUnavailable(ctx context.Context, channel domain.Channel, content string, inputScan domain.ScanResult, quarantined bool, session *domain.Session) (*domain.TurnResult, error) {
	meta := domain.SecurityMetadata{
		InputScan:   inputScan,
		Quarantined: quarantined,
		Overall:     domain.SafetyUnknown,
	}
	record := s.persistRecord(ctx, channel, content, unavailableResponse, domain.TurnUnavailable, meta, 0)
	s.bumpSession(ctx, session, 0, inputAlert(quarantined))

	return &domain.TurnResult{
		RecordID: record.ID,
		Status:   domain.TurnUnavailable,
		Response: unavailableResponse,
		Security: meta,
	}, nil
}

func (s *PipelineService) finishBlocked(ctx context.Context, channel domain.Channel, content string, inputScan domain.ScanResult, quarantined bool, verdict domain.AuditVerdict, session *domain.Session) (*domain.TurnResult, error) {
	types := make([]string, len(verdict.Violations))
	for i, v := range verdict.Violations {
		types[i] = string(v.Type)
	}
	response := fmt.Sprintf(securityBlockedResponse, strings.Join(types, ", "))

	meta := domain.SecurityMetadata{
		InputScan:   inputScan,
		Quarantined: quarantined,
		Verdict:     &verdict,
		Overall:     domain.SafetyUnsafe,
	}
	record := s.persistRecord(ctx, channel, content, response, domain.TurnSecurityBlocked, meta, 0)
	s.bumpSession(ctx, session, 0, 1+inputAlert(quarantined))

	return &domain.TurnResult{
		RecordID: record.ID,
		Status:   domain.TurnSecurityBlocked,
		Response: response,
		Security: meta,
	}, nil
}

// persistRecord stores the turn document. Persistence failure degrades the
// result instead of failing a turn that already completed its security path.
func (s *PipelineService) persistRecord(ctx context.Context, channel domain.Channel, content, response string, status domain.TurnStatus, meta domain.SecurityMetadata, learned int) *domain.Record {
	record := &domain.Record{
		Channel:  channel,
		Content:  content,
		Response: response,
		Status:   status,
		Security: meta,
		Learned:  learned,
	}
	if err := s.recordStore.Create(ctx, record); err != nil {
		s.logger.Error("record persistence failed", zap.Error(err))
	}
	return record
}

func (s *PipelineService) bumpSession(ctx context.Context, session *domain.Session, learnings, alerts int) {
	if session == nil {
		return
	}
	if err := s.sessionStore.IncrementMessages(ctx, session.ID); err != nil {
		s.logger.Warn("session message counter update failed", zap.Error(err))
	}
	if err := s.sessionStore.IncrementLearnings(ctx, session.ID, learnings); err != nil {
		s.logger.Warn("session learning counter update failed", zap.Error(err))
	}
	if err := s.sessionStore.IncrementAlerts(ctx, session.ID, alerts); err != nil {
		s.logger.Warn("session alert counter update failed", zap.Error(err))
	}
}

// inputAlert contributes to the session alert counter only when the input
// was actually quarantined. A Low/Medium suspicion that wasn't wrapped is
// recorded in the scan metadata but is not an alert event.
func inputAlert(quarantined bool) int {
	if quarantined {
		return 1
	}
	return 0
}
