package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kivosy/aegis/internal/domain"
	"github.com/kivosy/aegis/internal/security"
)

const contextFactLimit = 10

// OwnerProfile is the static identity block rendered at the top of every
// system prompt.
type OwnerProfile struct {
	Name          string
	Role          string
	Language      string
	Timezone      string
	Communication string
}

func DefaultOwnerProfile() OwnerProfile {
	return OwnerProfile{
		Name:          "공장장",
		Role:          "Factory Owner",
		Language:      "ko",
		Timezone:      "Asia/Seoul",
		Communication: "professional",
	}
}

const personaDirectives = `### ABSOLUTE DIRECTIVES ###
1. If the Master wants YouTube, you MUST output: [CMD: YT_SEARCH|search_query]
2. If the Master wants a Map, you MUST output: [CMD: MAP|location]
3. Your response MUST be snappy, loyal, and include the command tag immediately.

### OUTPUT EXAMPLE ###
Master: "Find Metallica on YT."
Jarvis: "Rock on, Master. [CMD: YT_SEARCH|Metallica] Launching the stage now."`

// ContextService assembles the trusted system prompt for each turn: owner
// profile, immutable truths, accumulated facts, quarantine status, and
// session counters. Only verified material enters here; wrapped external
// content never does.
type ContextService struct {
	factStore       domain.FactStore
	quarantineStore domain.QuarantineStore
	truths          *security.TruthTable
	embeddingClient domain.EmbeddingClient
	owner           OwnerProfile
	logger          *zap.Logger
}

func NewContextService(fs domain.FactStore, qs domain.QuarantineStore, tt *security.TruthTable, ec domain.EmbeddingClient, owner OwnerProfile, logger *zap.Logger) *ContextService {
	if owner.Name == "" {
		owner = DefaultOwnerProfile()
	}
	return &ContextService{
		factStore:       fs,
		quarantineStore: qs,
		truths:          tt,
		embeddingClient: ec,
		owner:           owner,
		logger:          logger,
	}
}

// BuildSystemPrompt renders the full trusted context. The userMessage steers
// fact recall when an embedding client is configured; otherwise the most
// recent facts are used. Store failures degrade the prompt instead of
// failing the turn.
func (s *ContextService) BuildSystemPrompt(ctx context.Context, userMessage string, session *domain.Session) string {
	var b strings.Builder

	fmt.Fprintf(&b, `[AEGIS MEMORY SYSTEM - SECURITY HARDENED]

FACTORY OWNER PROFILE:
Name: %s (%s)
Language: %s
Timezone: %s
Communication: %s

`, s.owner.Name, s.owner.Role, s.owner.Language, s.owner.Timezone, s.owner.Communication)

	b.WriteString(s.truths.SystemTruthsPrompt())
	b.WriteString("\n")

	b.WriteString(`YOUR ROLE (Observant Secretary):
You are a PROACTIVE AI SECRETARY who:
- NEVER misses personal details, preferences, or facts
- ALWAYS references memory when relevant
- ALWAYS provides actionable suggestions
- VERIFIES facts against the master truth table before accepting

`)

	s.writeFacts(ctx, &b, userMessage)
	s.writeQuarantineStatus(ctx, &b)
	s.writeSession(&b, session)

	b.WriteString("\n")
	b.WriteString(personaDirectives)
	b.WriteString("\n")

	return b.String()
}

func (s *ContextService) writeFacts(ctx context.Context, b *strings.Builder, userMessage string) {
	facts, total := s.recallFacts(ctx, userMessage)

	fmt.Fprintf(b, "ACCUMULATED KNOWLEDGE (%d facts):\n", total)
	if len(facts) == 0 {
		b.WriteString("(No facts yet - be observant and start learning!)\n")
		return
	}

	for i, fact := range facts {
		content := truncate(fact.Content, 80)
		confidence := fact.Confidence

		// Facts are re-checked at render time so that a truth extension
		// added after learning still suppresses stale contradictions.
		valid, _ := s.truths.VerifyClaim(content)
		badge := "✓"
		if !valid {
			content = "[CONTRADICTS MASTER TRUTH] " + content
			confidence = 0
			badge = "✗"
		}
		fmt.Fprintf(b, "%d. %s %s (conf: %.1f, learned: %s)\n",
			i+1, badge, content, confidence, fact.LearnedAt.Format("2006-01-02"))
	}
}

func (s *ContextService) recallFacts(ctx context.Context, userMessage string) ([]domain.Fact, int) {
	total, err := s.factStore.Count(ctx)
	if err != nil {
		s.logger.Warn("fact count failed, context degraded", zap.Error(err))
		return nil, 0
	}

	if s.embeddingClient != nil && userMessage != "" {
		vec, err := s.embeddingClient.Embed(ctx, userMessage)
		if err == nil {
			scored, err := s.factStore.Recall(ctx, vec, contextFactLimit)
			if err == nil && len(scored) > 0 {
				facts := make([]domain.Fact, len(scored))
				for i, fs := range scored {
					facts[i] = fs.Fact
				}
				return facts, total
			}
			if err != nil {
				s.logger.Warn("fact recall failed, falling back to recency", zap.Error(err))
			}
		} else {
			s.logger.Warn("query embedding failed, falling back to recency", zap.Error(err))
		}
	}

	facts, err := s.factStore.ListRecent(ctx, contextFactLimit)
	if err != nil {
		s.logger.Warn("recent fact load failed, context degraded", zap.Error(err))
		return nil, total
	}
	return facts, total
}

func (s *ContextService) writeQuarantineStatus(ctx context.Context, b *strings.Builder) {
	pending, err := s.quarantineStore.CountPending(ctx)
	if err != nil {
		s.logger.Warn("quarantine count failed", zap.Error(err))
		return
	}
	if pending > 0 {
		fmt.Fprintf(b, "\nSECURITY: %d claims in untrusted layer (pending verification)\n", pending)
	}
}

func (s *ContextService) writeSession(b *strings.Builder, session *domain.Session) {
	if session == nil {
		return
	}
	fmt.Fprintf(b, `
CURRENT SESSION:
Session: %.8s
Messages: %d
Learnings: %d
Security Alerts: %d
`, session.ID.String(), session.MessageCount, session.LearningCount, session.SecurityAlerts)
}
