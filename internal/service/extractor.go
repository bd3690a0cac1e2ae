package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/kivosy/aegis/internal/domain"
)

// extractionTemplate is one fast-path regex rule: a capturing pattern over the
// user's raw message plus the claim type and confidence it yields.
type extractionTemplate struct {
	pattern    *regexp.Regexp
	claimType  domain.ClaimType
	confidence float32
}

var extractionTemplates = []extractionTemplate{
	{regexp.MustCompile(`나는 (.+?)(?:을|를|이|가) 좋아`), domain.ClaimTypePreference, 0.7},
	{regexp.MustCompile(`내 이름은 (.+?)(?:이다|입니다|야|이야)`), domain.ClaimTypeFact, 0.9},
	{regexp.MustCompile(`나는 (.+?)(?:에서|에) (?:일하|근무)`), domain.ClaimTypeFact, 0.8},
	{regexp.MustCompile(`(?:매일|매주|항상) (.+?)(?:한다|해)`), domain.ClaimTypeHabit, 0.7},
	{regexp.MustCompile(`(?i)my name is (\w[\w .'-]*)`), domain.ClaimTypeFact, 0.9},
	{regexp.MustCompile(`(?i)i (?:really )?(?:like|love|prefer) ([^.!?\n]+)`), domain.ClaimTypePreference, 0.7},
	{regexp.MustCompile(`(?i)i work (?:at|for|in) ([^.!?\n]+)`), domain.ClaimTypeFact, 0.8},
}

// jsonArrayPattern pulls the first bracketed array out of model output that
// may be wrapped in prose or code fences.
var jsonArrayPattern = regexp.MustCompile(`\[[\s\S]*?\]`)

const extractionPromptTemplate = `당신은 매우 관찰력이 뛰어난 비서입니다. 사용자의 메시지에서 학습할 만한 모든 정보를 빠짐없이 추출하세요.

사용자 메시지: %q

다음을 찾아서 JSON 배열로 반환하세요:
1. 개인 선호사항 (좋아하는 것, 싫어하는 것, 선호하는 것)
2. 사실 정보 (이름, 직업, 위치, 회사, 소속 등)
3. 습관/패턴 (시간, 루틴, 반복적인 행동)
4. 목표/계획 (하고 싶은 것, 계획, 일정)
5. 기타 개인 정보 (취미, 관심사, 중요한 사람/장소 등)

반환 형식 (JSON만):
[
  {"type": "preference", "content": "%[2]s은 커피를 좋아함", "confidence": 0.9},
  {"type": "fact", "content": "회사는 서울 강남에 위치", "confidence": 0.8}
]

학습할 정보가 없으면: []

중요:
- 반드시 JSON 배열만 반환
- confidence는 0.5~1.0 사이
- content는 "%[2]s" 주어로 시작
`

// ExtractorService pulls learnable claims out of user messages in two passes:
// a regex pass that always runs and a model pass that is best-effort. Model
// failure never fails the turn.
type ExtractorService struct {
	llmClient domain.LLMClient
	owner     string
	logger    *zap.Logger
}

func NewExtractorService(lc domain.LLMClient, ownerName string, logger *zap.Logger) *ExtractorService {
	if ownerName == "" {
		ownerName = "공장장"
	}
	return &ExtractorService{
		llmClient: lc,
		owner:     ownerName,
		logger:    logger,
	}
}

// Extract runs both passes over the user's raw message and returns their
// union. Claims are unverified at this point; the fact service decides what
// to keep.
func (s *ExtractorService) Extract(ctx context.Context, userMessage string) []domain.Claim {
	claims := s.extractRegex(userMessage)

	modelClaims, err := s.extractModel(ctx, userMessage)
	if err != nil {
		s.logger.Warn("model extraction pass failed, continuing with regex results", zap.Error(err))
	} else {
		claims = append(claims, modelClaims...)
	}
	return claims
}

func (s *ExtractorService) extractRegex(text string) []domain.Claim {
	var claims []domain.Claim
	for _, tmpl := range extractionTemplates {
		for _, m := range tmpl.pattern.FindAllStringSubmatch(text, -1) {
			captured := strings.TrimSpace(m[1])
			if captured == "" {
				continue
			}
			claims = append(claims, domain.Claim{
				Text:       fmt.Sprintf("%s은 %s", s.owner, captured),
				Source:     domain.ClaimSourcePattern,
				Type:       tmpl.claimType,
				Confidence: tmpl.confidence,
			})
		}
	}
	return claims
}

// extractedItem tolerates the loose shape models return for one claim.
type extractedItem struct {
	Type       string  `json:"type"`
	Content    string  `json:"content"`
	Confidence float32 `json:"confidence"`
}

func (s *ExtractorService) extractModel(ctx context.Context, userMessage string) ([]domain.Claim, error) {
	if s.llmClient == nil {
		return nil, nil
	}

	prompt := fmt.Sprintf(extractionPromptTemplate, userMessage, s.owner)
	raw, err := s.llmClient.Complete(ctx, "", prompt, 0.3)
	if err != nil {
		return nil, err
	}

	items := parseClaimArray(raw)
	claims := make([]domain.Claim, 0, len(items))
	for _, item := range items {
		if item.Content == "" {
			continue
		}
		claimType := domain.ClaimType(item.Type)
		if !domain.ValidClaimType(item.Type) {
			claimType = domain.ClaimTypeFact
		}
		confidence := item.Confidence
		if confidence <= 0 {
			confidence = 0.7
		}
		if confidence > 1.0 {
			confidence = 1.0
		}
		claims = append(claims, domain.Claim{
			Text:       item.Content,
			Source:     domain.ClaimSourceModel,
			Type:       claimType,
			Confidence: confidence,
		})
	}
	return claims, nil
}

// parseClaimArray tolerates model output that wraps the JSON array in prose
// or markdown fences. Unparseable output yields no claims, never an error.
func parseClaimArray(raw string) []extractedItem {
	cleaned := stripCodeFences(raw)
	match := jsonArrayPattern.FindString(cleaned)
	if match == "" {
		return nil
	}

	var items []extractedItem
	if err := json.Unmarshal([]byte(match), &items); err != nil {
		return nil
	}
	return items
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
