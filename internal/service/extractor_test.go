package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kivosy/aegis/internal/domain"
	"github.com/kivosy/aegis/internal/llm"
)

func TestExtractRegexKoreanPatterns(t *testing.T) {
	svc := NewExtractorService(nil, "공장장", zap.NewNop())

	tests := []struct {
		name        string
		message     string
		wantContent string
		wantType    domain.ClaimType
		wantConf    float32
	}{
		{"name fact", "내 이름은 김철수입니다", "공장장은 김철수", domain.ClaimTypeFact, 0.9},
		{"preference", "나는 커피를 좋아해", "공장장은 커피", domain.ClaimTypePreference, 0.7},
		{"workplace", "나는 강남에서 일하고 있어", "공장장은 강남", domain.ClaimTypeFact, 0.8},
		{"habit", "매일 운동한다", "공장장은 운동", domain.ClaimTypeHabit, 0.7},
		{"english name", "My name is John Smith", "공장장은 John Smith", domain.ClaimTypeFact, 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := svc.Extract(context.Background(), tt.message)
			if len(claims) == 0 {
				t.Fatalf("no claims extracted from %q", tt.message)
			}
			c := claims[0]
			if c.Text != tt.wantContent {
				t.Errorf("Text = %q, want %q", c.Text, tt.wantContent)
			}
			if c.Type != tt.wantType {
				t.Errorf("Type = %s, want %s", c.Type, tt.wantType)
			}
			if c.Confidence != tt.wantConf {
				t.Errorf("Confidence = %f, want %f", c.Confidence, tt.wantConf)
			}
			if c.Source != domain.ClaimSourcePattern {
				t.Errorf("Source = %s, want pattern", c.Source)
			}
		})
	}
}

func TestExtractNoMatches(t *testing.T) {
	svc := NewExtractorService(nil, "공장장", zap.NewNop())

	if claims := svc.Extract(context.Background(), "날씨 알려줘"); len(claims) != 0 {
		t.Errorf("got %d claims from non-learnable message", len(claims))
	}
}

func TestExtractModelPass(t *testing.T) {
	mock := llm.NewMockClient()
	mock.Response = `Here you go:
` + "```json" + `
[
  {"type": "preference", "content": "공장장은 재즈를 좋아함", "confidence": 0.85},
  {"type": "nonsense", "content": "회사는 부산에 있음"},
  {"type": "fact", "content": ""}
]
` + "```"

	svc := NewExtractorService(mock, "공장장", zap.NewNop())
	claims := svc.Extract(context.Background(), "재즈 좋아하고 회사는 부산이야")

	if len(claims) != 2 {
		t.Fatalf("got %d claims, want 2: %+v", len(claims), claims)
	}

	first := claims[0]
	if first.Text != "공장장은 재즈를 좋아함" || first.Type != domain.ClaimTypePreference || first.Confidence != 0.85 {
		t.Errorf("first claim = %+v", first)
	}
	if first.Source != domain.ClaimSourceModel {
		t.Errorf("Source = %s, want model", first.Source)
	}

	// Unknown type falls back to fact, missing confidence defaults to 0.7.
	second := claims[1]
	if second.Type != domain.ClaimTypeFact {
		t.Errorf("unknown type not defaulted: %s", second.Type)
	}
	if second.Confidence != 0.7 {
		t.Errorf("missing confidence not defaulted: %f", second.Confidence)
	}

	if len(mock.Calls) != 1 {
		t.Fatalf("model called %d times, want 1", len(mock.Calls))
	}
	if mock.Calls[0].Temperature != 0.3 {
		t.Errorf("extraction temperature = %f, want 0.3", mock.Calls[0].Temperature)
	}
	if !strings.Contains(mock.Calls[0].UserPrompt, "재즈 좋아하고 회사는 부산이야") {
		t.Error("user message missing from extraction prompt")
	}
}

func TestExtractModelFailureFallsBackToRegex(t *testing.T) {
	mock := llm.NewMockClient()
	mock.Err = errors.New("connection refused")

	svc := NewExtractorService(mock, "공장장", zap.NewNop())
	claims := svc.Extract(context.Background(), "나는 커피를 좋아해")

	if len(claims) != 1 {
		t.Fatalf("got %d claims, want regex result to survive model failure", len(claims))
	}
	if claims[0].Source != domain.ClaimSourcePattern {
		t.Errorf("Source = %s, want pattern", claims[0].Source)
	}
}

func TestExtractModelGarbageOutput(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"plain prose", "I could not find anything to learn."},
		{"broken json", `[{"type": "fact", "content": `},
		{"empty array", "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := llm.NewMockClient()
			mock.Response = tt.response

			svc := NewExtractorService(mock, "공장장", zap.NewNop())
			if claims := svc.Extract(context.Background(), "그냥 잡담"); len(claims) != 0 {
				t.Errorf("got %d claims from garbage model output", len(claims))
			}
		})
	}
}

func TestParseClaimArrayFenced(t *testing.T) {
	raw := "```json\n[{\"type\": \"fact\", \"content\": \"x\", \"confidence\": 0.8}]\n```"
	items := parseClaimArray(raw)
	if len(items) != 1 || items[0].Content != "x" {
		t.Errorf("parseClaimArray = %+v", items)
	}
}
