package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/kivosy/aegis/internal/domain"
)

// SafeDispatcher executes the built-in whitelisted commands. Browser-style
// commands resolve to a URL for the channel client to open; read-only queries
// answer inline.
type SafeDispatcher struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewSafeDispatcher(logger *zap.Logger) *SafeDispatcher {
	return &SafeDispatcher{logger: logger, now: time.Now}
}

func (d *SafeDispatcher) Dispatch(ctx context.Context, tag domain.CommandTag) (string, error) {
	switch tag.Type {
	case "YT_SEARCH":
		u := "https://www.youtube.com/results?search_query=" + url.QueryEscape(tag.RawArgs)
		d.logger.Info("youtube search dispatched", zap.String("query", tag.RawArgs))
		return "✅ YouTube 검색 실행: " + u, nil

	case "MAP":
		u := "https://www.google.com/maps/search/" + url.PathEscape(tag.RawArgs)
		d.logger.Info("map search dispatched", zap.String("location", tag.RawArgs))
		return "✅ 지도 검색 실행: " + u, nil

	case "WEATHER":
		d.logger.Info("weather query dispatched", zap.String("location", tag.RawArgs))
		return fmt.Sprintf("✅ %s 날씨 조회", tag.RawArgs), nil

	case "TIME":
		return "✅ Current time: " + d.now().Format("2006-01-02 15:04:05"), nil
	}

	return "", fmt.Errorf("no handler for command %s", tag.Type)
}
