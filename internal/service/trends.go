package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/clipmint/reelsbot/internal/config"
)

var staticTrendTips = []string{
	"🎵 Смена кадра на хлопок + текст-оверлей (3 bullets по 1,5 сек).",
	"📦 Переход «раскрытие коробки» под короткий драм-стаб.",
	"🌀 Вращение предмета на 360° с резким zoom-in на детали.",
	"🎯 Hook: вопрос в первом кадре + быстрый ответ за 10 сек.",
	"🔁 Реюзируй удачный хук в 3 вариациях: фон, ритм, субтитры.",
}

// TrendsService serves trend tips, scraped from a configurable page and cached
// in memory with a TTL. Without a URL, or on any fetch/parse failure, the
// built-in list is used.
type TrendsService struct {
	url        string
	httpClient *http.Client

	mu       sync.RWMutex
	tips     []string
	cachedAt time.Time
	ttl      time.Duration
}

func NewTrendsService(url string) *TrendsService {
	return &TrendsService{
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		ttl:        config.TrendsCacheDuration,
	}
}

func (s *TrendsService) Tips(ctx context.Context) []string {
	if s.url == "" {
		return staticTrendTips
	}

	if cached := s.cached(); cached != nil {
		return cached
	}

	tips, err := s.scrape(ctx)
	if err != nil || len(tips) == 0 {
		if err != nil {
			slog.Warn("trends scrape failed, using built-in tips", "error", err)
		}
		return staticTrendTips
	}

	s.mu.Lock()
	s.tips = tips
	s.cachedAt = time.Now()
	s.mu.Unlock()

	return tips
}

func (s *TrendsService) cached() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.tips == nil || time.Since(s.cachedAt) > s.ttl {
		return nil
	}
	return s.tips
}

func (s *TrendsService) scrape(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch trends: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("trends status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse trends page: %w", err)
	}

	var tips []string
	doc.Find(".trend-item, li.trend").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" && len(tips) < 10 {
			tips = append(tips, text)
		}
	})
	return tips, nil
}
