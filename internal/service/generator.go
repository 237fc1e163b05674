package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/clipmint/reelsbot/internal/config"
	"github.com/clipmint/reelsbot/internal/telegram"
)

// IdeaSource tells the caller whether ideas came from the AI provider or from
// the local template fallback, so observability can tell the two apart.
type IdeaSource string

const (
	SourceAI    IdeaSource = "ai"
	SourceLocal IdeaSource = "local"
)

type IdeaResult struct {
	Text   string
	Source IdeaSource
}

// Generator produces Reels/TikTok idea sets through an OpenAI-compatible chat
// completions API, with deterministic local templates as fallback.
type Generator struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewGenerator(apiKey, baseURL, model string) *Generator {
	return &Generator{
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: config.RequestTimeout},
	}
}

const systemPrompt = "Ты помощник SMM-стратега. Генерируй короткие и конкретные идеи для Reels/TikTok " +
	"с чётким сценарием, хук-фразой, подписью и намёком на трендовый звук. Без воды."

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Ideas generates k ideas for a niche. Provider failures fall back to local
// templates and report SourceLocal; only context cancellation is a hard error,
// so a timed-out request never gets silently billed content.
func (g *Generator) Ideas(ctx context.Context, niche string, k int) (*IdeaResult, error) {
	if g.apiKey == "" {
		return &IdeaResult{Text: localIdeas(niche, k), Source: SourceLocal}, nil
	}

	text, err := g.complete(ctx, niche, k)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("ai generation failed, falling back to local templates", "error", err)
		return &IdeaResult{Text: localIdeas(niche, k), Source: SourceLocal}, nil
	}
	return &IdeaResult{Text: text, Source: SourceAI}, nil
}

func (g *Generator) complete(ctx context.Context, niche string, k int) (string, error) {
	userPrompt := fmt.Sprintf(
		"Ниша: %s\nСгенерируй %d идей Reels. Формат для каждой:\n"+
			"1) *Название*\n2) Сценарий 2–4 коротких предложения\n"+
			"3) Подпись (3–5 хэштегов)\n4) Звук (намёк на тренд)\n"+
			"Выводи в Markdown, без длинных вступлений.",
		niche, k,
	)

	reqBody, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.8,
		MaxTokens:   800,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("provider status %d", resp.StatusCode)
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("empty choices")
	}
	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

type localTemplate struct {
	Title    string
	Synopsis string
}

var localTemplates = []localTemplate{
	{"Before/After", "Покажи до/после в нише %s: 3 шага, 30 секунд, конкретика."},
	{"1 Ошибка — 1 Фикс", "Главная ошибка в %s и простое исправление с наглядным примером."},
	{"Миф vs Факт", "Раскрой популярный миф в %s и подкрепи 2 фактами + мини-кейс."},
	{"Hook-Стоппер", "Сделай первый кадр «стоп-ленту» по теме %s, затем раскрой 3 bullets."},
	{"Чек-лист", "Дай 5 пунктов чек-листа по %s и предложи сохранить/поделиться."},
}

var trendSounds = []string{"Переход с хлопком", "Lo-fi", "Upbeat pop", "Trap beat", "Retro 80s"}

var trendTags = []string{"#длявас", "#реалити", "#советы", "#контентплан", "#тренды"}

func localIdeas(niche string, k int) string {
	n := strings.TrimSpace(niche)
	tags := strings.Join(trendTags[:3], " ") + " #" + strings.ReplaceAll(n, " ", "")

	blocks := make([]string, 0, k)
	for i := 0; i < k; i++ {
		tpl := localTemplates[i%len(localTemplates)]
		block := fmt.Sprintf(
			"*Идея %d: %s*\n✍️ Сценарий: %s\n📝 Подпись: %s\n🎶 Звук: %s",
			i+1,
			telegram.EscapeMarkdownV2(tpl.Title),
			telegram.EscapeMarkdownV2(fmt.Sprintf(tpl.Synopsis, n)),
			telegram.EscapeMarkdownV2(tags),
			telegram.EscapeMarkdownV2(trendSounds[i%len(trendSounds)]),
		)
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n")
}
