package service

import (
	"fmt"
	"strings"

	"github.com/clipmint/reelsbot/internal/telegram"
)

var dayThemes = []string{
	"Боль подписчика", "Лайфхак", "Миф vs Факт", "История",
	"Инструмент", "ТОП-3 ошибки", "Коллаб",
}

// BuildWeekPlan renders a deterministic 7-day content plan from the local
// templates. No entitlement cost and no provider call.
func BuildWeekPlan(niche string) string {
	n := strings.TrimSpace(niche)

	blocks := make([]string, 0, len(dayThemes)+1)
	blocks = append(blocks, fmt.Sprintf("*План на 7 дней для:* _%s_", telegram.EscapeMarkdownV2(n)))

	for i, theme := range dayThemes {
		tpl := localTemplates[i%len(localTemplates)]
		blocks = append(blocks, fmt.Sprintf(
			"*День %d: %s*\n🎬 %s\n✍️ %s\n🎶 %s",
			i+1,
			telegram.EscapeMarkdownV2(theme),
			telegram.EscapeMarkdownV2(tpl.Title),
			telegram.EscapeMarkdownV2(fmt.Sprintf(tpl.Synopsis, n)),
			telegram.EscapeMarkdownV2(trendSounds[i%len(trendSounds)]),
		))
	}
	return strings.Join(blocks, "\n\n")
}
