package service

import (
	"context"

	"github.com/clipmint/reelsbot/internal/config"
	"github.com/clipmint/reelsbot/internal/domain"
	"github.com/clipmint/reelsbot/internal/repository"
)

type HistoryService struct {
	store repository.Store
}

func NewHistoryService(store repository.Store) *HistoryService {
	return &HistoryService{store: store}
}

// Add records a generation, keeping only the most recent entries per user.
func (s *HistoryService) Add(ctx context.Context, userID int64, niche, ideas string) error {
	return s.store.AddHistory(ctx, userID, niche, ideas, config.HistoryKeep)
}

func (s *HistoryService) Recent(ctx context.Context, userID int64) ([]domain.HistoryEntry, error) {
	return s.store.ListHistory(ctx, userID, config.HistoryShow)
}
