package domain

import "time"

type HistoryEntry struct {
	ID        int64
	UserID    int64
	Niche     string
	Ideas     string
	CreatedAt time.Time
}
