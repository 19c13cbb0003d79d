package memory

import (
	"context"
	"sort"
	"sync"

	"eduquest-service/internal/domain"
)

// Leaderboard is an in-memory app.LeaderboardStore accumulating per-user
// scores.
type Leaderboard struct {
	mu     sync.RWMutex
	scores map[string]int
}

func NewLeaderboard() *Leaderboard {
	return &Leaderboard{scores: make(map[string]int)}
}

func (l *Leaderboard) AddScore(_ context.Context, userID string, delta int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.scores[userID] += delta
	return nil
}

func (l *Leaderboard) Top(_ context.Context, n int) ([]domain.LeaderboardEntry, error) {
	l.mu.RLock()
	entries := make([]domain.LeaderboardEntry, 0, len(l.scores))
	for userID, score := range l.scores {
		entries = append(entries, domain.LeaderboardEntry{UserID: userID, Score: score})
	}
	l.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].UserID < entries[j].UserID
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
