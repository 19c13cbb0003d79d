package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"eduquest-service/internal/domain"
)

const leaderboardKey = "leaderboard:score"

// Leaderboard keeps cumulative per-user scores in a Redis ZSet.
type Leaderboard struct {
	client *redis.Client
}

func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{client: client}
}

func (l *Leaderboard) AddScore(ctx context.Context, userID string, delta int) error {
	return l.client.ZIncrBy(ctx, leaderboardKey, float64(delta), userID).Err()
}

// Top returns the top n users by cumulative score, ranks 1-indexed.
func (l *Leaderboard) Top(ctx context.Context, n int) ([]domain.LeaderboardEntry, error) {
	results, err := l.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(n)-1).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]domain.LeaderboardEntry, len(results))
	for i, result := range results {
		entries[i] = domain.LeaderboardEntry{
			UserID: result.Member.(string),
			Score:  int(result.Score),
			Rank:   i + 1,
		}
	}
	return entries, nil
}
