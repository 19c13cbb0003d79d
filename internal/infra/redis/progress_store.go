package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"eduquest-service/internal/domain"
)

// ProgressStore keeps quiz resume points as JSON values keyed by
// progress:{userID}:{topicID}. Last write wins, which matches the
// single-active-session assumption. A zero TTL keeps progress until the quiz
// completes and Clear removes it.
type ProgressStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProgressStore(client *redis.Client, ttl time.Duration) *ProgressStore {
	return &ProgressStore{client: client, ttl: ttl}
}

func (s *ProgressStore) Save(ctx context.Context, p domain.QuizProgress) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	return s.client.Set(ctx, s.key(p.UserID, p.TopicID), payload, s.ttl).Err()
}

func (s *ProgressStore) Load(ctx context.Context, userID, topicID string) (domain.QuizProgress, bool, error) {
	raw, err := s.client.Get(ctx, s.key(userID, topicID)).Bytes()
	if err == redis.Nil {
		return domain.QuizProgress{}, false, nil
	}
	if err != nil {
		return domain.QuizProgress{}, false, err
	}
	var p domain.QuizProgress
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.QuizProgress{}, false, fmt.Errorf("unmarshal progress: %w", err)
	}
	return p, true, nil
}

func (s *ProgressStore) Clear(ctx context.Context, userID, topicID string) error {
	return s.client.Del(ctx, s.key(userID, topicID)).Err()
}

func (s *ProgressStore) key(userID, topicID string) string {
	return "progress:" + userID + ":" + topicID
}
