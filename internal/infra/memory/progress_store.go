package memory

import (
	"context"
	"sync"

	"eduquest-service/internal/domain"
)

// ProgressStore is an in-memory app.ProgressStore, upsert keyed by
// (user, topic).
type ProgressStore struct {
	mu       sync.RWMutex
	progress map[progressKey]domain.QuizProgress
}

type progressKey struct {
	userID  string
	topicID string
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{progress: make(map[progressKey]domain.QuizProgress)}
}

func (s *ProgressStore) Save(_ context.Context, p domain.QuizProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[progressKey{p.UserID, p.TopicID}] = p
	return nil
}

func (s *ProgressStore) Load(_ context.Context, userID, topicID string) (domain.QuizProgress, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.progress[progressKey{userID, topicID}]
	return p, ok, nil
}

func (s *ProgressStore) Clear(_ context.Context, userID, topicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.progress, progressKey{userID, topicID})
	return nil
}
