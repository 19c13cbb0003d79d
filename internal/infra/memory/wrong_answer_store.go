package memory

import (
	"context"
	"sync"

	"eduquest-service/internal/domain"
)

// WrongAnswerStore is an in-memory app.WrongAnswerStore. Save overwrites any
// existing record for the same (user, question, topic) so re-missing a
// question refreshes the snapshot instead of appending.
type WrongAnswerStore struct {
	mu      sync.RWMutex
	records map[wrongAnswerKey]domain.WrongAnswerRecord
}

type wrongAnswerKey struct {
	userID     string
	questionID int
	topicID    string
}

func NewWrongAnswerStore() *WrongAnswerStore {
	return &WrongAnswerStore{records: make(map[wrongAnswerKey]domain.WrongAnswerRecord)}
}

func (s *WrongAnswerStore) Save(_ context.Context, rec domain.WrongAnswerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[wrongAnswerKey{rec.UserID, rec.QuestionID, rec.TopicID}] = rec
	return nil
}

func (s *WrongAnswerStore) List(_ context.Context, userID string) ([]domain.WrongAnswerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.WrongAnswerRecord
	for key, rec := range s.records {
		if key.userID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *WrongAnswerStore) Remove(_ context.Context, userID string, questionID int, topicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := wrongAnswerKey{userID, questionID, topicID}
	if _, ok := s.records[key]; !ok {
		return domain.ErrWrongAnswerNotFound
	}
	delete(s.records, key)
	return nil
}
