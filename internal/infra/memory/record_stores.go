package memory

import (
	"context"
	"sync"

	"eduquest-service/internal/domain"
)

// AttemptStore is an in-memory, append-only app.AttemptStore.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts []domain.Attempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{}
}

func (s *AttemptStore) Record(_ context.Context, a domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, a)
	return nil
}

func (s *AttemptStore) ListByUser(_ context.Context, userID string) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Attempt
	for _, a := range s.attempts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

// ResultStore is an in-memory, append-only app.ResultStore.
type ResultStore struct {
	mu      sync.RWMutex
	results []domain.QuizResult
}

func NewResultStore() *ResultStore {
	return &ResultStore{}
}

func (s *ResultStore) Record(_ context.Context, r domain.QuizResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
	return nil
}

// ListByUser is a test/debug helper, not part of the app contract.
func (s *ResultStore) ListByUser(userID string) []domain.QuizResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.QuizResult
	for _, r := range s.results {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}

// CertificateStore is an in-memory app.CertificateStore enforcing the
// one-per-(user, topic) rule.
type CertificateStore struct {
	mu    sync.RWMutex
	certs map[certificateKey]domain.Certificate
}

type certificateKey struct {
	userID  string
	topicID string
}

func NewCertificateStore() *CertificateStore {
	return &CertificateStore{certs: make(map[certificateKey]domain.Certificate)}
}

func (s *CertificateStore) Award(_ context.Context, cert domain.Certificate) error {
	if cert.Total == 0 || float64(cert.Score)/float64(cert.Total) < 0.80 {
		return domain.ErrScoreBelowThreshold
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := certificateKey{cert.UserID, cert.TopicID}
	if _, ok := s.certs[key]; ok {
		return domain.ErrCertificateExists
	}
	s.certs[key] = cert
	return nil
}

func (s *CertificateStore) ListByUser(_ context.Context, userID string) ([]domain.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Certificate
	for key, cert := range s.certs {
		if key.userID == userID {
			out = append(out, cert)
		}
	}
	return out, nil
}
