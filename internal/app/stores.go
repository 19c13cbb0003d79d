package app

import (
	"context"

	"eduquest-service/internal/domain"
)

// TopicRepository loads topic content (from cache/backing store).
type TopicRepository interface {
	GetTopic(ctx context.Context, topicID string) (domain.Topic, error)
}

// ProgressStore persists the resume point for a user working a topic.
// Save is an upsert keyed by (user, topic).
type ProgressStore interface {
	Save(ctx context.Context, progress domain.QuizProgress) error
	Load(ctx context.Context, userID, topicID string) (domain.QuizProgress, bool, error)
	Clear(ctx context.Context, userID, topicID string) error
}

// WrongAnswerStore keeps missed questions for the revision flow.
// Save is an upsert keyed by (user, question, topic).
type WrongAnswerStore interface {
	Save(ctx context.Context, record domain.WrongAnswerRecord) error
	List(ctx context.Context, userID string) ([]domain.WrongAnswerRecord, error)
	Remove(ctx context.Context, userID string, questionID int, topicID string) error
}

// AttemptStore records completed quiz runs; streaks derive from it.
type AttemptStore interface {
	Record(ctx context.Context, attempt domain.Attempt) error
	ListByUser(ctx context.Context, userID string) ([]domain.Attempt, error)
}

// ResultStore records the user-facing outcome of a completed quiz.
type ResultStore interface {
	Record(ctx context.Context, result domain.QuizResult) error
}

// CertificateStore issues at most one certificate per (user, topic); a
// duplicate Award returns domain.ErrCertificateExists.
type CertificateStore interface {
	Award(ctx context.Context, cert domain.Certificate) error
	ListByUser(ctx context.Context, userID string) ([]domain.Certificate, error)
}

// LeaderboardStore accumulates per-user scores for the standings view.
type LeaderboardStore interface {
	AddScore(ctx context.Context, userID string, delta int) error
	Top(ctx context.Context, n int) ([]domain.LeaderboardEntry, error)
}

// EntitlementChecker reports whether a user is on the premium tier.
type EntitlementChecker interface {
	IsPremium(ctx context.Context, userID string) (bool, error)
}

// ExplanationClient generates a tailored explanation for a missed question.
// Callers must degrade to a local fallback when it fails.
type ExplanationClient interface {
	Explain(ctx context.Context, question domain.Question, topicID string, selectedOption int) (string, error)
}
