package app

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"eduquest-service/internal/domain"
)

// PassThreshold is the score fraction at or above which a certificate is
// awarded.
const PassThreshold = 0.80

const (
	// DefaultCooldownAfter is the 0-based question index whose advance puts
	// free-tier users on cooldown (immediately after the 11th question).
	DefaultCooldownAfter = 10
	// DefaultCooldown is the countdown length for free-tier users.
	DefaultCooldown = 120 * time.Second
)

// Config tunes session behavior. Zero values fall back to defaults; set
// CooldownAfter negative to disable the free-tier gate.
type Config struct {
	CooldownAfter int
	Cooldown      time.Duration
	Clock         func() time.Time
}

// Deps collects the collaborators behind the quiz use cases. Topics,
// Progress, WrongAnswers, Attempts, Results and Certificates are required;
// Leaderboard, Entitlements, Explainer and Effects are optional.
type Deps struct {
	Topics       TopicRepository
	Progress     ProgressStore
	WrongAnswers WrongAnswerStore
	Attempts     AttemptStore
	Results      ResultStore
	Certificates CertificateStore
	Leaderboard  LeaderboardStore
	Entitlements EntitlementChecker
	Explainer    ExplanationClient
	Effects      *EffectQueue
}

// QuizService contains the quiz session use cases.
type QuizService struct {
	deps    Deps
	cfg     Config
	streaks *StreakCalculator
}

func NewQuizService(deps Deps, cfg Config) *QuizService {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.CooldownAfter == 0 {
		cfg.CooldownAfter = DefaultCooldownAfter
	}
	if cfg.Cooldown == 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if deps.Effects == nil {
		deps.Effects = NewEffectQueue(0)
	}
	return &QuizService{
		deps:    deps,
		cfg:     cfg,
		streaks: NewStreakCalculator(deps.Attempts, cfg.Clock),
	}
}

// StartSession builds the in-memory session for (user, topic), resuming from
// persisted progress when at least one answer was saved. Entitlements are
// resolved once here into the session's UserContext.
func (s *QuizService) StartSession(ctx context.Context, userID, topicID string) (*Session, error) {
	topic, err := s.deps.Topics.GetTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if len(topic.Questions) == 0 {
		return nil, domain.ErrTopicNotFound
	}

	user := domain.UserContext{UserID: userID}
	if s.deps.Entitlements != nil {
		premium, err := s.deps.Entitlements.IsPremium(ctx, userID)
		if err != nil {
			// Degrade to free tier rather than blocking the quiz.
			log.Printf("entitlement check for %s: %v", userID, err)
		}
		user.Premium = premium
	}

	sess := newSession(user, topic, s.cfg.Clock)
	if progress, ok, err := s.deps.Progress.Load(ctx, userID, topicID); err != nil {
		log.Printf("loading progress for %s/%s: %v", userID, topicID, err)
	} else if ok && progress.AnsweredCount() > 0 {
		sess.restore(progress)
	}
	return sess, nil
}

// SelectAnswer records the user's pick for the question in view. A repeat
// call for an already-answered question is a no-op. Persistence and wrong-
// answer tracking run as best-effort effects; the in-memory flow never waits
// on them.
func (s *QuizService) SelectAnswer(ctx context.Context, sess *Session, optionIndex int) {
	outcome, ok := sess.selectAnswer(optionIndex)
	if !ok {
		return
	}

	progress := sess.progressSnapshot()
	s.runEffect(sess, "save progress", func(ctx context.Context) error {
		return s.deps.Progress.Save(ctx, progress)
	})

	if outcome.Correct {
		sess.notify(NoticeSuccess, "Correct!")
		return
	}

	sess.notify(NoticeInfo, "Not quite. Check the explanation before moving on.")
	user := sess.User()
	topic := sess.Topic()
	question := topic.Questions[outcome.Index]
	answeredOn := s.cfg.Clock()
	s.runEffect(sess, "save wrong answer", func(ctx context.Context) error {
		return s.deps.WrongAnswers.Save(ctx, domain.WrongAnswerRecord{
			UserID:        user.UserID,
			QuestionID:    question.ID,
			TopicID:       topic.ID,
			Question:      question,
			AnsweredOn:    answeredOn,
			AIExplanation: s.explanationFor(ctx, question, topic.ID, outcome.Selected),
		})
	})
}

// Advance moves to the next question, or finalizes the quiz on the last one.
// Refused silently while the current question is unanswered or a free-tier
// cooldown is running. Finalization side effects are each best-effort; the
// session reaches Completed regardless of their outcome.
func (s *QuizService) Advance(ctx context.Context, sess *Session) {
	res := sess.advance(s.cfg.CooldownAfter)
	switch {
	case res.completed:
		s.finalize(sess, res.score)
	case res.moved:
		progress := sess.progressSnapshot()
		s.runEffect(sess, "save progress", func(ctx context.Context) error {
			return s.deps.Progress.Save(ctx, progress)
		})
		if res.startCooldown {
			sess.beginCooldown(s.cfg.Cooldown)
		}
	}
}

// ToggleExplanation flips explanation visibility for an answered question.
func (s *QuizService) ToggleExplanation(sess *Session) {
	sess.toggleExplanation()
}

func (s *QuizService) finalize(sess *Session, score int) {
	user := sess.User()
	topic := sess.Topic()
	total := len(topic.Questions)
	now := s.cfg.Clock()

	s.runEffect(sess, "clear saved progress", func(ctx context.Context) error {
		return s.deps.Progress.Clear(ctx, user.UserID, topic.ID)
	})

	attempt := domain.Attempt{
		ID:          uuid.New(),
		UserID:      user.UserID,
		TopicID:     topic.ID,
		Score:       score,
		Total:       total,
		CompletedAt: now,
	}
	s.runEffect(sess, "record attempt", func(ctx context.Context) error {
		return s.deps.Attempts.Record(ctx, attempt)
	})

	result := domain.QuizResult{
		UserID:      user.UserID,
		TopicID:     topic.ID,
		Score:       score,
		Total:       total,
		Percentage:  percentage(score, total),
		CompletedAt: now,
	}
	s.runEffect(sess, "record result", func(ctx context.Context) error {
		return s.deps.Results.Record(ctx, result)
	})

	if passed(score, total) {
		cert := domain.Certificate{
			ID:       uuid.New(),
			UserID:   user.UserID,
			TopicID:  topic.ID,
			Score:    score,
			Total:    total,
			IssuedAt: now,
		}
		s.runEffect(sess, "award certificate", func(ctx context.Context) error {
			err := s.deps.Certificates.Award(ctx, cert)
			if errors.Is(err, domain.ErrCertificateExists) {
				// Repeat completion; the first certificate stands.
				return nil
			}
			return err
		})
	}

	if s.deps.Leaderboard != nil {
		s.runEffect(sess, "update leaderboard", func(ctx context.Context) error {
			return s.deps.Leaderboard.AddScore(ctx, user.UserID, score)
		})
	}

	s.runEffect(sess, "refresh streak", func(ctx context.Context) error {
		current, err := s.streaks.Current(ctx, user.UserID)
		if err != nil {
			return err
		}
		sess.pushStreak(current)
		return nil
	})
}

// runEffect enqueues a best-effort side effect whose failure surfaces only
// as a soft notice on the session.
func (s *QuizService) runEffect(sess *Session, label string, fn EffectFunc) {
	s.deps.Effects.Enqueue(label, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			sess.notify(NoticeWarning, "Could not "+label+". Your quiz is unaffected.")
			return err
		}
		return nil
	})
}

// explanationFor asks the AI collaborator for a tailored explanation and
// degrades to a rotating local fallback on any failure.
func (s *QuizService) explanationFor(ctx context.Context, q domain.Question, topicID string, selected int) string {
	if s.deps.Explainer != nil {
		text, err := s.deps.Explainer.Explain(ctx, q, topicID, selected)
		if err == nil && strings.TrimSpace(text) != "" {
			return text
		}
		if err != nil {
			log.Printf("ai explanation for question %d: %v", q.ID, err)
		}
	}
	return fallbackExplanation(q)
}

// Streak recomputes the user's consecutive-day streak from attempt history.
func (s *QuizService) Streak(ctx context.Context, userID string) (int, error) {
	return s.streaks.Current(ctx, userID)
}

// Leaderboard returns the top n standings, or nil when no leaderboard store
// is configured.
func (s *QuizService) Leaderboard(ctx context.Context, n int) ([]domain.LeaderboardEntry, error) {
	if s.deps.Leaderboard == nil {
		return nil, nil
	}
	return s.deps.Leaderboard.Top(ctx, n)
}

// Certificates lists the user's earned certificates.
func (s *QuizService) Certificates(ctx context.Context, userID string) ([]domain.Certificate, error) {
	return s.deps.Certificates.ListByUser(ctx, userID)
}

// Generic lead-ins rotated when the AI explainer is unavailable, always
// paired with the question's static explanation.
var fallbackLines = []string{
	"Not quite. Take another look at the key idea here.",
	"Close, but this one works differently.",
	"Good try. The distinction matters here.",
	"That's a common mix-up. Here's what to remember.",
}

var fallbackCursor uint32

func fallbackExplanation(q domain.Question) string {
	n := atomic.AddUint32(&fallbackCursor, 1)
	line := fallbackLines[int(n-1)%len(fallbackLines)]
	if q.Explanation == "" {
		return line
	}
	return line + " " + q.Explanation
}
