package domain

import (
	"time"

	"github.com/google/uuid"
)

// Difficulty buckets questions for display and future adaptive selection.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Question is an immutable multiple-choice question.
// Invariant: 0 <= CorrectOptionIndex < len(Options), len(Options) >= 2.
type Question struct {
	ID                 int        `json:"id"`
	Prompt             string     `json:"prompt"`
	Options            []string   `json:"options"`
	CorrectOptionIndex int        `json:"correctOptionIndex"`
	Explanation        string     `json:"explanation"`
	Difficulty         Difficulty `json:"difficulty"`
}

// Topic is a named, ordered collection of questions. Questions is never empty.
type Topic struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
}

// QuizProgress is the persisted resume point for one user working one topic.
// CurrentQuestionNumber is the 1-based index of the question in view; Answers
// has one slot per topic question, filled strictly in order (nil = unanswered).
type QuizProgress struct {
	UserID                string `json:"userId"`
	TopicID               string `json:"topicId"`
	CurrentQuestionNumber int    `json:"currentQuestionNumber"`
	Answers               []*int `json:"answers"`
}

// AnsweredCount reports how many slots are filled.
func (p QuizProgress) AnsweredCount() int {
	n := 0
	for _, a := range p.Answers {
		if a != nil {
			n++
		}
	}
	return n
}

// WrongAnswerRecord stores a missed question for later revision.
// Unique per (user, question, topic); re-missing the same question overwrites
// the snapshot and timestamp rather than appending.
type WrongAnswerRecord struct {
	UserID        string    `json:"userId"`
	QuestionID    int       `json:"questionId"`
	TopicID       string    `json:"topicId"`
	Question      Question  `json:"question"`
	AnsweredOn    time.Time `json:"answeredOn"`
	AIExplanation string    `json:"aiExplanation,omitempty"`
}

// Attempt is one completed run through a topic. Append-only; attempt history
// is the source of truth for streak computation.
type Attempt struct {
	ID          uuid.UUID `json:"id"`
	UserID      string    `json:"userId"`
	TopicID     string    `json:"topicId"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	CompletedAt time.Time `json:"completedAt"`
}

// QuizResult is the user-facing outcome record for a completed quiz.
type QuizResult struct {
	UserID      string    `json:"userId"`
	TopicID     string    `json:"topicId"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	Percentage  float64   `json:"percentage"`
	CompletedAt time.Time `json:"completedAt"`
}

// Certificate marks a passing completion of a topic, issued at most once per
// (user, topic).
type Certificate struct {
	ID       uuid.UUID `json:"id"`
	UserID   string    `json:"userId"`
	TopicID  string    `json:"topicId"`
	Score    int       `json:"score"`
	Total    int       `json:"total"`
	IssuedAt time.Time `json:"issuedAt"`
}

// UserContext carries the caller's identity and entitlements into the session
// instead of ambient lookups, so session logic stays testable offline.
type UserContext struct {
	UserID        string `json:"userId"`
	Premium       bool   `json:"premium"`
	EmailVerified bool   `json:"emailVerified"`
}

// LeaderboardEntry is one row of the cumulative-score standings.
type LeaderboardEntry struct {
	UserID string `json:"userId"`
	Score  int    `json:"score"`
	Rank   int    `json:"rank"`
}
