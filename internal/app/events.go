package app

import "eduquest-service/internal/domain"

// EventType discriminates session events pushed to subscribers.
type EventType string

const (
	EventQuestion     EventType = "question"
	EventAnswerResult EventType = "answerResult"
	EventNotice       EventType = "notice"
	EventCooldown     EventType = "cooldown"
	EventCompleted    EventType = "completed"
	EventStreak       EventType = "streak"
)

// QuestionView is what the client is allowed to see of the current question.
// The correct index and explanation only appear through AnswerOutcome, after
// the question has been answered.
type QuestionView struct {
	Index              int               `json:"index"`
	Total              int               `json:"total"`
	Prompt             string            `json:"prompt"`
	Options            []string          `json:"options"`
	Difficulty         domain.Difficulty `json:"difficulty"`
	Selected           *int              `json:"selected,omitempty"`
	ExplanationVisible bool              `json:"explanationVisible"`
	Explanation        string            `json:"explanation,omitempty"`
}

// AnswerOutcome reports the grading of a single answer.
type AnswerOutcome struct {
	Index              int    `json:"index"`
	Selected           int    `json:"selected"`
	Correct            bool   `json:"correct"`
	CorrectOptionIndex int    `json:"correctOptionIndex"`
	Explanation        string `json:"explanation"`
}

// NoticeLevel classifies soft, non-blocking notifications.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
)

// Notice is a toast-style message; it never interrupts the session.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// CooldownState mirrors the free-tier countdown.
type CooldownState struct {
	Active    bool `json:"active"`
	Remaining int  `json:"remaining"`
}

// Completion carries the final score shown when the quiz finishes.
type Completion struct {
	Score      int     `json:"score"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
	Passed     bool    `json:"passed"`
}

// StreakState is the recomputed consecutive-day streak.
type StreakState struct {
	Current int `json:"current"`
}

// Event is the single envelope pushed over a session subscription. Exactly
// one payload field is set, matching Type.
type Event struct {
	Type      EventType      `json:"type"`
	Question  *QuestionView  `json:"question,omitempty"`
	Answer    *AnswerOutcome `json:"answer,omitempty"`
	Notice    *Notice        `json:"notice,omitempty"`
	Cooldown  *CooldownState `json:"cooldown,omitempty"`
	Completed *Completion    `json:"completed,omitempty"`
	Streak    *StreakState   `json:"streak,omitempty"`
}
