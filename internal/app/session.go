package app

import (
	"math"
	"sync"
	"time"

	"eduquest-service/internal/domain"
)

// Session drives one user through one topic's questions: answer selection,
// explanation visibility, free-tier cooldown gating, and completion. All
// mutation goes through guarded methods; precondition violations are no-ops
// rather than errors, since the UI's disabled controls are the primary guard
// and this is the backstop.
type Session struct {
	user  domain.UserContext
	topic domain.Topic
	now   func() time.Time

	mu                 sync.Mutex
	currentIndex       int
	selected           []*int
	explanationVisible bool
	completed          bool
	closed             bool

	cooldownActive    bool
	cooldownRemaining int
	cooldownUntil     time.Time
	cooldownStop      chan struct{}

	subscribers map[chan Event]struct{}
}

func newSession(user domain.UserContext, topic domain.Topic, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	return &Session{
		user:        user,
		topic:       topic,
		now:         now,
		selected:    make([]*int, len(topic.Questions)),
		subscribers: make(map[chan Event]struct{}),
	}
}

// restore rehydrates the session from persisted progress. Called before the
// session is handed out, so no locking or broadcasting is needed.
func (s *Session) restore(p domain.QuizProgress) {
	idx := p.CurrentQuestionNumber - 1
	if idx < 0 {
		idx = 0
	}
	if idx > len(s.topic.Questions)-1 {
		idx = len(s.topic.Questions) - 1
	}
	for i := 0; i < len(s.selected) && i < len(p.Answers); i++ {
		if p.Answers[i] != nil {
			v := *p.Answers[i]
			s.selected[i] = &v
		}
	}
	s.currentIndex = idx
	// Answered-then-left question resumes with its explanation open.
	s.explanationVisible = s.selected[idx] != nil
}

// User returns the session's caller context.
func (s *Session) User() domain.UserContext {
	return s.user
}

// Topic returns the topic being worked.
func (s *Session) Topic() domain.Topic {
	return s.topic
}

// CurrentIndex returns the 0-based index of the question in view.
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentIndex
}

// IsComplete reports whether the quiz has been finalized.
func (s *Session) IsComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

// CooldownActive reports whether the free-tier countdown is running.
func (s *Session) CooldownActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cooldownActive
}

// CooldownRemaining returns the seconds left on the countdown, 0 when idle.
func (s *Session) CooldownRemaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cooldownActive {
		return 0
	}
	return s.cooldownRemaining
}

// SelectedAnswers returns a copy of the answer slots.
func (s *Session) SelectedAnswers() []*int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyAnswers(s.selected)
}

// Score counts correct answers so far.
func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scoreLocked()
}

func (s *Session) scoreLocked() int {
	score := 0
	for i, a := range s.selected {
		if a != nil && *a == s.topic.Questions[i].CorrectOptionIndex {
			score++
		}
	}
	return score
}

// selectAnswer records the first answer for the question in view. A second
// call for the same question is ignored, as is an out-of-range option.
func (s *Session) selectAnswer(optionIndex int) (AnswerOutcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed || s.closed {
		return AnswerOutcome{}, false
	}
	q := s.topic.Questions[s.currentIndex]
	if optionIndex < 0 || optionIndex >= len(q.Options) {
		return AnswerOutcome{}, false
	}
	if s.selected[s.currentIndex] != nil {
		return AnswerOutcome{}, false
	}

	v := optionIndex
	s.selected[s.currentIndex] = &v
	s.explanationVisible = true

	out := AnswerOutcome{
		Index:              s.currentIndex,
		Selected:           optionIndex,
		Correct:            optionIndex == q.CorrectOptionIndex,
		CorrectOptionIndex: q.CorrectOptionIndex,
		Explanation:        q.Explanation,
	}
	s.broadcastLocked(Event{Type: EventAnswerResult, Answer: &out})
	return out, true
}

type advanceResult struct {
	moved         bool
	completed     bool
	score         int
	startCooldown bool
}

// advance moves to the next question or finalizes the score. Refused while
// the current question is unanswered or a free-tier cooldown is running.
// cooldownAfter is the 0-based index whose departure starts the countdown
// for non-premium users; negative disables the gate.
func (s *Session) advance(cooldownAfter int) advanceResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed || s.closed {
		return advanceResult{}
	}
	if s.selected[s.currentIndex] == nil {
		return advanceResult{}
	}
	if s.cooldownActive && !s.user.Premium {
		return advanceResult{}
	}

	if s.currentIndex == len(s.topic.Questions)-1 {
		s.completed = true
		s.stopCooldownLocked()
		score := s.scoreLocked()
		total := len(s.topic.Questions)
		s.broadcastLocked(Event{Type: EventCompleted, Completed: &Completion{
			Score:      score,
			Total:      total,
			Percentage: percentage(score, total),
			Passed:     passed(score, total),
		}})
		return advanceResult{completed: true, score: score}
	}

	from := s.currentIndex
	s.currentIndex++
	s.explanationVisible = false
	s.broadcastLocked(Event{Type: EventQuestion, Question: s.viewLocked()})
	return advanceResult{
		moved:         true,
		startCooldown: !s.user.Premium && cooldownAfter >= 0 && from == cooldownAfter,
	}
}

// toggleExplanation flips visibility, but only once the question in view has
// been answered.
func (s *Session) toggleExplanation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed || s.closed || s.selected[s.currentIndex] == nil {
		return
	}
	s.explanationVisible = !s.explanationVisible
	s.broadcastLocked(Event{Type: EventQuestion, Question: s.viewLocked()})
}

// beginCooldown starts the one-second countdown. Premium sessions never call
// this; the gate in advance is the authoritative check either way.
func (s *Session) beginCooldown(d time.Duration) {
	s.mu.Lock()
	if s.completed || s.closed || d <= 0 {
		s.mu.Unlock()
		return
	}
	s.stopCooldownLocked()
	s.cooldownActive = true
	s.cooldownUntil = s.now().Add(d)
	s.cooldownRemaining = int(math.Ceil(d.Seconds()))
	stop := make(chan struct{})
	s.cooldownStop = stop
	s.broadcastLocked(Event{Type: EventCooldown, Cooldown: &CooldownState{Active: true, Remaining: s.cooldownRemaining}})
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if s.refreshCooldown() {
					return
				}
			case <-stop:
				return
			}
		}
	}()
}

// refreshCooldown re-derives the remaining seconds from the injected clock
// and reports whether the countdown has finished.
func (s *Session) refreshCooldown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cooldownActive {
		return true
	}
	remaining := int(math.Ceil(s.cooldownUntil.Sub(s.now()).Seconds()))
	if remaining <= 0 {
		s.cooldownActive = false
		s.cooldownRemaining = 0
		if s.cooldownStop != nil {
			close(s.cooldownStop)
			s.cooldownStop = nil
		}
		s.broadcastLocked(Event{Type: EventCooldown, Cooldown: &CooldownState{Active: false}})
		return true
	}
	if remaining != s.cooldownRemaining {
		s.cooldownRemaining = remaining
		s.broadcastLocked(Event{Type: EventCooldown, Cooldown: &CooldownState{Active: true, Remaining: remaining}})
	}
	return false
}

func (s *Session) stopCooldownLocked() {
	if s.cooldownStop != nil {
		close(s.cooldownStop)
		s.cooldownStop = nil
	}
	s.cooldownActive = false
	s.cooldownRemaining = 0
}

// notify pushes a toast-style message to subscribers.
func (s *Session) notify(level NoticeLevel, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.broadcastLocked(Event{Type: EventNotice, Notice: &Notice{Level: level, Message: message}})
}

// pushStreak broadcasts a freshly recomputed streak value.
func (s *Session) pushStreak(current int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.broadcastLocked(Event{Type: EventStreak, Streak: &StreakState{Current: current}})
}

// progressSnapshot captures the persisted form of the session under lock.
func (s *Session) progressSnapshot() domain.QuizProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.QuizProgress{
		UserID:                s.user.UserID,
		TopicID:               s.topic.ID,
		CurrentQuestionNumber: s.currentIndex + 1,
		Answers:               copyAnswers(s.selected),
	}
}

// Subscribe returns a channel of session events, primed with the current
// state. The caller must invoke the returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	var initial Event
	if s.completed {
		score := s.scoreLocked()
		total := len(s.topic.Questions)
		initial = Event{Type: EventCompleted, Completed: &Completion{
			Score:      score,
			Total:      total,
			Percentage: percentage(score, total),
			Passed:     passed(score, total),
		}}
	} else {
		initial = Event{Type: EventQuestion, Question: s.viewLocked()}
	}
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Close releases subscribers and stops the cooldown timer. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopCooldownLocked()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *Session) broadcastLocked(ev Event) {
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			// Drop the oldest pending event so a slow subscriber never
			// blocks the interaction path.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

func (s *Session) viewLocked() *QuestionView {
	q := s.topic.Questions[s.currentIndex]
	view := &QuestionView{
		Index:              s.currentIndex,
		Total:              len(s.topic.Questions),
		Prompt:             q.Prompt,
		Options:            append([]string(nil), q.Options...),
		Difficulty:         q.Difficulty,
		ExplanationVisible: s.explanationVisible,
	}
	if sel := s.selected[s.currentIndex]; sel != nil {
		v := *sel
		view.Selected = &v
	}
	if s.explanationVisible {
		view.Explanation = q.Explanation
	}
	return view
}

func copyAnswers(src []*int) []*int {
	out := make([]*int, len(src))
	for i, a := range src {
		if a != nil {
			v := *a
			out[i] = &v
		}
	}
	return out
}

func percentage(score, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(score) / float64(total) * 100
}

func passed(score, total int) bool {
	if total == 0 {
		return false
	}
	return float64(score)/float64(total) >= PassThreshold
}
