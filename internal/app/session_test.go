package app

import (
	"sync"
	"testing"
	"time"

	"eduquest-service/internal/domain"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// topicWithAnswers builds one three-option question per entry of correct.
func topicWithAnswers(correct []int) domain.Topic {
	topic := domain.Topic{ID: "topic-1", Name: "Test Topic"}
	for i, c := range correct {
		topic.Questions = append(topic.Questions, domain.Question{
			ID:                 i + 1,
			Prompt:             "question",
			Options:            []string{"a", "b", "c"},
			CorrectOptionIndex: c,
			Explanation:        "because",
			Difficulty:         domain.DifficultyBeginner,
		})
	}
	return topic
}

func TestSelectAnswerFirstValueWins(t *testing.T) {
	sess := newSession(domain.UserContext{UserID: "u1"}, topicWithAnswers([]int{1, 0}), nil)

	if _, ok := sess.selectAnswer(2); !ok {
		t.Fatalf("first answer should be accepted")
	}
	if _, ok := sess.selectAnswer(1); ok {
		t.Fatalf("second answer should be a no-op")
	}
	answers := sess.SelectedAnswers()
	if answers[0] == nil || *answers[0] != 2 {
		t.Fatalf("expected first-set value 2, got %v", answers[0])
	}
}

func TestSelectAnswerRejectsOutOfRange(t *testing.T) {
	sess := newSession(domain.UserContext{UserID: "u1"}, topicWithAnswers([]int{1}), nil)
	if _, ok := sess.selectAnswer(3); ok {
		t.Fatalf("out-of-range option should be refused")
	}
	if _, ok := sess.selectAnswer(-1); ok {
		t.Fatalf("negative option should be refused")
	}
}

func TestAdvanceRequiresAnswer(t *testing.T) {
	sess := newSession(domain.UserContext{UserID: "u1"}, topicWithAnswers([]int{1, 0}), nil)
	if res := sess.advance(-1); res.moved || res.completed {
		t.Fatalf("advance before answering should be a no-op")
	}
	sess.selectAnswer(1)
	if res := sess.advance(-1); !res.moved {
		t.Fatalf("advance after answering should move")
	}
	if sess.CurrentIndex() != 1 {
		t.Fatalf("expected index 1, got %d", sess.CurrentIndex())
	}
}

func TestResumeFromProgress(t *testing.T) {
	sess := newSession(domain.UserContext{UserID: "u1"}, topicWithAnswers([]int{1, 0, 2, 1, 0}), nil)

	one, zero, two := 1, 0, 2
	sess.restore(domain.QuizProgress{
		UserID:                "u1",
		TopicID:               "topic-1",
		CurrentQuestionNumber: 5,
		Answers:               []*int{&one, &zero, &two, &one, nil},
	})

	if sess.CurrentIndex() != 4 {
		t.Fatalf("expected resume at index 4, got %d", sess.CurrentIndex())
	}
	answers := sess.SelectedAnswers()
	for i := 0; i < 4; i++ {
		if answers[i] == nil {
			t.Fatalf("expected answer %d pre-populated", i)
		}
	}
	if answers[4] != nil {
		t.Fatalf("question 5 should be unanswered")
	}
}

func TestResumeOnAnsweredQuestionShowsExplanation(t *testing.T) {
	sess := newSession(domain.UserContext{UserID: "u1"}, topicWithAnswers([]int{1, 0}), nil)
	one := 1
	sess.restore(domain.QuizProgress{
		CurrentQuestionNumber: 1,
		Answers:               []*int{&one, nil},
	})
	if !sess.explanationVisible {
		t.Fatalf("answered question should resume with explanation open")
	}
}

func TestToggleExplanationRequiresAnswer(t *testing.T) {
	sess := newSession(domain.UserContext{UserID: "u1"}, topicWithAnswers([]int{1}), nil)
	sess.toggleExplanation()
	if sess.explanationVisible {
		t.Fatalf("toggle before answering should have no effect")
	}
	sess.selectAnswer(0)
	sess.toggleExplanation()
	if sess.explanationVisible {
		t.Fatalf("expected explanation hidden after toggle")
	}
	sess.toggleExplanation()
	if !sess.explanationVisible {
		t.Fatalf("expected explanation visible after second toggle")
	}
}

func TestCooldownGatesAdvanceUntilExpiry(t *testing.T) {
	clock := newFakeClock()
	sess := newSession(domain.UserContext{UserID: "u1"}, topicWithAnswers([]int{0, 0, 0, 0}), clock.Now)
	defer sess.Close()

	sess.selectAnswer(0)
	res := sess.advance(0) // leaving index 0 triggers the gate
	if !res.moved || !res.startCooldown {
		t.Fatalf("expected move with cooldown trigger, got %+v", res)
	}
	sess.beginCooldown(2 * time.Minute)

	if !sess.CooldownActive() {
		t.Fatalf("expected cooldown active")
	}
	sess.selectAnswer(0)
	if res := sess.advance(0); res.moved {
		t.Fatalf("advance must be refused while cooldown runs, even with an answer selected")
	}

	clock.Advance(119 * time.Second)
	sess.refreshCooldown()
	if res := sess.advance(0); res.moved {
		t.Fatalf("advance must stay refused before the countdown hits zero")
	}
	if sess.CooldownRemaining() != 1 {
		t.Fatalf("expected 1s remaining, got %d", sess.CooldownRemaining())
	}

	clock.Advance(2 * time.Second)
	if done := sess.refreshCooldown(); !done {
		t.Fatalf("expected countdown to finish")
	}
	if sess.CooldownActive() {
		t.Fatalf("expected cooldown cleared")
	}
	if res := sess.advance(0); !res.moved {
		t.Fatalf("advance should succeed after the countdown ends")
	}
}

func TestPremiumBypassesCooldown(t *testing.T) {
	sess := newSession(domain.UserContext{UserID: "u1", Premium: true}, topicWithAnswers([]int{0, 0, 0}), nil)

	sess.selectAnswer(0)
	res := sess.advance(0)
	if !res.moved {
		t.Fatalf("expected premium advance to succeed")
	}
	if res.startCooldown {
		t.Fatalf("premium sessions must never trigger a cooldown")
	}

	// Even with the flag forced on, premium users pass the gate.
	sess.mu.Lock()
	sess.cooldownActive = true
	sess.mu.Unlock()
	sess.selectAnswer(0)
	if res := sess.advance(0); !res.moved {
		t.Fatalf("premium advance should ignore an active cooldown")
	}
}

func TestCompletionComputesScore(t *testing.T) {
	sess := newSession(domain.UserContext{UserID: "u1"}, topicWithAnswers([]int{1, 0, 2}), nil)

	for _, pick := range []int{1, 1, 2} { // second answer wrong
		sess.selectAnswer(pick)
		sess.advance(-1)
	}
	if !sess.IsComplete() {
		t.Fatalf("expected session completed")
	}
	if sess.Score() != 2 {
		t.Fatalf("expected score 2, got %d", sess.Score())
	}
	// Further operations are no-ops once completed.
	if _, ok := sess.selectAnswer(0); ok {
		t.Fatalf("selectAnswer after completion should be refused")
	}
	if res := sess.advance(-1); res.moved || res.completed {
		t.Fatalf("advance after completion should be refused")
	}
}

func TestSubscribeReceivesAnswerEvents(t *testing.T) {
	sess := newSession(domain.UserContext{UserID: "u1"}, topicWithAnswers([]int{1, 0}), nil)
	ch, cancel := sess.Subscribe()
	defer cancel()

	initial := <-ch
	if initial.Type != EventQuestion || initial.Question.Index != 0 {
		t.Fatalf("expected initial question event, got %+v", initial)
	}

	sess.selectAnswer(1)
	ev := <-ch
	if ev.Type != EventAnswerResult || !ev.Answer.Correct {
		t.Fatalf("expected correct answer event, got %+v", ev)
	}

	sess.advance(-1)
	ev = <-ch
	if ev.Type != EventQuestion || ev.Question.Index != 1 {
		t.Fatalf("expected question event for index 1, got %+v", ev)
	}
}
