package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"eduquest-service/internal/app"
	"eduquest-service/internal/domain"
	"eduquest-service/internal/infra/memory"
)

func quizTopic() domain.Topic {
	return domain.Topic{
		ID:   "topic-1",
		Name: "Test Topic",
		Questions: []domain.Question{
			{ID: 1, Prompt: "q1", Options: []string{"a", "b", "c"}, CorrectOptionIndex: 1, Explanation: "e1"},
			{ID: 2, Prompt: "q2", Options: []string{"a", "b", "c"}, CorrectOptionIndex: 0, Explanation: "e2"},
		},
	}
}

type wsTestEnv struct {
	server       *httptest.Server
	wrongAnswers *memory.WrongAnswerStore
	clock        time.Time
}

func newWSTestEnv(t *testing.T) *wsTestEnv {
	t.Helper()
	env := &wsTestEnv{
		wrongAnswers: memory.NewWrongAnswerStore(),
		clock:        time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC),
	}
	effects := app.NewEffectQueue(0)
	t.Cleanup(effects.Close)

	clock := func() time.Time { return env.clock }
	service := app.NewQuizService(app.Deps{
		Topics:       memory.NewTopicRepository(memory.NewStaticTopicLoader(map[string]domain.Topic{"topic-1": quizTopic()}), time.Minute),
		Progress:     memory.NewProgressStore(),
		WrongAnswers: env.wrongAnswers,
		Attempts:     memory.NewAttemptStore(),
		Results:      memory.NewResultStore(),
		Certificates: memory.NewCertificateStore(),
		Leaderboard:  memory.NewLeaderboard(),
		Entitlements: memory.NewEntitlements(nil),
		Effects:      effects,
	}, app.Config{CooldownAfter: -1, Clock: clock})
	revision := app.NewRevisionService(env.wrongAnswers, clock)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", NewWSHandler(service, revision).ServeWS)
	env.server = httptest.NewServer(mux)
	t.Cleanup(env.server.Close)
	return env
}

func (env *wsTestEnv) dial(t *testing.T, userID, topicID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws?userId=" + userID + "&topicId=" + topicID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type wsMessage struct {
	Type      string               `json:"type"`
	Question  *app.QuestionView    `json:"question"`
	Answer    *app.AnswerOutcome   `json:"answer"`
	Completed *app.Completion      `json:"completed"`
	Special   *specialQuestionView `json:"special"`
	Eligible  bool                 `json:"eligible"`
	Correct   bool                 `json:"correct"`
	Mastered  bool                 `json:"mastered"`
	Message   string               `json:"message"`
}

// readUntil skips unrelated events (notices, cooldown states) until a message
// of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, wantType string) wsMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for i := 0; i < 20; i++ {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("reading for %q: %v", wantType, err)
		}
		if msg.Type == wantType {
			return msg
		}
	}
	t.Fatalf("no %q message within 20 reads", wantType)
	return wsMessage{}
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	body := map[string]any{"type": msgType}
	if payload != nil {
		body["payload"] = payload
	}
	if err := conn.WriteJSON(body); err != nil {
		t.Fatalf("send %s: %v", msgType, err)
	}
}

func TestServeWSRequiresIdentity(t *testing.T) {
	env := newWSTestEnv(t)
	resp, err := http.Get(env.server.URL + "/ws?topicId=topic-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without userId, got %d", resp.StatusCode)
	}
}

func TestServeWSFullQuizFlow(t *testing.T) {
	env := newWSTestEnv(t)
	conn := env.dial(t, "u1", "topic-1")

	first := readUntil(t, conn, "question")
	if first.Question.Index != 0 || first.Question.Total != 2 {
		t.Fatalf("expected question 0 of 2, got %+v", first.Question)
	}

	send(t, conn, "answer", map[string]int{"optionIndex": 1})
	graded := readUntil(t, conn, "answerResult")
	if !graded.Answer.Correct || graded.Answer.Explanation != "e1" {
		t.Fatalf("expected correct answer with explanation, got %+v", graded.Answer)
	}

	send(t, conn, "advance", nil)
	next := readUntil(t, conn, "question")
	if next.Question.Index != 1 {
		t.Fatalf("expected question 1, got %+v", next.Question)
	}

	send(t, conn, "answer", map[string]int{"optionIndex": 2}) // wrong, correct is 0
	graded = readUntil(t, conn, "answerResult")
	if graded.Answer.Correct {
		t.Fatalf("expected wrong answer, got %+v", graded.Answer)
	}

	send(t, conn, "advance", nil)
	done := readUntil(t, conn, "completed")
	if done.Completed.Score != 1 || done.Completed.Total != 2 || done.Completed.Passed {
		t.Fatalf("expected failed 1/2 completion, got %+v", done.Completed)
	}
}

func TestServeWSSpecialQuestionFlow(t *testing.T) {
	env := newWSTestEnv(t)

	// A miss from two days ago is due for revision.
	err := env.wrongAnswers.Save(context.Background(), domain.WrongAnswerRecord{
		UserID:     "u1",
		QuestionID: 7,
		TopicID:    "topic-1",
		Question: domain.Question{
			ID: 7, Prompt: "old miss", Options: []string{"a", "b"}, CorrectOptionIndex: 1,
		},
		AnsweredOn: env.clock.Add(-48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("seed wrong answer: %v", err)
	}

	conn := env.dial(t, "u1", "topic-1")
	readUntil(t, conn, "question")

	send(t, conn, "special", nil)
	special := readUntil(t, conn, "special")
	if !special.Eligible || special.Special == nil || special.Special.QuestionID != 7 {
		t.Fatalf("expected eligible special question 7, got %+v", special)
	}

	send(t, conn, "specialAnswer", map[string]any{"questionId": 7, "topicId": "topic-1", "optionIndex": 1})
	result := readUntil(t, conn, "specialResult")
	if !result.Correct || !result.Mastered {
		t.Fatalf("expected mastered result, got %+v", result)
	}

	// Mastery consumed the record; nothing is left to revise.
	send(t, conn, "special", nil)
	special = readUntil(t, conn, "special")
	if special.Eligible {
		t.Fatalf("expected no further special question, got %+v", special)
	}
}

func TestServeWSRejectsUnknownType(t *testing.T) {
	env := newWSTestEnv(t)
	conn := env.dial(t, "u1", "topic-1")
	readUntil(t, conn, "question")

	send(t, conn, "bogus", nil)
	msg := readUntil(t, conn, "error")
	if msg.Message == "" {
		t.Fatalf("expected error message text")
	}
}
