package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"eduquest-service/internal/app"
)

// WSHandler drives a quiz session over a websocket: the client sends
// answer/advance/toggle commands, the server streams session events back.
type WSHandler struct {
	service  *app.QuizService
	revision *app.RevisionService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, revision *app.RevisionService) *WSHandler {
	return &WSHandler{
		service:  service,
		revision: revision,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	OptionIndex int `json:"optionIndex"`
}

type specialAnswerPayload struct {
	QuestionID  int    `json:"questionId"`
	TopicID     string `json:"topicId"`
	OptionIndex int    `json:"optionIndex"`
}

type specialQuestionView struct {
	QuestionID int      `json:"questionId"`
	TopicID    string   `json:"topicId"`
	Prompt     string   `json:"prompt"`
	Options    []string `json:"options"`
}

type specialMessage struct {
	Type     string               `json:"type"`
	Special  *specialQuestionView `json:"special,omitempty"`
	Eligible bool                 `json:"eligible"`
}

type specialResultMessage struct {
	Type     string `json:"type"`
	Correct  bool   `json:"correct"`
	Mastered bool   `json:"mastered"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func newError(msg string) errorMessage {
	return errorMessage{Type: "error", Message: msg}
}

// ServeWS upgrades the request and wires the connection into the quiz use
// cases. Identity comes from query parameters; in production a verified
// token would sit in front of this.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	topicID := r.URL.Query().Get("topicId")
	userID := r.URL.Query().Get("userId")
	if topicID == "" || userID == "" {
		http.Error(w, "missing topicId or userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sess, err := h.service.StartSession(r.Context(), userID, topicID)
	if err != nil {
		_ = conn.WriteJSON(newError(err.Error()))
		return
	}
	defer sess.Close()

	updates, cancel := sess.Subscribe()
	defer cancel()

	send := make(chan any, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Single writer goroutine; everything else funnels through send so the
	// connection never sees concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- update:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- newError("invalid answer payload")
				continue
			}
			h.service.SelectAnswer(r.Context(), sess, payload.OptionIndex)
		case "advance":
			h.service.Advance(r.Context(), sess)
		case "toggleExplanation":
			h.service.ToggleExplanation(sess)
		case "special":
			rec, ok, err := h.revision.NextSpecialQuestion(r.Context(), userID)
			if err != nil {
				send <- newError(err.Error())
				continue
			}
			msg := specialMessage{Type: "special", Eligible: ok}
			if ok {
				msg.Special = &specialQuestionView{
					QuestionID: rec.QuestionID,
					TopicID:    rec.TopicID,
					Prompt:     rec.Question.Prompt,
					Options:    rec.Question.Options,
				}
			}
			send <- msg
		case "specialAnswer":
			var payload specialAnswerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- newError("invalid special answer payload")
				continue
			}
			correct, err := h.revision.AnswerSpecialQuestion(r.Context(), userID, payload.QuestionID, payload.TopicID, payload.OptionIndex)
			if err != nil {
				send <- newError(err.Error())
				continue
			}
			send <- specialResultMessage{Type: "specialResult", Correct: correct, Mastered: correct}
		default:
			send <- newError("unsupported message type")
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
