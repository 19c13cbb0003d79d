package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"eduquest-service/internal/domain"
)

func question() domain.Question {
	return domain.Question{
		ID:                 1,
		Prompt:             "What is 2 + 2?",
		Options:            []string{"3", "4", "5"},
		CorrectOptionIndex: 1,
	}
}

func TestExplainParsesChatResponse(t *testing.T) {
	var gotAuth string
	var gotBody chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "  4 is right because 2 + 2 = 4.  "}},
			},
		})
	}))
	defer server.Close()

	client, err := New("secret", server.URL, "test-model")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	text, err := client.Explain(context.Background(), question(), "math", 0)
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if text != "4 is right because 2 + 2 = 4." {
		t.Fatalf("expected trimmed content, got %q", text)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
	if gotBody.Model != "test-model" || len(gotBody.Messages) != 2 {
		t.Fatalf("unexpected request body %+v", gotBody)
	}
	if !strings.Contains(gotBody.Messages[1].Content, "What is 2 + 2?") {
		t.Fatalf("prompt should carry the question, got %q", gotBody.Messages[1].Content)
	}
}

func TestExplainSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "invalid api key"},
		})
	}))
	defer server.Close()

	client, err := New("bad-key", server.URL, "")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Explain(context.Background(), question(), "math", 0); err == nil || !strings.Contains(err.Error(), "invalid api key") {
		t.Fatalf("expected api error, got %v", err)
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New("", "", ""); err == nil {
		t.Fatalf("expected error for missing api key")
	}
}
