package memory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"eduquest-service/internal/domain"
)

type countingLoader struct {
	calls  int64
	topics map[string]domain.Topic
}

func (l *countingLoader) LoadTopic(_ context.Context, topicID string) (domain.Topic, error) {
	atomic.AddInt64(&l.calls, 1)
	if topic, ok := l.topics[topicID]; ok {
		return topic, nil
	}
	return domain.Topic{}, domain.ErrTopicNotFound
}

func sampleTopic() domain.Topic {
	return domain.Topic{
		ID:   "topic-1",
		Name: "Sample",
		Questions: []domain.Question{
			{ID: 1, Prompt: "q", Options: []string{"a", "b"}, CorrectOptionIndex: 0},
		},
	}
}

func TestTopicRepositoryCachesWithinTTL(t *testing.T) {
	loader := &countingLoader{topics: map[string]domain.Topic{"topic-1": sampleTopic()}}
	repo := NewTopicRepository(loader, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		topic, err := repo.GetTopic(ctx, "topic-1")
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		if topic.ID != "topic-1" {
			t.Fatalf("unexpected topic %q", topic.ID)
		}
	}
	if n := atomic.LoadInt64(&loader.calls); n != 1 {
		t.Fatalf("expected a single loader call, got %d", n)
	}
}

func TestTopicRepositoryZeroTTLAlwaysLoads(t *testing.T) {
	loader := &countingLoader{topics: map[string]domain.Topic{"topic-1": sampleTopic()}}
	repo := NewTopicRepository(loader, 0)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := repo.GetTopic(ctx, "topic-1"); err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
	}
	if n := atomic.LoadInt64(&loader.calls); n != 2 {
		t.Fatalf("expected loader call per get with ttl 0, got %d", n)
	}
}

func TestTopicRepositoryPropagatesNotFound(t *testing.T) {
	repo := NewTopicRepository(&countingLoader{}, time.Minute)
	if _, err := repo.GetTopic(context.Background(), "missing"); !errors.Is(err, domain.ErrTopicNotFound) {
		t.Fatalf("expected ErrTopicNotFound, got %v", err)
	}
}
