package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"eduquest-service/internal/domain"
)

// TopicLoader fetches topic content from a backing store (e.g., Postgres).
type TopicLoader interface {
	LoadTopic(ctx context.Context, topicID string) (domain.Topic, error)
}

// TopicRepository caches topics with TTL to avoid repeated DB hits.
type TopicRepository struct {
	loader TopicLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedTopic
}

type cachedTopic struct {
	topic     domain.Topic
	expiresAt time.Time
}

func NewTopicRepository(loader TopicLoader, ttl time.Duration) *TopicRepository {
	return &TopicRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedTopic),
	}
}

func (r *TopicRepository) GetTopic(ctx context.Context, topicID string) (domain.Topic, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[topicID]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.topic, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(topicID, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[topicID]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.topic, nil
		}
		r.mu.RUnlock()

		topic, err := r.loader.LoadTopic(ctx, topicID)
		if err != nil {
			return domain.Topic{}, err
		}

		r.mu.Lock()
		r.cache[topicID] = cachedTopic{
			topic:     topic,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return topic, nil
	})
	if err != nil {
		return domain.Topic{}, err
	}
	return result.(domain.Topic), nil
}

func (r *TopicRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticTopicLoader is a simple loader backed by an in-memory map (useful for
// tests/demos and the no-database serve mode).
type StaticTopicLoader struct {
	topics map[string]domain.Topic
}

func NewStaticTopicLoader(topics map[string]domain.Topic) *StaticTopicLoader {
	return &StaticTopicLoader{topics: topics}
}

func (l *StaticTopicLoader) LoadTopic(_ context.Context, topicID string) (domain.Topic, error) {
	if topic, ok := l.topics[topicID]; ok {
		return topic, nil
	}
	return domain.Topic{}, domain.ErrTopicNotFound
}
