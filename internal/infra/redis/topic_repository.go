package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"eduquest-service/internal/domain"
)

// TopicLoader fetches topic content from a backing store (e.g., Postgres).
type TopicLoader interface {
	LoadTopic(ctx context.Context, topicID string) (domain.Topic, error)
}

// TopicRepository caches whole topics as JSON values in Redis
// (SET topic:{topicID} {json} EX ttl) and falls back to a loader on miss.
// Topics are immutable at runtime, so a stale entry can only ever be a
// not-yet-expired copy of valid content.
type TopicRepository struct {
	client *redis.Client
	loader TopicLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewTopicRepository(client *redis.Client, loader TopicLoader, ttl time.Duration) *TopicRepository {
	return &TopicRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *TopicRepository) GetTopic(ctx context.Context, topicID string) (domain.Topic, error) {
	key := r.key(topicID)

	if topic, ok := r.fromCache(ctx, key); ok {
		return topic, nil
	}

	result, err, _ := r.sf.Do(topicID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if topic, ok := r.fromCache(ctx, key); ok {
			return topic, nil
		}

		topic, err := r.loader.LoadTopic(ctx, topicID)
		if err != nil {
			return domain.Topic{}, err
		}

		payload, err := json.Marshal(topic)
		if err != nil {
			return domain.Topic{}, fmt.Errorf("marshal topic: %w", err)
		}
		// Best-effort cache fill; a failed SET just means the next call
		// loads again.
		_ = r.client.Set(ctx, key, payload, r.ttlWithJitter()).Err()

		return topic, nil
	})
	if err != nil {
		return domain.Topic{}, err
	}
	return result.(domain.Topic), nil
}

func (r *TopicRepository) fromCache(ctx context.Context, key string) (domain.Topic, bool) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.Topic{}, false
	}
	var topic domain.Topic
	if err := json.Unmarshal(raw, &topic); err != nil {
		return domain.Topic{}, false
	}
	return topic, true
}

func (r *TopicRepository) key(topicID string) string {
	return "topic:" + topicID
}

func (r *TopicRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
