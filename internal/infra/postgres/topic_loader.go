package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"eduquest-service/internal/domain"
)

// TopicLoader loads topic JSONB from Postgres.
type TopicLoader struct {
	pool *pgxpool.Pool
}

func NewTopicLoader(pool *pgxpool.Pool) *TopicLoader {
	return &TopicLoader{pool: pool}
}

func (l *TopicLoader) LoadTopic(ctx context.Context, topicID string) (domain.Topic, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM topics WHERE id=$1`, topicID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Topic{}, domain.ErrTopicNotFound
	}
	if err != nil {
		return domain.Topic{}, fmt.Errorf("load topic: %w", err)
	}
	var topic domain.Topic
	if err := json.Unmarshal(raw, &topic); err != nil {
		return domain.Topic{}, fmt.Errorf("unmarshal topic: %w", err)
	}
	return topic, nil
}
