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

// ProgressRepo persists quiz resume points, one row per (user, topic).
type ProgressRepo struct {
	pool *pgxpool.Pool
}

func NewProgressRepo(pool *pgxpool.Pool) *ProgressRepo {
	return &ProgressRepo{pool: pool}
}

func (r *ProgressRepo) Save(ctx context.Context, p domain.QuizProgress) error {
	answers, err := json.Marshal(p.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO quiz_progress (user_id, topic_id, question_number, answers, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id, topic_id)
		DO UPDATE SET question_number = EXCLUDED.question_number,
		              answers = EXCLUDED.answers,
		              updated_at = now()`,
		p.UserID, p.TopicID, p.CurrentQuestionNumber, answers)
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

func (r *ProgressRepo) Load(ctx context.Context, userID, topicID string) (domain.QuizProgress, bool, error) {
	p := domain.QuizProgress{UserID: userID, TopicID: topicID}
	var answers []byte
	err := r.pool.QueryRow(ctx, `
		SELECT question_number, answers FROM quiz_progress
		WHERE user_id=$1 AND topic_id=$2`,
		userID, topicID).Scan(&p.CurrentQuestionNumber, &answers)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizProgress{}, false, nil
	}
	if err != nil {
		return domain.QuizProgress{}, false, fmt.Errorf("load progress: %w", err)
	}
	if err := json.Unmarshal(answers, &p.Answers); err != nil {
		return domain.QuizProgress{}, false, fmt.Errorf("unmarshal answers: %w", err)
	}
	return p, true, nil
}

func (r *ProgressRepo) Clear(ctx context.Context, userID, topicID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM quiz_progress WHERE user_id=$1 AND topic_id=$2`, userID, topicID)
	if err != nil {
		return fmt.Errorf("clear progress: %w", err)
	}
	return nil
}
