package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"eduquest-service/internal/domain"
)

// WrongAnswerRepo persists missed questions, one row per
// (user, question, topic); saving again overwrites snapshot and timestamp.
type WrongAnswerRepo struct {
	pool *pgxpool.Pool
}

func NewWrongAnswerRepo(pool *pgxpool.Pool) *WrongAnswerRepo {
	return &WrongAnswerRepo{pool: pool}
}

func (r *WrongAnswerRepo) Save(ctx context.Context, rec domain.WrongAnswerRecord) error {
	snapshot, err := json.Marshal(rec.Question)
	if err != nil {
		return fmt.Errorf("marshal question snapshot: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO wrong_answers (user_id, question_id, topic_id, question, ai_explanation, answered_on)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, question_id, topic_id)
		DO UPDATE SET question = EXCLUDED.question,
		              ai_explanation = EXCLUDED.ai_explanation,
		              answered_on = EXCLUDED.answered_on`,
		rec.UserID, rec.QuestionID, rec.TopicID, snapshot, rec.AIExplanation, rec.AnsweredOn)
	if err != nil {
		return fmt.Errorf("save wrong answer: %w", err)
	}
	return nil
}

func (r *WrongAnswerRepo) List(ctx context.Context, userID string) ([]domain.WrongAnswerRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, question_id, topic_id, question, ai_explanation, answered_on
		FROM wrong_answers WHERE user_id=$1
		ORDER BY answered_on`, userID)
	if err != nil {
		return nil, fmt.Errorf("list wrong answers: %w", err)
	}
	defer rows.Close()

	var out []domain.WrongAnswerRecord
	for rows.Next() {
		var rec domain.WrongAnswerRecord
		var snapshot []byte
		if err := rows.Scan(&rec.UserID, &rec.QuestionID, &rec.TopicID, &snapshot, &rec.AIExplanation, &rec.AnsweredOn); err != nil {
			return nil, fmt.Errorf("scan wrong answer: %w", err)
		}
		if err := json.Unmarshal(snapshot, &rec.Question); err != nil {
			return nil, fmt.Errorf("unmarshal question snapshot: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *WrongAnswerRepo) Remove(ctx context.Context, userID string, questionID int, topicID string) error {
	ct, err := r.pool.Exec(ctx, `
		DELETE FROM wrong_answers WHERE user_id=$1 AND question_id=$2 AND topic_id=$3`,
		userID, questionID, topicID)
	if err != nil {
		return fmt.Errorf("remove wrong answer: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrWrongAnswerNotFound
	}
	return nil
}
