package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"eduquest-service/internal/domain"
)

// AttemptRepo stores completed quiz runs.
type AttemptRepo struct {
	pool *pgxpool.Pool
}

func NewAttemptRepo(pool *pgxpool.Pool) *AttemptRepo {
	return &AttemptRepo{pool: pool}
}

func (r *AttemptRepo) Record(ctx context.Context, a domain.Attempt) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO attempts (id, user_id, topic_id, score, total, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID.String(), a.UserID, a.TopicID, a.Score, a.Total, a.CompletedAt)
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

func (r *AttemptRepo) ListByUser(ctx context.Context, userID string) ([]domain.Attempt, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, topic_id, score, total, completed_at
		FROM attempts WHERE user_id=$1
		ORDER BY completed_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var out []domain.Attempt
	for rows.Next() {
		var a domain.Attempt
		var id string
		if err := rows.Scan(&id, &a.UserID, &a.TopicID, &a.Score, &a.Total, &a.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if a.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse attempt id: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ResultRepo stores user-facing quiz outcomes.
type ResultRepo struct {
	pool *pgxpool.Pool
}

func NewResultRepo(pool *pgxpool.Pool) *ResultRepo {
	return &ResultRepo{pool: pool}
}

func (r *ResultRepo) Record(ctx context.Context, res domain.QuizResult) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO results (user_id, topic_id, score, total, percentage, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		res.UserID, res.TopicID, res.Score, res.Total, res.Percentage, res.CompletedAt)
	if err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	return nil
}

// CertificateRepo enforces one certificate per (user, topic) with a unique
// index; duplicate awards surface as domain.ErrCertificateExists.
type CertificateRepo struct {
	pool *pgxpool.Pool
}

func NewCertificateRepo(pool *pgxpool.Pool) *CertificateRepo {
	return &CertificateRepo{pool: pool}
}

func (r *CertificateRepo) Award(ctx context.Context, cert domain.Certificate) error {
	if cert.Total == 0 || float64(cert.Score)/float64(cert.Total) < 0.80 {
		return domain.ErrScoreBelowThreshold
	}
	ct, err := r.pool.Exec(ctx, `
		INSERT INTO certificates (id, user_id, topic_id, score, total, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, topic_id) DO NOTHING`,
		cert.ID.String(), cert.UserID, cert.TopicID, cert.Score, cert.Total, cert.IssuedAt)
	if err != nil {
		return fmt.Errorf("award certificate: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrCertificateExists
	}
	return nil
}

func (r *CertificateRepo) ListByUser(ctx context.Context, userID string) ([]domain.Certificate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, topic_id, score, total, issued_at
		FROM certificates WHERE user_id=$1
		ORDER BY issued_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	defer rows.Close()

	var out []domain.Certificate
	for rows.Next() {
		var c domain.Certificate
		var id string
		if err := rows.Scan(&id, &c.UserID, &c.TopicID, &c.Score, &c.Total, &c.IssuedAt); err != nil {
			return nil, fmt.Errorf("scan certificate: %w", err)
		}
		if c.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse certificate id: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
