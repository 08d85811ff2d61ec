package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/crackcu/portal-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ExamRepository reads published mock exams. Create exists for the seed tool;
// editing exams is content management's job.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// GetByID retrieves an exam with its full question list, correct answers included.
func (r *ExamRepository) GetByID(ctx context.Context, id int) (*model.ExamDefinition, error) {
	e := &model.ExamDefinition{}
	var questions []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, tag, publish_at, duration_minutes, questions,
		        access_tier, is_visible, created_at
		 FROM mock_exams WHERE id = $1`, id,
	).Scan(&e.ID, &e.Title, &e.Tag, &e.PublishAt, &e.DurationMinutes, &questions,
		&e.AccessTier, &e.Visible, &e.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}

	if err := json.Unmarshal(questions, &e.Questions); err != nil {
		return nil, fmt.Errorf("decode questions of exam %d: %w", id, err)
	}
	return e, nil
}

// ListPublic returns visible exams, newest first, without their questions.
// limit <= 0 lists every visible exam.
func (r *ExamRepository) ListPublic(ctx context.Context, limit int) ([]model.ExamSummary, error) {
	query := `SELECT id, title, tag, publish_at, duration_minutes, access_tier,
	                 jsonb_array_length(questions)
	          FROM mock_exams
	          WHERE is_visible
	          ORDER BY publish_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exams := make([]model.ExamSummary, 0)
	for rows.Next() {
		var e model.ExamSummary
		if err := rows.Scan(&e.ID, &e.Title, &e.Tag, &e.PublishAt, &e.DurationMinutes,
			&e.AccessTier, &e.QuestionCount); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// Create inserts a checked exam definition.
func (r *ExamRepository) Create(ctx context.Context, e *model.ExamDefinition) error {
	if err := e.Check(); err != nil {
		return err
	}
	questions, err := json.Marshal(e.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO mock_exams (title, tag, publish_at, duration_minutes, questions, access_tier, is_visible)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		e.Title, e.Tag, e.PublishAt, e.DurationMinutes, questions, e.AccessTier, e.Visible,
	).Scan(&e.ID, &e.CreatedAt)
}
