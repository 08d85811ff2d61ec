package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/crackcu/portal-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ResultRepository is the append-only submission ledger. Rows are inserted
// once and never updated; they only disappear when their exam is deleted.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

const resultColumns = `r.id, r.exam_id, r.candidate_id, r.answers, r.section_marks, r.section_passed,
	r.total_marks, r.penalty, r.net_marks, r.passed, r.completed, r.policy_version,
	r.started_at, r.completed_at`

// Append inserts a graded result and fills in its ID. StartedAt defaults to
// the database clock when zero.
func (r *ResultRepository) Append(ctx context.Context, res *model.GradedResult) error {
	answers, err := json.Marshal(res.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	marks, err := json.Marshal(res.SectionMarks)
	if err != nil {
		return fmt.Errorf("encode section marks: %w", err)
	}
	passed, err := json.Marshal(res.SectionPassed)
	if err != nil {
		return fmt.Errorf("encode section passes: %w", err)
	}

	var startedAt any
	if !res.StartedAt.IsZero() {
		startedAt = res.StartedAt
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_results (exam_id, candidate_id, answers, section_marks, section_passed,
		                           total_marks, penalty, net_marks, passed, completed,
		                           policy_version, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, COALESCE($12, NOW()), $13)
		 RETURNING id, started_at`,
		res.ExamID, res.CandidateID, answers, marks, passed,
		res.TotalMarks, res.Penalty, res.NetMarks, res.Passed, res.Completed,
		res.PolicyVersion, startedAt, res.CompletedAt,
	).Scan(&res.ID, &res.StartedAt)
}

// GetByID retrieves one ledger entry.
func (r *ResultRepository) GetByID(ctx context.Context, id int64) (*model.GradedResult, error) {
	res, err := scanResult(r.pool.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM exam_results r WHERE r.id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return res, nil
}

// ListByCandidate returns a candidate's results with exam titles, most recent first.
func (r *ResultRepository) ListByCandidate(ctx context.Context, candidateID int) ([]model.CandidateAttempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+resultColumns+`, e.title
		 FROM exam_results r
		 JOIN mock_exams e ON e.id = r.exam_id
		 WHERE r.candidate_id = $1
		 ORDER BY r.completed_at DESC NULLS LAST, r.id DESC`, candidateID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attempts := make([]model.CandidateAttempt, 0)
	for rows.Next() {
		var a model.CandidateAttempt
		if err := scanResultInto(rows, &a.GradedResult, &a.ExamTitle); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// ListByExam returns one page of an exam's submissions joined with candidate
// identity, plus the total number of matching rows.
func (r *ResultRepository) ListByExam(ctx context.Context, examID int, f model.SubmissionFilter) ([]model.SubmissionRow, int, error) {
	where := ` WHERE r.exam_id = $1`
	args := []any{examID}

	if f.Passed != nil {
		args = append(args, *f.Passed)
		where += ` AND r.passed = $` + strconv.Itoa(len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (c.full_name ILIKE $` + n + ` OR c.username ILIKE $` + n + ` OR c.email ILIKE $` + n + `)`
	}

	from := ` FROM exam_results r JOIN candidates c ON c.id = r.candidate_id`

	// 1. Get total count
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+from+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	// 2. Get paginated data
	query := `SELECT r.id, r.candidate_id, c.username, c.full_name, c.email,
	                 r.total_marks, r.net_marks, r.passed, r.policy_version,
	                 r.started_at, r.completed_at` + from + where +
		` ORDER BY r.net_marks DESC, r.id ASC`
	if f.PerPage > 0 {
		page := max(f.Page, 1)
		args = append(args, f.PerPage, (page-1)*f.PerPage)
		query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := make([]model.SubmissionRow, 0)
	for rows.Next() {
		var s model.SubmissionRow
		if err := rows.Scan(&s.ResultID, &s.CandidateID, &s.Username, &s.FullName, &s.Email,
			&s.TotalMarks, &s.NetMarks, &s.Passed, &s.PolicyVersion,
			&s.StartedAt, &s.CompletedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, s)
	}
	return list, total, rows.Err()
}

// CountCompleted returns how many completed attempts a candidate has on an exam.
func (r *ResultRepository) CountCompleted(ctx context.Context, candidateID, examID int) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM exam_results
		 WHERE candidate_id = $1 AND exam_id = $2 AND completed`,
		candidateID, examID,
	).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(row scanner) (*model.GradedResult, error) {
	res := &model.GradedResult{}
	if err := scanResultInto(row, res); err != nil {
		return nil, err
	}
	return res, nil
}

func scanResultInto(row scanner, res *model.GradedResult, extra ...any) error {
	var answers, marks, passed []byte
	dest := append([]any{&res.ID, &res.ExamID, &res.CandidateID, &answers, &marks, &passed,
		&res.TotalMarks, &res.Penalty, &res.NetMarks, &res.Passed, &res.Completed,
		&res.PolicyVersion, &res.StartedAt, &res.CompletedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return err
	}

	if err := json.Unmarshal(answers, &res.Answers); err != nil {
		return fmt.Errorf("decode answers of result %d: %w", res.ID, err)
	}
	if err := json.Unmarshal(marks, &res.SectionMarks); err != nil {
		return fmt.Errorf("decode section marks of result %d: %w", res.ID, err)
	}
	if err := json.Unmarshal(passed, &res.SectionPassed); err != nil {
		return fmt.Errorf("decode section passes of result %d: %w", res.ID, err)
	}
	return nil
}
