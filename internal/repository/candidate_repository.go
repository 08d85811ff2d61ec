package repository

import (
	"context"

	"github.com/crackcu/portal-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CandidateRepository handles candidate account data access.
type CandidateRepository struct {
	pool *pgxpool.Pool
}

// NewCandidateRepository creates a new CandidateRepository.
func NewCandidateRepository(pool *pgxpool.Pool) *CandidateRepository {
	return &CandidateRepository{pool: pool}
}

const candidateColumns = `id, username, password_hash, full_name, email, role,
	is_premium, is_penalized, hsc_year, created_at`

func scanCandidate(row scanner) (*model.Candidate, error) {
	c := &model.Candidate{}
	err := row.Scan(&c.ID, &c.Username, &c.PasswordHash, &c.FullName, &c.Email, &c.Role,
		&c.Premium, &c.Penalized, &c.HSCYear, &c.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

// GetByID retrieves a candidate by ID.
func (r *CandidateRepository) GetByID(ctx context.Context, id int) (*model.Candidate, error) {
	return scanCandidate(r.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, id))
}

// GetByUsername retrieves a candidate by their unique username.
func (r *CandidateRepository) GetByUsername(ctx context.Context, username string) (*model.Candidate, error) {
	return scanCandidate(r.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE username = $1`, username))
}

// GetStatus returns the flags the exam engine reads on every fetch and submit.
func (r *CandidateRepository) GetStatus(ctx context.Context, id int) (*model.CandidateStatus, error) {
	s := &model.CandidateStatus{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, full_name, email, is_penalized, is_premium
		 FROM candidates WHERE id = $1`, id,
	).Scan(&s.CandidateID, &s.FullName, &s.Email, &s.PenaltyFlag, &s.PremiumFlag)
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

// Create inserts a new candidate.
func (r *CandidateRepository) Create(ctx context.Context, c *model.Candidate) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO candidates (username, password_hash, full_name, email, role, is_premium, hsc_year)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, is_penalized, created_at`,
		c.Username, c.PasswordHash, c.FullName, c.Email, c.Role, c.Premium, c.HSCYear,
	).Scan(&c.ID, &c.Penalized, &c.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateUsername
	}
	return err
}

// ApplyPenaltyRule stores the penalty flag for every candidate: set when the
// candidate's HSC year is one of years, cleared otherwise. Only rows whose
// flag actually changes are touched. Returns the number of changed rows.
func (r *CandidateRepository) ApplyPenaltyRule(ctx context.Context, years []string) (int64, error) {
	if years == nil {
		years = []string{}
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE candidates
		 SET is_penalized = COALESCE(hsc_year = ANY($1), FALSE)
		 WHERE is_penalized <> COALESCE(hsc_year = ANY($1), FALSE)`,
		years,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
