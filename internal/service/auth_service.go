package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/crackcu/portal-backend/internal/config"
	"github.com/crackcu/portal-backend/internal/model"
	"github.com/crackcu/portal-backend/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for an unknown username or a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	CandidateID int        `json:"candidate_id"`
	Role        model.Role `json:"role"`
}

// AuthService handles password checks and JWT issuance.
type AuthService struct {
	cfg        *config.Config
	candidates CandidateStore
	now        func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, candidates CandidateStore) *AuthService {
	return &AuthService{cfg: cfg, candidates: candidates, now: time.Now}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Login verifies credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.LoginResponse, error) {
	c, err := s.candidates.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("get candidate: %w", err)
	}

	if err := s.CheckPassword(c.PasswordHash, password); err != nil {
		return nil, err
	}

	token, err := s.GenerateToken(c)
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{Token: token, Candidate: *c}, nil
}

// Me returns the account behind a token.
func (s *AuthService) Me(ctx context.Context, candidateID int) (*model.Candidate, error) {
	c, err := s.candidates.GetByID(ctx, candidateID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCandidateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get candidate: %w", err)
	}
	return c, nil
}

// GenerateToken creates a signed JWT for a candidate.
func (s *AuthService) GenerateToken(c *model.Candidate) (string, error) {
	now := s.now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.Itoa(c.ID),
			Issuer:    s.cfg.AppName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		CandidateID: c.ID,
		Role:        c.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.CandidateID == 0 {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
