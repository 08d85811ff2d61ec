package model

import "time"

// Role is a portal account role.
type Role string

const (
	RoleStudent   Role = "student"
	RoleMentor    Role = "mentor"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// IsStaff reports whether the role may review other candidates' submissions.
func (r Role) IsStaff() bool {
	return r == RoleModerator || r == RoleAdmin
}

// Candidate is a portal account as far as the exam engine needs it.
// Profile management lives elsewhere.
type Candidate struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	Premium      bool      `json:"is_premium"`
	Penalized    bool      `json:"is_penalized"`
	HSCYear      string    `json:"hsc_year"`
	CreatedAt    time.Time `json:"created_at"`
}

// CandidateStatus is the read-only slice of a candidate consulted by the gate
// and the grading engine. PenaltyFlag is stored at account-mutation time and
// never re-derived while grading.
type CandidateStatus struct {
	CandidateID int    `json:"candidate_id"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	PenaltyFlag bool   `json:"penalty_flag"`
	PremiumFlag bool   `json:"premium_flag"`
}

// LoginRequest is the payload for candidate authentication.
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Token     string    `json:"token"`
	Candidate Candidate `json:"candidate"`
}
