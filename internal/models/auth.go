package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UpstreamUser is one entry of the externally hosted user list. Credentials
// are matched client-side against this record; the gateway never stores it
// beyond the session projection.
type UpstreamUser struct {
	ID            int    `json:"id"`
	Code          string `json:"code"`
	GUID          string `json:"guid"`
	UserName      string `json:"userName"`
	Password      string `json:"password"`
	FullName      string `json:"fullName"`
	ChkBranch     bool   `json:"chkBranch"`
	BranchGUID    string `json:"branchGuid"`
	ChkTrainer    bool   `json:"chkTrainer"`
	TrainerGUID   string `json:"trainerGuid"`
	BranchForWork string `json:"branchForWork"`
	DepartGUID    string `json:"departGuid"`
	UserDepart    string `json:"userDepart"`
	UserJop       string `json:"userJop"`
}

// Session is the staff record kept for the lifetime of a login. It replaces
// the browser-local storage blob of the legacy client: created on login,
// read by every branch-scoped view, cleared on logout.
type Session struct {
	ID            string    `json:"id"`
	UserGUID      string    `json:"user_guid"`
	UserName      string    `json:"user_name"`
	FullName      string    `json:"full_name"`
	BranchGUID    string    `json:"branch_guid"`
	BranchForWork string    `json:"branch_for_work"`
	IsTrainer     bool      `json:"is_trainer"`
	TrainerGUID   string    `json:"trainer_guid"`
	CreatedAt     time.Time `json:"created_at"`
}

// LoginRequest holds credentials for authenticating a staff member.
type LoginRequest struct {
	UserName string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued session token and the staff profile.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresIn int64     `json:"expires_in"`
	IssuedAt  time.Time `json:"issued_at"`
	Session   Session   `json:"session"`
}

// SessionClaims is the JWT payload referencing the server-side session.
type SessionClaims struct {
	SessionID string `json:"sid"`
	UserGUID  string `json:"guid"`
	FullName  string `json:"name"`
	jwt.RegisteredClaims
}
