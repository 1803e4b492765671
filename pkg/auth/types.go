package auth

import (
	"time"
)

// Principal is an authenticated user identity. Every request resolves to at
// most one Principal; the policy evaluator receives it for each check.
type Principal struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	IsStaff      bool      `json:"is_staff"`
	IsActive     bool      `json:"is_active"`
	IsSuperuser  bool      `json:"is_superuser"`
	DateJoined   time.Time `json:"date_joined"`
	PasswordHash string    `json:"-"`
}

// IsSelf reports whether the principal is acting on its own record
func (p *Principal) IsSelf(userID int64) bool {
	return p != nil && p.ID == userID
}

// APIToken represents a stored API token. The plaintext token is returned
// exactly once at creation and only its SHA-256 hash is persisted.
type APIToken struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	TokenHash   string     `json:"-"`
	TokenPrefix string     `json:"token_prefix"`
	Name        string     `json:"name"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
