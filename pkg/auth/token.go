package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// TokenPrefix identifies Canopy tokens
	TokenPrefix = "canopy_"
	// TokenLength is the total length of random bytes (32 bytes = 256 bits)
	TokenLength = 32
)

// ErrInvalidToken is returned for tokens that are unknown, revoked or expired
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenGenerator generates and validates API tokens
type TokenGenerator struct{}

// NewTokenGenerator creates a new token generator
func NewTokenGenerator() *TokenGenerator {
	return &TokenGenerator{}
}

// GenerateToken creates a new API token
// Format: canopy_<base64url(32 random bytes)>
func (tg *TokenGenerator) GenerateToken() (token string, tokenHash string, tokenPrefix string, err error) {
	randomBytes := make([]byte, TokenLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	encodedToken := base64.RawURLEncoding.EncodeToString(randomBytes)
	fullToken := TokenPrefix + encodedToken

	// SHA256 hash for storage; plaintext is never persisted
	hash := sha256.Sum256([]byte(fullToken))
	hashStr := hex.EncodeToString(hash[:])

	// First 8 chars after the prefix are kept for identification
	prefix := TokenPrefix
	if len(encodedToken) >= 8 {
		prefix = TokenPrefix + encodedToken[:8]
	}

	return fullToken, hashStr, prefix, nil
}

// HashToken computes the SHA256 hash of a token for lookup
func (tg *TokenGenerator) HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// ValidateTokenFormat checks if a token has the correct format
func (tg *TokenGenerator) ValidateTokenFormat(token string) error {
	if !strings.HasPrefix(token, TokenPrefix) {
		return fmt.Errorf("token must start with %q", TokenPrefix)
	}

	encodedPart := strings.TrimPrefix(token, TokenPrefix)
	if len(encodedPart) == 0 {
		return fmt.Errorf("token is too short")
	}

	if _, err := base64.RawURLEncoding.DecodeString(encodedPart); err != nil {
		return fmt.Errorf("invalid token encoding: %w", err)
	}

	return nil
}

// TokenManager manages API token lifecycle against the database
type TokenManager struct {
	db        *sql.DB
	generator *TokenGenerator
}

// NewTokenManager creates a new token manager
func NewTokenManager(db *sql.DB) *TokenManager {
	return &TokenManager{
		db:        db,
		generator: NewTokenGenerator(),
	}
}

// CreateToken creates a new API token for a user. The plaintext token is
// returned once and only its hash is stored.
func (tm *TokenManager) CreateToken(ctx context.Context, userID int64, name string, expiresAt *time.Time) (*APIToken, string, error) {
	token, tokenHash, tokenPrefix, err := tm.generator.GenerateToken()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	apiToken := &APIToken{
		UserID:      userID,
		TokenHash:   tokenHash,
		TokenPrefix: tokenPrefix,
		Name:        name,
		ExpiresAt:   expiresAt,
		CreatedAt:   time.Now().UTC(),
	}

	err = tm.db.QueryRowContext(ctx, `
		INSERT INTO api_tokens (user_id, token_hash, token_prefix, name, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, apiToken.UserID, apiToken.TokenHash, apiToken.TokenPrefix, apiToken.Name,
		apiToken.ExpiresAt, apiToken.CreatedAt).Scan(&apiToken.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to store token: %w", err)
	}

	return apiToken, token, nil
}

// ResolvePrincipal validates a bearer token and returns the principal it
// belongs to. Unknown, revoked and expired tokens all map to ErrInvalidToken;
// deactivated principals cannot authenticate.
func (tm *TokenManager) ResolvePrincipal(ctx context.Context, token string) (*Principal, error) {
	if err := tm.generator.ValidateTokenFormat(token); err != nil {
		return nil, ErrInvalidToken
	}

	tokenHash := tm.generator.HashToken(token)

	var (
		tokenID   int64
		expiresAt sql.NullTime
		p         Principal
	)
	err := tm.db.QueryRowContext(ctx, `
		SELECT t.id, t.expires_at,
		       u.id, u.email, u.password_hash, u.first_name, u.last_name,
		       u.is_staff, u.is_active, u.is_superuser, u.date_joined
		FROM api_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token_hash = $1 AND t.revoked_at IS NULL
	`, tokenHash).Scan(
		&tokenID, &expiresAt,
		&p.ID, &p.Email, &p.PasswordHash, &p.FirstName, &p.LastName,
		&p.IsStaff, &p.IsActive, &p.IsSuperuser, &p.DateJoined,
	)
	if err == sql.ErrNoRows {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}

	if expiresAt.Valid && expiresAt.Time.Before(time.Now()) {
		return nil, ErrInvalidToken
	}
	if !p.IsActive {
		return nil, ErrInvalidToken
	}

	// Best effort; a failed touch never blocks authentication
	_, _ = tm.db.ExecContext(ctx, `UPDATE api_tokens SET last_used_at = $1 WHERE id = $2`,
		time.Now().UTC(), tokenID)

	return &p, nil
}

// RevokeToken revokes a token by ID
func (tm *TokenManager) RevokeToken(ctx context.Context, tokenID int64) error {
	result, err := tm.db.ExecContext(ctx, `
		UPDATE api_tokens SET revoked_at = $1
		WHERE id = $2 AND revoked_at IS NULL
	`, time.Now().UTC(), tokenID)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrInvalidToken
	}
	return nil
}

// RevokeTokenValue revokes the presented bearer token. Malformed, unknown
// and already-revoked tokens all map to ErrInvalidToken.
func (tm *TokenManager) RevokeTokenValue(ctx context.Context, token string) error {
	if err := tm.generator.ValidateTokenFormat(token); err != nil {
		return ErrInvalidToken
	}
	tokenHash := tm.generator.HashToken(token)

	var id int64
	err := tm.db.QueryRowContext(ctx, `
		SELECT id FROM api_tokens WHERE token_hash = $1 AND revoked_at IS NULL
	`, tokenHash).Scan(&id)
	if err == sql.ErrNoRows {
		return ErrInvalidToken
	}
	if err != nil {
		return fmt.Errorf("failed to look up token: %w", err)
	}
	return tm.RevokeToken(ctx, id)
}

// Execer is the statement surface shared by *sql.DB and *sql.Tx
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// RevokeUserTokens revokes every live token for a user. It takes an Execer
// so account deactivation can revoke inside the same transaction that flips
// the user's active flag.
func RevokeUserTokens(ctx context.Context, db Execer, userID int64) error {
	_, err := db.ExecContext(ctx, `
		UPDATE api_tokens SET revoked_at = $1
		WHERE user_id = $2 AND revoked_at IS NULL
	`, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}
	return nil
}

// RevokeUserTokens revokes every live token for a user
func (tm *TokenManager) RevokeUserTokens(ctx context.Context, userID int64) error {
	return RevokeUserTokens(ctx, tm.db, userID)
}

// CleanupExpiredTokens deletes tokens past their expiry and returns the count
func (tm *TokenManager) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	result, err := tm.db.ExecContext(ctx, `
		DELETE FROM api_tokens WHERE expires_at IS NOT NULL AND expires_at < $1
	`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to clean up tokens: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

// CountActiveTokens reports how many tokens are currently usable
func (tm *TokenManager) CountActiveTokens(ctx context.Context) (int64, error) {
	var n int64
	err := tm.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM api_tokens
		WHERE revoked_at IS NULL AND (expires_at IS NULL OR expires_at > $1)
	`, time.Now().UTC()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count tokens: %w", err)
	}
	return n, nil
}
