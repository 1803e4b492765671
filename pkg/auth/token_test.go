package auth

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenGeneration(t *testing.T) {
	generator := NewTokenGenerator()

	token, hash, prefix, err := generator.GenerateToken()
	require.NoError(t, err)

	assert.True(t, len(token) > 40, "Token should be long enough")
	assert.Contains(t, token, "canopy_", "Token should have canopy_ prefix")
	assert.Len(t, hash, 64, "Hash should be 64 characters")
	assert.Contains(t, prefix, "canopy_", "Prefix should contain canopy_")

	err = generator.ValidateTokenFormat(token)
	assert.NoError(t, err, "Generated token should be valid")

	hash2 := generator.HashToken(token)
	assert.Equal(t, hash, hash2, "Hashing should be deterministic")
}

func TestTokenValidation(t *testing.T) {
	generator := NewTokenGenerator()

	tests := []struct {
		name        string
		token       string
		expectError bool
	}{
		{
			name:        "valid token",
			token:       "canopy_abcdefghijklmnopqrstuvwxyz123456",
			expectError: false,
		},
		{
			name:        "missing prefix",
			token:       "abcdefghijklmnopqrstuvwxyz123456",
			expectError: true,
		},
		{
			name:        "wrong prefix",
			token:       "github_abcdefghijklmnopqrstuvwxyz123456",
			expectError: true,
		},
		{
			name:        "only prefix",
			token:       "canopy_",
			expectError: true,
		},
		{
			name:        "invalid base64",
			token:       "canopy_!!!invalid!!!",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := generator.ValidateTokenFormat(tt.token)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConcurrentTokenGeneration(t *testing.T) {
	generator := NewTokenGenerator()
	numTokens := 100

	tokens := make(chan string, numTokens)

	for i := 0; i < numTokens; i++ {
		go func() {
			token, _, _, err := generator.GenerateToken()
			if err == nil {
				tokens <- token
			}
		}()
	}

	tokenSet := make(map[string]bool)
	for i := 0; i < numTokens; i++ {
		tokenSet[<-tokens] = true
	}

	assert.Len(t, tokenSet, numTokens, "All tokens should be unique")
}

func userRows(now time.Time, active bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "expires_at",
		"id", "email", "password_hash", "first_name", "last_name",
		"is_staff", "is_active", "is_superuser", "date_joined",
	}).AddRow(int64(1), nil, int64(7), "grower@example.com", "hash", "Anna", "Ozols",
		false, active, false, now)
}

func TestResolvePrincipal_Success(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	tm := NewTokenManager(db)
	generator := NewTokenGenerator()
	token, hash, _, err := generator.GenerateToken()
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT .+ FROM api_tokens t`).
		WithArgs(hash).
		WillReturnRows(userRows(time.Now(), true))
	mock.ExpectExec(`UPDATE api_tokens SET last_used_at`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p, err := tm.ResolvePrincipal(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, "grower@example.com", p.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolvePrincipal_UnknownToken(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	tm := NewTokenManager(db)
	generator := NewTokenGenerator()
	token, _, _, err := generator.GenerateToken()
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT .+ FROM api_tokens t`).
		WillReturnError(sql.ErrNoRows)

	_, err = tm.ResolvePrincipal(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolvePrincipal_MalformedToken(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tm := NewTokenManager(db)

	// Format failures never reach the database
	_, err = tm.ResolvePrincipal(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolvePrincipal_InactiveUser(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	tm := NewTokenManager(db)
	generator := NewTokenGenerator()
	token, _, _, err := generator.GenerateToken()
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT .+ FROM api_tokens t`).
		WillReturnRows(userRows(time.Now(), false))

	_, err = tm.ResolvePrincipal(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevokeToken_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	tm := NewTokenManager(db)

	mock.ExpectExec(`UPDATE api_tokens SET revoked_at`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = tm.RevokeToken(context.Background(), 999)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevokeTokenValue(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	tm := NewTokenManager(db)
	generator := NewTokenGenerator()
	token, _, _, err := generator.GenerateToken()
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT id FROM api_tokens WHERE token_hash`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectExec(`UPDATE api_tokens SET revoked_at`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = tm.RevokeTokenValue(context.Background(), token)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeTokenValue_Unknown(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	tm := NewTokenManager(db)

	// Format failures never reach the database
	err = tm.RevokeTokenValue(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	generator := NewTokenGenerator()
	token, _, _, err := generator.GenerateToken()
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT id FROM api_tokens WHERE token_hash`).
		WillReturnError(sql.ErrNoRows)

	err = tm.RevokeTokenValue(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCleanupExpiredTokens(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	tm := NewTokenManager(db)

	mock.ExpectExec(`DELETE FROM api_tokens WHERE expires_at`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := tm.CleanupExpiredTokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
