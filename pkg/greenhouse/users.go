package greenhouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/verdantlabs/canopy/pkg/auth"
	"github.com/verdantlabs/canopy/pkg/policy"
)

// RegisterUserInput carries the registration fields. Email and password are
// required; names are optional.
type RegisterUserInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	// ForStaff requests a staff superuser account. Honored only when the
	// acting principal is itself an authenticated superuser.
	ForStaff bool
}

// UpdateUserInput carries partial-update fields. Nil or empty strings leave
// the stored value unchanged. The flag fields require a superuser actor.
type UpdateUserInput struct {
	Email     *string
	FirstName *string
	LastName  *string

	IsActive    *bool
	IsStaff     *bool
	IsSuperuser *bool
}

const userColumns = `id, email, password_hash, first_name, last_name, is_staff, is_active, is_superuser, date_joined`

func scanUser(row interface{ Scan(...interface{}) error }) (*auth.Principal, error) {
	var u auth.Principal
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.IsStaff, &u.IsActive, &u.IsSuperuser, &u.DateJoined)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// RegisterUser creates a new principal. Registration is public: actor may be
// nil. A staff superuser account is created only when ForStaff is set and
// the actor is a superuser; otherwise the flag is silently ignored and a
// regular active account is created.
func (s *Service) RegisterUser(ctx context.Context, actor *auth.Principal, input RegisterUserInput) (*auth.Principal, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if input.Password == "" {
		return nil, fmt.Errorf("password is required")
	}

	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	elevated := input.ForStaff && actor != nil && actor.IsSuperuser

	u := &auth.Principal{
		Email:        email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		IsStaff:      elevated,
		IsActive:     true,
		IsSuperuser:  elevated,
		DateJoined:   s.now(),
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, first_name, last_name, is_staff, is_active, is_superuser, date_joined)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.IsStaff, u.IsActive, u.IsSuperuser, u.DateJoined).Scan(&u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return u, nil
}

// Authenticate resolves an email/password pair to a principal. Deactivated
// principals cannot authenticate; the failure message never says which part
// of the pair was wrong.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*auth.Principal, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !u.IsActive || !auth.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// GetUser returns a principal by ID. Inactive principals are visible to
// superusers only; everyone else gets the inactive error.
func (s *Service) GetUser(ctx context.Context, actor *auth.Principal, id int64) (*auth.Principal, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !u.IsActive && (actor == nil || !actor.IsSuperuser) {
		return nil, ErrUserInactive
	}
	return u, nil
}

// ListUsers returns all rows for superusers and only active rows otherwise.
// Deactivated principals never appear in non-superuser listings.
func (s *Service) ListUsers(ctx context.Context, actor *auth.Principal) ([]*auth.Principal, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE is_active = $1 OR $2 ORDER BY id`
	superuser := actor != nil && actor.IsSuperuser

	rows, err := s.db.QueryContext(ctx, query, true, superuser)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*auth.Principal, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUser applies a partial update to a principal. Only the principal
// itself or a superuser may update; the is_active/is_staff/is_superuser
// flags require a superuser even on the actor's own record, and a denied
// flag change leaves every field untouched.
func (s *Service) UpdateUser(ctx context.Context, actor *auth.Principal, id int64, input UpdateUserInput) (*auth.Principal, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !policy.CanActOnUser(actor, id) {
		return nil, policy.ErrPermissionDenied
	}

	flagsRequested := input.IsActive != nil || input.IsStaff != nil || input.IsSuperuser != nil
	if flagsRequested && !actor.IsSuperuser {
		return nil, policy.ErrPermissionDenied
	}

	if !isEmpty(input.FirstName) {
		u.FirstName = *input.FirstName
	}
	if !isEmpty(input.LastName) {
		u.LastName = *input.LastName
	}
	if !isEmpty(input.Email) {
		email := strings.TrimSpace(strings.ToLower(*input.Email))
		if email != u.Email {
			var exists bool
			err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND id != $2)`, email, u.ID).Scan(&exists)
			if err != nil {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
			if exists {
				return nil, ErrEmailTaken
			}
		}
		u.Email = email
	}
	if flagsRequested {
		if input.IsActive != nil {
			u.IsActive = *input.IsActive
		}
		if input.IsStaff != nil {
			u.IsStaff = *input.IsStaff
		}
		if input.IsSuperuser != nil {
			u.IsSuperuser = *input.IsSuperuser
		}
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE users
		SET email = $1, first_name = $2, last_name = $3, is_staff = $4, is_active = $5, is_superuser = $6
		WHERE id = $7
	`, u.Email, u.FirstName, u.LastName, u.IsStaff, u.IsActive, u.IsSuperuser, u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return u, nil
}

// DeleteUser deactivates a principal. Rows are never hard-deleted so every
// foreign key from owned locations and greenhouses stays valid; live API
// tokens are revoked in the same transaction.
func (s *Service) DeleteUser(ctx context.Context, actor *auth.Principal, id int64) error {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return ErrUserNotFound
	}

	if !policy.CanActOnUser(actor, id) {
		return policy.ErrPermissionDenied
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE users SET is_active = $1 WHERE id = $2`, false, id); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	if err := auth.RevokeUserTokens(ctx, tx, id); err != nil {
		return err
	}

	return tx.Commit()
}

// ChangePassword rotates a principal's password. The principal itself or a
// superuser may attempt it; the old password must verify, the confirmation
// must match, and the new password must differ from the old one.
func (s *Service) ChangePassword(ctx context.Context, actor *auth.Principal, id int64, oldPassword, newPassword, repeatPassword string) error {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	if !policy.CanActOnUser(actor, id) {
		return policy.ErrPermissionDenied
	}

	if err := auth.ValidatePasswordChange(u.PasswordHash, oldPassword, newPassword, repeatPassword); err != nil {
		return err
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, hash, id); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}
