package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Password validation failures surfaced by the change-password operation.
// Each condition has a distinct user-facing message.
var (
	ErrIncorrectOldPassword = errors.New("Incorrect old password")
	ErrPasswordMismatch     = errors.New("Passwords are not the same")
	ErrPasswordReused       = errors.New("You must enter a new password")
)

// HashPassword hashes a plaintext password with bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether a plaintext password matches a stored hash
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePasswordChange enforces the change-password rules against the
// current stored hash. It checks the old password before anything else so a
// caller holding a stale hash never learns whether the new password differs.
func ValidatePasswordChange(currentHash, oldPassword, newPassword, repeatPassword string) error {
	if !CheckPassword(currentHash, oldPassword) {
		return ErrIncorrectOldPassword
	}
	if newPassword != repeatPassword {
		return ErrPasswordMismatch
	}
	if oldPassword == newPassword {
		return ErrPasswordReused
	}
	return nil
}
