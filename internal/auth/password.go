package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("no active account found with the given credentials")
	ErrUsernameExists     = errors.New("a user with that username already exists")

	ErrPasswordTooShort   = errors.New("password must contain at least 8 characters")
	ErrPasswordNumeric    = errors.New("password is entirely numeric")
	ErrPasswordCommon     = errors.New("password is too common")
	ErrPasswordLikeHandle = errors.New("password is too similar to the username")
)

// minPasswordLength mirrors the usual web-framework default.
const minPasswordLength = 8

var commonPasswords = map[string]bool{
	"password":  true,
	"password1": true,
	"12345678":  true,
	"123456789": true,
	"qwertyui":  true,
	"qwerty123": true,
	"iloveyou":  true,
	"letmein1":  true,
	"abcdefgh":  true,
	"11111111":  true,
}

// UserStorage defines the interface for user persistence operations.
// This allows the authenticator to be independent of the storage implementation.
type UserStorage interface {
	CreateUserWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// PasswordAuthenticator implements password-based authentication using bcrypt.
type PasswordAuthenticator struct {
	storage UserStorage
	cost    int
}

// NewPasswordAuthenticator creates a new password-based authenticator.
func NewPasswordAuthenticator(storage UserStorage) *PasswordAuthenticator {
	return &PasswordAuthenticator{
		storage: storage,
		cost:    bcrypt.DefaultCost,
	}
}

// WithCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (a *PasswordAuthenticator) WithCost(cost int) *PasswordAuthenticator {
	a.cost = cost
	return a
}

// ValidateCredential checks if the password meets minimum requirements.
func (a *PasswordAuthenticator) ValidateCredential(username, credential string) error {
	var errs []error
	if len(credential) < minPasswordLength {
		errs = append(errs, ErrPasswordTooShort)
	}
	if credential != "" && strings.IndexFunc(credential, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		errs = append(errs, ErrPasswordNumeric)
	}
	if commonPasswords[strings.ToLower(credential)] {
		errs = append(errs, ErrPasswordCommon)
	}
	if username != "" && strings.Contains(strings.ToLower(credential), strings.ToLower(username)) {
		errs = append(errs, ErrPasswordLikeHandle)
	}
	return errors.Join(errs...)
}

// Register creates a new user account with a hashed password and an empty profile.
// Both rows are written in one transaction, so a user never exists without its profile.
func (a *PasswordAuthenticator) Register(ctx context.Context, username, email, credential string) (*models.User, *models.Profile, error) {
	if err := a.ValidateCredential(username, credential); err != nil {
		return nil, nil, err
	}

	// Check if username already exists
	if _, err := a.storage.GetUserByUsername(ctx, username); err == nil {
		return nil, nil, ErrUsernameExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(credential), a.cost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.NewUser(username, email, string(hashedPassword))
	profile := models.NewProfile(user.ID)

	if err := a.storage.CreateUserWithProfile(ctx, user, profile); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, nil, ErrUsernameExists
		}
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, profile, nil
}

// Authenticate verifies the username and password, returning the user if valid.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, username, credential string) (*models.User, error) {
	user, err := a.storage.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}
