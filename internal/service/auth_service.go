package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
)

const (
	maxUsernameLen = 150
	maxEmailLen    = 254
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// AuthService handles registration and the token lifecycle.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	revoked       auth.RevocationList
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, revoked auth.RevocationList, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		revoked:       revoked,
		logger:        logger,
	}
}

// Register creates a new user account together with its profile.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, *models.Profile, error) {
	s.logger.Info("Register request", "username", username)

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	// Validate input
	fe := fieldErrors{}
	switch {
	case username == "":
		fe.add("username", "This field is required.")
	case utf8.RuneCountInString(username) > maxUsernameLen:
		fe.add("username", "Ensure this field has no more than 150 characters.")
	case !usernamePattern.MatchString(username):
		fe.add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}
	if email != "" {
		if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email || len(email) > maxEmailLen {
			fe.add("email", "Enter a valid email address.")
		}
	}
	if password == "" {
		fe.add("password", "This field is required.")
	} else if err := s.authenticator.ValidateCredential(username, password); err != nil {
		for _, e := range unjoin(err) {
			fe.add("password", passwordMessage(e))
		}
	}
	if err := fe.err(); err != nil {
		metrics.RecordAuthEvent("register", false)
		return nil, nil, err
	}

	// Register user
	user, profile, err := s.authenticator.Register(ctx, username, email, password)
	if err != nil {
		metrics.RecordAuthEvent("register", false)
		if errors.Is(err, auth.ErrUsernameExists) {
			s.logger.Warn("Registration rejected", "username", username, "error", err)
			return nil, nil, validationError(map[string][]string{
				"username": {"A user with that username already exists."},
			})
		}
		s.logger.Error("Registration failed", "username", username, "error", err)
		return nil, nil, internalError(err)
	}

	metrics.RecordAuthEvent("register", true)
	s.logger.Info("User registered successfully", "user_id", user.ID, "profile_id", profile.ID)
	return user, profile, nil
}

// Login authenticates a user and returns an access and refresh token.
func (s *AuthService) Login(ctx context.Context, username, password string) (auth.TokenPair, error) {
	s.logger.Info("Login request", "username", username)

	if username == "" || password == "" {
		fe := fieldErrors{}
		if username == "" {
			fe.add("username", "This field is required.")
		}
		if password == "" {
			fe.add("password", "This field is required.")
		}
		return auth.TokenPair{}, fe.err()
	}

	user, err := s.authenticator.Authenticate(ctx, username, password)
	if err != nil {
		metrics.RecordAuthEvent("login", false)
		s.logger.Warn("Login failed", "username", username, "error", err)
		return auth.TokenPair{}, &Error{Kind: KindUnauthenticated, Detail: "No active account found with the given credentials", Err: err}
	}

	pair, err := s.jwtManager.GeneratePair(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return auth.TokenPair{}, internalError(err)
	}

	metrics.RecordAuthEvent("login", true)
	s.logger.Info("User logged in successfully", "user_id", user.ID)
	return pair, nil
}

// Refresh exchanges a valid, unrevoked refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", validationError(map[string][]string{"refresh": {"This field is required."}})
	}

	claims, err := s.activeRefresh(ctx, refreshToken)
	if err != nil && !isTokenError(err) {
		s.logger.Error("Refresh failed", "error", err)
		return "", internalError(err)
	}
	if err != nil {
		metrics.RecordAuthEvent("refresh", false)
		return "", &Error{Kind: KindUnauthenticated, Detail: tokenDetail(err), Err: err}
	}

	access, err := s.jwtManager.GenerateAccess(claims)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", claims.UserID, "error", err)
		return "", internalError(err)
	}

	metrics.RecordAuthEvent("refresh", true)
	return access, nil
}

// Logout revokes the caller's refresh token until it expires.
func (s *AuthService) Logout(ctx context.Context, userID, refreshToken string) error {
	if refreshToken == "" {
		return validationError(map[string][]string{"refresh": {"This field is required."}})
	}

	claims, err := s.activeRefresh(ctx, refreshToken)
	if err != nil && !isTokenError(err) {
		s.logger.Error("Logout failed", "user_id", userID, "error", err)
		return internalError(err)
	}
	if err == nil && claims.UserID != userID {
		err = auth.ErrInvalidToken
	}
	if err != nil {
		metrics.RecordAuthEvent("logout", false)
		s.logger.Warn("Logout rejected", "user_id", userID, "error", err)
		return &Error{Kind: KindValidation, Detail: tokenDetail(err), Err: err}
	}

	if err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		s.logger.Error("Failed to revoke token", "user_id", userID, "error", err)
		return internalError(err)
	}

	metrics.RecordAuthEvent("logout", true)
	s.logger.Info("User logged out", "user_id", userID)
	return nil
}

func (s *AuthService) activeRefresh(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.jwtManager.Validate(token, auth.RefreshToken)
	if err != nil {
		return nil, err
	}
	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, auth.ErrRevokedToken
	}
	return claims, nil
}

func isTokenError(err error) bool {
	return errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrRevokedToken)
}

func tokenDetail(err error) string {
	if errors.Is(err, auth.ErrRevokedToken) {
		return "Token is blacklisted"
	}
	return "Token is invalid or expired"
}

func passwordMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrPasswordTooShort):
		return "This password is too short. It must contain at least 8 characters."
	case errors.Is(err, auth.ErrPasswordNumeric):
		return "This password is entirely numeric."
	case errors.Is(err, auth.ErrPasswordCommon):
		return "This password is too common."
	case errors.Is(err, auth.ErrPasswordLikeHandle):
		return "The password is too similar to the username."
	default:
		return err.Error()
	}
}

// unjoin splits an errors.Join result into its parts.
func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
