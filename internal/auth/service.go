package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/crypto/bcrypt"

	"finova/internal/storage"
)

const minPasswordLength = 6

// UserStore is the identity persistence the service needs.
type UserStore interface {
	CreateUser(ctx context.Context, email string, passwordHash []byte) (storage.User, error)
	GetUserByEmail(ctx context.Context, email string) (storage.User, error)
	GetUserByID(ctx context.Context, id int64) (storage.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash []byte) error
	UpdateLastLogin(ctx context.Context, id int64) error
}

// Session is a successful sign-in or registration result.
type Session struct {
	Token     string
	UserID    int64
	Email     string
	ExpiresAt time.Time
}

// Service issues and verifies sessions. Revoked token ids live in an
// in-process cache with a TTL matching the token's remaining validity,
// so the revocation list cleans itself up.
type Service struct {
	store    UserStore
	secret   []byte
	tokenTTL time.Duration
	revoked  *ristretto.Cache[string, struct{}]
}

func NewService(store UserStore, secret []byte, tokenTTL time.Duration) (*Service, error) {
	revoked, err := ristretto.NewCache(&ristretto.Config[string, struct{}]{
		NumCounters: 10000,
		MaxCost:     10000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("init revocation cache: %w", err)
	}
	return &Service{
		store:    store,
		secret:   secret,
		tokenTTL: tokenTTL,
		revoked:  revoked,
	}, nil
}

func (s *Service) Close() {
	s.revoked.Close()
}

// Register creates an account and signs the new user in.
func (s *Service) Register(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return Session{}, newError(CodeInvalidEmail)
	}
	if len(password) < minPasswordLength {
		return Session{}, newError(CodeWeakPassword)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, email, hash)
	if err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			return Session{}, newError(CodeEmailInUse)
		}
		return Session{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "user_id", user.ID)
	return s.startSession(user)
}

// Login verifies the credentials and signs the user in.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Session{}, newError(CodeUserNotFound)
		}
		return Session{}, fmt.Errorf("look up user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return Session{}, newError(CodeWrongPassword)
	}
	if err := s.store.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.WarnContext(ctx, "Failed to record last login", "user_id", user.ID, "error", err)
	}
	slog.InfoContext(ctx, "User logged in", "user_id", user.ID)
	return s.startSession(user)
}

// ChangePassword re-authenticates with the current password before
// accepting the new one.
func (s *Service) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return newError(CodeUserNotFound)
		}
		return fmt.Errorf("look up user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(current)); err != nil {
		return newError(CodeWrongPassword)
	}
	if len(next) < minPasswordLength {
		return newError(CodeWeakPassword)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	slog.InfoContext(ctx, "Password changed", "user_id", userID)
	return nil
}

// Logout revokes the session's token id for the remainder of its
// validity. Other sessions of the same user stay signed in.
func (s *Service) Logout(ctx context.Context, claims Claims) {
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return
	}
	s.revoked.SetWithTTL(claims.ID, struct{}{}, 1, ttl)
	// Revocation must be visible to the next request, not eventually.
	s.revoked.Wait()
	slog.InfoContext(ctx, "Session revoked", "user_id", claims.UserID)
}

// Profile returns the account for an authenticated user id.
func (s *Service) Profile(ctx context.Context, userID int64) (storage.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.User{}, newError(CodeUserNotFound)
		}
		return storage.User{}, fmt.Errorf("look up user: %w", err)
	}
	return user, nil
}

func (s *Service) startSession(user storage.User) (Session, error) {
	token, claims, err := s.signToken(user.ID, user.Email, time.Now())
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     token,
		UserID:    user.ID,
		Email:     user.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
