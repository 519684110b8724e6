// Package auth handles login, logout and initial credentials.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/stopwatch-io/stopwatch-ce/internal/clock"
	"github.com/stopwatch-io/stopwatch-ce/internal/models"
	"github.com/stopwatch-io/stopwatch-ce/internal/repository"
)

// UserReader is the user lookup auth needs.
type UserReader interface {
	GetByName(ctx context.Context, name string) (*models.User, error)
}

// PermissionReader lists the URLs the navigation layer may show a user.
type PermissionReader interface {
	URLsForUser(ctx context.Context, userID int64) ([]string, error)
}

type Service struct {
	users       UserReader
	sessions    repository.SessionRepository
	permissions PermissionReader
	store       repository.TimerStore
	clk         *clock.Converter
}

func NewService(users UserReader, sessions repository.SessionRepository, permissions PermissionReader, store repository.TimerStore, clk *clock.Converter) *Service {
	return &Service{users: users, sessions: sessions, permissions: permissions, store: store, clk: clk}
}

// LoginResult carries the fresh session and the user's permitted URLs.
type LoginResult struct {
	Session *models.OnlineSession
	User    *models.User
	URLs    []string
}

// Login verifies credentials and creates the online session. Unknown
// name, wrong password and archived account all collapse into
// ErrInvalidCredentials so the response leaks nothing.
func (s *Service) Login(ctx context.Context, name, password string) (*LoginResult, error) {
	user, err := s.users.GetByName(ctx, name)
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.CheckPassword(password) || user.IsArchived() {
		return nil, models.ErrInvalidCredentials
	}

	// One session per user: a leftover row from a lost cookie or crashed
	// browser is replaced, not a reason to refuse login. Its open
	// interval is stopped first so the pairing is unwound like a logout.
	existing, err := s.sessions.GetByUserID(ctx, user.ID)
	switch {
	case errors.Is(err, models.ErrSessionNotFound):
	case err != nil:
		return nil, fmt.Errorf("failed to look up existing session: %w", err)
	default:
		if existing.IsTiming() {
			if _, err := s.store.StopTiming(ctx, existing.ID, s.clk.Now()); err != nil {
				return nil, fmt.Errorf("failed to stop stale timer: %w", err)
			}
		}
		if err := s.sessions.Delete(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("failed to replace session: %w", err)
		}
	}

	session := &models.OnlineSession{
		UserID:     user.ID,
		Token:      uuid.NewString(),
		CreateTime: s.clk.Now(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	urls, err := s.permissions.URLsForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load permissions: %w", err)
	}
	return &LoginResult{Session: session, User: user, URLs: urls}, nil
}
