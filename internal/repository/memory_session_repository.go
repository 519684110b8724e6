package repository

import (
	"context"
	"sync"
	"time"

	"github.com/stopwatch-io/stopwatch-ce/internal/models"
)

// MemorySessionRepository is the in-memory double used by service tests.
type MemorySessionRepository struct {
	mu       sync.Mutex
	sessions map[int64]*models.OnlineSession
	nextID   int64
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[int64]*models.OnlineSession), nextID: 1}
}

func (r *MemorySessionRepository) Create(_ context.Context, s *models.OnlineSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.sessions {
		if existing.UserID == s.UserID {
			return &models.ValidationError{Field: "user_id", Reason: "user already has a session"}
		}
	}
	s.ID = r.nextID
	r.nextID++
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *MemorySessionRepository) GetByToken(_ context.Context, token string) (*models.OnlineSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.Token == token {
			cp := *s
			return &cp, nil
		}
	}
	return nil, models.ErrSessionNotFound
}

func (r *MemorySessionRepository) GetByUserID(_ context.Context, userID int64) (*models.OnlineSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.UserID == userID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, models.ErrSessionNotFound
}

func (r *MemorySessionRepository) SetViewingProject(_ context.Context, sessionID int64, projectID *int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return models.ErrSessionNotFound
	}
	s.ViewingProjectID = projectID
	return nil
}

func (r *MemorySessionRepository) Delete(_ context.Context, sessionID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[sessionID]; !ok {
		return models.ErrSessionNotFound
	}
	delete(r.sessions, sessionID)
	return nil
}

func (r *MemorySessionRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.sessions {
		if s.CreateTime.Before(cutoff) && s.TimeRecordID == nil {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

// get returns the live session row; the timer store uses it under its
// own lock.
func (r *MemorySessionRepository) get(sessionID int64) (*models.OnlineSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	return s, ok
}
