package repository

import (
	"context"
	"sync"
	"time"

	"github.com/stopwatch-io/stopwatch-ce/internal/models"
)

// MemoryTimerStore pairs the record mutation and the session pointer
// mutation under one lock, mirroring the SQL store's transaction.
type MemoryTimerStore struct {
	mu       sync.Mutex
	sessions *MemorySessionRepository
	records  *MemoryTimeRecordRepository
}

func NewMemoryTimerStore(sessions *MemorySessionRepository, records *MemoryTimeRecordRepository) *MemoryTimerStore {
	return &MemoryTimerStore{sessions: sessions, records: records}
}

func (s *MemoryTimerStore) StartTiming(_ context.Context, sessionID, actionItemID, projectID, phaseID int64, now time.Time) (*models.TimeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions.get(sessionID)
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	if sess.TimeRecordID != nil {
		return nil, models.ErrAlreadyTiming
	}
	rec := s.records.insertOpen(actionItemID, projectID, phaseID, now)
	id := rec.ID
	sess.TimeRecordID = &id
	return rec, nil
}

func (s *MemoryTimerStore) StopTiming(_ context.Context, sessionID int64, now time.Time) (*models.TimeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions.get(sessionID)
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	if sess.TimeRecordID == nil {
		return nil, models.ErrNotCurrentlyTiming
	}
	rec, ok := s.records.close(*sess.TimeRecordID, now)
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	sess.TimeRecordID = nil
	return rec, nil
}
