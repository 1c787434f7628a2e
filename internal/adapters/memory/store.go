// Package memory is an in-process implementation of the repository ports.
// It backs DATABASE_URL=memory for local runs and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"labelcheck/internal/domain"
	"labelcheck/internal/ports"
)

type Store struct {
	mu       sync.Mutex
	nextUser int64
	nextRep  int64
	users    map[int64]domain.User
	sessions map[string]domain.Session
	reports  map[string]domain.SavedReport
}

var (
	_ ports.UserRepository    = (*Store)(nil)
	_ ports.SessionRepository = (*Store)(nil)
	_ ports.ReportRepository  = (*Store)(nil)
	_ ports.SessionPurger     = (*Store)(nil)
)

func New() *Store {
	return &Store{
		users:    map[int64]domain.User{},
		sessions: map[string]domain.Session{},
		reports:  map[string]domain.SavedReport{},
	}
}

func (s *Store) CreateUser(_ context.Context, u domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return domain.User{}, domain.ErrEmailAlreadyRegistered
		}
	}
	s.nextUser++
	u.ID = s.nextUser
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (s *Store) GetUserByID(_ context.Context, id int64) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (s *Store) CreateSession(_ context.Context, sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

func (s *Store) GetSession(_ context.Context, id string) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrNotFound
	}
	return sess, nil
}

func (s *Store) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *Store) PurgeExpiredSessions(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, sess := range s.sessions {
		if sess.ExpiresAt.Before(before) {
			delete(s.sessions, k)
			n++
		}
	}
	return n, nil
}

func (s *Store) InsertReport(_ context.Context, r domain.SavedReport) (domain.SavedReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[r.OwnerID]; !ok {
		return domain.SavedReport{}, domain.ErrNotFound
	}
	s.nextRep++
	r.ID = s.nextRep
	s.reports[r.ExternalID] = r
	return r, nil
}

func (s *Store) ListReports(_ context.Context, ownerID int64, limit int) ([]domain.SavedReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.SavedReport{}
	for _, r := range s.reports {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) GetReport(_ context.Context, ownerID int64, externalID string) (domain.SavedReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[externalID]
	if !ok || r.OwnerID != ownerID {
		return domain.SavedReport{}, domain.ErrNotFound
	}
	return r, nil
}

func (s *Store) DeleteReport(_ context.Context, ownerID int64, externalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[externalID]
	if !ok || r.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	delete(s.reports, externalID)
	return nil
}
