package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/clinic-portal/internal/persistence"
)

func (s *Store) loadSessions(ctx context.Context) ([]persistence.Session, error) {
	raw, err := s.getRecord(ctx, keySessions)
	if errors.Is(err, persistence.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var sessions []persistence.Session
	if err := json.Unmarshal(raw, &sessions); err != nil {
		return nil, fmt.Errorf("localstore: decode sessions: %w", err)
	}
	return sessions, nil
}

func (s *Store) storeSessions(ctx context.Context, sessions []persistence.Session) error {
	raw, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("localstore: encode sessions: %w", err)
	}
	return s.putRecord(ctx, keySessions, raw)
}

// CreateSession stores a newly issued session.
func (s *Store) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.loadSessions(ctx)
	if err != nil {
		return persistence.Session{}, err
	}
	for _, existing := range sessions {
		if existing.Token == session.Token {
			return persistence.Session{}, persistence.ErrDuplicate
		}
	}

	if err := s.storeSessions(ctx, append(sessions, session)); err != nil {
		return persistence.Session{}, err
	}
	return session, nil
}

// GetSession retrieves a session by token.
func (s *Store) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.loadSessions(ctx)
	if err != nil {
		return persistence.Session{}, err
	}
	for _, session := range sessions {
		if session.Token == token {
			return session, nil
		}
	}
	return persistence.Session{}, persistence.ErrNotFound
}

// RevokeSession marks a session revoked at the given instant.
func (s *Store) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.loadSessions(ctx)
	if err != nil {
		return persistence.Session{}, err
	}
	for i, session := range sessions {
		if session.Token == token {
			at := revokedAt
			sessions[i].RevokedAt = &at
			if err := s.storeSessions(ctx, sessions); err != nil {
				return persistence.Session{}, err
			}
			return sessions[i], nil
		}
	}
	return persistence.Session{}, persistence.ErrNotFound
}

// DeleteExpiredSessions prunes sessions whose expiry is at or before the
// reference instant.
func (s *Store) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.loadSessions(ctx)
	if err != nil {
		return err
	}

	kept := make([]persistence.Session, 0, len(sessions))
	for _, session := range sessions {
		if session.ExpiresAt.After(reference) {
			kept = append(kept, session)
		}
	}
	if len(kept) == len(sessions) {
		return nil
	}
	return s.storeSessions(ctx, kept)
}
