package service

import (
	"context"
	"fmt"

	"teamportal/internal/cache"
	"teamportal/internal/model"
	"teamportal/internal/repository"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// SessionService issues, resolves and revokes team session tokens.
// All writes hold the sessions lock; the token cache is only populated
// or invalidated while that lock is held.
type SessionService struct {
	db          *repository.DB
	cache       cache.SessionCache
	clock       clockwork.Clock
	newToken    func() string
	broadcaster Broadcaster
}

// NewSessionService creates a new session service
func NewSessionService(db *repository.DB, tokenCache cache.SessionCache, clock clockwork.Clock) *SessionService {
	return &SessionService{
		db:          db,
		cache:       tokenCache,
		clock:       clock,
		newToken:    uuid.NewString,
		broadcaster: noopBroadcaster{},
	}
}

// SetBroadcaster sets the broadcaster for session events
func (s *SessionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Issue creates a fresh session for teamCode and invalidates any earlier one
func (s *SessionService) Issue(ctx context.Context, teamCode string) (string, error) {
	s.db.Sessions.Lock()
	defer s.db.Sessions.Unlock()

	sessions, err := s.db.Sessions.Load(ctx)
	if err != nil {
		return "", err
	}
	kept, revoked := splitSessions(sessions, teamCode)

	token := s.uniqueToken(kept)
	kept = append(kept, model.Session{
		Token:     token,
		TeamCode:  teamCode,
		CreatedAt: s.clock.Now().UTC(),
	})

	// evict before persisting so a failed eviction leaves nothing half-done
	if err := s.cache.Delete(ctx, revoked...); err != nil {
		return "", fmt.Errorf("failed to evict cached sessions: %w", err)
	}
	if err := s.db.Sessions.Replace(ctx, kept); err != nil {
		return "", err
	}
	if err := s.cache.Set(ctx, token, teamCode); err != nil {
		log.Warn().Err(err).Str("team_code", teamCode).Msg("failed to cache session")
	}
	if len(revoked) > 0 {
		s.broadcaster.DisconnectTeam(teamCode)
	}

	log.Info().Str("team_code", teamCode).Int("replaced", len(revoked)).Msg("session issued")
	return token, nil
}

// Resolve returns the team code owning token
func (s *SessionService) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidSession
	}

	code, err := s.cache.Get(ctx, token)
	if err != nil {
		log.Warn().Err(err).Msg("session cache lookup failed")
	}
	if code != "" {
		return code, nil
	}

	s.db.Sessions.Lock()
	defer s.db.Sessions.Unlock()

	sessions, err := s.db.Sessions.Load(ctx)
	if err != nil {
		return "", err
	}
	for _, sess := range sessions {
		if sess.Token == token {
			if err := s.cache.Set(ctx, token, sess.TeamCode); err != nil {
				log.Warn().Err(err).Msg("failed to cache session")
			}
			return sess.TeamCode, nil
		}
	}
	return "", ErrInvalidSession
}

// Revoke removes every session of teamCode and returns how many were live.
// Revoking a team without sessions is a no-op.
func (s *SessionService) Revoke(ctx context.Context, teamCode string) (int, error) {
	s.db.Sessions.Lock()
	defer s.db.Sessions.Unlock()

	sessions, err := s.db.Sessions.Load(ctx)
	if err != nil {
		return 0, err
	}
	kept, revoked := splitSessions(sessions, teamCode)
	if len(revoked) == 0 {
		return 0, nil
	}

	if err := s.cache.Delete(ctx, revoked...); err != nil {
		return 0, fmt.Errorf("failed to evict cached sessions: %w", err)
	}
	if err := s.db.Sessions.Replace(ctx, kept); err != nil {
		return 0, err
	}

	s.broadcaster.DisconnectTeam(teamCode)
	s.broadcaster.BroadcastToAdmins(model.EventSessionRevoked, model.TeamEvent{TeamCode: teamCode})
	log.Info().Str("team_code", teamCode).Int("revoked", len(revoked)).Msg("sessions revoked")
	return len(revoked), nil
}

func (s *SessionService) uniqueToken(live []model.Session) string {
	for {
		token := s.newToken()
		taken := false
		for _, sess := range live {
			if sess.Token == token {
				taken = true
				break
			}
		}
		if !taken {
			return token
		}
	}
}

// splitSessions separates the sessions owned by teamCode from the rest
func splitSessions(sessions []model.Session, teamCode string) (kept []model.Session, revoked []string) {
	kept = make([]model.Session, 0, len(sessions)+1)
	for _, sess := range sessions {
		if sess.TeamCode == teamCode {
			revoked = append(revoked, sess.Token)
			continue
		}
		kept = append(kept, sess)
	}
	return kept, revoked
}
