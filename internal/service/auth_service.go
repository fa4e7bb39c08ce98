package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"teamportal/internal/cache"
	"teamportal/internal/model"
	"teamportal/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// AdminCredentials is one Basic-auth username/password pair
type AdminCredentials struct {
	Username string
	Password string
}

// AuthConfig holds administrative credentials and ticket signing settings
type AuthConfig struct {
	Admin        AdminCredentials
	Super        AdminCredentials
	TicketSecret []byte
	TicketTTL    time.Duration
}

// AuthService handles team login, the global login lock and admin
// authentication
type AuthService struct {
	db          *repository.DB
	sessions    *SessionService
	creds       CredentialChecker
	loginLog    cache.LoginLog
	clock       clockwork.Clock
	cfg         AuthConfig
	broadcaster Broadcaster
}

// NewAuthService creates a new auth service
func NewAuthService(
	db *repository.DB,
	sessions *SessionService,
	creds CredentialChecker,
	loginLog cache.LoginLog,
	clock clockwork.Clock,
	cfg AuthConfig,
) *AuthService {
	if cfg.TicketTTL == 0 {
		cfg.TicketTTL = time.Minute
	}
	return &AuthService{
		db:          db,
		sessions:    sessions,
		creds:       creds,
		loginLog:    loginLog,
		clock:       clock,
		cfg:         cfg,
		broadcaster: noopBroadcaster{},
	}
}

// SetBroadcaster sets the broadcaster for login lock events
func (s *AuthService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Login validates team credentials and issues a new session, replacing any
// previous one. The passcode check runs without holding any collection
// lock. Issuance re-checks the lock switch and the team under the config
// and teams locks, so a lock flip or disable that lands during the check
// still wins.
func (s *AuthService) Login(ctx context.Context, teamCode, passcode, ip string) (*model.LoginResponse, error) {
	if teamCode == "" || passcode == "" {
		return nil, InvalidInput("missing credentials")
	}

	stored, err := s.storedPasscode(ctx, teamCode)
	if err != nil {
		return nil, err
	}
	if !s.creds.Verify(stored, passcode) {
		return nil, ErrInvalidCredentials
	}

	release := repository.Acquire(s.db.Config, s.db.Teams)
	defer release()

	team, err := s.loginTarget(ctx, teamCode)
	if err != nil {
		return nil, err
	}
	if team.Passcode != stored {
		return nil, ErrInvalidCredentials
	}
	if !team.Active {
		return nil, ErrTeamDisabled
	}

	token, err := s.sessions.Issue(ctx, teamCode)
	if err != nil {
		return nil, err
	}

	event := &model.LoginEvent{
		ID:       uuid.NewString(),
		TeamCode: teamCode,
		Time:     s.clock.Now().UTC(),
		IP:       ip,
	}
	if err := s.loginLog.Append(ctx, event); err != nil {
		log.Warn().Err(err).Str("team_code", teamCode).Msg("failed to record login")
	}

	return &model.LoginResponse{
		Success:  true,
		Token:    token,
		TeamName: team.TeamName,
	}, nil
}

// storedPasscode returns the stored passcode form of teamCode
func (s *AuthService) storedPasscode(ctx context.Context, teamCode string) (string, error) {
	release := repository.Acquire(s.db.Config, s.db.Teams)
	defer release()

	team, err := s.loginTarget(ctx, teamCode)
	if err != nil {
		return "", err
	}
	return team.Passcode, nil
}

// loginTarget checks the login switch and finds the team. Callers hold
// the config and teams locks.
func (s *AuthService) loginTarget(ctx context.Context, teamCode string) (*model.Team, error) {
	cfg, err := s.db.Config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !cfg.LoginEnabled {
		return nil, ErrLoginDisabled
	}

	teams, err := s.db.Teams.Load(ctx)
	if err != nil {
		return nil, err
	}
	i := model.FindTeam(teams, teamCode)
	if i < 0 {
		return nil, ErrInvalidCredentials
	}
	return &teams[i], nil
}

// RecentLogins returns the newest login audit entries
func (s *AuthService) RecentLogins(ctx context.Context, limit int) ([]model.LoginEvent, error) {
	return s.loginLog.Recent(ctx, limit)
}

// Settings returns the global config
func (s *AuthService) Settings(ctx context.Context) (model.GlobalConfig, error) {
	return s.db.Config.Read(ctx)
}

// SetLoginEnabled flips the global login switch. Existing sessions stay valid.
func (s *AuthService) SetLoginEnabled(ctx context.Context, enabled bool) error {
	s.db.Config.Lock()
	defer s.db.Config.Unlock()

	cfg, err := s.db.Config.Load(ctx)
	if err != nil {
		return err
	}
	cfg.LoginEnabled = enabled
	if err := s.db.Config.Replace(ctx, cfg); err != nil {
		return err
	}

	log.Info().Bool("login_enabled", enabled).Msg("login lock changed")
	s.broadcaster.BroadcastToAdmins(model.EventLoginLock, model.LoginLockEvent{LoginEnabled: enabled})
	return nil
}

// AdminTier returns the privilege tier matching the Basic-auth pair.
// The elevated pair is checked first; unset pairs never match.
func (s *AuthService) AdminTier(username, password string) model.AdminTier {
	if matches(s.cfg.Super, username, password) {
		return model.TierSuper
	}
	if matches(s.cfg.Admin, username, password) {
		return model.TierAdmin
	}
	return model.TierNone
}

func matches(c AdminCredentials, username, password string) bool {
	if c.Username == "" || c.Password == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(c.Username), []byte(username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(c.Password), []byte(password)) == 1
	return userOK && passOK
}

// IssueTicket creates a short-lived token that lets an administrator open
// the event websocket, where Basic auth headers cannot be sent
func (s *AuthService) IssueTicket(tier model.AdminTier) (string, error) {
	if tier == model.TierNone {
		return "", ErrUnauthorized
	}
	now := s.clock.Now()
	claims := &model.TicketClaims{
		Tier: tier.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TicketTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.cfg.TicketSecret)
}

// ValidateTicket checks a websocket ticket and returns its tier
func (s *AuthService) ValidateTicket(tokenString string) (model.AdminTier, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.TicketClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.cfg.TicketSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return model.TierNone, ErrInvalidTicket
	}

	claims, ok := token.Claims.(*model.TicketClaims)
	if !ok || !token.Valid {
		return model.TierNone, ErrInvalidTicket
	}
	switch claims.Tier {
	case model.TierSuper.String():
		return model.TierSuper, nil
	case model.TierAdmin.String():
		return model.TierAdmin, nil
	}
	return model.TierNone, ErrInvalidTicket
}

// ResolveSession is a convenience passthrough used by the gateway
func (s *AuthService) ResolveSession(ctx context.Context, token string) (string, error) {
	code, err := s.sessions.Resolve(ctx, token)
	if err != nil && !errors.Is(err, ErrUnauthorized) {
		log.Error().Err(err).Msg("session lookup failed")
	}
	return code, err
}
