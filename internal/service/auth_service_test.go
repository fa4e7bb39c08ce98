package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"teamportal/internal/cache"
	"teamportal/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createTeam(t, "T1")

	resp, err := env.auth.Login(ctx, "T1", "pass-T1", "10.0.0.1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !resp.Success || resp.Token == "" || resp.TeamName != "Team T1" {
		t.Errorf("response = %+v", resp)
	}

	code, err := env.auth.ResolveSession(ctx, resp.Token)
	if err != nil || code != "T1" {
		t.Errorf("ResolveSession = %q, %v", code, err)
	}

	logins, err := env.auth.RecentLogins(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(logins) != 1 || logins[0].TeamCode != "T1" || logins[0].IP != "10.0.0.1" {
		t.Errorf("login log = %+v", logins)
	}
	if !logins[0].Time.Equal(env.clock.Now()) {
		t.Errorf("login time = %v, want %v", logins[0].Time, env.clock.Now())
	}
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createTeam(t, "T1")

	tests := []struct {
		name           string
		code, passcode string
		want           error
	}{
		{"missing code", "", "x", ErrInvalidInput},
		{"missing passcode", "T1", "", ErrInvalidInput},
		{"unknown team", "ghost", "x", ErrInvalidCredentials},
		{"wrong passcode", "T1", "nope", ErrInvalidCredentials},
		{"case-sensitive code", "t1", "pass-T1", ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.auth.Login(ctx, tt.code, tt.passcode, ""); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoginLock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createTeam(t, "T1")
	token := env.login(t, "T1")

	if err := env.auth.SetLoginEnabled(ctx, false); err != nil {
		t.Fatal(err)
	}
	cfg, _ := env.auth.Settings(ctx)
	if cfg.LoginEnabled {
		t.Error("settings still report login enabled")
	}

	if _, err := env.auth.Login(ctx, "T1", "pass-T1", ""); !errors.Is(err, ErrLoginDisabled) {
		t.Errorf("Login while locked: got %v", err)
	}
	// locked login takes precedence over bad credentials
	if _, err := env.auth.Login(ctx, "T1", "wrong", ""); !errors.Is(err, ErrLoginDisabled) {
		t.Errorf("bad credentials while locked: got %v", err)
	}
	// existing sessions keep working
	if _, err := env.auth.ResolveSession(ctx, token); err != nil {
		t.Errorf("existing session rejected: %v", err)
	}
	if env.broadcaster.count(model.EventLoginLock) != 1 {
		t.Error("expected a login_lock event")
	}

	if err := env.auth.SetLoginEnabled(ctx, true); err != nil {
		t.Fatal(err)
	}
	env.login(t, "T1")
}

func TestConcurrentLoginSingleSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createTeam(t, "T1")

	const n = 20
	tokens := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := env.auth.Login(ctx, "T1", "pass-T1", "")
			if err != nil {
				t.Errorf("Login: %v", err)
				return
			}
			tokens <- resp.Token
		}()
	}
	wg.Wait()
	close(tokens)

	live := 0
	for token := range tokens {
		if _, err := env.auth.ResolveSession(ctx, token); err == nil {
			live++
		}
	}
	if live != 1 {
		t.Errorf("%d tokens resolve, want exactly 1", live)
	}

	sessions, err := env.db.Sessions.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 || sessions[0].TeamCode != "T1" {
		t.Errorf("sessions = %+v, want one for T1", sessions)
	}
}

// gatedChecker blocks inside Verify until released
type gatedChecker struct {
	PlaintextChecker
	entered chan struct{}
	proceed chan struct{}
}

func (c *gatedChecker) Verify(stored, given string) bool {
	c.entered <- struct{}{}
	<-c.proceed
	return c.PlaintextChecker.Verify(stored, given)
}

func TestLoginChecksPasscodeOutsideLocks(t *testing.T) {
	tests := []struct {
		name   string
		during func(ctx context.Context, env *testEnv) error
		want   error
	}{
		{"untouched", func(context.Context, *testEnv) error { return nil }, nil},
		{"team disabled", func(ctx context.Context, env *testEnv) error {
			return env.teams.SetActive(ctx, "T1", false)
		}, ErrTeamDisabled},
		{"login locked", func(ctx context.Context, env *testEnv) error {
			return env.auth.SetLoginEnabled(ctx, false)
		}, ErrLoginDisabled},
		{"team deleted", func(ctx context.Context, env *testEnv) error {
			return env.teams.Delete(ctx, "T1")
		}, ErrInvalidCredentials},
		{"team recreated", func(ctx context.Context, env *testEnv) error {
			if err := env.teams.Delete(ctx, "T1"); err != nil {
				return err
			}
			_, err := env.teams.Create(ctx, "Other", "T1", "other-pass")
			return err
		}, ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			env.createTeam(t, "T1")
			env.createTeam(t, "T2")

			checker := &gatedChecker{entered: make(chan struct{}), proceed: make(chan struct{})}
			auth := NewAuthService(env.db, env.sessions, checker, cache.NewMemoryLoginLog(10), env.clock, AuthConfig{})

			result := make(chan error, 1)
			go func() {
				_, err := auth.Login(ctx, "T1", "pass-T1", "")
				result <- err
			}()
			<-checker.entered

			// other teams and admin writes proceed while the check is pending
			done := make(chan error, 1)
			go func() {
				if _, err := env.allocations.Spin(ctx, "T2"); err != nil {
					done <- err
					return
				}
				done <- tt.during(ctx, env)
			}()
			select {
			case err := <-done:
				if err != nil {
					t.Fatalf("write during passcode check: %v", err)
				}
			case <-time.After(5 * time.Second):
				close(checker.proceed)
				t.Fatal("writes blocked behind the passcode check")
			}

			close(checker.proceed)
			if err := <-result; !errors.Is(err, tt.want) {
				t.Errorf("Login = %v, want %v", err, tt.want)
			}

			sessions, _ := env.db.Sessions.Read(ctx)
			wantSessions := 0
			if tt.want == nil {
				wantSessions = 1
			}
			if len(sessions) != wantSessions {
				t.Errorf("sessions = %+v, want %d", sessions, wantSessions)
			}
		})
	}
}

func TestAdminTier(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		user, pass string
		want       model.AdminTier
	}{
		{"admin", "pw", model.TierAdmin},
		{"root", "superpw", model.TierSuper},
		{"admin", "superpw", model.TierNone},
		{"root", "pw", model.TierNone},
		{"", "", model.TierNone},
	}
	for _, tt := range tests {
		if got := env.auth.AdminTier(tt.user, tt.pass); got != tt.want {
			t.Errorf("AdminTier(%q, %q) = %v, want %v", tt.user, tt.pass, got, tt.want)
		}
	}

	unset := NewAuthService(env.db, env.sessions, PlaintextChecker{}, nil, env.clock, AuthConfig{
		Admin: AdminCredentials{Username: "admin", Password: "pw"},
		Super: AdminCredentials{Username: "root"},
	})
	if got := unset.AdminTier("root", ""); got != model.TierNone {
		t.Errorf("unset elevated password matched: %v", got)
	}
}

func TestTickets(t *testing.T) {
	env := newTestEnv(t)

	ticket, err := env.auth.IssueTicket(model.TierSuper)
	if err != nil {
		t.Fatalf("IssueTicket: %v", err)
	}
	tier, err := env.auth.ValidateTicket(ticket)
	if err != nil || tier != model.TierSuper {
		t.Errorf("ValidateTicket = %v, %v", tier, err)
	}

	env.clock.Advance(2 * time.Minute)
	if _, err := env.auth.ValidateTicket(ticket); !errors.Is(err, ErrInvalidTicket) {
		t.Errorf("expired ticket: got %v", err)
	}

	if _, err := env.auth.IssueTicket(model.TierNone); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("IssueTicket(TierNone): got %v", err)
	}
	if _, err := env.auth.ValidateTicket("garbage"); !errors.Is(err, ErrInvalidTicket) {
		t.Errorf("garbage ticket: got %v", err)
	}
}

func TestTicketRejectsForeignSignature(t *testing.T) {
	env := newTestEnv(t)
	now := env.clock.Now()

	claims := &model.TicketClaims{
		Tier: "super",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.auth.ValidateTicket(forged); !errors.Is(err, ErrInvalidTicket) {
		t.Errorf("forged ticket: got %v", err)
	}

	noExp := &model.TicketClaims{Tier: "super"}
	unbounded, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, noExp).SignedString([]byte("test-secret"))
	if _, err := env.auth.ValidateTicket(unbounded); !errors.Is(err, ErrInvalidTicket) {
		t.Errorf("ticket without expiry: got %v", err)
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrProblemFull, "PROBLEM_FULL"},
		{InvalidInput("x"), "INVALID_INPUT"},
		{errors.New("plain"), ""},
	}
	for _, tt := range tests {
		if got := ErrorCode(tt.err); got != tt.want {
			t.Errorf("ErrorCode(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestCredentialCheckers(t *testing.T) {
	for _, mode := range []string{"plain", "bcrypt"} {
		t.Run(mode, func(t *testing.T) {
			c, err := NewCredentialChecker(mode)
			if err != nil {
				t.Fatal(err)
			}
			if b, ok := c.(BcryptChecker); ok {
				b.Cost = 4
				c = b
			}
			stored, err := c.Hash("hunter2")
			if err != nil {
				t.Fatal(err)
			}
			if !c.Verify(stored, "hunter2") {
				t.Error("correct passcode rejected")
			}
			if c.Verify(stored, "hunter3") {
				t.Error("wrong passcode accepted")
			}
		})
	}
	if _, err := NewCredentialChecker("rot13"); err == nil {
		t.Error("unknown mode accepted")
	}
}
