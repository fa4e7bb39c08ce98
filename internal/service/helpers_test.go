package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"teamportal/internal/cache"
	"teamportal/internal/model"
	"teamportal/internal/repository"

	"github.com/jonboulle/clockwork"
)

type recordedEvent struct {
	target  string
	msgType string
	payload interface{}
}

type recordingBroadcaster struct {
	mu           sync.Mutex
	events       []recordedEvent
	disconnected []string
}

func (b *recordingBroadcaster) BroadcastToAdmins(msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{"admins", msgType, payload})
}

func (b *recordingBroadcaster) BroadcastToTeams(msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{"teams", msgType, payload})
}

func (b *recordingBroadcaster) DisconnectTeam(teamCode string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disconnected = append(b.disconnected, teamCode)
}

func (b *recordingBroadcaster) count(msgType string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e.msgType == msgType {
			n++
		}
	}
	return n
}

// faultyStore fails Replace for one collection while armed
type faultyStore struct {
	repository.Store
	mu     sync.Mutex
	failOn string
}

var errInjected = errors.New("injected write failure")

func (s *faultyStore) arm(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn = name
}

func (s *faultyStore) Replace(ctx context.Context, name string, expected int64, data []byte) (int64, error) {
	s.mu.Lock()
	fail := s.failOn == name
	s.mu.Unlock()
	if fail {
		return 0, errInjected
	}
	return s.Store.Replace(ctx, name, expected, data)
}

type testEnv struct {
	db          *repository.DB
	store       *faultyStore
	clock       *clockwork.FakeClock
	broadcaster *recordingBroadcaster
	sessions    *SessionService
	teams       *TeamService
	allocations *AllocationService
	auth        *AuthService
}

func newTestEnv(t *testing.T, catalog ...model.Problem) *testEnv {
	t.Helper()
	ctx := context.Background()

	store := &faultyStore{Store: repository.NewMemoryStore()}
	db := repository.NewDB(store)
	if err := db.Bootstrap(ctx, catalog); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	b := &recordingBroadcaster{}
	creds := PlaintextChecker{}

	env := &testEnv{db: db, store: store, clock: clock, broadcaster: b}
	env.sessions = NewSessionService(db, cache.NewNoopSessionCache(), clock)
	env.teams = NewTeamService(db, env.sessions, creds)
	env.allocations = NewAllocationService(db, nil)
	env.auth = NewAuthService(db, env.sessions, creds, cache.NewMemoryLoginLog(100), clock, AuthConfig{
		Admin:        AdminCredentials{Username: "admin", Password: "pw"},
		Super:        AdminCredentials{Username: "root", Password: "superpw"},
		TicketSecret: []byte("test-secret"),
		TicketTTL:    time.Minute,
	})

	env.sessions.SetBroadcaster(b)
	env.teams.SetBroadcaster(b)
	env.allocations.SetBroadcaster(b)
	env.auth.SetBroadcaster(b)
	return env
}

func (e *testEnv) createTeam(t *testing.T, code string) {
	t.Helper()
	if _, err := e.teams.Create(context.Background(), "Team "+code, code, "pass-"+code); err != nil {
		t.Fatalf("Create(%s): %v", code, err)
	}
}

func (e *testEnv) login(t *testing.T, code string) string {
	t.Helper()
	resp, err := e.auth.Login(context.Background(), code, "pass-"+code, "127.0.0.1")
	if err != nil {
		t.Fatalf("Login(%s): %v", code, err)
	}
	return resp.Token
}

func (e *testEnv) problem(t *testing.T, id string) model.Problem {
	t.Helper()
	problems, err := e.db.Problems.Read(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	i := model.FindProblem(problems, id)
	if i < 0 {
		t.Fatalf("problem %s missing", id)
	}
	return problems[i]
}

func (e *testEnv) team(t *testing.T, code string) model.Team {
	t.Helper()
	team, err := e.teams.Get(context.Background(), code)
	if err != nil {
		t.Fatalf("Get(%s): %v", code, err)
	}
	return *team
}

// assertMirrored checks that team selections and problem membership agree
func (e *testEnv) assertMirrored(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	teams, _ := e.db.Teams.Read(ctx)
	problems, _ := e.db.Problems.Read(ctx)

	for _, team := range teams {
		holders := 0
		for i := range problems {
			if problems[i].HasTeam(team.TeamCode) {
				holders++
				if team.ProblemStatement == nil || *team.ProblemStatement != problems[i].ID {
					t.Errorf("problem %s lists %s but team points elsewhere", problems[i].ID, team.TeamCode)
				}
			}
		}
		if team.ProblemStatement != nil && holders != 1 {
			t.Errorf("team %s selected %s but appears in %d problems", team.TeamCode, *team.ProblemStatement, holders)
		}
	}
	for _, p := range problems {
		if len(p.SelectedTeams) > p.Limit {
			t.Errorf("problem %s over capacity: %d > %d", p.ID, len(p.SelectedTeams), p.Limit)
		}
		for _, code := range p.SelectedTeams {
			if model.FindTeam(teams, code) < 0 {
				t.Errorf("problem %s lists unknown team %s", p.ID, code)
			}
		}
	}
}
