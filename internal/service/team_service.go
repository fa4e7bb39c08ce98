package service

import (
	"context"
	"strings"

	"teamportal/internal/model"
	"teamportal/internal/repository"

	"github.com/rs/zerolog/log"
)

// TeamService handles team lifecycle operations. Disabling or deleting a
// team cascades into session revocation; deleting also retracts the team's
// problem slot.
type TeamService struct {
	db          *repository.DB
	sessions    *SessionService
	creds       CredentialChecker
	broadcaster Broadcaster
}

// NewTeamService creates a new team service
func NewTeamService(db *repository.DB, sessions *SessionService, creds CredentialChecker) *TeamService {
	return &TeamService{
		db:          db,
		sessions:    sessions,
		creds:       creds,
		broadcaster: noopBroadcaster{},
	}
}

// SetBroadcaster sets the broadcaster for lifecycle events
func (s *TeamService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Create registers a new active team. Team codes are unique.
func (s *TeamService) Create(ctx context.Context, teamName, teamCode, passcode string) (*model.Team, error) {
	teamName = strings.TrimSpace(teamName)
	if teamName == "" || teamCode == "" || passcode == "" {
		return nil, InvalidInput("teamName, teamCode and passcode are required")
	}

	stored, err := s.creds.Hash(passcode)
	if err != nil {
		return nil, err
	}

	s.db.Teams.Lock()
	defer s.db.Teams.Unlock()

	teams, err := s.db.Teams.Load(ctx)
	if err != nil {
		return nil, err
	}
	if model.FindTeam(teams, teamCode) >= 0 {
		return nil, ErrTeamExists
	}

	team := model.Team{
		TeamCode: teamCode,
		TeamName: teamName,
		Passcode: stored,
		Active:   true,
	}
	teams = append(teams, team)
	if err := s.db.Teams.Replace(ctx, teams); err != nil {
		return nil, err
	}

	log.Info().Str("team_code", teamCode).Str("team_name", teamName).Msg("team created")
	s.broadcaster.BroadcastToAdmins(model.EventTeamCreated, model.TeamEvent{TeamCode: teamCode, Active: &team.Active})
	return &team, nil
}

// Get returns a single team
func (s *TeamService) Get(ctx context.Context, teamCode string) (*model.Team, error) {
	teams, err := s.db.Teams.Read(ctx)
	if err != nil {
		return nil, err
	}
	i := model.FindTeam(teams, teamCode)
	if i < 0 {
		return nil, ErrTeamNotFound
	}
	return &teams[i], nil
}

// List returns every team
func (s *TeamService) List(ctx context.Context) ([]model.Team, error) {
	return s.db.Teams.Read(ctx)
}

// SetActive enables or disables a team. Disabling revokes its session.
func (s *TeamService) SetActive(ctx context.Context, teamCode string, active bool) error {
	s.db.Teams.Lock()
	defer s.db.Teams.Unlock()

	return s.setActiveLocked(ctx, teamCode, func(bool) bool { return active })
}

// Toggle flips the active flag and returns the new value
func (s *TeamService) Toggle(ctx context.Context, teamCode string) (bool, error) {
	s.db.Teams.Lock()
	defer s.db.Teams.Unlock()

	var next bool
	err := s.setActiveLocked(ctx, teamCode, func(current bool) bool {
		next = !current
		return next
	})
	return next, err
}

func (s *TeamService) setActiveLocked(ctx context.Context, teamCode string, decide func(current bool) bool) error {
	teams, err := s.db.Teams.Load(ctx)
	if err != nil {
		return err
	}
	i := model.FindTeam(teams, teamCode)
	if i < 0 {
		return ErrTeamNotFound
	}

	active := decide(teams[i].Active)
	if !active {
		// sessions rank above teams, so revoking while holding the teams
		// lock keeps a concurrent login from slipping in between. Revoke
		// runs first so a failed revoke leaves the team untouched.
		if _, err := s.sessions.Revoke(ctx, teamCode); err != nil {
			return err
		}
	}
	if teams[i].Active != active {
		teams[i].Active = active
		if err := s.db.Teams.Replace(ctx, teams); err != nil {
			return err
		}
		log.Info().Str("team_code", teamCode).Bool("active", active).Msg("team active flag changed")
		s.broadcaster.BroadcastToAdmins(model.EventTeamUpdated, model.TeamEvent{TeamCode: teamCode, Active: &active})
	}
	return nil
}

// Delete removes a team, retracts its problem slot and revokes its session
func (s *TeamService) Delete(ctx context.Context, teamCode string) error {
	release := repository.Acquire(s.db.Teams, s.db.Problems)
	defer release()

	teams, err := s.db.Teams.Load(ctx)
	if err != nil {
		return err
	}
	i := model.FindTeam(teams, teamCode)
	if i < 0 {
		return ErrTeamNotFound
	}
	problems, err := s.db.Problems.Load(ctx)
	if err != nil {
		return err
	}
	prev := model.CloneProblems(problems)

	// a team that is gone must not keep a resolvable token, so the
	// session goes before the team record does
	if _, err := s.sessions.Revoke(ctx, teamCode); err != nil {
		return err
	}

	_, problemsChanged := clearSelection(&teams[i], problems)
	teams = append(teams[:i], teams[i+1:]...)

	if problemsChanged {
		err = commitSelection(ctx, s.db, teams, problems, prev)
	} else {
		err = s.db.Teams.Replace(ctx, teams)
	}
	if err != nil {
		return err
	}

	log.Info().Str("team_code", teamCode).Bool("slot_released", problemsChanged).Msg("team deleted")
	s.broadcaster.BroadcastToAdmins(model.EventTeamDeleted, model.TeamEvent{TeamCode: teamCode})
	if problemsChanged {
		s.broadcaster.BroadcastToTeams(model.EventProblemsUpdated, availability(problems))
	}
	return nil
}

// FullReset clears spin and selection and revokes the session in one step
func (s *TeamService) FullReset(ctx context.Context, teamCode string) error {
	release := repository.Acquire(s.db.Teams, s.db.Problems)
	defer release()

	teams, err := s.db.Teams.Load(ctx)
	if err != nil {
		return err
	}
	i := model.FindTeam(teams, teamCode)
	if i < 0 {
		return ErrTeamNotFound
	}
	problems, err := s.db.Problems.Load(ctx)
	if err != nil {
		return err
	}
	prev := model.CloneProblems(problems)

	if _, err := s.sessions.Revoke(ctx, teamCode); err != nil {
		return err
	}

	spinChanged := clearSpin(&teams[i])
	selChanged, problemsChanged := clearSelection(&teams[i], problems)
	switch {
	case problemsChanged:
		err = commitSelection(ctx, s.db, teams, problems, prev)
	case spinChanged || selChanged:
		err = s.db.Teams.Replace(ctx, teams)
	}
	if err != nil {
		return err
	}

	log.Info().Str("team_code", teamCode).Msg("team fully reset")
	s.broadcaster.BroadcastToAdmins(model.EventTeamUpdated, model.TeamEvent{TeamCode: teamCode})
	if problemsChanged {
		s.broadcaster.BroadcastToTeams(model.EventProblemsUpdated, availability(problems))
	}
	return nil
}
