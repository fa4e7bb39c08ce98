package service

import (
	"context"
	"math/rand/v2"

	"teamportal/internal/model"
	"teamportal/internal/repository"

	"github.com/rs/zerolog/log"
)

// DefaultRewards is the reward wheel used when the catalog does not define one
var DefaultRewards = []string{
	"Email/SMTP Integration",
	"Export to PDF/CSV Functionality",
	"AI Chatbot/Assistant Interface",
	"Dark Mode & Accessibility Toggle",
	"Data Visualization Dashboard",
	"Push Notification System",
	"User Feedback/Rating System",
	"Voice-to-Text Integration",
	"Multi-Language Support (i18n)",
	"Real-time Collaboration (Sockets)",
	"Social Media Auth (Google/GitHub)",
	"PWA (Installable Mobile App)",
}

// AllocationService enforces the one-spin and bounded-selection rules
type AllocationService struct {
	db          *repository.DB
	rewards     []string
	pick        func(n int) int
	broadcaster Broadcaster
}

// NewAllocationService creates a new allocation service. An empty rewards
// list falls back to DefaultRewards.
func NewAllocationService(db *repository.DB, rewards []string) *AllocationService {
	if len(rewards) == 0 {
		rewards = DefaultRewards
	}
	return &AllocationService{
		db:          db,
		rewards:     append([]string(nil), rewards...),
		pick:        rand.IntN,
		broadcaster: noopBroadcaster{},
	}
}

// SetBroadcaster sets the broadcaster for allocation events
func (s *AllocationService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Rewards returns the reward wheel
func (s *AllocationService) Rewards() []string {
	return append([]string(nil), s.rewards...)
}

// Spin assigns a random reward exactly once per team
func (s *AllocationService) Spin(ctx context.Context, teamCode string) (string, error) {
	s.db.Teams.Lock()
	defer s.db.Teams.Unlock()

	teams, err := s.db.Teams.Load(ctx)
	if err != nil {
		return "", err
	}
	i := model.FindTeam(teams, teamCode)
	if i < 0 {
		return "", ErrTeamNotFound
	}
	if teams[i].HasSpun {
		return "", ErrAlreadySpun
	}

	reward := s.rewards[s.pick(len(s.rewards))]
	teams[i].HasSpun = true
	teams[i].Reward = &reward

	if err := s.db.Teams.Replace(ctx, teams); err != nil {
		return "", err
	}

	log.Info().Str("team_code", teamCode).Str("reward", reward).Msg("wheel spun")
	s.broadcaster.BroadcastToAdmins(model.EventSpun, model.TeamEvent{TeamCode: teamCode, Reward: &reward})
	return reward, nil
}

// ResetSpin lets a team spin again. Resetting an unspun team is a no-op.
func (s *AllocationService) ResetSpin(ctx context.Context, teamCode string) error {
	s.db.Teams.Lock()
	defer s.db.Teams.Unlock()

	teams, err := s.db.Teams.Load(ctx)
	if err != nil {
		return err
	}
	i := model.FindTeam(teams, teamCode)
	if i < 0 {
		return ErrTeamNotFound
	}
	if !clearSpin(&teams[i]) {
		return nil
	}
	if err := s.db.Teams.Replace(ctx, teams); err != nil {
		return err
	}

	log.Info().Str("team_code", teamCode).Msg("spin reset")
	s.broadcaster.BroadcastToAdmins(model.EventTeamUpdated, model.TeamEvent{TeamCode: teamCode})
	return nil
}

// Select claims a slot on problemID for teamCode. The capacity check and the
// append happen under the teams and problems locks, so concurrent selections
// can never overfill a problem.
func (s *AllocationService) Select(ctx context.Context, teamCode, problemID string) error {
	if problemID == "" {
		return InvalidInput("problemId is required")
	}

	release := repository.Acquire(s.db.Teams, s.db.Problems)
	defer release()

	problems, err := s.db.Problems.Load(ctx)
	if err != nil {
		return err
	}
	pi := model.FindProblem(problems, problemID)
	if pi < 0 {
		return ErrProblemNotFound
	}

	teams, err := s.db.Teams.Load(ctx)
	if err != nil {
		return err
	}
	ti := model.FindTeam(teams, teamCode)
	if ti < 0 {
		return ErrTeamNotFound
	}
	if teams[ti].ProblemStatement != nil {
		return ErrAlreadySelected
	}
	if problems[pi].Full() {
		return ErrProblemFull
	}

	prev := model.CloneProblems(problems)
	problems[pi].SelectedTeams = append(problems[pi].SelectedTeams, teamCode)
	id := problemID
	teams[ti].ProblemStatement = &id

	if err := commitSelection(ctx, s.db, teams, problems, prev); err != nil {
		return err
	}

	log.Info().
		Str("team_code", teamCode).
		Str("problem_id", problemID).
		Int("remaining", problems[pi].Remaining()).
		Msg("problem selected")
	s.broadcaster.BroadcastToAdmins(model.EventProblemSelected, model.TeamEvent{TeamCode: teamCode, ProblemID: problemID})
	s.broadcaster.BroadcastToTeams(model.EventProblemsUpdated, availability(problems))
	return nil
}

// ResetSelection releases the team's slot. Resetting an unselected team is a no-op.
func (s *AllocationService) ResetSelection(ctx context.Context, teamCode string) error {
	release := repository.Acquire(s.db.Teams, s.db.Problems)
	defer release()

	teams, err := s.db.Teams.Load(ctx)
	if err != nil {
		return err
	}
	ti := model.FindTeam(teams, teamCode)
	if ti < 0 {
		return ErrTeamNotFound
	}
	problems, err := s.db.Problems.Load(ctx)
	if err != nil {
		return err
	}
	prev := model.CloneProblems(problems)

	previous := teams[ti].ProblemStatement
	teamChanged, problemsChanged := clearSelection(&teams[ti], problems)
	switch {
	case problemsChanged:
		err = commitSelection(ctx, s.db, teams, problems, prev)
	case teamChanged:
		err = s.db.Teams.Replace(ctx, teams)
	default:
		return nil
	}
	if err != nil {
		return err
	}

	event := model.TeamEvent{TeamCode: teamCode}
	if previous != nil {
		event.ProblemID = *previous
	}
	log.Info().Str("team_code", teamCode).Str("problem_id", event.ProblemID).Msg("selection reset")
	s.broadcaster.BroadcastToAdmins(model.EventSelectionReset, event)
	if problemsChanged {
		s.broadcaster.BroadcastToTeams(model.EventProblemsUpdated, availability(problems))
	}
	return nil
}

// ListProblems returns every catalog entry with its remaining capacity
func (s *AllocationService) ListProblems(ctx context.Context) ([]model.ProblemAvailability, error) {
	problems, err := s.db.Problems.Read(ctx)
	if err != nil {
		return nil, err
	}
	return availability(problems), nil
}

// AdminProblems returns the catalog including selection membership
func (s *AllocationService) AdminProblems(ctx context.Context) ([]model.Problem, error) {
	return s.db.Problems.Read(ctx)
}
