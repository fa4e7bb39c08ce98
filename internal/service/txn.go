package service

import (
	"context"

	"teamportal/internal/model"
	"teamportal/internal/repository"

	"github.com/rs/zerolog/log"
)

// commitSelection persists problems and then teams. If the teams write
// fails the previous problems snapshot is written back so the two-sided
// selection edge is not left half applied. Callers hold both locks.
func commitSelection(ctx context.Context, db *repository.DB, teams []model.Team, problems, prevProblems []model.Problem) error {
	if err := db.Problems.Replace(ctx, problems); err != nil {
		return err
	}
	if err := db.Teams.Replace(ctx, teams); err != nil {
		if rerr := db.Problems.Replace(ctx, prevProblems); rerr != nil {
			log.Error().Err(rerr).Msg("failed to restore problems after teams write failure")
		}
		return err
	}
	return nil
}

// clearSelection retracts team's slot from every problem that lists it and
// clears the team's selection field. It reports whether anything changed.
func clearSelection(team *model.Team, problems []model.Problem) (teamChanged, problemsChanged bool) {
	for i := range problems {
		if problems[i].RemoveTeam(team.TeamCode) {
			problemsChanged = true
		}
	}
	if team.ProblemStatement != nil {
		team.ProblemStatement = nil
		teamChanged = true
	}
	return teamChanged, problemsChanged
}

// clearSpin returns the spin sub-machine to its initial state
func clearSpin(team *model.Team) bool {
	if !team.HasSpun && team.Reward == nil {
		return false
	}
	team.HasSpun = false
	team.Reward = nil
	return true
}

func availability(problems []model.Problem) []model.ProblemAvailability {
	out := make([]model.ProblemAvailability, len(problems))
	for i := range problems {
		out[i] = problems[i].Availability()
	}
	return out
}
