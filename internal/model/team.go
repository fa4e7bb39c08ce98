package model

// Team is a registered participant. TeamCode is the unique, case-sensitive key.
type Team struct {
	TeamCode         string  `json:"teamCode" bson:"teamCode"`
	TeamName         string  `json:"teamName" bson:"teamName"`
	Passcode         string  `json:"passcode" bson:"passcode"`
	Active           bool    `json:"active" bson:"active"`
	HasSpun          bool    `json:"hasSpun" bson:"hasSpun"`
	Reward           *string `json:"reward" bson:"reward,omitempty"`
	ProblemStatement *string `json:"problemStatement" bson:"problemStatement,omitempty"`
}

// TeamView is the team-facing snapshot returned by /team/me
type TeamView struct {
	TeamCode         string  `json:"teamCode"`
	TeamName         string  `json:"teamName"`
	HasSpun          bool    `json:"hasSpun"`
	Reward           *string `json:"reward"`
	ProblemStatement *string `json:"problemStatement"`
}

// AdminTeamView is what administrators see; the passcode is never echoed back.
type AdminTeamView struct {
	TeamView
	Active bool `json:"active"`
}

// View returns the team-facing snapshot
func (t *Team) View() TeamView {
	return TeamView{
		TeamCode:         t.TeamCode,
		TeamName:         t.TeamName,
		HasSpun:          t.HasSpun,
		Reward:           t.Reward,
		ProblemStatement: t.ProblemStatement,
	}
}

// AdminView returns the administrative snapshot
func (t *Team) AdminView() AdminTeamView {
	return AdminTeamView{TeamView: t.View(), Active: t.Active}
}

// FindTeam returns the index of the team with the given code, or -1.
func FindTeam(teams []Team, code string) int {
	for i := range teams {
		if teams[i].TeamCode == code {
			return i
		}
	}
	return -1
}
