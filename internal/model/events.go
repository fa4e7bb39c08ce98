package model

// Event types published after a mutation commits
const (
	EventTeamCreated     = "team_created"
	EventTeamUpdated     = "team_updated"
	EventTeamDeleted     = "team_deleted"
	EventSessionRevoked  = "session_revoked"
	EventSpun            = "spun"
	EventProblemSelected = "problem_selected"
	EventSelectionReset  = "selection_reset"
	EventProblemsUpdated = "problems_updated"
	EventLoginLock       = "login_lock"
)

// TeamEvent carries the affected team for lifecycle and allocation events
type TeamEvent struct {
	TeamCode  string  `json:"teamCode"`
	Active    *bool   `json:"active,omitempty"`
	Reward    *string `json:"reward,omitempty"`
	ProblemID string  `json:"problemId,omitempty"`
}

// LoginLockEvent is published when the global login switch flips
type LoginLockEvent struct {
	LoginEnabled bool `json:"loginEnabled"`
}
