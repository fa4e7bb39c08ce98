package model

// Problem is a catalog entry with a bounded number of selection slots.
type Problem struct {
	ID            string   `json:"id" bson:"id" yaml:"id"`
	Title         string   `json:"title" bson:"title" yaml:"title"`
	Limit         int      `json:"limit" bson:"limit" yaml:"limit"`
	SelectedTeams []string `json:"selectedTeams" bson:"selectedTeams" yaml:"-"`
}

// ProblemAvailability is the team-facing listing entry. Membership is not exposed.
type ProblemAvailability struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Remaining int    `json:"remaining"`
}

// Remaining returns the number of free slots, never negative.
func (p *Problem) Remaining() int {
	if r := p.Limit - len(p.SelectedTeams); r > 0 {
		return r
	}
	return 0
}

// Full reports whether the problem has no free slots
func (p *Problem) Full() bool {
	return len(p.SelectedTeams) >= p.Limit
}

// Availability returns the team-facing listing entry
func (p *Problem) Availability() ProblemAvailability {
	return ProblemAvailability{ID: p.ID, Title: p.Title, Remaining: p.Remaining()}
}

// HasTeam reports whether code holds a slot on this problem
func (p *Problem) HasTeam(code string) bool {
	for _, c := range p.SelectedTeams {
		if c == code {
			return true
		}
	}
	return false
}

// RemoveTeam drops code from SelectedTeams and reports whether it was present.
func (p *Problem) RemoveTeam(code string) bool {
	for i, c := range p.SelectedTeams {
		if c == code {
			p.SelectedTeams = append(p.SelectedTeams[:i], p.SelectedTeams[i+1:]...)
			return true
		}
	}
	return false
}

// FindProblem returns the index of the problem with the given id, or -1.
func FindProblem(problems []Problem, id string) int {
	for i := range problems {
		if problems[i].ID == id {
			return i
		}
	}
	return -1
}

// CloneProblems returns a deep copy of problems.
func CloneProblems(problems []Problem) []Problem {
	if problems == nil {
		return nil
	}
	out := make([]Problem, len(problems))
	for i, p := range problems {
		p.SelectedTeams = append([]string(nil), p.SelectedTeams...)
		out[i] = p
	}
	return out
}
