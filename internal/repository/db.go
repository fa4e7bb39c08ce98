package repository

import (
	"context"
	"fmt"

	"teamportal/internal/model"
)

// Collection names
const (
	ConfigCollection   = "config"
	TeamsCollection    = "teams"
	ProblemsCollection = "problems"
	SessionsCollection = "sessions"
)

// Global lock order. An operation spanning several collections must lock
// them in ascending rank, which Acquire does. Nested acquisition is allowed
// only towards higher ranks.
const (
	rankConfig = iota
	rankTeams
	rankProblems
	rankSessions
)

// DB groups the four collections over one store
type DB struct {
	Config   *Collection[model.GlobalConfig]
	Teams    *Collection[[]model.Team]
	Problems *Collection[[]model.Problem]
	Sessions *Collection[[]model.Session]

	store Store
}

// NewDB creates collection handles over store
func NewDB(store Store) *DB {
	return &DB{
		Config: newCollection(store, ConfigCollection, rankConfig, model.DefaultGlobalConfig),
		Teams: newCollection(store, TeamsCollection, rankTeams, func() []model.Team {
			return []model.Team{}
		}),
		Problems: newCollection(store, ProblemsCollection, rankProblems, func() []model.Problem {
			return []model.Problem{}
		}),
		Sessions: newCollection(store, SessionsCollection, rankSessions, func() []model.Session {
			return []model.Session{}
		}),
		store: store,
	}
}

// Bootstrap writes the initial snapshot of every collection that does not
// exist yet. The catalog is only used when no problems snapshot exists.
func (db *DB) Bootstrap(ctx context.Context, catalog []model.Problem) error {
	release := Acquire(db.Config, db.Teams, db.Problems, db.Sessions)
	defer release()

	if err := ensure(ctx, db.Config, model.DefaultGlobalConfig()); err != nil {
		return err
	}
	if err := ensure(ctx, db.Teams, []model.Team{}); err != nil {
		return err
	}
	if err := ensure(ctx, db.Sessions, []model.Session{}); err != nil {
		return err
	}

	problems := make([]model.Problem, 0, len(catalog))
	for _, p := range catalog {
		p.SelectedTeams = []string{}
		problems = append(problems, p)
	}
	return ensure(ctx, db.Problems, problems)
}

// ReplaceCatalog overwrites the problem catalog, dropping all selections
// and clearing the matching team fields.
func (db *DB) ReplaceCatalog(ctx context.Context, catalog []model.Problem) error {
	release := Acquire(db.Teams, db.Problems)
	defer release()

	teams, err := db.Teams.Load(ctx)
	if err != nil {
		return err
	}
	for i := range teams {
		teams[i].ProblemStatement = nil
	}

	problems := make([]model.Problem, 0, len(catalog))
	for _, p := range catalog {
		p.SelectedTeams = []string{}
		problems = append(problems, p)
	}
	if err := db.Problems.Replace(ctx, problems); err != nil {
		return err
	}
	return db.Teams.Replace(ctx, teams)
}

// Close releases the underlying store
func (db *DB) Close(ctx context.Context) error {
	return db.store.Close(ctx)
}

func ensure[D any](ctx context.Context, c *Collection[D], initial D) error {
	ok, err := c.Exists(ctx)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if err := c.Replace(ctx, initial); err != nil {
		return fmt.Errorf("failed to bootstrap %s: %w", c.Name(), err)
	}
	return nil
}
