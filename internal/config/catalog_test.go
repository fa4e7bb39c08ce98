package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCatalog(t *testing.T) {
	path := writeFile(t, "catalog.yaml", `
problems:
  - id: PS01
    title: Energy monitor
    limit: 3
  - id: PS02
    title: Health records
    limit: 0
rewards:
  - Dark mode
`)
	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if len(c.Problems) != 2 || c.Problems[0].ID != "PS01" || c.Problems[0].Limit != 3 {
		t.Errorf("problems = %+v", c.Problems)
	}
	if len(c.Rewards) != 1 || c.Rewards[0] != "Dark mode" {
		t.Errorf("rewards = %v", c.Rewards)
	}
}

func TestLoadCatalogRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"duplicate id", "problems:\n  - {id: A, limit: 1}\n  - {id: A, limit: 2}\n"},
		{"missing id", "problems:\n  - {title: X, limit: 1}\n"},
		{"negative limit", "problems:\n  - {id: A, limit: -1}\n"},
		{"bad yaml", "problems: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadCatalog(writeFile(t, "catalog.yaml", tt.content)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadRoster(t *testing.T) {
	path := writeFile(t, "roster.yaml", `
teams:
  - teamName: Null Pointers
    teamCode: T001
    passcode: one
`)
	r, err := LoadRoster(path)
	if err != nil {
		t.Fatalf("LoadRoster: %v", err)
	}
	if len(r.Teams) != 1 || r.Teams[0].TeamCode != "T001" || r.Teams[0].Passcode != "one" {
		t.Errorf("roster = %+v", r.Teams)
	}
}
