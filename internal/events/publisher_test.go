package events

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"teamportal/internal/model"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, published{subject: subject, data: data})
	return nil
}

func TestPublisherSubjects(t *testing.T) {
	conn := &fakeConn{}
	p := NewPublisher(conn, "portal")

	p.BroadcastToAdmins(model.EventSpun, model.TeamEvent{TeamCode: "T1"})
	p.BroadcastToTeams(model.EventProblemsUpdated, []model.ProblemAvailability{{ID: "P1", Remaining: 2}})
	p.DisconnectTeam("T1")

	want := []string{"portal.admin.spun", "portal.teams.problems_updated", "portal.revoke"}
	if len(conn.msgs) != len(want) {
		t.Fatalf("published %d messages, want %d", len(conn.msgs), len(want))
	}
	for i, subject := range want {
		if conn.msgs[i].subject != subject {
			t.Errorf("message %d subject = %q, want %q", i, conn.msgs[i].subject, subject)
		}
	}
}

func TestPublisherEnvelope(t *testing.T) {
	conn := &fakeConn{}
	p := NewPublisher(conn, "portal")

	p.BroadcastToAdmins(model.EventProblemSelected, model.TeamEvent{TeamCode: "T1", ProblemID: "P1"})

	var env Envelope
	if err := json.Unmarshal(conn.msgs[0].data, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.Type != model.EventProblemSelected {
		t.Errorf("type = %q, want %q", env.Type, model.EventProblemSelected)
	}
	var ev model.TeamEvent
	if err := json.Unmarshal(env.Payload, &ev); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if ev.TeamCode != "T1" || ev.ProblemID != "P1" {
		t.Errorf("payload = %+v", ev)
	}
}

func TestPublisherSwallowsErrors(t *testing.T) {
	conn := &fakeConn{err: errors.New("connection closed")}
	p := NewPublisher(conn, "portal")

	// must not panic or block
	p.BroadcastToAdmins(model.EventSpun, model.TeamEvent{TeamCode: "T1"})
	if len(conn.msgs) != 0 {
		t.Errorf("expected no recorded messages, got %d", len(conn.msgs))
	}
}
