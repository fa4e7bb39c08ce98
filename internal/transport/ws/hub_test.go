package ws

import (
	"encoding/json"
	"testing"
	"time"
)

func receive(t *testing.T, conn *Connection) Message {
	t.Helper()
	select {
	case data, ok := <-conn.Send:
		if !ok {
			t.Fatal("connection closed")
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Message{}
}

func expectClosed(t *testing.T, conn *Connection) {
	t.Helper()
	select {
	case _, ok := <-conn.Send:
		if ok {
			t.Fatal("expected closed connection, got a message")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for close")
	}
}

func expectNothing(t *testing.T, conn *Connection) {
	t.Helper()
	select {
	case data := <-conn.Send:
		t.Fatalf("unexpected message: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubRoutesByAudience(t *testing.T) {
	hub := NewHub()
	defer hub.Stop()

	admin := NewConnection("", true)
	team := NewConnection("T1", false)
	hub.Register(admin)
	hub.Register(team)

	hub.BroadcastToAdmins("spun", map[string]string{"teamCode": "T1"})
	msg := receive(t, admin)
	if msg.Type != "spun" {
		t.Errorf("admin got %q", msg.Type)
	}
	expectNothing(t, team)

	hub.BroadcastToTeams("problems_updated", []int{1, 2})
	msg = receive(t, team)
	if msg.Type != "problems_updated" || string(msg.Payload) != "[1,2]" {
		t.Errorf("team got %q %s", msg.Type, msg.Payload)
	}
	expectNothing(t, admin)
}

func TestHubDisconnectTeam(t *testing.T) {
	hub := NewHub()
	defer hub.Stop()

	a1 := NewConnection("A", false)
	a2 := NewConnection("A", false)
	b := NewConnection("B", false)
	for _, c := range []*Connection{a1, a2, b} {
		hub.Register(c)
	}

	hub.DisconnectTeam("A")
	expectClosed(t, a1)
	expectClosed(t, a2)

	hub.BroadcastToTeams("problems_updated", nil)
	receive(t, b)

	// unregistering an already removed connection is harmless
	hub.Unregister(a1)
}

func TestHubStopClosesConnections(t *testing.T) {
	hub := NewHub()
	admin := NewConnection("", true)
	hub.Register(admin)

	hub.Stop()
	expectClosed(t, admin)

	// calls after stop must not block
	hub.Register(NewConnection("T1", false))
	hub.Unregister(admin)
}

func TestEncode(t *testing.T) {
	data, err := Encode("login_lock", map[string]bool{"loginEnabled": false})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"type":"login_lock","payload":{"loginEnabled":false}}` {
		t.Errorf("Encode = %s", data)
	}
}
