package service

// Broadcaster fans committed domain events out to live listeners
// (avoids an import cycle with the websocket hub)
type Broadcaster interface {
	BroadcastToAdmins(msgType string, payload interface{})
	BroadcastToTeams(msgType string, payload interface{})
	DisconnectTeam(teamCode string)
}

type noopBroadcaster struct{}

func (noopBroadcaster) BroadcastToAdmins(string, interface{}) {}
func (noopBroadcaster) BroadcastToTeams(string, interface{})  {}
func (noopBroadcaster) DisconnectTeam(string)                 {}

// MultiBroadcaster forwards every call to each of its members
type MultiBroadcaster []Broadcaster

func (m MultiBroadcaster) BroadcastToAdmins(msgType string, payload interface{}) {
	for _, b := range m {
		b.BroadcastToAdmins(msgType, payload)
	}
}

func (m MultiBroadcaster) BroadcastToTeams(msgType string, payload interface{}) {
	for _, b := range m {
		b.BroadcastToTeams(msgType, payload)
	}
}

func (m MultiBroadcaster) DisconnectTeam(teamCode string) {
	for _, b := range m {
		b.DisconnectTeam(teamCode)
	}
}
