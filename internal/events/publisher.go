package events

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Envelope is the message body published for every event
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Conn is the subset of *nats.Conn the publisher needs
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publisher mirrors domain events onto NATS subjects:
// <prefix>.admin.<type>, <prefix>.teams.<type> and <prefix>.revoke.
// It implements service.Broadcaster. Publish failures are logged and
// dropped; NATS is a best-effort side channel.
type Publisher struct {
	conn   Conn
	prefix string
}

// NewPublisher wraps a NATS connection
func NewPublisher(conn Conn, prefix string) *Publisher {
	return &Publisher{conn: conn, prefix: prefix}
}

// Connect dials NATS with the service's connection name
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("teamportal"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return nc, nil
}

func (p *Publisher) BroadcastToAdmins(msgType string, payload interface{}) {
	p.publish(p.prefix+".admin."+msgType, msgType, payload)
}

func (p *Publisher) BroadcastToTeams(msgType string, payload interface{}) {
	p.publish(p.prefix+".teams."+msgType, msgType, payload)
}

func (p *Publisher) DisconnectTeam(teamCode string) {
	p.publish(p.prefix+".revoke", "disconnect", map[string]string{"teamCode": teamCode})
}

func (p *Publisher) publish(subject, msgType string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("failed to encode event")
		return
	}
	data, err := json.Marshal(Envelope{Type: msgType, Payload: raw})
	if err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("failed to encode event")
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("failed to publish event")
	}
}
