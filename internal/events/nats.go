package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// DefaultSubject is the NATS subject global-time updates travel on.
const DefaultSubject = "timeshop.global.time"

// NATSConfig holds connection settings for the NATS relay.
type NATSConfig struct {
	URL           string
	Subject       string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns the relay defaults.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		Subject:       DefaultSubject,
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// NATSRelay publishes global-time updates to a NATS subject and feeds
// updates received on that subject into local handlers. Every server
// instance both publishes and consumes, so the broadcast reaches
// connections on all instances.
type NATSRelay struct {
	nc      *nats.Conn
	subject string
	sub     *nats.Subscription
}

var _ Publisher = (*NATSRelay)(nil)

// NewNATSRelay connects to NATS and subscribes h to the subject.
func NewNATSRelay(cfg NATSConfig, h Handler) (*NATSRelay, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	subject := cfg.Subject
	if subject == "" {
		subject = DefaultSubject
	}

	r := &NATSRelay{nc: nc, subject: subject}
	r.sub, err = nc.Subscribe(subject, func(msg *nats.Msg) {
		var ev GlobalTimeUpdated
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			log.Error().Err(err).Str("subject", subject).Msg("bad global-time payload")
			return
		}
		h(ev)
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}

	log.Info().Str("url", cfg.URL).Str("subject", subject).Msg("NATS relay connected")
	return r, nil
}

// PublishGlobalTime sends ev to the subject. Local handlers receive it
// through the subscription like everyone else.
func (r *NATSRelay) PublishGlobalTime(_ context.Context, ev GlobalTimeUpdated) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal global-time event: %w", err)
	}
	if err := r.nc.Publish(r.subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", r.subject, err)
	}
	return nil
}

// Close drains the subscription and closes the connection.
func (r *NATSRelay) Close() {
	if r.sub != nil {
		if err := r.sub.Unsubscribe(); err != nil {
			log.Warn().Err(err).Msg("unsubscribe failed")
		}
	}
	r.nc.Close()
}
