// Package notify delivers match alerts to users. The production dispatcher
// publishes over NATS so downstream channels (push, email, in-app) can fan
// out independently; an in-memory dispatcher backs tests and dev mode.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/dealradar/dealradar/internal/domain"
)

// NATS subject layout. Per-user subjects let a delivery worker subscribe
// to "deals.notify.>" or to a single user's stream.
const (
	subjectNotifyPrefix = "deals.notify"
)

// NotifySubject returns the per-user subject a notification is published to.
func NotifySubject(userID string) string {
	return subjectNotifyPrefix + "." + userID
}

// NATSConfig holds connection settings for the dispatcher.
type NATSConfig struct {
	URL           string
	Name          string
	ReconnectWait time.Duration
	MaxReconnects int
}

// DefaultNATSConfig returns sensible defaults.
func DefaultNATSConfig(url string) NATSConfig {
	return NATSConfig{
		URL:           url,
		Name:          "dealradar",
		ReconnectWait: 2 * time.Second,
		MaxReconnects: -1, // keep retrying, matching runs degrade gracefully
	}
}

// NATSDispatcher publishes match notifications as JSON to per-user subjects.
type NATSDispatcher struct {
	conn *nats.Conn
	log  zerolog.Logger
}

// NewNATSDispatcher connects to NATS and returns a ready dispatcher. It
// returns an error if the initial connection fails.
func NewNATSDispatcher(cfg NATSConfig, log zerolog.Logger) (*NATSDispatcher, error) {
	nlog := log.With().Str("component", "notify").Logger()

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			nlog.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			nlog.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			nlog.Info().Msg("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	nlog.Info().Str("url", nc.ConnectedUrl()).Msg("Connected to NATS")

	return &NATSDispatcher{conn: nc, log: nlog}, nil
}

// DispatchMatches publishes one notification to the user's subject.
func (d *NATSDispatcher) DispatchMatches(ctx context.Context, n domain.MatchNotification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}

	subject := NotifySubject(n.UserID)
	if err := d.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}

	d.log.Debug().
		Str("subject", subject).
		Str("user_id", n.UserID).
		Int("total_count", n.TotalCount).
		Msg("Dispatched match notification")
	return nil
}

// Close flushes pending publishes and closes the connection.
func (d *NATSDispatcher) Close() {
	if d.conn == nil {
		return
	}
	if err := d.conn.Drain(); err != nil {
		d.log.Warn().Err(err).Msg("NATS drain failed, closing anyway")
		d.conn.Close()
	}
}
