// Package hermes carries DesaRank's change events over NATS. Every instance
// publishes spk.weights.updated after a comparison edit, spk.villages.imported
// after rows are appended, and spk.ranking.computed after a fresh evaluation.
// Instances listen for the first two to drop their cached ranking. The
// SPK_EVENTS JetStream stream keeps all three for audit.
package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// ClientName identifies DesaRank connections in NATS monitoring.
const ClientName = "desarank"

// Client publishes the spk.* events as JSON and delivers raw payloads to
// subscribers. ranker.Service treats a nil Client as "events disabled".
type Client interface {
	Publish(subject string, data interface{}) error
	Subscribe(subject string, handler func(subject string, data []byte)) error
	Close()
}

// NATSClient publishes with core NATS; the SPK_EVENTS stream captures the
// messages server-side.
type NATSClient struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	subs   []*nats.Subscription
	logger *slog.Logger
}

func NewNATSClient(ctx context.Context, url string, logger *slog.Logger) (*NATSClient, error) {
	nc, err := nats.Connect(url,
		nats.Name(ClientName),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("hermes disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("hermes reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	c := &NATSClient{conn: nc, js: js, logger: logger}
	if err := c.ensureStream(ctx); err != nil {
		// Events still flow over core NATS; only retention is lost.
		logger.Warn("failed to ensure event stream", "stream", StreamName, "error", err)
	}
	return c, nil
}

// StreamConfig describes the SPK_EVENTS stream.
func StreamConfig() (jetstream.StreamConfig, error) {
	maxAge, err := time.ParseDuration(StreamMaxAge)
	if err != nil {
		return jetstream.StreamConfig{}, fmt.Errorf("stream max age %q: %w", StreamMaxAge, err)
	}
	return jetstream.StreamConfig{
		Name:        StreamName,
		Description: "DesaRank weight edits, dataset imports and computed rankings",
		Subjects:    []string{SubjectAll},
		MaxAge:      maxAge,
	}, nil
}

func (c *NATSClient) ensureStream(ctx context.Context) error {
	cfg, err := StreamConfig()
	if err != nil {
		return err
	}
	_, err = c.js.CreateOrUpdateStream(ctx, cfg)
	return err
}

// Publish marshals one of the *Event types and sends it on subject.
func (c *NATSClient) Publish(subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", subject, err)
	}
	if err := c.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe registers a plain (non-durable) subscription. Handlers run on
// the NATS delivery goroutine.
func (c *NATSClient) Subscribe(subject string, handler func(string, []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Debug("hermes subscribed", "subject", subject)
	return nil
}

// Close drops the subscriptions and drains pending publishes.
func (c *NATSClient) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	if err := c.conn.Drain(); err != nil {
		c.conn.Close()
	}
}
