// Package notify publishes verification outcomes to NATS.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/okian/clout/internal/domain/model"
	"github.com/okian/clout/pkg/logger"
	"github.com/okian/clout/pkg/metrics"
)

// SubjectPickVerified carries one message per verified pick.
const SubjectPickVerified = "clout.picks.verified"

// Config holds NATS connection settings.
type Config struct {
	URL           string
	Subject       string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultConfig returns settings for a local server.
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		Subject:       SubjectPickVerified,
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// conn is the part of *nats.Conn the publisher uses.
type conn interface {
	Publish(subj string, data []byte) error
	Drain() error
}

// NATSPublisher sends PickVerified messages as JSON on core NATS.
type NATSPublisher struct {
	nc      conn
	subject string
	log     logger.Logger
}

// NewNATSPublisher connects to cfg.URL.
func NewNATSPublisher(cfg Config) (*NATSPublisher, error) {
	log := logger.Get().Named("notify")
	opts := []nats.Option{
		nats.Name("clout"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn(context.Background(), "NATS disconnected", logger.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info(context.Background(), "NATS reconnected", logger.String("url", nc.ConnectedUrl()))
		}),
	}
	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("notify: connect to NATS: %w", err)
	}
	return newPublisher(nc, cfg.Subject, log), nil
}

func newPublisher(nc conn, subject string, log logger.Logger) *NATSPublisher {
	if subject == "" {
		subject = SubjectPickVerified
	}
	return &NATSPublisher{nc: nc, subject: subject, log: log}
}

// PublishPickVerified buffers the message on the connection; delivery is
// at most once.
func (p *NATSPublisher) PublishPickVerified(ctx context.Context, ev model.PickVerified) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("notify: marshal pick verified: %w", err)
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		metrics.RecordNotifyError()
		return fmt.Errorf("notify: publish %s: %w", p.subject, err)
	}
	p.log.Debug(ctx, "pick verified published", logger.String("pick_id", ev.PickID))
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	if err := p.nc.Drain(); err != nil {
		return fmt.Errorf("notify: drain: %w", err)
	}
	return nil
}
