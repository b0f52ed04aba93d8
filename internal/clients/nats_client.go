package clients

import (
	"encoding/json"
	"fmt"
	"time"

	"bridge-backend/internal/config"
	"bridge-backend/internal/metrics"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// NATS subjects for advisory bridge events.
const (
	SubjectTransferProgress = "bridge.transfer.progress"
	SubjectWalletCreated    = "bridge.wallet.created"
)

// NATSClient publishes bridge events. Publishing is advisory: failures are
// logged and never propagated to the orchestration path.
type NATSClient struct {
	conn *nats.Conn
}

// NewNATSClient connects to the NATS server.
func NewNATSClient(cfg config.NATSConfig) (*NATSClient, error) {
	connectTimeout := 10 * time.Second
	if cfg.Timeout > 0 {
		connectTimeout = time.Duration(cfg.Timeout) * time.Second
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logrus.WithError(err).Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logrus.Info("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &NATSClient{conn: conn}, nil
}

// Publish marshals event as JSON and publishes it on subject. Errors are
// swallowed after logging.
func (c *NATSClient) Publish(subject string, event interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).WithField("subject", subject).Error("failed to marshal NATS event")
		return
	}
	if err := c.conn.Publish(subject, data); err != nil {
		logrus.WithError(err).WithField("subject", subject).Warn("failed to publish NATS event")
		return
	}
	metrics.NATSEventsPublished.WithLabelValues(subject).Inc()
}

// Close drains and closes the connection.
func (c *NATSClient) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}
