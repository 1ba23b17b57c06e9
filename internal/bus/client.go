package bus

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects for analysis lifecycle events consumed by the dashboard and
// notification services.
const (
	SubjectAnalysisCompleted = "triage.analysis.completed"
	SubjectAnalysisFailed    = "triage.analysis.failed"
)

// AnalysisCompletedEvent is published after a finished analysis is stored.
type AnalysisCompletedEvent struct {
	AnalysisID string `json:"analysis_id"`
	OwnerID    string `json:"owner_id"`
	Platform   string `json:"platform"`
	RiskScore  int    `json:"risk_score"`
	RedFlags   int    `json:"red_flags"`
	Provider   string `json:"provider"`
}

// AnalysisFailedEvent is published when every configured provider failed.
type AnalysisFailedEvent struct {
	OwnerID   string   `json:"owner_id"`
	Platform  string   `json:"platform"`
	Providers []string `json:"providers"`
}

type Client struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewClient(url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

func (c *Client) Close() {
	c.conn.Close()
}
