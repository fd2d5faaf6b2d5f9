// Package notify announces finished import jobs.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"copro-edd-import/internal/config"
	"copro-edd-import/internal/domain"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// JobEvent is published once per run, whatever its outcome.
type JobEvent struct {
	JobID    string              `json:"job_id"`
	TenantID string              `json:"tenant_id"`
	CoproID  string              `json:"copro_id"`
	Status   domain.JobStatus    `json:"status"`
	Stats    *domain.ImportStats `json:"stats"`
}

type Notifier interface {
	JobFinished(ctx context.Context, ev JobEvent) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) JobFinished(context.Context, JobEvent) error { return nil }

// Publisher is the part of mqtt.Client the notifier needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

type MQTTNotifier struct {
	pub     Publisher
	topic   string
	qos     byte
	timeout time.Duration
	logger  *zap.Logger
}

func NewMQTTNotifier(pub Publisher, topic string, logger *zap.Logger) *MQTTNotifier {
	return &MQTTNotifier{
		pub:     pub,
		topic:   topic,
		qos:     1,
		timeout: 5 * time.Second,
		logger:  logger,
	}
}

// Topic is "<base>/<tenant_id>".
func (n *MQTTNotifier) Topic(tenantID string) string {
	return n.topic + "/" + tenantID
}

func (n *MQTTNotifier) JobFinished(ctx context.Context, ev JobEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode job event: %w", err)
	}

	topic := n.Topic(ev.TenantID)
	token := n.pub.Publish(topic, n.qos, false, payload)

	timeout := n.timeout
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d < timeout {
			timeout = d
		}
	}
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("publish to topic %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, err)
	}

	n.logger.Debug("job event published",
		zap.String("topic", topic),
		zap.String("job_id", ev.JobID),
		zap.String("status", string(ev.Status)),
	)
	return nil
}

// Connect 创建并连接 MQTT 客户端
func Connect(cfg *config.MQTTConfig) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return client, nil
}
