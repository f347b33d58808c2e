package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"wifisurvey/internal/config"
	"wifisurvey/internal/modules/survey/types"
)

// Publisher sends probe measurements to the broker.
type Publisher struct {
	*conn
}

func NewPublisher(cfg config.Config, clientID string, logger *slog.Logger) (*Publisher, error) {
	if clientID == "" {
		return nil, fmt.Errorf("mqtt publisher: empty client id")
	}
	p := &Publisher{conn: newConn(logger)}
	p.client = paho.NewClient(p.options(cfg, clientID, nil))
	return p, nil
}

// Connect waits for the initial connection, respecting ctx and Disconnect.
func (p *Publisher) Connect(ctx context.Context) error {
	return p.connect(ctx)
}

// PublishMeasurement publishes telemetry to the location's measurement topic.
func (p *Publisher) PublishMeasurement(telemetry types.Telemetry) error {
	if !p.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}
	if telemetry.Timestamp.IsZero() {
		telemetry.Timestamp = time.Now().UTC()
	}
	if err := ValidateTelemetry(telemetry); err != nil {
		return err
	}

	topic := MeasurementTopic(telemetry.LocationID)
	data, err := json.Marshal(telemetry)
	if err != nil {
		return fmt.Errorf("marshal measurement: %w", err)
	}

	token := p.client.Publish(topic, 1, false, data)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	if token.Error() != nil {
		p.logger.Error("failed to publish measurement", "topic", topic, "error", token.Error())
		return fmt.Errorf("publish measurement: %w", token.Error())
	}

	p.logger.Debug("published measurement", "topic", topic, "location_id", telemetry.LocationID)
	return nil
}

// Disconnect closes the connection. Idempotent.
func (p *Publisher) Disconnect() {
	p.close(nil)
	p.logger.Info("mqtt publisher disconnected")
}
