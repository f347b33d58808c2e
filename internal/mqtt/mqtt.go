package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"wifisurvey/internal/config"
	"wifisurvey/internal/modules/survey/types"
)

// TelemetryHandler consumes one validated measurement message.
type TelemetryHandler func(telemetry types.Telemetry) error

// MQTTSubscriber interface for attaching message handlers
type MQTTSubscriber interface {
	SetMessageHandler(handler TelemetryHandler)
}

type Subscriber struct {
	*conn
	topic string

	handlerMu sync.RWMutex
	handler   TelemetryHandler
}

// SetMessageHandler sets the handler for validated telemetry messages.
func (s *Subscriber) SetMessageHandler(handler TelemetryHandler) {
	s.handlerMu.Lock()
	s.handler = handler
	s.handlerMu.Unlock()
}

func NewSubscriber(cfg config.Config, logger *slog.Logger) (*Subscriber, error) {
	if strings.TrimSpace(cfg.MQTTTopic) == "" {
		return nil, fmt.Errorf("mqtt subscriber: empty topic")
	}
	s := &Subscriber{conn: newConn(logger), topic: cfg.MQTTTopic}

	// Clean sessions drop subscriptions, so resubscribe after every reconnect.
	opts := s.options(cfg, cfg.MQTTClientID, func() {
		if err := s.subscribe(); err != nil {
			s.logger.Error("mqtt resubscribe failed", "topic", s.topic, "error", err)
		}
	})
	s.client = paho.NewClient(opts)
	return s, nil
}

// Connect establishes the broker connection. The topic subscription is
// made from the on-connect callback.
func (s *Subscriber) Connect(ctx context.Context) error {
	return s.connect(ctx)
}

func (s *Subscriber) subscribe() error {
	const qos = byte(1) // At least once delivery

	token := s.client.Subscribe(s.topic, qos, func(_ paho.Client, msg paho.Message) {
		s.handleMessage(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe timeout for topic %s", s.topic)
	}
	if token.Error() != nil {
		return fmt.Errorf("subscribe to %s: %w", s.topic, token.Error())
	}

	s.logger.Info("subscribed to mqtt topic", "topic", s.topic, "qos", qos)
	return nil
}

func (s *Subscriber) handleMessage(topic string, payload []byte) {
	s.logger.Debug("received mqtt message", "topic", topic, "size", len(payload))

	var telemetry types.Telemetry
	if err := json.Unmarshal(payload, &telemetry); err != nil {
		s.logger.Warn("failed to parse measurement message",
			"topic", topic,
			"error", err,
			"payload", string(payload),
		)
		return
	}

	// The topic carries the location when the payload omits it.
	if fromTopic, ok := LocationFromTopic(topic); ok {
		switch {
		case telemetry.LocationID == 0:
			telemetry.LocationID = fromTopic
		case telemetry.LocationID != fromTopic:
			s.logger.Warn("measurement location does not match topic",
				"topic", topic,
				"location_id", telemetry.LocationID,
			)
			return
		}
	}

	if err := ValidateTelemetry(telemetry); err != nil {
		s.logger.Warn("invalid measurement message",
			"topic", topic,
			"location_id", telemetry.LocationID,
			"error", err,
		)
		return
	}

	s.handlerMu.RLock()
	handler := s.handler
	s.handlerMu.RUnlock()
	if handler == nil {
		return
	}
	if err := handler(telemetry); err != nil {
		s.logger.Error("message handler failed",
			"topic", topic,
			"location_id", telemetry.LocationID,
			"error", err,
		)
		return
	}
	s.logger.Debug("processed measurement message",
		"location_id", telemetry.LocationID,
		"timestamp", telemetry.Timestamp,
	)
}

// ValidateTelemetry checks a probe message before it is stored.
func ValidateTelemetry(t types.Telemetry) error {
	if t.LocationID <= 0 {
		return fmt.Errorf("location_id must be positive: %d", t.LocationID)
	}
	if t.Signal24 == nil || t.Signal5 == nil || t.Speed24 == nil || t.Speed5 == nil || t.Interference == nil {
		return fmt.Errorf("all of signal_2_4ghz, signal_5ghz, speed_2_4ghz, speed_5ghz and interference are required")
	}
	if *t.Signal24 > 0 {
		return fmt.Errorf("signal_2_4ghz must be <= 0 dBm: %d", *t.Signal24)
	}
	if *t.Signal5 > 0 {
		return fmt.Errorf("signal_5ghz must be <= 0 dBm: %d", *t.Signal5)
	}
	if *t.Interference > 0 {
		return fmt.Errorf("interference must be <= 0 dBm: %d", *t.Interference)
	}
	if *t.Speed24 < 0 {
		return fmt.Errorf("speed_2_4ghz must be >= 0: %f", *t.Speed24)
	}
	if *t.Speed5 < 0 {
		return fmt.Errorf("speed_5ghz must be >= 0: %f", *t.Speed5)
	}
	return nil
}

// MeasurementTopic is the topic a probe publishes to for one location.
func MeasurementTopic(locationID int64) string {
	return fmt.Sprintf("survey/%d/measurement", locationID)
}

// LocationFromTopic extracts the location id from survey/{id}/measurement.
func LocationFromTopic(topic string) (int64, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != "survey" || parts[2] != "measurement" {
		return 0, false
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Disconnect stops the subscriber and closes the MQTT connection.
// Idempotent and safe to call multiple times.
func (s *Subscriber) Disconnect() {
	s.close(func() {
		token := s.client.Unsubscribe(s.topic)
		token.WaitTimeout(2 * time.Second)
	})
	s.logger.Info("mqtt subscriber disconnected")
}
