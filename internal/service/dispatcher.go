package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/adamj29/nest-matters/internal/infrastructure/mqtt"
)

// Publisher is the broker-side capability the dispatcher needs.
// Satisfied by *mqtt.Client.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Logger defines the logging interface used by the Dispatcher.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// callEnvelope is the wire format of one forwarded service call.
type callEnvelope struct {
	RequestID string         `json:"request_id"`
	Domain    string         `json:"domain"`
	Service   string         `json:"service"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

// Dispatcher forwards service calls to the host over the broker.
//
// Calls are fire-and-forget at the application level: the broker
// acknowledges delivery per the QoS, but the host does not send a
// response. Each call carries a generated request ID so host-side
// logs can be correlated with the bridge's audit trail.
type Dispatcher struct {
	publisher Publisher
	logger    Logger
	qos       byte
}

// NewDispatcher creates a dispatcher publishing through the given client.
func NewDispatcher(publisher Publisher, qos byte) *Dispatcher {
	return &Dispatcher{
		publisher: publisher,
		logger:    noopLogger{},
		qos:       qos,
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.logger = logger
}

// Call forwards one service call to the host.
//
// Parameters:
//   - ctx: Cancellation; checked before publishing
//   - domain: Service domain (e.g., "climate")
//   - service: Service name (e.g., "set_temperature")
//   - data: Service data; must include the target entity_id
//
// Returns:
//   - string: The generated request ID for correlation
//   - error: If validation fails or the publish fails
func (d *Dispatcher) Call(ctx context.Context, domain, service string, data map[string]any) (string, error) {
	if domain == "" || service == "" {
		return "", ErrInvalidCall
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("service call cancelled: %w", err)
	}

	envelope := callEnvelope{
		RequestID: uuid.NewString(),
		Domain:    domain,
		Service:   service,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncodeFailed, err)
	}

	topic := mqtt.Topics{}.ServiceCall(domain, service)
	if err := d.publisher.Publish(topic, payload, d.qos, false); err != nil {
		d.logger.Error("service call publish failed",
			"request_id", envelope.RequestID,
			"domain", domain,
			"service", service,
			"error", err,
		)
		return "", fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	d.logger.Debug("service call dispatched",
		"request_id", envelope.RequestID,
		"domain", domain,
		"service", service,
	)

	return envelope.RequestID, nil
}
