package registry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/adamj29/nest-matters/internal/infrastructure/mqtt"
)

// Subscriber is the broker-side capability the feed needs.
// Satisfied by *mqtt.Client.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// statePayload is the wire format of one statestream message.
//
// The host's statestream automation publishes the full entity record
// as a single JSON document on hass/state/{entity_id}.
type statePayload struct {
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes"`
	LastUpdated time.Time      `json:"last_updated"`
}

// RecordObserver is invoked after the feed stores a record in the
// registry. Used to fan records out to the audit trail.
type RecordObserver func(record StateRecord)

// Feed consumes statestream messages from the broker and keeps the
// registry current.
type Feed struct {
	registry *Registry
	logger   Logger
	observer RecordObserver
	qos      byte
}

// NewFeed creates a feed writing into the given registry.
func NewFeed(reg *Registry, qos byte) *Feed {
	return &Feed{
		registry: reg,
		logger:   noopLogger{},
		qos:      qos,
	}
}

// SetLogger sets the logger for the feed.
func (f *Feed) SetLogger(logger Logger) {
	f.logger = logger
}

// SetObserver registers a callback invoked for every stored record.
//
// Must be set before Start; the feed does not synchronise access.
func (f *Feed) SetObserver(observer RecordObserver) {
	f.observer = observer
}

// Start subscribes to the statestream wildcard topic.
//
// Returns an error if the broker subscription fails.
func (f *Feed) Start(client Subscriber) error {
	topic := mqtt.Topics{}.AllEntityStates()
	if err := client.Subscribe(topic, f.qos, f.HandleMessage); err != nil {
		return fmt.Errorf("subscribing to statestream: %w", err)
	}
	f.logger.Info("statestream feed started", "topic", topic)
	return nil
}

// HandleMessage processes one statestream message.
//
// Non-statestream topics are ignored silently (the wildcard should not
// match them, but the broker is not trusted to enforce that). Malformed
// payloads are logged and dropped; a bad message from the host must not
// take the feed down.
func (f *Feed) HandleMessage(topic string, payload []byte) error {
	entityID, ok := mqtt.EntityFromStateTopic(topic)
	if !ok {
		return nil
	}

	var msg statePayload
	if err := json.Unmarshal(payload, &msg); err != nil {
		f.logger.Warn("dropping malformed statestream payload",
			"topic", topic,
			"error", err,
		)
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	record := StateRecord{
		EntityID:   entityID,
		State:      msg.State,
		Attributes: msg.Attributes,
		UpdatedAt:  msg.LastUpdated,
	}

	f.registry.Set(record)

	if f.observer != nil {
		f.observer(record)
	}

	return nil
}
