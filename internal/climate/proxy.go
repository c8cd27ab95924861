package climate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/adamj29/nest-matters/internal/registry"
)

// Logger defines the logging interface used by the Proxy.
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

// StateSource provides source entity records and change tracking.
// Satisfied by *registry.Registry.
type StateSource interface {
	Get(entityID string) (*registry.StateRecord, bool)
	Subscribe(entityID string, handler registry.ChangeHandler) *registry.Subscription
}

// Caller forwards service calls to the host.
// Satisfied by *service.Dispatcher.
type Caller interface {
	Call(ctx context.Context, domain, service string, data map[string]any) (string, error)
}

// SnapshotSink receives the unified snapshot every time a source
// entity changes. The main loop fans snapshots out to the broker,
// the audit trail, and telemetry.
type SnapshotSink func(snapshot Snapshot)

// Options configures a Proxy.
type Options struct {
	// InstanceID identifies this proxy (e.g., "living-room").
	InstanceID string

	// Name is the human-readable display name.
	Name string

	// TemperatureEntity is the host entity supplying temperature
	// readings and accepting temperature setpoints (the Matter
	// exposure of the thermostat).
	TemperatureEntity string

	// HvacEntity is the host entity supplying HVAC state, modes,
	// fan control, and humidity (the cloud exposure).
	HvacEntity string

	// Source supplies entity records; required.
	Source StateSource

	// Caller forwards service calls; required.
	Caller Caller

	// Sink receives republished snapshots; optional.
	Sink SnapshotSink

	// Logger is optional.
	Logger Logger
}

// Proxy merges two host climate entities into one unified climate
// device.
//
// The temperature entity is authoritative for temperature readings,
// the target setpoint, and the setpoint bounds. The HVAC entity is
// authoritative for the operating state, mode lists, fan control, and
// humidity. Reads always reflect the registry's current records;
// nothing is cached in the proxy itself.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Attach and Detach may be called from any goroutine.
type Proxy struct {
	instanceID string
	name       string
	tempEntity string
	hvacEntity string

	source StateSource
	caller Caller
	sink   SnapshotSink
	logger Logger

	// subs holds the two active registry subscriptions while attached.
	subs   []*registry.Subscription
	subsMu sync.Mutex
}

// New creates a proxy from options.
//
// Returns an error if any required option is missing.
func New(opts Options) (*Proxy, error) {
	switch {
	case opts.InstanceID == "":
		return nil, fmt.Errorf("%w: instance id", ErrMissingOption)
	case opts.TemperatureEntity == "":
		return nil, fmt.Errorf("%w: temperature entity", ErrMissingOption)
	case opts.HvacEntity == "":
		return nil, fmt.Errorf("%w: hvac entity", ErrMissingOption)
	case opts.Source == nil:
		return nil, fmt.Errorf("%w: state source", ErrMissingOption)
	case opts.Caller == nil:
		return nil, fmt.Errorf("%w: caller", ErrMissingOption)
	}

	name := opts.Name
	if name == "" {
		name = opts.InstanceID
	}
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	return &Proxy{
		instanceID: opts.InstanceID,
		name:       name,
		tempEntity: opts.TemperatureEntity,
		hvacEntity: opts.HvacEntity,
		source:     opts.Source,
		caller:     opts.Caller,
		sink:       opts.Sink,
		logger:     logger,
	}, nil
}

// InstanceID returns the proxy's instance identifier.
func (p *Proxy) InstanceID() string { return p.instanceID }

// Name returns the proxy's display name.
func (p *Proxy) Name() string { return p.name }

// UniqueID returns the proxy's stable unique identifier.
func (p *Proxy) UniqueID() string { return UniqueID(p.instanceID) }

// Attach starts tracking both source entities and republishes an
// initial snapshot.
//
// Calling Attach on an already attached proxy is an error; Detach
// first.
func (p *Proxy) Attach(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("attach cancelled: %w", err)
	}

	p.subsMu.Lock()
	defer p.subsMu.Unlock()

	if len(p.subs) > 0 {
		return ErrAlreadyAttached
	}

	handler := func(_, _ *registry.StateRecord) {
		p.republish()
	}
	p.subs = []*registry.Subscription{
		p.source.Subscribe(p.tempEntity, handler),
		p.source.Subscribe(p.hvacEntity, handler),
	}

	p.logger.Info("climate proxy attached",
		"instance_id", p.instanceID,
		"temperature_entity", p.tempEntity,
		"hvac_entity", p.hvacEntity,
	)

	// Publish the merged view immediately so consumers don't wait for
	// the next source change.
	p.republish()

	return nil
}

// Detach stops tracking the source entities.
//
// Idempotent; detaching a never-attached proxy is a no-op. After
// Detach returns, no further snapshots are published.
func (p *Proxy) Detach() {
	p.subsMu.Lock()
	subs := p.subs
	p.subs = nil
	p.subsMu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}

	if len(subs) > 0 {
		p.logger.Info("climate proxy detached", "instance_id", p.instanceID)
	}
}

// Attached reports whether the proxy is currently tracking its sources.
func (p *Proxy) Attached() bool {
	p.subsMu.Lock()
	defer p.subsMu.Unlock()
	return len(p.subs) > 0
}

// republish builds the current snapshot and hands it to the sink.
func (p *Proxy) republish() {
	if p.sink == nil {
		return
	}
	p.sink(p.Snapshot())
}

// =============================================================================
// Merged state accessors
// =============================================================================

// Available reports whether the unified device is usable.
//
// Both source entities must have been seen on the feed and neither
// may be marked unavailable by the host. Absent and unavailable are
// treated the same: the merged device cannot be trusted with half its
// sources missing.
func (p *Proxy) Available() bool {
	temp, ok := p.source.Get(p.tempEntity)
	if !ok || temp.Unavailable() {
		return false
	}
	hvac, ok := p.source.Get(p.hvacEntity)
	if !ok || hvac.Unavailable() {
		return false
	}
	return true
}

// CurrentTemperature returns the measured temperature from the
// temperature source. ok is false when the source has not reported.
func (p *Proxy) CurrentTemperature() (float64, bool) {
	record, ok := p.source.Get(p.tempEntity)
	if !ok {
		return 0, false
	}
	return record.Float(AttrCurrentTemperature)
}

// TargetTemperature returns the setpoint from the temperature source.
func (p *Proxy) TargetTemperature() (float64, bool) {
	record, ok := p.source.Get(p.tempEntity)
	if !ok {
		return 0, false
	}
	return record.Float(AttrTemperature)
}

// MinTemp returns the lowest settable temperature.
//
// Falls back to DefaultMinTemp when the temperature source does not
// report a bound.
func (p *Proxy) MinTemp() float64 {
	if record, ok := p.source.Get(p.tempEntity); ok {
		if v, ok := record.Float(AttrMinTemp); ok {
			return v
		}
	}
	return DefaultMinTemp
}

// MaxTemp returns the highest settable temperature.
//
// Falls back to DefaultMaxTemp when the temperature source does not
// report a bound.
func (p *Proxy) MaxTemp() float64 {
	if record, ok := p.source.Get(p.tempEntity); ok {
		if v, ok := record.Float(AttrMaxTemp); ok {
			return v
		}
	}
	return DefaultMaxTemp
}

// HvacState returns the raw operating state of the HVAC source
// (e.g., "heat", "cool", "off"). ok is false when the source has not
// reported.
func (p *Proxy) HvacState() (string, bool) {
	record, ok := p.source.Get(p.hvacEntity)
	if !ok {
		return "", false
	}
	return record.State, true
}

// HvacModes returns the HVAC source's supported operating modes.
func (p *Proxy) HvacModes() []string {
	record, ok := p.source.Get(p.hvacEntity)
	if !ok {
		return nil
	}
	modes, _ := record.StringList(AttrHvacModes)
	return modes
}

// FanMode returns the HVAC source's current fan mode.
func (p *Proxy) FanMode() (string, bool) {
	record, ok := p.source.Get(p.hvacEntity)
	if !ok {
		return "", false
	}
	return record.String(AttrFanMode)
}

// FanModes returns the HVAC source's supported fan modes.
func (p *Proxy) FanModes() []string {
	record, ok := p.source.Get(p.hvacEntity)
	if !ok {
		return nil
	}
	modes, _ := record.StringList(AttrFanModes)
	return modes
}

// CurrentHumidity returns the measured humidity from the HVAC source.
func (p *Proxy) CurrentHumidity() (float64, bool) {
	record, ok := p.source.Get(p.hvacEntity)
	if !ok {
		return 0, false
	}
	return record.Float(AttrCurrentHumidity)
}

// Snapshot assembles the current unified view of both sources.
func (p *Proxy) Snapshot() Snapshot {
	snapshot := Snapshot{
		InstanceID:      p.instanceID,
		UniqueID:        p.UniqueID(),
		Name:            p.name,
		Available:       p.Available(),
		HvacModes:       p.HvacModes(),
		FanModes:        p.FanModes(),
		MinTemp:         p.MinTemp(),
		MaxTemp:         p.MaxTemp(),
		TemperatureUnit: TemperatureUnitCelsius,
		Features:        []string{FeatureTargetTemperature, FeatureFanMode},
		UpdatedAt:       time.Now().UTC(),
	}

	if state, ok := p.HvacState(); ok {
		snapshot.State = state
	}
	if mode, ok := p.FanMode(); ok {
		snapshot.FanMode = mode
	}
	if v, ok := p.CurrentTemperature(); ok {
		snapshot.CurrentTemperature = &v
	}
	if v, ok := p.TargetTemperature(); ok {
		snapshot.TargetTemperature = &v
	}
	if v, ok := p.CurrentHumidity(); ok {
		snapshot.CurrentHumidity = &v
	}

	return snapshot
}

// =============================================================================
// Commands
// =============================================================================

// SetTemperature forwards a setpoint change to the temperature source.
//
// A nil temperature is a no-op: callers pass through optional service
// data, and an absent setpoint must not produce a host call.
func (p *Proxy) SetTemperature(ctx context.Context, temperature *float64) error {
	if temperature == nil {
		return nil
	}

	_, err := p.caller.Call(ctx, "climate", "set_temperature", map[string]any{
		"entity_id":   p.tempEntity,
		"temperature": *temperature,
	})
	if err != nil {
		return fmt.Errorf("setting temperature: %w", err)
	}

	p.logger.Debug("temperature setpoint forwarded",
		"instance_id", p.instanceID,
		"temperature", *temperature,
	)
	return nil
}

// SetHvacMode forwards an operating mode change to the HVAC source.
func (p *Proxy) SetHvacMode(ctx context.Context, mode string) error {
	if mode == "" {
		return fmt.Errorf("%w: hvac mode", ErrMissingOption)
	}

	_, err := p.caller.Call(ctx, "climate", "set_hvac_mode", map[string]any{
		"entity_id": p.hvacEntity,
		"hvac_mode": mode,
	})
	if err != nil {
		return fmt.Errorf("setting hvac mode: %w", err)
	}

	p.logger.Debug("hvac mode forwarded",
		"instance_id", p.instanceID,
		"hvac_mode", mode,
	)
	return nil
}

// SetFanMode forwards a fan mode change to the HVAC source.
func (p *Proxy) SetFanMode(ctx context.Context, mode string) error {
	if mode == "" {
		return fmt.Errorf("%w: fan mode", ErrMissingOption)
	}

	_, err := p.caller.Call(ctx, "climate", "set_fan_mode", map[string]any{
		"entity_id": p.hvacEntity,
		"fan_mode":  mode,
	})
	if err != nil {
		return fmt.Errorf("setting fan mode: %w", err)
	}

	p.logger.Debug("fan mode forwarded",
		"instance_id", p.instanceID,
		"fan_mode", mode,
	)
	return nil
}
