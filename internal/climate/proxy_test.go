package climate

import (
	"context"
	"errors"
	"testing"

	"github.com/adamj29/nest-matters/internal/registry"
)

const (
	testTempEntity = "climate.nest_matter_living"
	testHvacEntity = "climate.nest_google_living"
)

// fakeCaller records forwarded service calls.
type fakeCaller struct {
	calls []recordedCall
	err   error
}

type recordedCall struct {
	domain  string
	service string
	data    map[string]any
}

func (f *fakeCaller) Call(_ context.Context, domain, service string, data map[string]any) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.calls = append(f.calls, recordedCall{domain: domain, service: service, data: data})
	return "req-1", nil
}

// newTestProxy builds a proxy over a real registry with a fake caller.
func newTestProxy(t *testing.T) (*Proxy, *registry.Registry, *fakeCaller) {
	t.Helper()

	reg := registry.New()
	caller := &fakeCaller{}

	proxy, err := New(Options{
		InstanceID:        "living-room",
		Name:              "Living Room",
		TemperatureEntity: testTempEntity,
		HvacEntity:        testHvacEntity,
		Source:            reg,
		Caller:            caller,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return proxy, reg, caller
}

func setTemperatureSource(reg *registry.Registry, state string, attrs map[string]any) {
	reg.Set(registry.StateRecord{EntityID: testTempEntity, State: state, Attributes: attrs})
}

func setHvacSource(reg *registry.Registry, state string, attrs map[string]any) {
	reg.Set(registry.StateRecord{EntityID: testHvacEntity, State: state, Attributes: attrs})
}

// =============================================================================
// Construction Tests
// =============================================================================

func TestNewValidation(t *testing.T) {
	reg := registry.New()
	caller := &fakeCaller{}

	valid := Options{
		InstanceID:        "living-room",
		TemperatureEntity: testTempEntity,
		HvacEntity:        testHvacEntity,
		Source:            reg,
		Caller:            caller,
	}

	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{name: "missing instance id", mutate: func(o *Options) { o.InstanceID = "" }},
		{name: "missing temperature entity", mutate: func(o *Options) { o.TemperatureEntity = "" }},
		{name: "missing hvac entity", mutate: func(o *Options) { o.HvacEntity = "" }},
		{name: "missing source", mutate: func(o *Options) { o.Source = nil }},
		{name: "missing caller", mutate: func(o *Options) { o.Caller = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := valid
			tt.mutate(&opts)
			if _, err := New(opts); !errors.Is(err, ErrMissingOption) {
				t.Errorf("New() error = %v, want ErrMissingOption", err)
			}
		})
	}

	if _, err := New(valid); err != nil {
		t.Errorf("New() error = %v for valid options", err)
	}
}

func TestNameDefaultsToInstanceID(t *testing.T) {
	reg := registry.New()
	proxy, err := New(Options{
		InstanceID:        "living-room",
		TemperatureEntity: testTempEntity,
		HvacEntity:        testHvacEntity,
		Source:            reg,
		Caller:            &fakeCaller{},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if proxy.Name() != "living-room" {
		t.Errorf("Name() = %q, want living-room", proxy.Name())
	}
}

func TestUniqueID(t *testing.T) {
	proxy, _, _ := newTestProxy(t)

	if got := proxy.UniqueID(); got != "nest_matters_living-room" {
		t.Errorf("UniqueID() = %q, want nest_matters_living-room", got)
	}
}

// =============================================================================
// Availability Tests
// =============================================================================

func TestAvailable(t *testing.T) {
	tests := []struct {
		name      string
		tempState string // empty string means the entity is never set
		hvacState string
		want      bool
	}{
		{name: "both present", tempState: "heat", hvacState: "heat", want: true},
		{name: "temperature missing", tempState: "", hvacState: "heat", want: false},
		{name: "hvac missing", tempState: "heat", hvacState: "", want: false},
		{name: "both missing", tempState: "", hvacState: "", want: false},
		{name: "temperature unavailable", tempState: registry.StateUnavailable, hvacState: "heat", want: false},
		{name: "hvac unavailable", tempState: "heat", hvacState: registry.StateUnavailable, want: false},
		{name: "both unavailable", tempState: registry.StateUnavailable, hvacState: registry.StateUnavailable, want: false},
		{name: "unknown state still available", tempState: registry.StateUnknown, hvacState: "off", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proxy, reg, _ := newTestProxy(t)
			if tt.tempState != "" {
				setTemperatureSource(reg, tt.tempState, nil)
			}
			if tt.hvacState != "" {
				setHvacSource(reg, tt.hvacState, nil)
			}

			if got := proxy.Available(); got != tt.want {
				t.Errorf("Available() = %v, want %v", got, tt.want)
			}
		})
	}
}

// =============================================================================
// Projection Tests
// =============================================================================

func TestMergedProjection(t *testing.T) {
	proxy, reg, _ := newTestProxy(t)

	setTemperatureSource(reg, "heat", map[string]any{
		AttrCurrentTemperature: 20.5,
		AttrTemperature:        22.0,
		AttrMinTemp:            10.0,
		AttrMaxTemp:            30.0,
	})
	setHvacSource(reg, "heat", map[string]any{
		AttrHvacModes:       []any{"off", "heat", "cool", "heat_cool"},
		AttrFanMode:         "auto",
		AttrFanModes:        []any{"auto", "on"},
		AttrCurrentHumidity: 45.0,
	})

	if !proxy.Available() {
		t.Fatal("Available() = false, want true")
	}

	if v, ok := proxy.CurrentTemperature(); !ok || v != 20.5 {
		t.Errorf("CurrentTemperature() = %v, %v, want 20.5, true", v, ok)
	}
	if v, ok := proxy.TargetTemperature(); !ok || v != 22.0 {
		t.Errorf("TargetTemperature() = %v, %v, want 22.0, true", v, ok)
	}
	if v := proxy.MinTemp(); v != 10.0 {
		t.Errorf("MinTemp() = %v, want 10.0", v)
	}
	if v := proxy.MaxTemp(); v != 30.0 {
		t.Errorf("MaxTemp() = %v, want 30.0", v)
	}

	if state, ok := proxy.HvacState(); !ok || state != "heat" {
		t.Errorf("HvacState() = %q, %v, want heat, true", state, ok)
	}
	if modes := proxy.HvacModes(); len(modes) != 4 {
		t.Errorf("HvacModes() = %v, want 4 modes", modes)
	}
	if mode, ok := proxy.FanMode(); !ok || mode != "auto" {
		t.Errorf("FanMode() = %q, %v, want auto, true", mode, ok)
	}
	if modes := proxy.FanModes(); len(modes) != 2 {
		t.Errorf("FanModes() = %v, want 2 modes", modes)
	}
	if v, ok := proxy.CurrentHumidity(); !ok || v != 45.0 {
		t.Errorf("CurrentHumidity() = %v, %v, want 45.0, true", v, ok)
	}
}

func TestTemperatureBoundsDefaults(t *testing.T) {
	proxy, reg, _ := newTestProxy(t)

	// Source present but without bound attributes.
	setTemperatureSource(reg, "heat", map[string]any{
		AttrCurrentTemperature: 20.5,
	})

	if v := proxy.MinTemp(); v != DefaultMinTemp {
		t.Errorf("MinTemp() = %v, want %v", v, DefaultMinTemp)
	}
	if v := proxy.MaxTemp(); v != DefaultMaxTemp {
		t.Errorf("MaxTemp() = %v, want %v", v, DefaultMaxTemp)
	}
}

func TestBoundsDefaultsWithNoSource(t *testing.T) {
	proxy, _, _ := newTestProxy(t)

	if v := proxy.MinTemp(); v != 7.0 {
		t.Errorf("MinTemp() = %v, want 7", v)
	}
	if v := proxy.MaxTemp(); v != 35.0 {
		t.Errorf("MaxTemp() = %v, want 35", v)
	}
}

func TestAccessorsWithMissingSources(t *testing.T) {
	proxy, _, _ := newTestProxy(t)

	if _, ok := proxy.CurrentTemperature(); ok {
		t.Error("CurrentTemperature() ok = true with no source")
	}
	if _, ok := proxy.TargetTemperature(); ok {
		t.Error("TargetTemperature() ok = true with no source")
	}
	if _, ok := proxy.HvacState(); ok {
		t.Error("HvacState() ok = true with no source")
	}
	if _, ok := proxy.FanMode(); ok {
		t.Error("FanMode() ok = true with no source")
	}
	if _, ok := proxy.CurrentHumidity(); ok {
		t.Error("CurrentHumidity() ok = true with no source")
	}
	if modes := proxy.HvacModes(); modes != nil {
		t.Errorf("HvacModes() = %v with no source, want nil", modes)
	}
	if modes := proxy.FanModes(); modes != nil {
		t.Errorf("FanModes() = %v with no source, want nil", modes)
	}
}

func TestSnapshot(t *testing.T) {
	proxy, reg, _ := newTestProxy(t)

	setTemperatureSource(reg, "heat", map[string]any{
		AttrCurrentTemperature: 20.5,
		AttrTemperature:        22.0,
	})
	setHvacSource(reg, "heat", map[string]any{
		AttrFanMode:         "auto",
		AttrCurrentHumidity: 45.0,
	})

	snapshot := proxy.Snapshot()

	if snapshot.InstanceID != "living-room" {
		t.Errorf("InstanceID = %q", snapshot.InstanceID)
	}
	if snapshot.UniqueID != "nest_matters_living-room" {
		t.Errorf("UniqueID = %q", snapshot.UniqueID)
	}
	if !snapshot.Available {
		t.Error("Available = false, want true")
	}
	if snapshot.State != "heat" {
		t.Errorf("State = %q, want heat", snapshot.State)
	}
	if snapshot.CurrentTemperature == nil || *snapshot.CurrentTemperature != 20.5 {
		t.Errorf("CurrentTemperature = %v, want 20.5", snapshot.CurrentTemperature)
	}
	if snapshot.TargetTemperature == nil || *snapshot.TargetTemperature != 22.0 {
		t.Errorf("TargetTemperature = %v, want 22.0", snapshot.TargetTemperature)
	}
	if snapshot.CurrentHumidity == nil || *snapshot.CurrentHumidity != 45.0 {
		t.Errorf("CurrentHumidity = %v, want 45.0", snapshot.CurrentHumidity)
	}
	if snapshot.MinTemp != 7.0 || snapshot.MaxTemp != 35.0 {
		t.Errorf("bounds = %v/%v, want 7/35", snapshot.MinTemp, snapshot.MaxTemp)
	}
	if snapshot.TemperatureUnit != TemperatureUnitCelsius {
		t.Errorf("TemperatureUnit = %q", snapshot.TemperatureUnit)
	}
	if len(snapshot.Features) != 2 {
		t.Errorf("Features = %v, want 2 entries", snapshot.Features)
	}
}

func TestSnapshotOmitsUnknownValues(t *testing.T) {
	proxy, _, _ := newTestProxy(t)

	snapshot := proxy.Snapshot()

	if snapshot.Available {
		t.Error("Available = true with no sources")
	}
	if snapshot.CurrentTemperature != nil {
		t.Errorf("CurrentTemperature = %v, want nil", snapshot.CurrentTemperature)
	}
	if snapshot.TargetTemperature != nil {
		t.Errorf("TargetTemperature = %v, want nil", snapshot.TargetTemperature)
	}
	if snapshot.CurrentHumidity != nil {
		t.Errorf("CurrentHumidity = %v, want nil", snapshot.CurrentHumidity)
	}
	if snapshot.State != "" {
		t.Errorf("State = %q, want empty", snapshot.State)
	}
}

// =============================================================================
// Command Tests
// =============================================================================

func TestSetTemperature(t *testing.T) {
	proxy, _, caller := newTestProxy(t)

	temp := 21.5
	if err := proxy.SetTemperature(context.Background(), &temp); err != nil {
		t.Fatalf("SetTemperature() error = %v", err)
	}

	if len(caller.calls) != 1 {
		t.Fatalf("caller invoked %d times, want exactly 1", len(caller.calls))
	}

	call := caller.calls[0]
	if call.domain != "climate" || call.service != "set_temperature" {
		t.Errorf("call = %s/%s, want climate/set_temperature", call.domain, call.service)
	}
	if call.data["entity_id"] != testTempEntity {
		t.Errorf("entity_id = %v, want temperature source %q", call.data["entity_id"], testTempEntity)
	}
	if call.data["temperature"] != 21.5 {
		t.Errorf("temperature = %v, want 21.5", call.data["temperature"])
	}
}

func TestSetTemperatureNilIsNoOp(t *testing.T) {
	proxy, _, caller := newTestProxy(t)

	if err := proxy.SetTemperature(context.Background(), nil); err != nil {
		t.Fatalf("SetTemperature(nil) error = %v", err)
	}
	if len(caller.calls) != 0 {
		t.Errorf("caller invoked %d times for nil setpoint, want 0", len(caller.calls))
	}
}

func TestSetTemperatureCallerError(t *testing.T) {
	proxy, _, caller := newTestProxy(t)
	caller.err = errors.New("broker down")

	temp := 21.5
	if err := proxy.SetTemperature(context.Background(), &temp); err == nil {
		t.Error("SetTemperature() error = nil, want forwarded error")
	}
}

func TestSetHvacMode(t *testing.T) {
	proxy, _, caller := newTestProxy(t)

	if err := proxy.SetHvacMode(context.Background(), "cool"); err != nil {
		t.Fatalf("SetHvacMode() error = %v", err)
	}

	if len(caller.calls) != 1 {
		t.Fatalf("caller invoked %d times, want 1", len(caller.calls))
	}

	call := caller.calls[0]
	if call.service != "set_hvac_mode" {
		t.Errorf("service = %q, want set_hvac_mode", call.service)
	}
	if call.data["entity_id"] != testHvacEntity {
		t.Errorf("entity_id = %v, want hvac source %q", call.data["entity_id"], testHvacEntity)
	}
	if call.data["hvac_mode"] != "cool" {
		t.Errorf("hvac_mode = %v, want cool", call.data["hvac_mode"])
	}
}

func TestSetFanMode(t *testing.T) {
	proxy, _, caller := newTestProxy(t)

	if err := proxy.SetFanMode(context.Background(), "auto"); err != nil {
		t.Fatalf("SetFanMode() error = %v", err)
	}

	call := caller.calls[0]
	if call.service != "set_fan_mode" {
		t.Errorf("service = %q, want set_fan_mode", call.service)
	}
	if call.data["entity_id"] != testHvacEntity {
		t.Errorf("entity_id = %v, want hvac source %q", call.data["entity_id"], testHvacEntity)
	}
	if call.data["fan_mode"] != "auto" {
		t.Errorf("fan_mode = %v, want auto", call.data["fan_mode"])
	}
}

func TestSetModeValidation(t *testing.T) {
	proxy, _, caller := newTestProxy(t)

	if err := proxy.SetHvacMode(context.Background(), ""); !errors.Is(err, ErrMissingOption) {
		t.Errorf("SetHvacMode(\"\") error = %v, want ErrMissingOption", err)
	}
	if err := proxy.SetFanMode(context.Background(), ""); !errors.Is(err, ErrMissingOption) {
		t.Errorf("SetFanMode(\"\") error = %v, want ErrMissingOption", err)
	}
	if len(caller.calls) != 0 {
		t.Errorf("caller invoked %d times for invalid modes, want 0", len(caller.calls))
	}
}

// =============================================================================
// Lifecycle Tests
// =============================================================================

func TestAttachPublishesInitialSnapshot(t *testing.T) {
	reg := registry.New()
	var snapshots []Snapshot

	proxy, err := New(Options{
		InstanceID:        "living-room",
		TemperatureEntity: testTempEntity,
		HvacEntity:        testHvacEntity,
		Source:            reg,
		Caller:            &fakeCaller{},
		Sink:              func(s Snapshot) { snapshots = append(snapshots, s) },
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := proxy.Attach(context.Background()); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	defer proxy.Detach()

	if len(snapshots) != 1 {
		t.Fatalf("sink received %d snapshots after Attach(), want 1", len(snapshots))
	}
	if snapshots[0].Available {
		t.Error("initial snapshot available with no sources, want unavailable")
	}
}

func TestAttachedProxyRepublishesOnSourceChange(t *testing.T) {
	reg := registry.New()
	var snapshots []Snapshot

	proxy, err := New(Options{
		InstanceID:        "living-room",
		TemperatureEntity: testTempEntity,
		HvacEntity:        testHvacEntity,
		Source:            reg,
		Caller:            &fakeCaller{},
		Sink:              func(s Snapshot) { snapshots = append(snapshots, s) },
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := proxy.Attach(context.Background()); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	defer proxy.Detach()

	setTemperatureSource(reg, "heat", map[string]any{AttrCurrentTemperature: 21.0})
	setHvacSource(reg, "heat", nil)

	// Initial publish plus one per source change.
	if len(snapshots) != 3 {
		t.Fatalf("sink received %d snapshots, want 3", len(snapshots))
	}

	last := snapshots[len(snapshots)-1]
	if !last.Available {
		t.Error("final snapshot unavailable, want available")
	}
	if last.CurrentTemperature == nil || *last.CurrentTemperature != 21.0 {
		t.Errorf("final CurrentTemperature = %v, want 21.0", last.CurrentTemperature)
	}
}

func TestAttachTwice(t *testing.T) {
	proxy, _, _ := newTestProxy(t)

	if err := proxy.Attach(context.Background()); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	defer proxy.Detach()

	if err := proxy.Attach(context.Background()); !errors.Is(err, ErrAlreadyAttached) {
		t.Errorf("second Attach() error = %v, want ErrAlreadyAttached", err)
	}
}

func TestDetachRemovesListeners(t *testing.T) {
	proxy, reg, _ := newTestProxy(t)

	if err := proxy.Attach(context.Background()); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}

	if reg.SubscriberCount(testTempEntity) != 1 || reg.SubscriberCount(testHvacEntity) != 1 {
		t.Fatalf("subscriber counts = %d, %d after Attach(), want 1, 1",
			reg.SubscriberCount(testTempEntity), reg.SubscriberCount(testHvacEntity))
	}

	proxy.Detach()

	if reg.SubscriberCount(testTempEntity) != 0 || reg.SubscriberCount(testHvacEntity) != 0 {
		t.Errorf("subscriber counts = %d, %d after Detach(), want 0, 0",
			reg.SubscriberCount(testTempEntity), reg.SubscriberCount(testHvacEntity))
	}
	if proxy.Attached() {
		t.Error("Attached() = true after Detach()")
	}
}

func TestDetachStopsRepublish(t *testing.T) {
	reg := registry.New()
	var snapshots []Snapshot

	proxy, err := New(Options{
		InstanceID:        "living-room",
		TemperatureEntity: testTempEntity,
		HvacEntity:        testHvacEntity,
		Source:            reg,
		Caller:            &fakeCaller{},
		Sink:              func(s Snapshot) { snapshots = append(snapshots, s) },
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := proxy.Attach(context.Background()); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	proxy.Detach()
	published := len(snapshots)

	// Source changes after Detach() must not reach the sink.
	setTemperatureSource(reg, "heat", map[string]any{AttrCurrentTemperature: 22.0})
	setHvacSource(reg, "cool", nil)

	if len(snapshots) != published {
		t.Errorf("sink received %d snapshots after Detach(), want %d",
			len(snapshots), published)
	}
}

func TestDetachIdempotent(t *testing.T) {
	proxy, reg, _ := newTestProxy(t)

	// Detach before ever attaching is a no-op.
	proxy.Detach()

	if err := proxy.Attach(context.Background()); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	proxy.Detach()
	proxy.Detach()

	if reg.SubscriberCount(testTempEntity) != 0 {
		t.Errorf("subscriber count = %d, want 0", reg.SubscriberCount(testTempEntity))
	}
}

func TestReattachAfterDetach(t *testing.T) {
	proxy, reg, _ := newTestProxy(t)
	ctx := context.Background()

	if err := proxy.Attach(ctx); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	proxy.Detach()

	if err := proxy.Attach(ctx); err != nil {
		t.Fatalf("re-Attach() error = %v", err)
	}
	defer proxy.Detach()

	if reg.SubscriberCount(testTempEntity) != 1 {
		t.Errorf("subscriber count = %d after re-attach, want 1", reg.SubscriberCount(testTempEntity))
	}
}
