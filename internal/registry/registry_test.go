package registry

import (
	"sync"
	"testing"
	"time"
)

func testRecord(entityID, state string) StateRecord {
	return StateRecord{
		EntityID: entityID,
		State:    state,
		Attributes: map[string]any{
			"current_temperature": 21.5,
			"fan_modes":           []any{"auto", "low", "high"},
			"friendly_name":       "Living Room",
		},
		UpdatedAt: time.Now().UTC(),
	}
}

// =============================================================================
// Cache Tests
// =============================================================================

func TestSetAndGet(t *testing.T) {
	reg := New()

	reg.Set(testRecord("climate.living", "heat"))

	got, ok := reg.Get("climate.living")
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	if got.State != "heat" {
		t.Errorf("State = %q, want %q", got.State, "heat")
	}
	if got.EntityID != "climate.living" {
		t.Errorf("EntityID = %q, want %q", got.EntityID, "climate.living")
	}
}

func TestGetUnknownEntity(t *testing.T) {
	reg := New()

	if _, ok := reg.Get("climate.nonexistent"); ok {
		t.Error("Get() ok = true for unknown entity, want false")
	}
}

func TestSetOverwrites(t *testing.T) {
	reg := New()

	reg.Set(testRecord("climate.living", "heat"))
	reg.Set(testRecord("climate.living", "cool"))

	got, _ := reg.Get("climate.living")
	if got.State != "cool" {
		t.Errorf("State = %q, want %q", got.State, "cool")
	}
	if reg.Count() != 1 {
		t.Errorf("Count() = %d, want 1", reg.Count())
	}
}

func TestSetDropsEmptyEntityID(t *testing.T) {
	reg := New()

	reg.Set(StateRecord{State: "heat"})

	if reg.Count() != 0 {
		t.Errorf("Count() = %d, want 0", reg.Count())
	}
}

func TestSetDefaultsUpdatedAt(t *testing.T) {
	reg := New()

	reg.Set(StateRecord{EntityID: "sensor.temp", State: "21.5"})

	got, _ := reg.Get("sensor.temp")
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt is zero, want current time")
	}
}

func TestGetReturnsDeepCopy(t *testing.T) {
	reg := New()
	reg.Set(testRecord("climate.living", "heat"))

	first, _ := reg.Get("climate.living")
	first.State = "mutated"
	first.Attributes["current_temperature"] = 99.9

	second, _ := reg.Get("climate.living")
	if second.State != "heat" {
		t.Errorf("cache mutated: State = %q, want %q", second.State, "heat")
	}
	if temp, _ := second.Float("current_temperature"); temp != 21.5 {
		t.Errorf("cache mutated: current_temperature = %v, want 21.5", temp)
	}
}

func TestEntities(t *testing.T) {
	reg := New()
	reg.Set(testRecord("climate.living", "heat"))
	reg.Set(testRecord("sensor.temp", "21.5"))

	ids := reg.Entities()
	if len(ids) != 2 {
		t.Fatalf("Entities() returned %d ids, want 2", len(ids))
	}

	seen := make(map[string]bool)
	for _, id := range ids {
		seen[id] = true
	}
	if !seen["climate.living"] || !seen["sensor.temp"] {
		t.Errorf("Entities() = %v, missing expected ids", ids)
	}
}

// =============================================================================
// Subscription Tests
// =============================================================================

func TestSubscribeReceivesChanges(t *testing.T) {
	reg := New()

	var gotOld, gotNew *StateRecord
	reg.Subscribe("climate.living", func(old, current *StateRecord) {
		gotOld = old
		gotNew = current
	})

	reg.Set(testRecord("climate.living", "heat"))

	if gotOld != nil {
		t.Errorf("first change old = %+v, want nil", gotOld)
	}
	if gotNew == nil || gotNew.State != "heat" {
		t.Fatalf("first change new = %+v, want state heat", gotNew)
	}

	reg.Set(testRecord("climate.living", "cool"))

	if gotOld == nil || gotOld.State != "heat" {
		t.Errorf("second change old = %+v, want state heat", gotOld)
	}
	if gotNew == nil || gotNew.State != "cool" {
		t.Errorf("second change new = %+v, want state cool", gotNew)
	}
}

func TestSubscribeIgnoresOtherEntities(t *testing.T) {
	reg := New()

	calls := 0
	reg.Subscribe("climate.living", func(_, _ *StateRecord) {
		calls++
	})

	reg.Set(testRecord("climate.bedroom", "heat"))

	if calls != 0 {
		t.Errorf("handler called %d times for unrelated entity, want 0", calls)
	}
}

func TestCancelRemovesSubscription(t *testing.T) {
	reg := New()

	calls := 0
	sub := reg.Subscribe("climate.living", func(_, _ *StateRecord) {
		calls++
	})

	reg.Set(testRecord("climate.living", "heat"))
	sub.Cancel()
	reg.Set(testRecord("climate.living", "cool"))

	if calls != 1 {
		t.Errorf("handler called %d times, want 1", calls)
	}
	if reg.SubscriberCount("climate.living") != 0 {
		t.Errorf("SubscriberCount() = %d after Cancel(), want 0",
			reg.SubscriberCount("climate.living"))
	}
}

func TestCancelIdempotent(t *testing.T) {
	reg := New()

	sub1 := reg.Subscribe("climate.living", func(_, _ *StateRecord) {})
	sub2 := reg.Subscribe("climate.living", func(_, _ *StateRecord) {})

	sub1.Cancel()
	sub1.Cancel() // Second cancel must not affect other subscriptions

	if got := reg.SubscriberCount("climate.living"); got != 1 {
		t.Errorf("SubscriberCount() = %d, want 1", got)
	}
	sub2.Cancel()
}

func TestMultipleSubscribers(t *testing.T) {
	reg := New()

	var calls1, calls2 int
	reg.Subscribe("climate.living", func(_, _ *StateRecord) { calls1++ })
	reg.Subscribe("climate.living", func(_, _ *StateRecord) { calls2++ })

	reg.Set(testRecord("climate.living", "heat"))

	if calls1 != 1 || calls2 != 1 {
		t.Errorf("handler calls = %d, %d, want 1, 1", calls1, calls2)
	}
}

func TestHandlerReceivesOwnCopies(t *testing.T) {
	reg := New()

	reg.Subscribe("climate.living", func(_, current *StateRecord) {
		current.Attributes["current_temperature"] = 99.9
	})

	reg.Set(testRecord("climate.living", "heat"))

	got, _ := reg.Get("climate.living")
	if temp, _ := got.Float("current_temperature"); temp != 21.5 {
		t.Errorf("handler mutation leaked: current_temperature = %v, want 21.5", temp)
	}
}

func TestConcurrentAccess(t *testing.T) {
	reg := New()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				reg.Set(testRecord("climate.living", "heat"))
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				reg.Get("climate.living")
				sub := reg.Subscribe("climate.living", func(_, _ *StateRecord) {})
				sub.Cancel()
			}
		}()
	}
	wg.Wait()

	if reg.SubscriberCount("climate.living") != 0 {
		t.Errorf("SubscriberCount() = %d after all cancels, want 0",
			reg.SubscriberCount("climate.living"))
	}
}

// =============================================================================
// Attribute Accessor Tests
// =============================================================================

func TestFloat(t *testing.T) {
	record := &StateRecord{
		Attributes: map[string]any{
			"temperature": 21.5,
			"count":       3,
			"name":        "living",
		},
	}

	tests := []struct {
		name   string
		key    string
		want   float64
		wantOK bool
	}{
		{name: "float value", key: "temperature", want: 21.5, wantOK: true},
		{name: "int value", key: "count", want: 3, wantOK: true},
		{name: "string value", key: "name", wantOK: false},
		{name: "missing key", key: "missing", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := record.Float(tt.key)
			if ok != tt.wantOK {
				t.Fatalf("Float(%q) ok = %v, want %v", tt.key, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Float(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestFloatNilRecord(t *testing.T) {
	var record *StateRecord
	if _, ok := record.Float("temperature"); ok {
		t.Error("Float() ok = true on nil record, want false")
	}
}

func TestString(t *testing.T) {
	record := &StateRecord{
		Attributes: map[string]any{
			"fan_mode":    "auto",
			"temperature": 21.5,
		},
	}

	if got, ok := record.String("fan_mode"); !ok || got != "auto" {
		t.Errorf("String(fan_mode) = %q, %v, want auto, true", got, ok)
	}
	if _, ok := record.String("temperature"); ok {
		t.Error("String(temperature) ok = true for float value, want false")
	}
	if _, ok := record.String("missing"); ok {
		t.Error("String(missing) ok = true, want false")
	}
}

func TestStringList(t *testing.T) {
	record := &StateRecord{
		Attributes: map[string]any{
			"fan_modes":  []any{"auto", "low", "high"},
			"hvac_modes": []string{"off", "heat"},
			"mixed":      []any{"auto", 3.0, "low"},
			"scalar":     "auto",
		},
	}

	tests := []struct {
		name   string
		key    string
		want   []string
		wantOK bool
	}{
		{name: "json decoded list", key: "fan_modes", want: []string{"auto", "low", "high"}, wantOK: true},
		{name: "native string slice", key: "hvac_modes", want: []string{"off", "heat"}, wantOK: true},
		{name: "mixed list skips non-strings", key: "mixed", want: []string{"auto", "low"}, wantOK: true},
		{name: "scalar value", key: "scalar", wantOK: false},
		{name: "missing key", key: "missing", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := record.StringList(tt.key)
			if ok != tt.wantOK {
				t.Fatalf("StringList(%q) ok = %v, want %v", tt.key, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("StringList(%q) = %v, want %v", tt.key, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("StringList(%q)[%d] = %q, want %q", tt.key, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestUnavailable(t *testing.T) {
	tests := []struct {
		name   string
		record *StateRecord
		want   bool
	}{
		{name: "nil record", record: nil, want: true},
		{name: "unavailable state", record: &StateRecord{State: StateUnavailable}, want: true},
		{name: "normal state", record: &StateRecord{State: "heat"}, want: false},
		{name: "unknown state", record: &StateRecord{State: StateUnknown}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.record.Unavailable(); got != tt.want {
				t.Errorf("Unavailable() = %v, want %v", got, tt.want)
			}
		})
	}
}
