package climate

import "time"

// Attribute keys read from source entity records.
//
// These match the attribute names the host publishes on the
// statestream for climate entities.
const (
	AttrCurrentTemperature = "current_temperature"
	AttrTemperature        = "temperature"
	AttrMinTemp            = "min_temp"
	AttrMaxTemp            = "max_temp"
	AttrHvacModes          = "hvac_modes"
	AttrFanMode            = "fan_mode"
	AttrFanModes           = "fan_modes"
	AttrCurrentHumidity    = "current_humidity"
)

// Temperature bound defaults, used when the temperature source does
// not report its own limits.
const (
	DefaultMinTemp = 7.0
	DefaultMaxTemp = 35.0
)

// TemperatureUnitCelsius is the unit for all temperatures the proxy
// reports. Source entities are expected to report in Celsius.
const TemperatureUnitCelsius = "°C"

// Supported proxy features, listed in republished snapshots so
// consumers know which service calls the proxy will forward.
const (
	FeatureTargetTemperature = "target_temperature"
	FeatureFanMode           = "fan_mode"
)

// uniqueIDPrefix namespaces proxy unique IDs so they cannot collide
// with host entity unique IDs.
const uniqueIDPrefix = "nest_matters_"

// UniqueID derives the stable unique identifier for a proxy instance.
//
// The ID is a pure function of the instance ID, so it survives
// restarts and renames.
func UniqueID(instanceID string) string {
	return uniqueIDPrefix + instanceID
}

// Snapshot is the unified climate state the proxy republishes.
//
// Optional numeric fields are pointers so "not reported" is
// distinguishable from zero in the JSON document.
type Snapshot struct {
	InstanceID string `json:"instance_id"`
	UniqueID   string `json:"unique_id"`
	Name       string `json:"name"`
	Available  bool   `json:"available"`

	// State is the raw HVAC operating state from the HVAC source.
	State     string   `json:"state"`
	HvacModes []string `json:"hvac_modes,omitempty"`
	FanMode   string   `json:"fan_mode,omitempty"`
	FanModes  []string `json:"fan_modes,omitempty"`

	CurrentTemperature *float64 `json:"current_temperature,omitempty"`
	TargetTemperature  *float64 `json:"temperature,omitempty"`
	MinTemp            float64  `json:"min_temp"`
	MaxTemp            float64  `json:"max_temp"`
	CurrentHumidity    *float64 `json:"current_humidity,omitempty"`

	TemperatureUnit string    `json:"temperature_unit"`
	Features        []string  `json:"features"`
	UpdatedAt       time.Time `json:"updated_at"`
}
