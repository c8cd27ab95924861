// Package config loads and validates the bridge's YAML configuration.
//
// Configuration is resolved in three layers: hardcoded defaults, the YAML
// file, and NESTMATTERS_* environment variable overrides. Secrets (MQTT
// credentials, InfluxDB token) should come from the environment rather
// than the file.
//
// The climate.instances section declares the unified climate proxies:
//
//	climate:
//	  instances:
//	    - id: living-room
//	      name: Living Room Thermostat
//	      matter_entity: climate.nest_matter_living
//	      google_entity: climate.nest_google_living
//
// A missing or malformed section fails Load() with a list of every
// validation error, not just the first.
package config
