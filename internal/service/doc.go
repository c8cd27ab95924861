// Package service forwards host service calls over the broker.
//
// The bridge cannot call the host directly; instead it publishes a
// call envelope on hass/service/{domain}/{service} and a host-side
// automation executes it. Climate proxies use this path for
// set_temperature, set_hvac_mode, and set_fan_mode.
//
// Each envelope carries a UUID request ID so host logs and the
// bridge's audit trail can be correlated.
package service
