// Package climate implements the unified climate proxy.
//
// A thermostat exposed to the host twice — once over Matter and once
// through its vendor cloud — splits its capabilities across two
// half-featured entities. The Matter exposure reports temperature and
// accepts setpoints but knows nothing about HVAC modes; the cloud
// exposure controls modes, fan, and reports humidity but its
// temperature readings lag. The Proxy merges both into one device:
//
//   - temperature entity → current/target temperature, setpoint bounds
//   - HVAC entity → operating state, mode lists, fan control, humidity
//
// Reads are live projections of the registry's records. Commands are
// routed to whichever source owns the capability: setpoints to the
// temperature entity, mode and fan changes to the HVAC entity.
//
// The proxy is available only while both sources are present and
// neither is marked unavailable. Half a thermostat is worse than
// none: acting on stale mode data while setpoints silently fail is
// the failure this rule prevents.
//
// A Manager groups the configured instances and attaches/detaches
// them together at startup and shutdown.
package climate
