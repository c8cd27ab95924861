// Package history is the bridge's local audit trail.
//
// Every statestream record, republished climate snapshot, and
// forwarded service call is written to the state_history table in
// SQLite. Unlike the InfluxDB telemetry path, this trail works with
// no external services and survives restarts, so there is always a
// local answer to "what did the host report and when".
//
// Retention is managed by PruneHistory, called periodically from the
// main loop.
package history
