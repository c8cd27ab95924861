// Package registry caches the last known state of every host entity
// the bridge can see.
//
// The host mirrors entity state changes onto the broker via a
// statestream automation (hass/state/{entity_id}). The Feed consumes
// those messages and writes StateRecords into the Registry; climate
// proxies read source-entity records from the Registry and Subscribe
// to the two entities they merge.
//
//	broker → Feed → Registry → proxies (Get / Subscribe)
//
// # Semantics
//
//   - Records are deep-copied on the way in and out, so the cache is
//     never aliased by callers.
//   - Subscribe fires on every update of the tracked entity, with the
//     old record (nil on first sight) and the new one.
//   - An entity the feed has never reported is absent, which is
//     distinct from present-but-unavailable (State == "unavailable").
//     Both make a dependent proxy unavailable.
//
// # Thread Safety
//
// All Registry methods are safe for concurrent use. Change handlers
// run synchronously on the feed goroutine and must not block.
package registry
