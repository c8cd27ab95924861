package mqtt

import "fmt"

// Topic prefixes for the bridge's MQTT traffic.
//
// The host side publishes entity state records on hass/state/{entity_id}
// (a statestream automation on the host mirrors every state change there)
// and consumes service calls from hass/service/{domain}/{service}. The
// bridge's own output lives under the nestmatters prefix.
const (
	// TopicPrefixHost is the base for host-side statestream and service topics.
	TopicPrefixHost = "hass"

	// TopicPrefixBridge is the base for all bridge-published topics.
	TopicPrefixBridge = "nestmatters"

	// TopicPrefixSystem is the base for bridge system topics.
	TopicPrefixSystem = "nestmatters/system"
)

// Topics provides builders for the bridge's MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.EntityState("climate.nest_google_living")
//	// Returns: "hass/state/climate.nest_google_living"
type Topics struct{}

// EntityState returns the statestream topic for a single host entity.
//
// Example: hass/state/climate.nest_matter_living
func (Topics) EntityState(entityID string) string {
	return fmt.Sprintf("%s/state/%s", TopicPrefixHost, entityID)
}

// AllEntityStates returns a pattern matching every statestream update.
// Entity IDs contain no slashes, so a single-level wildcard suffices.
//
// Pattern: hass/state/+
func (Topics) AllEntityStates() string {
	return fmt.Sprintf("%s/state/+", TopicPrefixHost)
}

// ServiceCall returns the topic for forwarding a service call to the host.
//
// Example: hass/service/climate/set_temperature
func (Topics) ServiceCall(domain, service string) string {
	return fmt.Sprintf("%s/service/%s/%s", TopicPrefixHost, domain, service)
}

// ClimateState returns the topic the bridge republishes a unified climate
// proxy's state on.
//
// Example: nestmatters/climate/living-room/state
func (Topics) ClimateState(instanceID string) string {
	return fmt.Sprintf("%s/climate/%s/state", TopicPrefixBridge, instanceID)
}

// AllClimateStates returns a pattern matching all republished proxy states.
//
// Pattern: nestmatters/climate/+/state
func (Topics) AllClimateStates() string {
	return fmt.Sprintf("%s/climate/+/state", TopicPrefixBridge)
}

// SystemStatus returns the bridge status topic (also used for the LWT).
//
// Example: nestmatters/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// EntityFromStateTopic extracts the entity ID from a statestream topic.
// Returns false if the topic is not a statestream topic.
func EntityFromStateTopic(topic string) (string, bool) {
	prefix := TopicPrefixHost + "/state/"
	if len(topic) <= len(prefix) || topic[:len(prefix)] != prefix {
		return "", false
	}
	entityID := topic[len(prefix):]
	for i := 0; i < len(entityID); i++ {
		// Multi-level topics are not entity states
		if entityID[i] == '/' {
			return "", false
		}
	}
	return entityID, true
}
