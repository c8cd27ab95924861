// Package mqtt provides MQTT client connectivity for the Nest Matters bridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// MQTT is the bridge's only link to the home-automation host. The host
// mirrors every entity state change onto hass/state/{entity_id} via a
// statestream automation, and executes service calls it receives on
// hass/service/{domain}/{service}. The bridge republishes its unified
// climate state under the nestmatters prefix.
//
//	host statestream → broker → bridge → nestmatters/climate/{id}/state
//	bridge service calls → broker → host
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to all statestream updates
//	err = client.Subscribe(mqtt.Topics{}.AllEntityStates(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Forward a service call
//	topic := mqtt.Topics{}.ServiceCall("climate", "set_temperature")
//	client.Publish(topic, []byte(`{"entity_id":"climate.x","temperature":21.5}`), 1, false)
package mqtt
