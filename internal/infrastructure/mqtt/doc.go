// Package mqtt announces loaded configurations over MQTT.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Retained publication of the redacted configuration
//   - Online/offline status with Last Will and Testament (LWT)
//   - Connection health monitoring
//
// # Topics
//
//	<prefix>/<instanceid>/config   retained Announcement (JSON)
//	<prefix>/<instanceid>/status   retained {"status":"online"|"offline",...}
//
// The prefix defaults to "cloudcfg". Fleet tooling can subscribe to
// Topics.All() to see every server sharing a broker.
//
// # Security Considerations
//
//   - Only redacted descriptions are published; secrets never leave the host
//   - TLS should be enabled when the broker is not on localhost
//   - Anonymous access is only for local development
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, instanceID)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Announce(mqtt.Announcement{
//	    InstanceID: instanceID,
//	    LoadedAt:   snap.LoadedAt,
//	    Config:     settings.Describe(cfg, nil),
//	})
package mqtt
