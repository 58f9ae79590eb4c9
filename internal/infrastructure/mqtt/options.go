package mqtt

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/cloudcfg/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultConnectTimeout is the maximum time to wait for initial connection.
	defaultConnectTimeout = 10 * time.Second

	// defaultPublishTimeout is the maximum time to wait for publish acknowledgment.
	defaultPublishTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 1000 // milliseconds

	// defaultKeepAlive is the keepalive interval for the connection.
	defaultKeepAlive = 60 * time.Second

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// Status values published to the status topic.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// buildClientOptions creates paho MQTT options from cloudcfg config.
//
// This configures:
//   - Broker URL (tcp:// or ssl:// based on TLS setting)
//   - Client ID, suffixed with the instance so several servers can share a broker
//   - Authentication credentials (if provided)
//   - Auto-reconnect with exponential backoff
//   - TLS configuration (if enabled)
func buildClientOptions(cfg config.MQTTConfig, instanceID string) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port))

	opts.SetClientID(clientID(cfg.Broker.ClientID, instanceID))

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second)
	opts.SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second)

	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)

	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tlsMinVersion})
	}

	return opts
}

func clientID(base, instanceID string) string {
	if base == "" {
		base = DefaultTopicPrefix
	}
	if instanceID == "" {
		return base
	}
	return base + "-" + topicLevel(instanceID)
}

// configureLWT sets the Last Will and Testament, published by the broker
// if cloudcfg disconnects without saying goodbye.
//
// QoS: 1, Retained: true (new subscribers see last status)
func configureLWT(opts *pahomqtt.ClientOptions, topics Topics, instanceID string) {
	opts.SetBinaryWill(topics.Status(), statusPayload(StatusOffline, instanceID, "unexpected_disconnect"), 1, true)
}

// statusMessage is the payload of the status topic.
type statusMessage struct {
	Status     string `json:"status"`
	InstanceID string `json:"instance_id"`
	Reason     string `json:"reason,omitempty"`
	Timestamp  string `json:"timestamp"`
}

func statusPayload(status, instanceID, reason string) []byte {
	// Marshalling a struct of strings cannot fail.
	out, _ := json.Marshal(statusMessage{ //nolint:errchkjson // Only string fields
		Status:     status,
		InstanceID: instanceID,
		Reason:     reason,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
	return out
}
