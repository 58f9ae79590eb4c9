package mqtt

import (
	"encoding/json"
	"fmt"
	"time"
)

// Maximum payload size for MQTT messages (1MB).
const maxPayloadSize = 1 << 20

// Publish sends a message to topic.
//
// Parameters:
//   - topic: The topic to publish to; wildcards are rejected
//   - payload: The message payload (max 1MB)
//   - qos: Quality of Service level (0, 1, or 2)
//   - retained: Whether the broker should keep the message for new subscribers
//
// Returns:
//   - error: nil on success, or wrapped error describing the failure
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if !validTopic(topic) {
		return fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// PublishRetained publishes a retained message with the configured QoS.
func (c *Client) PublishRetained(topic string, payload []byte) error {
	return c.Publish(topic, payload, c.qos(), true)
}

// Announcement is the payload of the config topic.
type Announcement struct {
	InstanceID        string    `json:"instance_id"`
	SnapshotID        string    `json:"snapshot_id,omitempty"`
	LoadedAt          time.Time `json:"loaded_at"`
	SourceFormat      string    `json:"source_format,omitempty"`
	SecretFingerprint string    `json:"secret_fingerprint,omitempty"`
	// Config must already be redacted; it is published as is.
	Config map[string]any `json:"config"`
}

// Announce publishes a retained Announcement to the config topic.
func (c *Client) Announce(a Announcement) error {
	payload, err := encodeAnnouncement(a)
	if err != nil {
		return err
	}
	return c.PublishRetained(c.topics.Config(), payload)
}

func encodeAnnouncement(a Announcement) ([]byte, error) {
	if a.Config == nil {
		a.Config = map[string]any{}
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding announcement: %w", ErrPublishFailed, err)
	}
	return payload, nil
}
