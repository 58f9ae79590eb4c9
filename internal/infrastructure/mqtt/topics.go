package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is used when the configured prefix is empty.
const DefaultTopicPrefix = "cloudcfg"

// Topics builds the topics one cloudcfg instance publishes to.
//
//	topics := mqtt.NewTopics("cloudcfg", "oc8c0fd71e03")
//	topics.Config() // "cloudcfg/oc8c0fd71e03/config"
//	topics.Status() // "cloudcfg/oc8c0fd71e03/status"
type Topics struct {
	prefix     string
	instanceID string
}

// NewTopics returns topic builders for one server instance.
// Slashes and wildcards in instanceID are replaced with underscores so an
// instance always maps to exactly one topic level.
func NewTopics(prefix, instanceID string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix, instanceID: topicLevel(instanceID)}
}

// Config returns the retained topic carrying the redacted configuration.
//
// Example: cloudcfg/oc8c0fd71e03/config
func (t Topics) Config() string {
	return fmt.Sprintf("%s/%s/config", t.prefix, t.instanceID)
}

// Status returns the retained online/offline topic, also used for the LWT.
//
// Example: cloudcfg/oc8c0fd71e03/status
func (t Topics) Status() string {
	return fmt.Sprintf("%s/%s/status", t.prefix, t.instanceID)
}

// All returns a subscription filter matching every instance's topics.
//
// Example: cloudcfg/+/+
func (t Topics) All() string {
	return t.prefix + "/+/+"
}

func topicLevel(s string) string {
	return strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(s)
}

// validTopic reports whether topic can be published to.
func validTopic(topic string) bool {
	return topic != "" && !strings.ContainsAny(topic, "+#")
}
