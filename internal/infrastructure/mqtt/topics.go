package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "lightbridge"

// Topics builds the bridge's own MQTT topics.
//
// Light state and command topics are configured per light and belong to the
// devices; only the bridge status and the state mirror live under the prefix:
//
//	topics := mqtt.Topics{Prefix: "lightbridge"}
//	topics.Status()            // lightbridge/bridge/status
//	topics.LightState("porch") // lightbridge/lights/porch/state
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	p := strings.TrimSuffix(t.Prefix, "/")
	if p == "" {
		return DefaultTopicPrefix
	}
	return p
}

// Status returns the retained online/offline topic, also used for the LWT.
//
// Example: lightbridge/bridge/status
func (t Topics) Status() string {
	return t.prefix() + "/bridge/status"
}

// LightState returns the topic where the bridge mirrors a light's state
// after every change.
//
// Example: lightbridge/lights/kitchen/state
func (t Topics) LightState(name string) string {
	return fmt.Sprintf("%s/lights/%s/state", t.prefix(), sanitiseLevel(name))
}

// sanitiseLevel makes a light name usable as a single topic level.
func sanitiseLevel(name string) string {
	r := strings.NewReplacer("/", "_", "+", "_", "#", "_", " ", "_")
	return strings.ToLower(r.Replace(name))
}

// ValidatePublishTopic checks that topic is non-empty and has no wildcards.
func ValidatePublishTopic(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if strings.ContainsAny(topic, "+#") {
		return fmt.Errorf("%w: wildcards are not allowed when publishing to %q", ErrInvalidTopic, topic)
	}
	return nil
}

// ValidateSubscribeTopic checks wildcard placement in a topic filter:
// "+" must fill a whole level and "#" must be the whole last level.
func ValidateSubscribeTopic(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	levels := strings.Split(topic, "/")
	for i, level := range levels {
		if strings.Contains(level, "+") && level != "+" {
			return fmt.Errorf("%w: '+' must occupy a whole level in %q", ErrInvalidTopic, topic)
		}
		if strings.Contains(level, "#") && (level != "#" || i != len(levels)-1) {
			return fmt.Errorf("%w: '#' must be the last level in %q", ErrInvalidTopic, topic)
		}
	}
	return nil
}
