package mqtt

import (
	"encoding/json"
	"time"
)

// Presence states published on {prefix}/status/{client_id}.
const (
	StateOnline  = "online"
	StateOffline = "offline"
)

// Reasons attached to offline presence messages.
const (
	reasonUnexpected = "unexpected_disconnect"
	reasonShutdown   = "graceful_shutdown"
)

// Presence is the retained status message other services watch to know
// whether this device service is up.
type Presence struct {
	State     string    `json:"status"`
	ClientID  string    `json:"client_id"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func presencePayload(clientID, state, reason string) []byte {
	//nolint:errcheck // Presence always marshals
	payload, _ := json.Marshal(Presence{
		State:     state,
		ClientID:  clientID,
		Reason:    reason,
		Timestamp: time.Now().UTC().Truncate(time.Second),
	})
	return payload
}

// publishPresence publishes a retained presence message. Failures are
// logged; the broker's will covers a missed offline message.
func (c *Client) publishPresence(state, reason string) {
	topic := c.topics.Status(c.cfg.Broker.ClientID)
	payload := presencePayload(c.cfg.Broker.ClientID, state, reason)
	if err := c.Publish(topic, payload, c.QoS(), true); err != nil {
		if logger := c.getLogger(); logger != nil {
			logger.Warn("publishing MQTT presence failed", "state", state, "error", err)
		}
	}
}
