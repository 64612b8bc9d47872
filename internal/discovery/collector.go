package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nerrad567/gray-logic-device/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-device/internal/metadata"
)

// Subscriber is the MQTT surface the Collector needs. *mqtt.Client
// satisfies it.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	Topics() mqtt.Topics
	QoS() byte
}

// Collector discovers devices by listening for announcements on
// {prefix}/announce/{protocol}. The payload is a Candidate; a payload
// without protocols gets the announcing protocol with no properties.
type Collector struct {
	sub Subscriber
}

// NewCollector creates an announcement collector.
func NewCollector(sub Subscriber) *Collector {
	return &Collector{sub: sub}
}

// Discover subscribes for the lifetime of ctx and returns the candidates
// announced meanwhile, one per name. Retained announcements arrive first.
func (c *Collector) Discover(ctx context.Context) ([]Candidate, error) {
	topics := c.sub.Topics()
	topic := topics.AllAnnouncements()

	var mu sync.Mutex
	byName := make(map[string]Candidate)
	var order []string

	handler := func(t string, payload []byte) error {
		protocol, ok := topics.ParseAnnounce(t)
		if !ok {
			return nil
		}
		cand, err := decodeAnnouncement(protocol, payload)
		if err != nil {
			return err
		}

		mu.Lock()
		defer mu.Unlock()
		if _, seen := byName[cand.Name]; !seen {
			order = append(order, cand.Name)
		}
		byName[cand.Name] = cand
		return nil
	}

	if err := c.sub.Subscribe(topic, c.sub.QoS(), handler); err != nil {
		return nil, fmt.Errorf("subscribing to announcements: %w", err)
	}
	<-ctx.Done()
	_ = c.sub.Unsubscribe(topic) //nolint:errcheck // Best effort; broker may be gone

	mu.Lock()
	defer mu.Unlock()
	out := make([]Candidate, 0, len(order))
	for _, name := range order {
		out = append(out, byName[name])
	}
	return out, nil
}

func decodeAnnouncement(protocol string, payload []byte) (Candidate, error) {
	var cand Candidate
	if err := json.Unmarshal(payload, &cand); err != nil {
		return Candidate{}, fmt.Errorf("decoding announcement: %w", err)
	}
	if cand.Name == "" {
		return Candidate{}, fmt.Errorf("announcement on %s has no name", protocol)
	}
	if len(cand.Protocols) == 0 {
		cand.Protocols = map[string]metadata.ProtocolProperties{protocol: {}}
	}
	return cand, nil
}
