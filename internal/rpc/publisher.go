package rpc

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/0xHustling/ERC721-Drops/internal/core/drop"
)

// Stream groups engine events for subscription purposes.
type Stream string

const (
	// StreamSales carries purchases, fee payouts and finalization.
	StreamSales Stream = "sales"
	// StreamFunds carries treasury movement.
	StreamFunds Stream = "funds"
	// StreamConfig carries configuration and metadata changes.
	StreamConfig Stream = "config"
)

// streamForEvent routes an engine event name to its stream.
func streamForEvent(name string) Stream {
	switch name {
	case "Sale", "MintFeePayout", "OpenMintFinalized":
		return StreamSales
	case "FundsReceived", "FundsWithdrawn", "FundsRecipientChanged":
		return StreamFunds
	default:
		return StreamConfig
	}
}

// connection is one subscribed WebSocket client as seen by the manager.
type connection struct {
	id      string
	send    chan []byte
	mu      sync.RWMutex
	streams map[Stream]bool
}

func (c *connection) subscribed(stream Stream) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.streams[stream]
}

func (c *connection) subscribe(streams []Stream) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range streams {
		c.streams[s] = true
	}
}

func (c *connection) unsubscribe(streams []Stream) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range streams {
		delete(c.streams, s)
	}
}

// SubscriptionManager tracks WebSocket subscribers per stream.
type SubscriptionManager struct {
	mu          sync.RWMutex
	connections map[string]*connection
}

func NewSubscriptionManager() *SubscriptionManager {
	return &SubscriptionManager{connections: make(map[string]*connection)}
}

func (m *SubscriptionManager) add(c *connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections[c.id] = c
}

func (m *SubscriptionManager) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.connections, id)
}

// Broadcast sends data to every connection subscribed to stream. Slow
// clients are skipped rather than blocking the publisher.
func (m *SubscriptionManager) Broadcast(stream Stream, data []byte) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.connections {
		if !c.subscribed(stream) {
			continue
		}
		select {
		case c.send <- data:
		default:
			log.Printf("rpc: skipping slow subscriber %s", c.id)
		}
	}
}

// SubscriberCount returns the number of connections on a stream.
func (m *SubscriptionManager) SubscriberCount(stream Stream) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, c := range m.connections {
		if c.subscribed(stream) {
			n++
		}
	}
	return n
}

// eventEnvelope is the wire shape of a pushed event.
type eventEnvelope struct {
	Type   string     `json:"type"`
	Stream Stream     `json:"stream"`
	Event  string     `json:"event"`
	Data   drop.Event `json:"data"`
}

// Publisher forwards committed engine events to WebSocket subscribers.
// It implements drop.EventSink.
type Publisher struct {
	manager *SubscriptionManager
}

func NewPublisher(manager *SubscriptionManager) *Publisher {
	return &Publisher{manager: manager}
}

func (p *Publisher) Publish(ev drop.Event) {
	if p.manager == nil {
		return
	}

	name := ev.EventName()
	data, err := json.Marshal(eventEnvelope{
		Type:   "event",
		Stream: streamForEvent(name),
		Event:  name,
		Data:   ev,
	})
	if err != nil {
		log.Printf("rpc: failed to marshal %s event: %v", name, err)
		return
	}

	p.manager.Broadcast(streamForEvent(name), data)
}

// NoOpPublisher drops every event, for setups without subscriptions.
type NoOpPublisher struct{}

func (NoOpPublisher) Publish(drop.Event) {}

var _ drop.EventSink = (*Publisher)(nil)
var _ drop.EventSink = NoOpPublisher{}
