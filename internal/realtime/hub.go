// Package realtime fans group state-change events out to live client
// connections. Delivery is best-effort and at-most-once: a client that
// connects after an event must re-fetch the offering snapshot.
package realtime

import (
	"sync"

	"go.uber.org/zap"
)

// Buffered per connection; a consumer that falls this far behind starts
// losing events rather than blocking publishers.
const sendBufSize = 256

type EventType string

const (
	EventParticipantJoined EventType = "participantJoined"
	EventStatusChanged     EventType = "statusChanged"
)

// Event is the wire payload pushed to subscribed connections.
type Event struct {
	Type            EventType `json:"type"`
	OfferingID      uint      `json:"offeringId"`
	NewCount        int       `json:"newCount"`
	EffectivePrice  float64   `json:"effectivePrice"`
	DiscountPercent int       `json:"discountPercent"`
	ParticipantName string    `json:"participantName,omitempty"`
}

type connection struct {
	ch        chan Event
	offerings map[uint]struct{}
}

// Hub tracks which connections care about which offerings and delivers
// published events to them. Registry state is purely in-memory; clients
// rebuild it by re-subscribing after a restart.
type Hub struct {
	mu         sync.RWMutex
	conns      map[string]*connection
	byOffering map[uint]map[string]*connection
}

func NewHub() *Hub {
	return &Hub{
		conns:      make(map[string]*connection),
		byOffering: make(map[uint]map[string]*connection),
	}
}

// Register adds a connection and returns the channel its events arrive on.
// The channel is closed by ConnectionClosed.
func (h *Hub) Register(connID string) <-chan Event {
	c := &connection{
		ch:        make(chan Event, sendBufSize),
		offerings: make(map[uint]struct{}),
	}

	h.mu.Lock()
	if old, ok := h.conns[connID]; ok {
		h.removeLocked(connID, old)
	}
	h.conns[connID] = c
	h.mu.Unlock()

	return c.ch
}

// Subscribe registers the connection's interest in an offering. Unknown
// connections are ignored; subscribing twice is a no-op.
func (h *Hub) Subscribe(connID string, offeringID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[connID]
	if !ok {
		return
	}

	c.offerings[offeringID] = struct{}{}
	subs := h.byOffering[offeringID]
	if subs == nil {
		subs = make(map[string]*connection)
		h.byOffering[offeringID] = subs
	}
	subs[connID] = c
}

// Unsubscribe drops the connection's interest in one offering.
func (h *Hub) Unsubscribe(connID string, offeringID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[connID]
	if !ok {
		return
	}

	delete(c.offerings, offeringID)
	h.dropSubscriberLocked(connID, offeringID)
}

// ConnectionClosed removes every subscription the connection holds and
// closes its event channel.
func (h *Hub) ConnectionClosed(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[connID]
	if !ok {
		return
	}
	h.removeLocked(connID, c)
}

func (h *Hub) removeLocked(connID string, c *connection) {
	for offeringID := range c.offerings {
		h.dropSubscriberLocked(connID, offeringID)
	}
	delete(h.conns, connID)
	close(c.ch)
}

func (h *Hub) dropSubscriberLocked(connID string, offeringID uint) {
	subs := h.byOffering[offeringID]
	if subs == nil {
		return
	}
	delete(subs, connID)
	if len(subs) == 0 {
		delete(h.byOffering, offeringID)
	}
}

// Publish delivers the event to every connection subscribed to the
// offering. Sends never block: a dead or slow subscriber loses the event
// and the rest still receive it.
func (h *Hub) Publish(offeringID uint, evt Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for connID, c := range h.byOffering[offeringID] {
		select {
		case c.ch <- evt:
		default:
			zap.L().Warn("dropping event for slow subscriber",
				zap.String("conn_id", connID),
				zap.Uint("offering_id", offeringID),
				zap.String("event_type", string(evt.Type)))
		}
	}
}

// SubscriberCount reports how many connections are watching an offering.
func (h *Hub) SubscriberCount(offeringID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.byOffering[offeringID])
}
