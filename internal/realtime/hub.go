package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Events pushed over the club feed.
const (
	EventCandidatePromoted = "candidate_promoted"
	EventChallengeCreated  = "challenge_created"
	EventContributionAdded = "contribution_added"
	EventMeetingScheduled  = "meeting_scheduled"
)

// Hub maintains the set of connected members and fans club events out to
// them. Uses Redis pub/sub for horizontal scaling: events are published to
// Redis and every instance (this one included) broadcasts to its local
// clients from the subscription, so each client receives the event once.
type Hub struct {
	clients map[string]*Client
	mu      sync.RWMutex
	logger  *zap.Logger
	pub     Publisher
}

// Publisher publishes club events to Redis for cross-instance broadcast.
type Publisher interface {
	PublishClubEvent(event string, payload []byte) error
}

// Subscriber subscribes to the club channel and invokes handler for incoming events.
type Subscriber interface {
	SubscribeClub(handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zap.Logger, pub Publisher) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
		pub:     pub,
	}
}

// Start subscribes the hub to the club channel. The returned cancel stops
// the subscription; call it on shutdown.
func (h *Hub) Start(sub Subscriber) (cancel func(), err error) {
	if sub == nil {
		return func() {}, nil
	}
	return sub.SubscribeClub(func(event string, payload []byte) {
		h.broadcastLocal(event, json.RawMessage(payload))
	})
}

// Register adds a client to the club feed.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client joined feed", zap.String("client_id", c.ID), zap.String("member_id", c.MemberID.String()))
}

// Unregister removes a client from the club feed.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.ID)
	h.mu.Unlock()
	h.logger.Debug("client left feed", zap.String("client_id", c.ID), zap.String("member_id", c.MemberID.String()))
}

// Broadcast sends an event to every connected member. With Redis configured
// the event goes through pub/sub so other instances deliver it too; without
// Redis it is delivered to local clients directly.
func (h *Hub) Broadcast(event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if h.pub != nil {
		if err := h.pub.PublishClubEvent(event, data); err == nil {
			return
		}
		h.logger.Warn("redis publish failed, broadcasting locally", zap.String("event", event))
	}
	h.broadcastLocal(event, json.RawMessage(data))
}

func (h *Hub) broadcastLocal(event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		data, _ = json.Marshal(payload)
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// ClientCount returns the number of connected clients on this instance.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
