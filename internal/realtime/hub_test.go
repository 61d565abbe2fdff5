package realtime

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type capturingPublisher struct {
	events   []string
	payloads [][]byte
	fail     bool
}

func (p *capturingPublisher) PublishClubEvent(event string, payload []byte) error {
	if p.fail {
		return assert.AnError
	}
	p.events = append(p.events, event)
	p.payloads = append(p.payloads, payload)
	return nil
}

func newTestClient() *Client {
	return &Client{
		ID:       uuid.New().String(),
		MemberID: uuid.New(),
		Role:     "PARTICIPANT",
		send:     make(chan WSMessage, 4),
	}
}

func TestBroadcastWithoutRedisDeliversLocally(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	a := newTestClient()
	b := newTestClient()
	hub.Register(a)
	hub.Register(b)

	hub.Broadcast(EventChallengeCreated, map[string]string{"id": "c1"})

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.send:
			assert.Equal(t, EventChallengeCreated, msg.Event)
			var data map[string]string
			require.NoError(t, json.Unmarshal(msg.Data, &data))
			assert.Equal(t, "c1", data["id"])
		default:
			t.Fatal("client received no message")
		}
	}
}

func TestBroadcastWithRedisGoesThroughPubSub(t *testing.T) {
	pub := &capturingPublisher{}
	hub := NewHub(zap.NewNop(), pub)
	c := newTestClient()
	hub.Register(c)

	hub.Broadcast(EventCandidatePromoted, map[string]string{"name": "Ana"})

	// Delivery happens via the subscription callback, not directly.
	assert.Empty(t, c.send)
	require.Len(t, pub.events, 1)
	assert.Equal(t, EventCandidatePromoted, pub.events[0])
}

func TestBroadcastFallsBackWhenPublishFails(t *testing.T) {
	hub := NewHub(zap.NewNop(), &capturingPublisher{fail: true})
	c := newTestClient()
	hub.Register(c)

	hub.Broadcast(EventMeetingScheduled, map[string]string{"id": "m1"})

	select {
	case msg := <-c.send:
		assert.Equal(t, EventMeetingScheduled, msg.Event)
	default:
		t.Fatal("expected local fallback delivery")
	}
}

func TestUnregisterStopsDelivery(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	c := newTestClient()
	hub.Register(c)
	require.Equal(t, 1, hub.ClientCount())

	hub.Unregister(c)
	assert.Equal(t, 0, hub.ClientCount())

	hub.Broadcast(EventContributionAdded, map[string]string{})
	assert.Empty(t, c.send)
}

func TestBroadcastSkipsFullBuffers(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	c := newTestClient()
	hub.Register(c)

	for i := 0; i < cap(c.send)+3; i++ {
		hub.Broadcast(EventChallengeCreated, map[string]int{"n": i})
	}
	assert.Equal(t, cap(c.send), len(c.send))
}
