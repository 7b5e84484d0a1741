package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func newTestHub() *Hub {
	h := NewHub(nil, nopLogger{})
	go h.Run()
	return h
}

func newTestClient(h *Hub, email string, documentId uint) *Client {
	return &Client{
		Id:         uuid.New(),
		UserId:     uuid.New(),
		Email:      email,
		DocumentId: documentId,
		Send:       make(chan []byte, sendBufferSize),
		hub:        h,
		logger:     nopLogger{},
	}
}

func readFrame(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		require.True(t, ok, "send channel closed unexpectedly")
		var env Envelope
		require.NoError(t, json.Unmarshal(data, &env))
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return Envelope{}
	}
}

func presenceList(t *testing.T, env Envelope) []string {
	t.Helper()
	require.Equal(t, EventCurrentUsersUpdate, env.Event)
	var identities []string
	require.NoError(t, json.Unmarshal(env.Payload, &identities))
	return identities
}

func TestHubBroadcastsPresenceOnJoin(t *testing.T) {
	hub := newTestHub()

	alice := newTestClient(hub, "alice@example.com", 7)
	hub.Register(alice)
	assert.Equal(t, []string{"alice@example.com"}, presenceList(t, readFrame(t, alice)))

	bob := newTestClient(hub, "bob@example.com", 7)
	hub.Register(bob)

	// Every member, including the newcomer, receives the updated list.
	assert.Equal(t,
		[]string{"alice@example.com", "bob@example.com"},
		presenceList(t, readFrame(t, alice)))
	assert.Equal(t,
		[]string{"alice@example.com", "bob@example.com"},
		presenceList(t, readFrame(t, bob)))
}

func TestHubPresenceDeduplicatesIdentity(t *testing.T) {
	hub := newTestHub()

	tabOne := newTestClient(hub, "alice@example.com", 3)
	tabTwo := newTestClient(hub, "alice@example.com", 3)
	hub.Register(tabOne)
	readFrame(t, tabOne)
	hub.Register(tabTwo)

	// Two connections, one identity.
	assert.Equal(t, []string{"alice@example.com"}, presenceList(t, readFrame(t, tabOne)))
	assert.Equal(t, []string{"alice@example.com"}, presenceList(t, readFrame(t, tabTwo)))
	assert.Len(t, hub.Presence(3), 1)
}

func TestHubRelayExcludesSource(t *testing.T) {
	hub := newTestHub()

	alice := newTestClient(hub, "alice@example.com", 7)
	bob := newTestClient(hub, "bob@example.com", 7)
	carol := newTestClient(hub, "carol@example.com", 7)

	hub.Register(alice)
	readFrame(t, alice)
	hub.Register(bob)
	readFrame(t, alice)
	readFrame(t, bob)
	hub.Register(carol)
	readFrame(t, alice)
	readFrame(t, bob)
	readFrame(t, carol)

	payload := json.RawMessage(`{"blocks":[{"key":"k1","text":"hello","type":"unstyled"}],"entityMap":{}}`)
	hub.Relay(alice, payload)

	for _, member := range []*Client{bob, carol} {
		env := readFrame(t, member)
		assert.Equal(t, EventReceiveChanges, env.Event)
		assert.JSONEq(t, string(payload), string(env.Payload))
	}

	select {
	case data := <-alice.Send:
		t.Fatalf("source received its own change: %s", data)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHubRelayStaysInRoom(t *testing.T) {
	hub := newTestHub()

	alice := newTestClient(hub, "alice@example.com", 1)
	bob := newTestClient(hub, "bob@example.com", 2)

	hub.Register(alice)
	readFrame(t, alice)
	hub.Register(bob)
	readFrame(t, bob)

	hub.Relay(alice, json.RawMessage(`{"blocks":[],"entityMap":{}}`))

	select {
	case data := <-bob.Send:
		t.Fatalf("change leaked into another room: %s", data)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHubRelaySurvivesDisconnectChurn(t *testing.T) {
	hub := newTestHub()

	alice := newTestClient(hub, "alice@example.com", 5)
	hub.Register(alice)
	go func() {
		for range alice.Send {
		}
	}()

	payload := json.RawMessage(`{"blocks":[],"entityMap":{}}`)

	// Peers join and leave while edits stream in. A relay landing in the
	// window where a departing peer's channel closes must never be fatal.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			peer := newTestClient(hub, "bob@example.com", 5)
			hub.Register(peer)
			go func(c *Client) {
				for range c.Send {
				}
			}(peer)
			hub.Unregister(peer)
		}
	}()

	for {
		select {
		case <-done:
			return
		default:
			hub.Relay(alice, payload)
		}
	}
}

func TestHubUnregisterUpdatesPresence(t *testing.T) {
	hub := newTestHub()

	alice := newTestClient(hub, "alice@example.com", 9)
	bob := newTestClient(hub, "bob@example.com", 9)

	hub.Register(alice)
	readFrame(t, alice)
	hub.Register(bob)
	readFrame(t, alice)
	readFrame(t, bob)

	hub.Unregister(bob)

	assert.Equal(t, []string{"alice@example.com"}, presenceList(t, readFrame(t, alice)))

	// The hub owns the send channel and closes it on removal.
	select {
	case _, ok := <-bob.Send:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for channel close")
	}

	assert.Empty(t, hub.Presence(42))
}
