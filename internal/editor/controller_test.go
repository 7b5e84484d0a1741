package editor

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"talkwrite-be/pkg/draftjs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

type fakeStore struct {
	mu      sync.Mutex
	content string
	loadErr error
	loads   int
	saves   []string
	saved   chan string
}

func newFakeStore(content string) *fakeStore {
	return &fakeStore{content: content, saved: make(chan string, 16)}
}

func (s *fakeStore) Load(ctx context.Context, documentId uint) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	return s.content, s.loadErr
}

func (s *fakeStore) Save(ctx context.Context, documentId uint, content string) error {
	s.mu.Lock()
	s.saves = append(s.saves, content)
	s.mu.Unlock()
	s.saved <- content
	return nil
}

func (s *fakeStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saves)
}

type sentFrame struct {
	event   string
	payload interface{}
}

type fakeTransport struct {
	mu        sync.Mutex
	onMessage MessageHandler
	sent      []sentFrame
	closed    bool
}

func (t *fakeTransport) Connect(ctx context.Context, onMessage MessageHandler) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onMessage = onMessage
	return nil
}

func (t *fakeTransport) Send(event string, payload interface{}) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, sentFrame{event: event, payload: payload})
	return nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

func (t *fakeTransport) push(t2 *testing.T, event string, payload interface{}) {
	t2.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t2, err)
	t.mu.Lock()
	handler := t.onMessage
	t.mu.Unlock()
	require.NotNil(t2, handler, "transport not connected")
	handler(event, raw)
}

func (t *fakeTransport) sentFrames() []sentFrame {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]sentFrame, len(t.sent))
	copy(out, t.sent)
	return out
}

func storedTree(t *testing.T, texts ...string) string {
	t.Helper()
	content := draftjs.CreateEmpty()
	content.Blocks[0].Text = texts[0]
	for _, text := range texts[1:] {
		content = draftjs.AppendBlock(content, text)
	}
	encoded, err := draftjs.Encode(content)
	require.NoError(t, err)
	return encoded
}

func newReadyController(t *testing.T, store *fakeStore, transport *fakeTransport, debounce time.Duration, callbacks Callbacks) *Controller {
	t.Helper()
	c := NewController(42, store, transport, debounce, callbacks, nopLogger{})
	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.Connect(context.Background()))
	return c
}

func TestLoadIsIdempotent(t *testing.T) {
	store := newFakeStore(storedTree(t, "hello"))
	c := NewController(42, store, &fakeTransport{}, time.Second, Callbacks{}, nopLogger{})

	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.Load(context.Background()))

	assert.Equal(t, 1, store.loads)
	assert.Equal(t, StateReady, c.State())
	assert.Equal(t, "hello", c.EditorState().Content.Blocks[0].Text)
}

func TestLoadPropagatesStoreError(t *testing.T) {
	store := newFakeStore("")
	store.loadErr = errors.New("connection refused")
	c := NewController(42, store, &fakeTransport{}, time.Second, Callbacks{}, nopLogger{})

	require.Error(t, c.Load(context.Background()))
	assert.Equal(t, StateUninitialized, c.State())

	// A failed load may be retried.
	store.loadErr = nil
	store.content = storedTree(t, "second try")
	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, StateReady, c.State())
}

func TestLoadFallsBackToEmptyOnCorruptContent(t *testing.T) {
	store := newFakeStore(`{"blocks": not json`)
	var reported error
	c := NewController(42, store, &fakeTransport{}, time.Second, Callbacks{
		OnError: func(err error) { reported = err },
	}, nopLogger{})

	require.NoError(t, c.Load(context.Background()))

	assert.Equal(t, StateReady, c.State())
	assert.Error(t, reported)
	require.Len(t, c.EditorState().Content.Blocks, 1)
	assert.Equal(t, draftjs.BlockTypeUnstyled, c.EditorState().Content.Blocks[0].Type)
	assert.Empty(t, c.EditorState().Content.Blocks[0].Text)
}

func TestEditBeforeLoadRejected(t *testing.T) {
	c := NewController(42, newFakeStore(""), &fakeTransport{}, time.Second, Callbacks{}, nopLogger{})

	err := c.HandleLocalEdit(draftjs.CreateEmpty(), draftjs.SelectionState{})
	assert.ErrorIs(t, err, ErrNotReady)
	assert.ErrorIs(t, c.HandleTranscript("hello"), ErrNotReady)
}

func TestLocalEditsCoalesceIntoSingleSave(t *testing.T) {
	store := newFakeStore(storedTree(t, ""))
	transport := &fakeTransport{}
	c := newReadyController(t, store, transport, 50*time.Millisecond, Callbacks{})

	// A typing burst: each edit lands before the debounce window closes.
	content := c.EditorState().Content
	for _, text := range []string{"h", "he", "hel", "hell", "hello"} {
		next := &draftjs.ContentState{
			Blocks:    []draftjs.Block{{Key: content.Blocks[0].Key, Type: draftjs.BlockTypeUnstyled, Text: text}},
			EntityMap: map[string]interface{}{},
		}
		require.NoError(t, c.HandleLocalEdit(next, draftjs.EndOfContent(next)))
	}

	select {
	case snapshot := <-store.saved:
		decoded, err := draftjs.Decode(snapshot)
		require.NoError(t, err)
		assert.Equal(t, "hello", decoded.Blocks[0].Text)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for save")
	}

	// Only the last snapshot reaches storage.
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 1, store.saveCount())

	// Every edit was relayed immediately.
	assert.Len(t, transport.sentFrames(), 5)
}

func TestSelectionOnlyChangeIsLocal(t *testing.T) {
	store := newFakeStore(storedTree(t, "hello"))
	transport := &fakeTransport{}
	c := newReadyController(t, store, transport, 20*time.Millisecond, Callbacks{})

	content := c.EditorState().Content
	selection := draftjs.SelectionState{
		AnchorKey: content.Blocks[0].Key,
		FocusKey:  content.Blocks[0].Key,
	}
	require.NoError(t, c.HandleLocalEdit(content, selection))

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, store.saveCount())
	assert.Empty(t, transport.sentFrames())
	assert.Equal(t, selection, c.EditorState().Selection)
}

func TestRemoteEditReplacesContent(t *testing.T) {
	store := newFakeStore(storedTree(t, "mine"))
	transport := &fakeTransport{}
	var notified *draftjs.EditorState
	c := newReadyController(t, store, transport, time.Second, Callbacks{
		OnContentChanged: func(state *draftjs.EditorState) { notified = state },
	})

	theirs := draftjs.CreateEmpty()
	theirs.Blocks[0].Text = "theirs"
	theirs = draftjs.AppendBlock(theirs, "second block")
	transport.push(t, eventReceiveChanges, theirs)

	editor := c.EditorState()
	require.Len(t, editor.Content.Blocks, 2)
	assert.Equal(t, "theirs", editor.Content.Blocks[0].Text)

	// Selection collapses at the end of the replacement content.
	assert.Equal(t, editor.Content.Blocks[1].Key, editor.Selection.AnchorKey)
	assert.Equal(t, len("second block"), editor.Selection.AnchorOffset)
	require.NotNil(t, notified)

	// A remote edit is applied, not persisted or echoed back.
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, store.saveCount())
	assert.Empty(t, transport.sentFrames())
}

func TestMalformedRemoteEditDropped(t *testing.T) {
	store := newFakeStore(storedTree(t, "mine"))
	transport := &fakeTransport{}
	c := newReadyController(t, store, transport, time.Second, Callbacks{})

	transport.mu.Lock()
	handler := transport.onMessage
	transport.mu.Unlock()
	handler(eventReceiveChanges, json.RawMessage(`{"blocks": 12}`))

	assert.Equal(t, "mine", c.EditorState().Content.Blocks[0].Text)
}

func TestPresenceUpdateReachesCallback(t *testing.T) {
	store := newFakeStore(storedTree(t, ""))
	transport := &fakeTransport{}
	var identities []string
	newReadyController(t, store, transport, time.Second, Callbacks{
		OnPresenceChanged: func(ids []string) { identities = ids },
	})

	transport.push(t, eventCurrentUsersUpdate, []string{"alice@example.com", "bob@example.com"})

	assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, identities)
}

func TestTranscriptAppendsBlocks(t *testing.T) {
	store := newFakeStore(storedTree(t, "notes so far"))
	transport := &fakeTransport{}
	c := newReadyController(t, store, transport, 30*time.Millisecond, Callbacks{})

	require.NoError(t, c.HandleTranscript("first spoken sentence"))
	require.NoError(t, c.HandleTranscript("second spoken sentence"))

	editor := c.EditorState()
	require.Len(t, editor.Content.Blocks, 3)
	assert.Equal(t, "first spoken sentence", editor.Content.Blocks[1].Text)
	assert.Equal(t, "second spoken sentence", editor.Content.Blocks[2].Text)
	for _, block := range editor.Content.Blocks[1:] {
		assert.Equal(t, draftjs.BlockTypeUnstyled, block.Type)
		assert.Empty(t, block.InlineStyleRanges)
	}

	// Selection still points at a live block.
	assert.True(t, editor.Content.HasBlock(editor.Selection.AnchorKey))

	// Transcripts ride the same relay and debounced-save path as typing.
	assert.Len(t, transport.sentFrames(), 2)
	select {
	case snapshot := <-store.saved:
		decoded, err := draftjs.Decode(snapshot)
		require.NoError(t, err)
		assert.Len(t, decoded.Blocks, 3)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for save")
	}
	assert.Equal(t, 1, store.saveCount())
}

type fakeTranscriptSource struct {
	ch      chan string
	stopped bool
}

func (s *fakeTranscriptSource) Start(ctx context.Context) (<-chan string, error) {
	return s.ch, nil
}

func (s *fakeTranscriptSource) Stop() error {
	s.stopped = true
	return nil
}

func TestStartDictationConsumesStream(t *testing.T) {
	store := newFakeStore(storedTree(t, ""))
	transport := &fakeTransport{}
	c := newReadyController(t, store, transport, 10*time.Millisecond, Callbacks{})

	source := &fakeTranscriptSource{ch: make(chan string, 2)}
	require.NoError(t, c.StartDictation(context.Background(), source))

	source.ch <- "dictated line"
	close(source.ch)

	assert.Eventually(t, func() bool {
		editor := c.EditorState()
		return len(editor.Content.Blocks) == 2 && editor.Content.Blocks[1].Text == "dictated line"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCloseStopsPendingSave(t *testing.T) {
	store := newFakeStore(storedTree(t, ""))
	transport := &fakeTransport{}
	c := newReadyController(t, store, transport, 50*time.Millisecond, Callbacks{})

	content := draftjs.CreateEmpty()
	content.Blocks[0].Text = "unsaved"
	require.NoError(t, c.HandleLocalEdit(content, draftjs.EndOfContent(content)))
	require.NoError(t, c.Close())

	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, store.saveCount())
	assert.True(t, transport.closed)
}
