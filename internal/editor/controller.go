package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"talkwrite-be/internal/pkg/logger"
	"talkwrite-be/pkg/draftjs"
)

// Event channel names shared with the room server.
const (
	eventSendChanges        = "SEND_CHANGES"
	eventReceiveChanges     = "RECEIVE_CHANGES"
	eventCurrentUsersUpdate = "CURRENT_USERS_UPDATE"
)

var ErrNotReady = errors.New("document not loaded")

// State tracks the controller lifecycle. Only a Ready controller accepts
// edits.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
)

// Store loads and persists serialized content trees for a document.
type Store interface {
	Load(ctx context.Context, documentId uint) (string, error)
	Save(ctx context.Context, documentId uint, content string) error
}

// Callbacks surface controller activity to the UI layer. Nil callbacks are
// skipped.
type Callbacks struct {
	OnContentChanged  func(state *draftjs.EditorState)
	OnPresenceChanged func(identities []string)
	OnError           func(err error)
}

// Controller keeps one open document synchronized: it loads the content
// tree, relays local edits to the room, applies remote edits, folds
// dictation transcripts in as new blocks, and debounces persistence so a
// burst of keystrokes produces a single save.
type Controller struct {
	documentId uint
	store      Store
	transport  Transport
	saver      *saver
	callbacks  Callbacks
	logger     logger.ILogger

	mu        sync.Mutex
	state     State
	editor    *draftjs.EditorState
	encoded   string
	connected bool

	dictationCancel context.CancelFunc
}

func NewController(
	documentId uint,
	store Store,
	transport Transport,
	saveDebounce time.Duration,
	callbacks Callbacks,
	log logger.ILogger,
) *Controller {
	c := &Controller{
		documentId: documentId,
		store:      store,
		transport:  transport,
		callbacks:  callbacks,
		logger:     log,
		state:      StateUninitialized,
	}
	c.saver = newSaver(saveDebounce, c.persist)
	return c
}

// State reports the current lifecycle phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// EditorState returns the current content and selection.
func (c *Controller) EditorState() *draftjs.EditorState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editor
}

// Load fetches the stored content tree and makes the controller Ready. It is
// idempotent; once loading has begun further calls are no-ops. A stored tree
// that fails to decode is replaced by an empty document rather than leaving
// the editor unusable, and the decode error is surfaced through OnError.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateUninitialized {
		c.mu.Unlock()
		return nil
	}
	c.state = StateLoading
	c.mu.Unlock()

	raw, err := c.store.Load(ctx, c.documentId)
	if err != nil {
		c.mu.Lock()
		c.state = StateUninitialized
		c.mu.Unlock()
		return fmt.Errorf("load document %d: %w", c.documentId, err)
	}

	content, decodeErr := draftjs.Decode(raw)
	if decodeErr != nil {
		c.logger.Warn("Editor", "Stored content unreadable, starting empty", map[string]interface{}{
			"document_id": c.documentId,
			"error":       decodeErr.Error(),
		})
		content = draftjs.CreateEmpty()
	}

	encoded, err := draftjs.Encode(content)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.editor = draftjs.NewEditorState(content)
	c.encoded = encoded
	c.state = StateReady
	editor := c.editor
	c.mu.Unlock()

	if decodeErr != nil {
		c.emitError(decodeErr)
	}
	c.emitContent(editor)
	return nil
}

// Connect joins the document room. Idempotent; reconnection is the caller's
// concern.
func (c *Controller) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if err := c.transport.Connect(ctx, c.handleMessage); err != nil {
		return err
	}

	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	return nil
}

// HandleLocalEdit accepts a new editor state from the UI. When the content
// tree actually changed the edit is relayed to the room and a save is
// scheduled; selection-only updates touch neither network nor storage.
func (c *Controller) HandleLocalEdit(content *draftjs.ContentState, selection draftjs.SelectionState) error {
	encoded, err := draftjs.Encode(content)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.state != StateReady {
		c.mu.Unlock()
		return ErrNotReady
	}

	changed := encoded != c.encoded
	c.editor = &draftjs.EditorState{Content: content, Selection: selection}
	if changed {
		c.encoded = encoded
	}
	c.mu.Unlock()

	if !changed {
		return nil
	}

	if err := c.transport.Send(eventSendChanges, content); err != nil {
		c.logger.Warn("Editor", "Failed to relay local edit", map[string]interface{}{
			"document_id": c.documentId,
			"error":       err.Error(),
		})
	}
	c.saver.Schedule(encoded)
	return nil
}

// HandleTranscript appends a finalized dictation segment as a fresh
// unstyled block and pushes it through the same relay and save path as a
// typed edit.
func (c *Controller) HandleTranscript(text string) error {
	c.mu.Lock()
	if c.state != StateReady {
		c.mu.Unlock()
		return ErrNotReady
	}

	content := draftjs.AppendBlock(c.editor.Content, text)
	selection := draftjs.MergeSelection(c.editor.Selection, content)

	encoded, err := draftjs.Encode(content)
	if err != nil {
		c.mu.Unlock()
		return err
	}

	c.editor = &draftjs.EditorState{Content: content, Selection: selection}
	c.encoded = encoded
	editor := c.editor
	c.mu.Unlock()

	if err := c.transport.Send(eventSendChanges, content); err != nil {
		c.logger.Warn("Editor", "Failed to relay transcript", map[string]interface{}{
			"document_id": c.documentId,
			"error":       err.Error(),
		})
	}
	c.saver.Schedule(encoded)
	c.emitContent(editor)
	return nil
}

// StartDictation consumes a transcript stream until it closes or Close is
// called.
func (c *Controller) StartDictation(ctx context.Context, source TranscriptSource) error {
	ctx, cancel := context.WithCancel(ctx)

	transcripts, err := source.Start(ctx)
	if err != nil {
		cancel()
		return err
	}

	c.mu.Lock()
	if c.dictationCancel != nil {
		c.dictationCancel()
	}
	c.dictationCancel = cancel
	c.mu.Unlock()

	go func() {
		defer source.Stop()
		for {
			select {
			case text, ok := <-transcripts:
				if !ok {
					return
				}
				if err := c.HandleTranscript(text); err != nil {
					c.emitError(err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Close tears the controller down: dictation stops, the room connection
// closes, and any pending save is dropped.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.dictationCancel != nil {
		c.dictationCancel()
		c.dictationCancel = nil
	}
	connected := c.connected
	c.connected = false
	c.mu.Unlock()

	var err error
	if connected {
		err = c.transport.Close()
	}
	c.saver.Cancel()
	return err
}

func (c *Controller) handleMessage(event string, payload json.RawMessage) {
	switch event {
	case eventReceiveChanges:
		c.applyRemoteEdit(payload)
	case eventCurrentUsersUpdate:
		var identities []string
		if err := json.Unmarshal(payload, &identities); err != nil {
			c.logger.Warn("Editor", "Dropping malformed presence update", map[string]interface{}{
				"document_id": c.documentId,
				"error":       err.Error(),
			})
			return
		}
		if c.callbacks.OnPresenceChanged != nil {
			c.callbacks.OnPresenceChanged(identities)
		}
	}
}

// applyRemoteEdit replaces the whole content tree with the peer's version.
// The local selection moves to the end of the new content. A payload that
// does not decode is dropped; one bad peer frame must not kill the session.
func (c *Controller) applyRemoteEdit(payload json.RawMessage) {
	content, err := draftjs.Decode(string(payload))
	if err != nil {
		c.logger.Warn("Editor", "Dropping malformed remote edit", map[string]interface{}{
			"document_id": c.documentId,
			"error":       err.Error(),
		})
		return
	}

	encoded, err := draftjs.Encode(content)
	if err != nil {
		return
	}

	c.mu.Lock()
	if c.state != StateReady {
		c.mu.Unlock()
		return
	}
	c.editor = draftjs.NewEditorState(content)
	c.encoded = encoded
	editor := c.editor
	c.mu.Unlock()

	c.emitContent(editor)
}

// persist runs on the saver's timer goroutine once the debounce window
// closes.
func (c *Controller) persist(snapshot string) {
	if err := c.store.Save(context.Background(), c.documentId, snapshot); err != nil {
		c.logger.Error("Editor", "Failed to save document", map[string]interface{}{
			"document_id": c.documentId,
			"error":       err.Error(),
		})
		c.emitError(err)
	}
}

func (c *Controller) emitContent(editor *draftjs.EditorState) {
	if c.callbacks.OnContentChanged != nil {
		c.callbacks.OnContentChanged(editor)
	}
}

func (c *Controller) emitError(err error) {
	if c.callbacks.OnError != nil {
		c.callbacks.OnError(err)
	}
}
