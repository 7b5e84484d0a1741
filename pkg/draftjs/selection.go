package draftjs

// EditorState pairs a content tree with the current selection. It is the
// ephemeral client-side editing state; the tree is replaced wholesale on
// every remote update.
type EditorState struct {
	Content   *ContentState
	Selection SelectionState
}

// NewEditorState builds a state with the selection collapsed at the end of
// the given tree.
func NewEditorState(content *ContentState) *EditorState {
	return &EditorState{
		Content:   content,
		Selection: EndOfContent(content),
	}
}

// EndOfContent returns a collapsed selection at the end of the last block.
func EndOfContent(content *ContentState) SelectionState {
	last := content.LastBlock()
	if last == nil {
		return SelectionState{}
	}
	offset := len([]rune(last.Text))
	return SelectionState{
		AnchorKey:    last.Key,
		AnchorOffset: offset,
		FocusKey:     last.Key,
		FocusOffset:  offset,
	}
}

// MergeSelection carries an old selection onto a new tree. Keys, offsets
// and direction are preserved when both anchor and focus blocks survive; a
// dangling selection is clamped to end-of-content instead of being
// propagated.
func MergeSelection(old SelectionState, content *ContentState) SelectionState {
	if content.HasBlock(old.AnchorKey) && content.HasBlock(old.FocusKey) {
		return old
	}
	return EndOfContent(content)
}

// MoveSelectionToEnd collapses the state's selection at end-of-content.
func (s *EditorState) MoveSelectionToEnd() {
	s.Selection = EndOfContent(s.Content)
}
