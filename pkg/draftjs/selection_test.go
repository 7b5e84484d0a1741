package draftjs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndOfContent(t *testing.T) {
	content := sampleTree()

	sel := EndOfContent(content)

	assert.Equal(t, "k2", sel.AnchorKey)
	assert.Equal(t, "k2", sel.FocusKey)
	assert.Equal(t, len("item"), sel.AnchorOffset)
	assert.Equal(t, len("item"), sel.FocusOffset)
	assert.False(t, sel.IsBackward)
}

func TestEndOfContentCountsRunes(t *testing.T) {
	content := &ContentState{
		Blocks:    []Block{{Key: "k1", Type: BlockTypeUnstyled, Text: "héllo"}},
		EntityMap: map[string]interface{}{},
	}

	sel := EndOfContent(content)
	assert.Equal(t, 5, sel.FocusOffset)
}

func TestMergeSelection(t *testing.T) {
	content := sampleTree()

	tests := []struct {
		name string
		old  SelectionState
		want SelectionState
	}{
		{
			name: "both keys survive",
			old:  SelectionState{AnchorKey: "k1", AnchorOffset: 3, FocusKey: "k2", FocusOffset: 2},
			want: SelectionState{AnchorKey: "k1", AnchorOffset: 3, FocusKey: "k2", FocusOffset: 2},
		},
		{
			name: "anchor key gone",
			old:  SelectionState{AnchorKey: "gone", AnchorOffset: 3, FocusKey: "k2", FocusOffset: 2},
			want: EndOfContent(content),
		},
		{
			name: "focus key gone",
			old:  SelectionState{AnchorKey: "k1", AnchorOffset: 3, FocusKey: "gone", FocusOffset: 2},
			want: EndOfContent(content),
		},
		{
			name: "backward selection keeps its direction",
			old:  SelectionState{AnchorKey: "k2", AnchorOffset: 1, FocusKey: "k1", FocusOffset: 0, IsBackward: true},
			want: SelectionState{AnchorKey: "k2", AnchorOffset: 1, FocusKey: "k1", FocusOffset: 0, IsBackward: true},
		},
		{
			name: "backward selection clamps forward when a key is gone",
			old:  SelectionState{AnchorKey: "k2", AnchorOffset: 1, FocusKey: "gone", FocusOffset: 0, IsBackward: true},
			want: EndOfContent(content),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeSelection(tt.old, content)
			assert.Equal(t, tt.want, got)

			// A merged selection must never dangle.
			assert.True(t, content.HasBlock(got.AnchorKey))
			assert.True(t, content.HasBlock(got.FocusKey))
		})
	}
}

func TestNewEditorStateCollapsesAtEnd(t *testing.T) {
	content := sampleTree()

	state := NewEditorState(content)

	require.Same(t, content, state.Content)
	assert.Equal(t, EndOfContent(content), state.Selection)
}
