package draftjs

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Decode parses a serialized Draft.js raw content state. The input is the
// opaque string stored in a document's content column.
func Decode(serialized string) (*ContentState, error) {
	var content ContentState
	if err := json.Unmarshal([]byte(serialized), &content); err != nil {
		return nil, fmt.Errorf("failed to parse content state: %w", err)
	}
	if err := validate(&content); err != nil {
		return nil, err
	}
	normalize(&content)
	return &content, nil
}

// Encode serializes a content tree back to its transport form.
// Decode(Encode(t)) == t for any tree respecting the block invariants.
func Encode(content *ContentState) (string, error) {
	normalize(content)
	data, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("failed to serialize content state: %w", err)
	}
	return string(data), nil
}

// CreateEmpty produces the initial tree: a single empty unstyled block.
func CreateEmpty() *ContentState {
	return &ContentState{
		Blocks: []Block{{
			Key:               NewBlockKey(),
			Type:              BlockTypeUnstyled,
			Text:              "",
			InlineStyleRanges: []InlineStyleRange{},
			EntityRanges:      []EntityRange{},
			Depth:             0,
			Data:              map[string]interface{}{},
		}},
		EntityMap: map[string]interface{}{},
	}
}

// AppendBlock returns a copy of the tree with a fresh unstyled block holding
// text appended at the end. The source tree is not mutated.
func AppendBlock(content *ContentState, text string) *ContentState {
	blocks := make([]Block, len(content.Blocks), len(content.Blocks)+1)
	copy(blocks, content.Blocks)
	blocks = append(blocks, Block{
		Key:               NewBlockKey(),
		Type:              BlockTypeUnstyled,
		Text:              text,
		InlineStyleRanges: []InlineStyleRange{},
		EntityRanges:      []EntityRange{},
		Depth:             0,
		Data:              map[string]interface{}{},
	})
	return &ContentState{Blocks: blocks, EntityMap: content.EntityMap}
}

// NewBlockKey generates a unique opaque block key.
func NewBlockKey() string {
	return uuid.NewString()
}

// IsSerializedTree reports whether raw looks like an encoded content tree.
func IsSerializedTree(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	return strings.HasPrefix(trimmed, `{`) && strings.Contains(trimmed, `"blocks"`)
}

func validate(content *ContentState) error {
	seen := make(map[string]struct{}, len(content.Blocks))
	for i := range content.Blocks {
		key := content.Blocks[i].Key
		if key == "" {
			return fmt.Errorf("block %d has an empty key", i)
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate block key %q", key)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// normalize fills in nil slices and maps so encode output is stable and the
// round-trip is exact regardless of how the tree was constructed.
func normalize(content *ContentState) {
	if content.EntityMap == nil {
		content.EntityMap = map[string]interface{}{}
	}
	for i := range content.Blocks {
		b := &content.Blocks[i]
		if b.InlineStyleRanges == nil {
			b.InlineStyleRanges = []InlineStyleRange{}
		}
		if b.EntityRanges == nil {
			b.EntityRanges = []EntityRange{}
		}
		if b.Data == nil {
			b.Data = map[string]interface{}{}
		}
	}
}
