package draftjs

// ContentState is the raw Draft.js content tree: an ordered list of blocks
// plus an entity map. Block order is the document's line order.
type ContentState struct {
	Blocks    []Block                `json:"blocks"`
	EntityMap map[string]interface{} `json:"entityMap"`
}

// Block is a single styled text block. Key must be unique within a tree.
type Block struct {
	Key               string                 `json:"key"`
	Type              string                 `json:"type"`
	Text              string                 `json:"text"`
	InlineStyleRanges []InlineStyleRange     `json:"inlineStyleRanges"`
	EntityRanges      []EntityRange          `json:"entityRanges"`
	Depth             int                    `json:"depth"`
	Data              map[string]interface{} `json:"data"`
}

type InlineStyleRange struct {
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	Style  string `json:"style"`
}

type EntityRange struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
	Key    int `json:"key"`
}

// SelectionState is the caret/selection over a ContentState. Anchor and
// focus reference block keys; a selection whose keys are missing from the
// tree is invalid and must be clamped before use.
type SelectionState struct {
	AnchorKey    string `json:"anchorKey"`
	AnchorOffset int    `json:"anchorOffset"`
	FocusKey     string `json:"focusKey"`
	FocusOffset  int    `json:"focusOffset"`
	IsBackward   bool   `json:"isBackward"`
}

// Block types understood by the editor surface.
const (
	BlockTypeUnstyled          = "unstyled"
	BlockTypeUnorderedListItem = "unordered-list-item"
	BlockTypeOrderedListItem   = "ordered-list-item"
	BlockTypeHeaderOne         = "header-one"
	BlockTypeHeaderTwo         = "header-two"
	BlockTypeBlockquote        = "blockquote"
	BlockTypeCodeBlock         = "code-block"
)

// HasBlock reports whether key identifies a block in the tree.
func (c *ContentState) HasBlock(key string) bool {
	for i := range c.Blocks {
		if c.Blocks[i].Key == key {
			return true
		}
	}
	return false
}

// LastBlock returns the final block of the tree, or nil for an empty tree.
func (c *ContentState) LastBlock() *Block {
	if len(c.Blocks) == 0 {
		return nil
	}
	return &c.Blocks[len(c.Blocks)-1]
}
