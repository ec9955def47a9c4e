package display

import "sync"

// Target is a named UI text region.
type Target interface {
	SetText(text string)
	Text() string
}

// TextNode is an in-memory Target. Every write bumps Version so pollers can
// tell a rewrite of identical text from no write at all.
type TextNode struct {
	mu      sync.RWMutex
	text    string
	version uint64
}

// NewTextNode returns a node holding text at version zero.
func NewTextNode(text string) *TextNode {
	return &TextNode{text: text}
}

func (n *TextNode) SetText(text string) {
	n.mu.Lock()
	n.text = text
	n.version++
	n.mu.Unlock()
}

func (n *TextNode) Text() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.text
}

// Read returns the text together with its write version.
func (n *TextNode) Read() (string, uint64) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.text, n.version
}
