package document

import (
	"strings"

	"github.com/autonotes/backend/internal/normalize"
	"github.com/autonotes/backend/internal/tokenize"
)

// Document is the per-request view of the input text
type Document struct {
	Raw       string
	Cleaned   string
	Sentences []string // in order of first appearance in Cleaned
}

// New normalizes raw and splits it into sentences
func New(raw string, tok tokenize.Tokenizer) *Document {
	cleaned := normalize.Text(raw)
	return &Document{
		Raw:       raw,
		Cleaned:   cleaned,
		Sentences: tok.Sentences(cleaned),
	}
}

// Joined rejoins the sentences with single spaces
func (d *Document) Joined() string {
	return strings.Join(d.Sentences, " ")
}
