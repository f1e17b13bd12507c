package tokenize

import (
	"regexp"

	"github.com/autonotes/backend/internal/resources"
)

// Tokenizer splits text into sentences and words
type Tokenizer interface {
	Sentences(text string) []string
	Words(text string) []string
}

var reWord = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Punkt segments sentences with the pre-trained Punkt model held by the
// linguistic resources.
type Punkt struct {
	res *resources.Resources
}

func NewPunkt(res *resources.Resources) *Punkt {
	return &Punkt{res: res}
}

// Sentences returns the ordered, non-empty sentences of text
func (p *Punkt) Sentences(text string) []string {
	return p.res.SplitSentences(text)
}

// Words returns maximal runs of letters, digits and underscores
func (p *Punkt) Words(text string) []string {
	return Words(text)
}

// Words is the word splitter shared by every Tokenizer in this package
func Words(text string) []string {
	return reWord.FindAllString(text, -1)
}
