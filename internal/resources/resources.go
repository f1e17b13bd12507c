// Package resources holds the process-wide linguistic data: the Punkt
// sentence model, the stopword list and the stemmer. It is loaded once at
// start-up and is read-only afterwards, so it is safe for concurrent use.
package resources

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/kljensen/snowball/english"
	"github.com/neurosnap/sentences"
	englishpunkt "github.com/neurosnap/sentences/english"
)

//go:embed stopwords_en.txt
var englishStopwords string

// ErrUnsupportedLanguage is returned by Load for anything but English.
var ErrUnsupportedLanguage = errors.New("unsupported language")

type sentenceModel interface {
	Tokenize(text string) []*sentences.Sentence
}

// Resources is the immutable linguistic resource handle.
type Resources struct {
	language  string
	stopwords map[string]struct{}
	punkt     sentenceModel
}

// Load builds the resource set for the given language.
func Load(language string) (*Resources, error) {
	if language == "" {
		language = "english"
	}
	if strings.ToLower(language) != "english" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}

	punkt, err := englishpunkt.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load sentence model: %w", err)
	}

	return &Resources{
		language:  "english",
		stopwords: parseStopwords(englishStopwords),
		punkt:     punkt,
	}, nil
}

func parseStopwords(raw string) map[string]struct{} {
	set := make(map[string]struct{})
	scan := bufio.NewScanner(strings.NewReader(raw))
	for scan.Scan() {
		w := strings.TrimSpace(scan.Text())
		if w != "" && !strings.HasPrefix(w, "#") {
			set[w] = struct{}{}
		}
	}
	return set
}

// Language returns the language the resources were built for.
func (r *Resources) Language() string {
	return r.language
}

// IsStopword reports whether the lowercased word is a closed-class word.
func (r *Resources) IsStopword(word string) bool {
	_, ok := r.stopwords[word]
	return ok
}

// StopwordCount returns the size of the stopword list.
func (r *Resources) StopwordCount() int {
	return len(r.stopwords)
}

// Stem reduces a lowercased word to its Snowball stem.
func (r *Resources) Stem(word string) string {
	return english.Stem(word, false)
}

// SplitSentences segments text with the Punkt model. Returned sentences are
// trimmed and never empty.
func (r *Resources) SplitSentences(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var out []string
	for _, s := range r.punkt.Tokenize(text) {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}
