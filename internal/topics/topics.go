package topics

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/autonotes/backend/internal/document"
	"github.com/autonotes/backend/internal/factorize"
	"github.com/autonotes/backend/internal/tokenize"
	"github.com/autonotes/backend/internal/vectorizer"
)

// DefaultCount is the number of topics returned when none is requested
const DefaultCount = 5

const (
	MethodFactorized = "nmf"
	MethodFrequency  = "frequency"
)

const termsPerTopic = 2

// ErrTooFewSentences selects the frequency path for short documents
var ErrTooFewSentences = errors.New("too few sentences to factor")

// Result is the outcome of one extraction. Err records why the frequency
// path was taken, if it was.
type Result struct {
	Topics []string
	Method string
	Err    error
}

// Extractor names the latent topics of a document
type Extractor struct {
	Vectorizer vectorizer.Vectorizer
	Factorizer factorize.Factorizer
	Tokenizer  tokenize.Tokenizer
}

func NewExtractor(v vectorizer.Vectorizer, f factorize.Factorizer, tok tokenize.Tokenizer) *Extractor {
	return &Extractor{Vectorizer: v, Factorizer: f, Tokenizer: tok}
}

// Extract returns up to count distinct topic phrases. It never fails: any
// problem on the factorized path falls back to frequency ranking.
func (e *Extractor) Extract(doc *document.Document, count int) Result {
	if count <= 0 {
		count = DefaultCount
	}
	found, err := e.Factored(doc, count)
	if err == nil {
		return Result{Topics: found, Method: MethodFactorized}
	}
	fallback := e.Frequency(doc, count)
	if fallback == nil {
		fallback = []string{}
	}
	return Result{Topics: fallback, Method: MethodFrequency, Err: err}
}

// Factored runs the TF-IDF + NMF path
func (e *Extractor) Factored(doc *document.Document, count int) (found []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			found, err = nil, fmt.Errorf("%w: %v", factorize.ErrNumerical, r)
		}
	}()

	if len(doc.Sentences) < 2 {
		return nil, ErrTooFewSentences
	}

	matrix, err := e.Vectorizer.Vectorize(doc.Sentences)
	if err != nil {
		return nil, err
	}

	rank := min(count, len(doc.Sentences))
	f, err := e.Factorizer.Factorize(matrix.Dense(), rank)
	if err != nil {
		return nil, fmt.Errorf("failed to factor term matrix: %w", err)
	}

	var terms []string
	for k := 0; k < f.Rank(); k++ {
		for _, col := range topColumns(f.Factors.RawRowView(k), termsPerTopic) {
			terms = append(terms, matrix.Vocabulary[col])
		}
	}
	return truncate(dedupe(terms), count), nil
}

// Frequency ranks alphabetic words longer than three runes by count, ties
// by first appearance.
func (e *Extractor) Frequency(doc *document.Document, count int) []string {
	counts := make(map[string]int)
	var order []string
	for _, w := range e.Tokenizer.Words(strings.ToLower(doc.Cleaned)) {
		if utf8.RuneCountInString(w) <= 3 || !alphabetic(w) {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	return truncate(order, count)
}

// topColumns picks up to n positive-weight columns, heaviest first, ties to
// the lower column.
func topColumns(weights []float64, n int) []int {
	var cols []int
	for j, w := range weights {
		if w > 0 {
			cols = append(cols, j)
		}
	}
	sort.SliceStable(cols, func(a, b int) bool {
		return weights[cols[a]] > weights[cols[b]]
	})
	return truncate(cols, n)
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

func truncate[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func alphabetic(w string) bool {
	for _, r := range w {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return w != ""
}
