package summarizer

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/autonotes/backend/internal/document"
	"github.com/autonotes/backend/internal/factorize"
	"github.com/autonotes/backend/internal/vectorizer"
)

// FallbackMarker replaces the summary when none can be produced
const FallbackMarker = "Unable to generate summary from the provided text."

// DefaultSentences is the summary length used when none is requested
const DefaultSentences = 3

var (
	ErrNoSentences     = errors.New("no sentences to summarize")
	ErrEmptyVocabulary = vectorizer.ErrEmptyVocabulary
)

// LSA ranks sentences by their weighted projection onto the singular
// directions of the term matrix and keeps the best ones in document order.
type LSA struct {
	Vectorizer vectorizer.Vectorizer
	Factorizer factorize.Factorizer
	// Dimensions limits how many singular directions count towards a rank
	// (0 uses all of them).
	Dimensions int
}

func NewLSA(v vectorizer.Vectorizer, f factorize.Factorizer, dimensions int) *LSA {
	return &LSA{Vectorizer: v, Factorizer: f, Dimensions: dimensions}
}

// Summarize returns up to count sentences of doc joined by a single space.
// Degenerate input is reported as an error, never as a panic.
func (s *LSA) Summarize(doc *document.Document, count int) (summary string, err error) {
	defer func() {
		if r := recover(); r != nil {
			summary, err = "", fmt.Errorf("%w: %v", factorize.ErrNumerical, r)
		}
	}()

	if count <= 0 {
		count = DefaultSentences
	}
	if len(doc.Sentences) == 0 {
		return "", ErrNoSentences
	}

	matrix, err := s.Vectorizer.Vectorize(doc.Sentences)
	if err != nil {
		return "", err
	}

	if count >= len(doc.Sentences) {
		return doc.Joined(), nil
	}

	f, err := s.Factorizer.Factorize(matrix.Dense(), 0)
	if err != nil {
		return "", fmt.Errorf("failed to decompose term matrix: %w", err)
	}

	chosen := selectTop(s.ranks(f), count)
	picked := make([]string, len(chosen))
	for i, idx := range chosen {
		picked[i] = doc.Sentences[idx]
	}
	return strings.Join(picked, " "), nil
}

// ranks computes sqrt(sum_k sigma_k^2 * u_ik^2) for every sentence i
func (s *LSA) ranks(f *factorize.Factorization) []float64 {
	dims := f.Rank()
	if s.Dimensions > 0 && s.Dimensions < dims {
		dims = s.Dimensions
	}
	n, _ := f.Rows.Dims()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for k := 0; k < dims; k++ {
			sigma, u := f.Weights[k], f.Rows.At(i, k)
			sum += sigma * sigma * u * u
		}
		out[i] = math.Sqrt(sum)
	}
	return out
}

// selectTop returns the indices of the n highest ranks in ascending index
// order. Equal ranks favour the earlier index.
func selectTop(ranks []float64, n int) []int {
	idx := make([]int, len(ranks))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return ranks[idx[a]] > ranks[idx[b]]
	})
	if n < len(idx) {
		idx = idx[:n]
	}
	sort.Ints(idx)
	return idx
}
