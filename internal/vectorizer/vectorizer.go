package vectorizer

import (
	"errors"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"gonum.org/v1/gonum/mat"

	"github.com/autonotes/backend/internal/tokenize"
)

// ErrEmptyVocabulary is returned when no term survives filtering
var ErrEmptyVocabulary = errors.New("empty vocabulary")

// Vectorizer turns a sentence sequence into a weighted term matrix
type Vectorizer interface {
	Vectorize(sentences []string) (*TermMatrix, error)
}

// Lexicon is the slice of linguistic resources a vectorizer needs
type Lexicon interface {
	IsStopword(word string) bool
	Stem(word string) string
}

// TermMatrix maps (sentence, term) to a non-negative weight. Absent entries are 0.
type TermMatrix struct {
	Vocabulary []string
	Rows       []map[int]float64
}

// Dims returns (sentences, terms)
func (m *TermMatrix) Dims() (int, int) {
	return len(m.Rows), len(m.Vocabulary)
}

func (m *TermMatrix) At(i, j int) float64 {
	return m.Rows[i][j]
}

// Dense returns the matrix as a sentences x terms gonum matrix
func (m *TermMatrix) Dense() *mat.Dense {
	r, c := m.Dims()
	d := mat.NewDense(r, c, nil)
	for i, row := range m.Rows {
		for j, w := range row {
			d.Set(i, j, w)
		}
	}
	return d
}

// Frequency builds the augmented term-frequency matrix used for latent
// semantic ranking: letters-only words, lowercased, stopwords removed and
// stemmed; weight = smoothing + (1-smoothing) * count / max count in sentence.
type Frequency struct {
	Lexicon   Lexicon
	Smoothing float64
}

func NewFrequency(lex Lexicon, smoothing float64) *Frequency {
	return &Frequency{Lexicon: lex, Smoothing: smoothing}
}

func (f *Frequency) Vectorize(sentences []string) (*TermMatrix, error) {
	counts := make([]map[string]int, len(sentences))
	seen := make(map[string]struct{})

	for i, s := range sentences {
		counts[i] = make(map[string]int)
		for _, w := range tokenize.Words(s) {
			if !isAlpha(w) {
				continue
			}
			w = strings.ToLower(w)
			if f.Lexicon.IsStopword(w) {
				continue
			}
			term := f.Lexicon.Stem(w)
			counts[i][term]++
			seen[term] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return nil, ErrEmptyVocabulary
	}

	vocab := sortedKeys(seen)
	index := indexOf(vocab)

	rows := make([]map[int]float64, len(sentences))
	for i, tf := range counts {
		rows[i] = make(map[int]float64, len(tf))
		maxCount := 0
		for _, c := range tf {
			if c > maxCount {
				maxCount = c
			}
		}
		for term, c := range tf {
			rows[i][index[term]] = f.Smoothing + (1-f.Smoothing)*float64(c)/float64(maxCount)
		}
	}

	return &TermMatrix{Vocabulary: vocab, Rows: rows}, nil
}

func isAlpha(w string) bool {
	if w == "" {
		return false
	}
	for _, r := range w {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func runeLen(w string) int {
	return utf8.RuneCountInString(w)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func indexOf(vocab []string) map[string]int {
	index := make(map[string]int, len(vocab))
	for i, t := range vocab {
		index[t] = i
	}
	return index
}
