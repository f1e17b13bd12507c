package vectorizer

import (
	"math"
	"sort"
	"strings"

	"github.com/autonotes/backend/internal/tokenize"
)

// TFIDF implements Term Frequency - Inverse Document Frequency over
// sentences, with unigrams and bigrams drawn from the stopword-filtered
// token stream.
type TFIDF struct {
	Lexicon     Lexicon
	MaxFeatures int     // 0 keeps every term
	MaxDocFreq  float64 // fraction of sentences
	MinDocFreq  int
}

func NewTFIDF(lex Lexicon, maxFeatures int, maxDocFreq float64, minDocFreq int) *TFIDF {
	return &TFIDF{
		Lexicon:     lex,
		MaxFeatures: maxFeatures,
		MaxDocFreq:  maxDocFreq,
		MinDocFreq:  minDocFreq,
	}
}

type termStat struct {
	term  string
	df    int
	total int
}

func (v *TFIDF) Vectorize(sentences []string) (*TermMatrix, error) {
	docCount := len(sentences)
	counts := make([]map[string]int, docCount)
	stats := make(map[string]*termStat)

	// 1. Count unigrams and bigrams per sentence
	for i, s := range sentences {
		counts[i] = make(map[string]int)
		tokens := v.tokens(s)
		grams := append([]string{}, tokens...)
		for k := 0; k+1 < len(tokens); k++ {
			grams = append(grams, tokens[k]+" "+tokens[k+1])
		}
		for _, g := range grams {
			counts[i][g]++
		}
		for g, c := range counts[i] {
			st, ok := stats[g]
			if !ok {
				st = &termStat{term: g}
				stats[g] = st
			}
			st.df++
			st.total += c
		}
	}

	if len(stats) == 0 {
		return nil, ErrEmptyVocabulary
	}

	// 2. Prune by document frequency
	maxDocs := v.MaxDocFreq * float64(docCount)
	var kept []*termStat
	for _, st := range stats {
		if float64(st.df) > maxDocs || st.df < v.MinDocFreq {
			continue
		}
		kept = append(kept, st)
	}
	if len(kept) == 0 {
		return nil, ErrEmptyVocabulary
	}

	// 3. Cap the vocabulary
	if v.MaxFeatures > 0 && len(kept) > v.MaxFeatures {
		sort.Slice(kept, func(i, j int) bool {
			if kept[i].df != kept[j].df {
				return kept[i].df > kept[j].df
			}
			if kept[i].total != kept[j].total {
				return kept[i].total > kept[j].total
			}
			return kept[i].term < kept[j].term
		})
		kept = kept[:v.MaxFeatures]
	}

	vocab := make([]string, len(kept))
	for i, st := range kept {
		vocab[i] = st.term
	}
	sort.Strings(vocab)
	index := indexOf(vocab)

	// 4. Weight and L2-normalize each row
	n := float64(docCount)
	rows := make([]map[int]float64, docCount)
	for i, tf := range counts {
		rows[i] = make(map[int]float64)
		var norm float64
		for term, c := range tf {
			col, ok := index[term]
			if !ok {
				continue
			}
			idf := math.Log((1+n)/(1+float64(stats[term].df))) + 1
			w := float64(c) * idf
			rows[i][col] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for col := range rows[i] {
				rows[i][col] /= norm
			}
		}
	}

	return &TermMatrix{Vocabulary: vocab, Rows: rows}, nil
}

// tokens lowercases, keeps words of two or more runes and drops stopwords
func (v *TFIDF) tokens(sentence string) []string {
	var out []string
	for _, w := range tokenize.Words(strings.ToLower(sentence)) {
		if runeLen(w) < 2 || v.Lexicon.IsStopword(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}
