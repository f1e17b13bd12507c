package summarizer_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/autonotes/backend/internal/document"
	"github.com/autonotes/backend/internal/factorize"
	"github.com/autonotes/backend/internal/resources"
	"github.com/autonotes/backend/internal/summarizer"
	"github.com/autonotes/backend/internal/tokenize"
	"github.com/autonotes/backend/internal/vectorizer"
)

const catsText = "Cats sleep, cats purr, and cats dream all day. " +
	"Cats chase mice, and cats catch mice. " +
	"The neighbor feeds cats every morning. " +
	"Cats groom cats and kittens. " +
	"Dogs bark at the mailman. " +
	"Birds sing loudly at dawn."

// Mocks

type MockFactorizer struct {
	mock.Mock
}

func (m *MockFactorizer) Factorize(a mat.Matrix, rank int) (*factorize.Factorization, error) {
	args := m.Called(a, rank)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*factorize.Factorization), args.Error(1)
}

func setup(t *testing.T) (*summarizer.LSA, tokenize.Tokenizer) {
	res, err := resources.Load("english")
	require.NoError(t, err)
	lsa := summarizer.NewLSA(vectorizer.NewFrequency(res, 0.4), factorize.SVD{}, 0)
	return lsa, tokenize.NewPunkt(res)
}

func TestSummarizeKeepsOriginalOrder(t *testing.T) {
	lsa, tok := setup(t)
	doc := document.New(catsText, tok)
	require.Len(t, doc.Sentences, 6)

	summary, err := lsa.Summarize(doc, 2)
	require.NoError(t, err)

	var valid []string
	for i := 0; i < len(doc.Sentences); i++ {
		for j := i + 1; j < len(doc.Sentences); j++ {
			valid = append(valid, doc.Sentences[i]+" "+doc.Sentences[j])
		}
	}
	assert.Contains(t, valid, summary)
}

func TestSummarizeIsDeterministic(t *testing.T) {
	lsa, tok := setup(t)
	doc := document.New(catsText, tok)

	first, err := lsa.Summarize(doc, 3)
	require.NoError(t, err)
	second, err := lsa.Summarize(doc, 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSummarizeClampsToSentenceCount(t *testing.T) {
	lsa, tok := setup(t)

	single := "A single run on sentence about gardens and rivers and hills"
	doc := document.New(single, tok)
	summary, err := lsa.Summarize(doc, 3)
	require.NoError(t, err)
	assert.Equal(t, single, summary)

	doc = document.New("Cats purr. Dogs bark. Birds sing.", tok)
	summary, err = lsa.Summarize(doc, 3)
	require.NoError(t, err)
	assert.Equal(t, "Cats purr. Dogs bark. Birds sing.", summary)
}

func TestSummarizeDefaultCount(t *testing.T) {
	lsa, tok := setup(t)
	doc := document.New(catsText, tok)

	summary, err := lsa.Summarize(doc, 0)
	require.NoError(t, err)

	count := 0
	for _, s := range doc.Sentences {
		if strings.Contains(summary, s) {
			count++
		}
	}
	assert.Equal(t, summarizer.DefaultSentences, count)
}

func TestSummarizeDegenerateInput(t *testing.T) {
	lsa, tok := setup(t)

	_, err := lsa.Summarize(document.New("", tok), 3)
	assert.True(t, errors.Is(err, summarizer.ErrNoSentences))

	_, err = lsa.Summarize(document.New("The and of it. Was were been. They them their.", tok), 3)
	assert.True(t, errors.Is(err, summarizer.ErrEmptyVocabulary))
}

func TestSummarizeFactorizationFailure(t *testing.T) {
	res, err := resources.Load("english")
	require.NoError(t, err)

	f := new(MockFactorizer)
	f.On("Factorize", mock.Anything, 0).Return(nil, factorize.ErrNoConvergence)

	lsa := summarizer.NewLSA(vectorizer.NewFrequency(res, 0.4), f, 0)
	_, err = lsa.Summarize(document.New(catsText, tokenize.NewPunkt(res)), 2)

	assert.True(t, errors.Is(err, factorize.ErrNoConvergence))
	f.AssertExpectations(t)
}

func TestSummarizeRecoversPanics(t *testing.T) {
	res, err := resources.Load("english")
	require.NoError(t, err)

	f := new(MockFactorizer)
	// a factorization whose rows do not match the sentence count
	f.On("Factorize", mock.Anything, 0).Return(&factorize.Factorization{
		Weights: []float64{1, 1},
		Rows:    mat.NewDense(6, 1, nil),
		Factors: mat.NewDense(1, 1, nil),
	}, nil)

	lsa := summarizer.NewLSA(vectorizer.NewFrequency(res, 0.4), f, 0)
	_, err = lsa.Summarize(document.New(catsText, tokenize.NewPunkt(res)), 2)

	assert.True(t, errors.Is(err, factorize.ErrNumerical))
}
