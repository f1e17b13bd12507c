package resources_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autonotes/backend/internal/resources"
)

func TestLoadEnglish(t *testing.T) {
	res, err := resources.Load("English")
	require.NoError(t, err)

	assert.Equal(t, "english", res.Language())
	assert.Equal(t, 318, res.StopwordCount())
	assert.True(t, res.IsStopword("the"))
	assert.True(t, res.IsStopword("whereupon"))
	assert.False(t, res.IsStopword("cats"))
}

func TestLoadUnsupportedLanguage(t *testing.T) {
	_, err := resources.Load("klingon")
	assert.True(t, errors.Is(err, resources.ErrUnsupportedLanguage))
}

func TestStem(t *testing.T) {
	res, err := resources.Load("")
	require.NoError(t, err)

	assert.Equal(t, "cat", res.Stem("cats"))
	assert.Equal(t, "run", res.Stem("running"))
	assert.Equal(t, "run", res.Stem("runs"))
}

func TestSplitSentences(t *testing.T) {
	res, err := resources.Load("english")
	require.NoError(t, err)

	assert.Empty(t, res.SplitSentences("   "))
	assert.Equal(t, []string{"no boundary here at all"}, res.SplitSentences("no boundary here at all"))
	assert.Equal(t,
		[]string{"Hello world.", "This is a test."},
		res.SplitSentences("Hello world. This is a test."))
	assert.Equal(t,
		[]string{"The price rose to 3.50 today.", "Buyers were surprised."},
		res.SplitSentences("The price rose to 3.50 today. Buyers were surprised."))
}
