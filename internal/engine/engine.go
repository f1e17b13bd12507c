package engine

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/autonotes/backend/internal/config"
	"github.com/autonotes/backend/internal/document"
	"github.com/autonotes/backend/internal/factorize"
	"github.com/autonotes/backend/internal/metrics"
	"github.com/autonotes/backend/internal/requestid"
	"github.com/autonotes/backend/internal/resources"
	"github.com/autonotes/backend/internal/summarizer"
	"github.com/autonotes/backend/internal/tokenize"
	"github.com/autonotes/backend/internal/topics"
	"github.com/autonotes/backend/internal/vectorizer"
)

// StatusSuccess is the only status an analysis reports
const StatusSuccess = "success"

// Options are the per-request knobs. Values <= 0 take the configured defaults.
type Options struct {
	SummarySentences int
	TopicCount       int
}

// Result is the outcome of analysing one text
type Result struct {
	Summary string
	Topics  []string
	Status  string
}

// Engine orchestrates the analysis components
type Engine struct {
	Config     config.AnalysisConfig
	Logger     *logrus.Entry
	Tokenizer  tokenize.Tokenizer
	Summarizer *summarizer.LSA
	Topics     *topics.Extractor
}

func NewEngine(cfg *config.Config, logger *logrus.Entry, res *resources.Resources) *Engine {
	if logger == nil {
		logger = logrus.WithField("component", "engine")
	}
	a := cfg.Analysis
	tok := tokenize.NewPunkt(res)

	lsa := summarizer.NewLSA(
		vectorizer.NewFrequency(res, a.TermSmoothing),
		factorize.SVD{},
		a.LatentDimensions,
	)
	extractor := topics.NewExtractor(
		vectorizer.NewTFIDF(res, a.MaxFeatures, a.MaxDocFreq, a.MinDocFreq),
		factorize.NewNMF(a.FactorizationIters, a.FactorizationTol, a.FactorizationSeed),
		tok,
	)

	return &Engine{
		Config:     a,
		Logger:     logger,
		Tokenizer:  tok,
		Summarizer: lsa,
		Topics:     extractor,
	}
}

// Analyze normalizes and splits text once, then runs the summarizer and the
// topic extractor side by side. It always returns a result: a failed
// summary becomes summarizer.FallbackMarker and topics are never nil.
func (e *Engine) Analyze(ctx context.Context, text string, opts Options) *Result {
	opts = e.resolve(opts)
	log := e.Logger
	if id := requestid.FromContext(ctx); id != "" {
		log = log.WithField("request_id", id)
	}

	doc := document.New(text, e.Tokenizer)
	metrics.RecordAnalysis()

	var (
		summary string
		found   topics.Result
		g       errgroup.Group
	)

	g.Go(func() error {
		start := time.Now()
		s, err := e.Summarizer.Summarize(doc, opts.SummarySentences)
		metrics.ObserveComponent("summarizer", time.Since(start))
		if err != nil {
			reason := reasonOf(err)
			metrics.RecordFallback("summarizer", reason)
			log.WithError(err).WithField("reason", reason).Warn("Summarizer fell back")
			s = summarizer.FallbackMarker
		}
		summary = s
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		found = e.Topics.Extract(doc, opts.TopicCount)
		metrics.ObserveComponent("topics", time.Since(start))
		if found.Err != nil {
			reason := reasonOf(found.Err)
			metrics.RecordFallback("topics", reason)
			log.WithError(found.Err).WithField("reason", reason).Debug("Topic extraction used word frequency")
		}
		return nil
	})

	_ = g.Wait()

	if found.Topics == nil {
		found.Topics = []string{}
	}

	log.WithFields(logrus.Fields{
		"sentences":    len(doc.Sentences),
		"topics":       len(found.Topics),
		"topic_method": found.Method,
	}).Debug("Analysis completed")

	return &Result{
		Summary: summary,
		Topics:  found.Topics,
		Status:  StatusSuccess,
	}
}

// resolve applies defaults and caps
func (e *Engine) resolve(opts Options) Options {
	opts.SummarySentences = clamp(opts.SummarySentences, e.Config.SummarySentences, e.Config.MaxSummarySentences, summarizer.DefaultSentences)
	opts.TopicCount = clamp(opts.TopicCount, e.Config.TopicCount, e.Config.MaxTopicCount, topics.DefaultCount)
	return opts
}

func clamp(v, def, max, fallback int) int {
	if def <= 0 {
		def = fallback
	}
	if v <= 0 {
		v = def
	}
	if max > 0 && v > max {
		v = max
	}
	return v
}

func reasonOf(err error) string {
	switch {
	case errors.Is(err, summarizer.ErrNoSentences):
		return "no_sentences"
	case errors.Is(err, vectorizer.ErrEmptyVocabulary):
		return "empty_vocabulary"
	case errors.Is(err, topics.ErrTooFewSentences):
		return "too_few_sentences"
	case errors.Is(err, factorize.ErrNoConvergence):
		return "no_convergence"
	case errors.Is(err, factorize.ErrNumerical):
		return "numerical"
	default:
		return "error"
	}
}
