package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/autonotes/backend/internal/config"
	"github.com/autonotes/backend/internal/engine"
	"github.com/autonotes/backend/internal/fetcher"
	"github.com/autonotes/backend/internal/metrics"
	"github.com/autonotes/backend/internal/requestid"
)

const serviceName = "AutoNotes ML Service"

// Error codes carried in error bodies
const (
	CodeInvalidInput     = "INVALID_INPUT"
	CodeInvalidJSON      = "INVALID_JSON"
	CodeBodyTooLarge     = "BODY_TOO_LARGE"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeFetchBlocked     = "FETCH_BLOCKED"
	CodeFetchForbidden   = "FETCH_FORBIDDEN"
	CodeFetchFailed      = "FETCH_FAILED"
	CodeInternal         = "INTERNAL_ERROR"
)

// printer groups digits the way the length messages expect ("50,000")
var printer = message.NewPrinter(language.English)

var endpoints = []string{
	"GET /health",
	"POST /api/v1/summarize",
	"POST /api/v1/summarize/url",
	"GET /metrics",
}

// Analyzer turns text into a summary and topics
type Analyzer interface {
	Analyze(ctx context.Context, text string, opts engine.Options) *engine.Result
}

// PageFetcher downloads a page's readable text
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetcher.Page, error)
}

type Server struct {
	Analyzer Analyzer
	Fetcher  PageFetcher // nil disables /api/v1/summarize/url
	Config   config.ServerConfig
	Logger   *logrus.Entry
	Router   *http.ServeMux

	handler http.Handler
	now     func() time.Time
}

func NewServer(an Analyzer, pf PageFetcher, cfg config.ServerConfig, logger *logrus.Entry) *Server {
	if logger == nil {
		logger = logrus.WithField("component", "api")
	}
	s := &Server{
		Analyzer: an,
		Fetcher:  pf,
		Config:   cfg,
		Logger:   logger,
		Router:   http.NewServeMux(),
		now:      time.Now,
	}
	s.routes()
	s.handler = requestid.Middleware(s.accessLog(s.recoverer(s.cors(s.Router))))
	return s
}

func (s *Server) routes() {
	s.Router.HandleFunc("/health", s.handleHealth)
	s.Router.HandleFunc("/api/v1/summarize", s.handleSummarize)
	s.Router.HandleFunc("/api/v1/summarize/url", s.handleSummarizeURL)
	s.Router.Handle("/metrics", promhttp.Handler())
	s.Router.HandleFunc("/", s.handleNotFound)
}

// ServeHTTP runs a request through the middleware chain and router
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Requests and responses

type SummarizeRequest struct {
	Text      any  `json:"text"`
	Sentences *int `json:"sentences,omitempty"`
	Topics    *int `json:"topics,omitempty"`
}

type SummarizeURLRequest struct {
	URL       string `json:"url"`
	Sentences *int   `json:"sentences,omitempty"`
	Topics    *int   `json:"topics,omitempty"`
}

type SummarizeResponse struct {
	Summary     string   `json:"summary"`
	Topics      []string `json:"topics"`
	Status      string   `json:"status"`
	ProcessedAt string   `json:"processedAt"`
	TextLength  int      `json:"textLength"`
	URL         string   `json:"url,omitempty"`
	Title       string   `json:"title,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Status string `json:"status"`
	Code   string `json:"code"`
}

type NotFoundResponse struct {
	Error              string   `json:"error"`
	Status             string   `json:"status"`
	Code               string   `json:"code"`
	Path               string   `json:"path"`
	Method             string   `json:"method"`
	AvailableEndpoints []string `json:"availableEndpoints"`
}

// Handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w)
		return
	}
	jsonResponse(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Service:   serviceName,
		Timestamp: s.timestamp(),
	})
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w)
		return
	}

	var req SummarizeRequest
	if !s.decode(w, r, &req) {
		return
	}

	if req.Text == nil {
		errorResponse(w, http.StatusBadRequest, CodeInvalidInput, "Missing 'text' field in request body")
		return
	}
	text, ok := req.Text.(string)
	if !ok {
		errorResponse(w, http.StatusBadRequest, CodeInvalidInput, "Text must be a string")
		return
	}

	text, ok = s.validateText(w, text)
	if !ok {
		return
	}

	s.Logger.WithFields(logrus.Fields{
		"request_id": requestid.FromContext(r.Context()),
		"length":     utf8.RuneCountInString(text),
	}).Info("Processing text summarization request")

	res := s.Analyzer.Analyze(r.Context(), text, options(req.Sentences, req.Topics))
	jsonResponse(w, http.StatusOK, s.summaryResponse(res, text))
}

func (s *Server) handleSummarizeURL(w http.ResponseWriter, r *http.Request) {
	if s.Fetcher == nil {
		s.handleNotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w)
		return
	}

	var req SummarizeURLRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		errorResponse(w, http.StatusBadRequest, CodeInvalidInput, "Missing 'url' field in request body")
		return
	}

	log := s.Logger.WithFields(logrus.Fields{
		"request_id": requestid.FromContext(r.Context()),
		"url":        req.URL,
	})

	page, err := s.Fetcher.Fetch(r.Context(), req.URL)
	switch {
	case errors.Is(err, fetcher.ErrInvalidURL):
		metrics.RecordPageFetch("invalid")
		errorResponse(w, http.StatusBadRequest, CodeInvalidInput, "URL must be an absolute http or https URL")
		return
	case errors.Is(err, fetcher.ErrForbiddenHost):
		metrics.RecordPageFetch("forbidden")
		log.WithError(err).Warn("Page fetch to a non-public address refused")
		errorResponse(w, http.StatusForbidden, CodeFetchForbidden, "URL must point to a public host")
		return
	case errors.Is(err, fetcher.ErrBlockedByRobots):
		metrics.RecordPageFetch("blocked")
		log.Info("Page fetch blocked by robots.txt")
		errorResponse(w, http.StatusForbidden, CodeFetchBlocked, "Fetching this URL is disallowed by robots.txt")
		return
	case err != nil:
		metrics.RecordPageFetch("failed")
		log.WithError(err).Warn("Page fetch failed")
		errorResponse(w, http.StatusBadGateway, CodeFetchFailed, "Could not fetch the requested URL")
		return
	}
	metrics.RecordPageFetch("ok")

	text, ok := s.validateText(w, page.Text)
	if !ok {
		return
	}

	res := s.Analyzer.Analyze(r.Context(), text, options(req.Sentences, req.Topics))
	resp := s.summaryResponse(res, text)
	resp.URL = page.URL
	resp.Title = page.Title
	jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusNotFound, NotFoundResponse{
		Error:              "Endpoint not found",
		Status:             "error",
		Code:               CodeNotFound,
		Path:               r.URL.Path,
		Method:             r.Method,
		AvailableEndpoints: s.availableEndpoints(),
	})
}

// Helpers

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if s.Config.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.Config.MaxBodyBytes)
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorResponse(w, http.StatusRequestEntityTooLarge, CodeBodyTooLarge, "Request body too large")
			return false
		}
		errorResponse(w, http.StatusBadRequest, CodeInvalidJSON, "Invalid JSON")
		return false
	}
	return true
}

// validateText trims the text and checks its length in characters
func (s *Server) validateText(w http.ResponseWriter, text string) (string, bool) {
	text = strings.TrimSpace(text)
	n := utf8.RuneCountInString(text)
	switch {
	case n == 0:
		errorResponse(w, http.StatusBadRequest, CodeInvalidInput, "Text cannot be empty")
		return "", false
	case s.Config.MinTextLength > 0 && n < s.Config.MinTextLength:
		errorResponse(w, http.StatusBadRequest, CodeInvalidInput,
			printer.Sprintf("Text too short. Please provide at least %d characters.", s.Config.MinTextLength))
		return "", false
	case s.Config.MaxTextLength > 0 && n > s.Config.MaxTextLength:
		errorResponse(w, http.StatusBadRequest, CodeInvalidInput,
			printer.Sprintf("Text too long. Please provide less than %d characters.", s.Config.MaxTextLength))
		return "", false
	}
	return text, true
}

func (s *Server) summaryResponse(res *engine.Result, text string) SummarizeResponse {
	return SummarizeResponse{
		Summary:     res.Summary,
		Topics:      res.Topics,
		Status:      res.Status,
		ProcessedAt: s.timestamp(),
		TextLength:  utf8.RuneCountInString(text),
	}
}

func (s *Server) availableEndpoints() []string {
	if s.Fetcher != nil {
		return endpoints
	}
	out := make([]string, 0, len(endpoints))
	for _, e := range endpoints {
		if !strings.HasSuffix(e, "/summarize/url") {
			out = append(out, e)
		}
	}
	return out
}

func (s *Server) methodNotAllowed(w http.ResponseWriter) {
	errorResponse(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "Method not allowed")
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func options(sentences, topics *int) engine.Options {
	var opts engine.Options
	if sentences != nil {
		opts.SummarySentences = *sentences
	}
	if topics != nil {
		opts.TopicCount = *topics
	}
	return opts
}

func errorResponse(w http.ResponseWriter, code int, errCode, message string) {
	jsonResponse(w, code, ErrorResponse{Error: message, Status: "error", Code: errCode})
}

func jsonResponse(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
