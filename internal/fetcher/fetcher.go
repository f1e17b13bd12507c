package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"github.com/autonotes/backend/internal/config"
	"github.com/autonotes/backend/internal/politeness"
)

var (
	ErrInvalidURL       = errors.New("invalid URL")
	ErrBlockedByRobots  = errors.New("URL blocked by robots.txt")
	ErrUnsupportedType  = errors.New("unsupported content type")
	ErrUnexpectedStatus = errors.New("unexpected status code")
)

// Page contains the extracted data from a webpage
type Page struct {
	URL        string
	Title      string
	Text       string
	StatusCode int
}

type Fetcher struct {
	client     *http.Client
	config     config.FetcherConfig
	politeness *politeness.PolitenessManager
	logger     *logrus.Entry
}

func NewFetcher(cfg config.FetcherConfig, logger *logrus.Entry) *Fetcher {
	if logger == nil {
		logger = logrus.WithField("component", "fetcher")
	}
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	if !cfg.AllowPrivateHosts {
		dialer.Control = dialControl
	}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	f := &Fetcher{
		config: cfg,
		logger: logger,
	}
	f.client = &http.Client{
		Timeout:       cfg.RequestTimeout,
		Transport:     transport,
		CheckRedirect: f.checkRedirect,
	}

	// robots.txt requests share the guarded transport but only cap hops
	robotsClient := &http.Client{
		Timeout:   cfg.RequestTimeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("%w: %d", ErrTooManyRedirects, len(via))
			}
			return f.checkURL(req.URL)
		},
	}
	f.politeness = politeness.NewPolitenessManager(cfg, robotsClient, logger.WithField("component", "politeness_manager"))
	return f
}

// Fetch downloads a page and extracts its title and visible text
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	if err := f.checkURL(u); err != nil {
		return nil, err
	}

	if !f.politeness.IsURLAllowed(ctx, u) {
		return nil, ErrBlockedByRobots
	}
	if err := f.politeness.Wait(ctx, u); err != nil {
		return nil, fmt.Errorf("politeness wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "text/html,text/plain;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	page := &Page{URL: resp.Request.URL.String(), StatusCode: resp.StatusCode}
	if resp.StatusCode != http.StatusOK {
		return page, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body := io.Reader(resp.Body)
	if f.config.MaxPageBytes > 0 {
		body = io.LimitReader(resp.Body, f.config.MaxPageBytes)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	switch mediaType {
	case "", "text/html", "application/xhtml+xml":
		if err := parseHTML(body, page); err != nil {
			return nil, fmt.Errorf("parsing error: %w", err)
		}
	case "text/plain":
		raw, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("read error: %w", err)
		}
		page.Text = cleanText(string(raw))
	default:
		return page, fmt.Errorf("%w: %s", ErrUnsupportedType, mediaType)
	}

	f.logger.WithFields(logrus.Fields{
		"url":   page.URL,
		"bytes": len(page.Text),
	}).Debug("Fetched page")
	return page, nil
}

// checkURL accepts absolute http(s) URLs on public hosts
func (f *Fetcher) checkURL(u *url.URL) error {
	if u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %q", ErrInvalidURL, u.String())
	}
	if f.config.AllowPrivateHosts {
		return nil
	}
	return checkHost(u)
}

// checkRedirect applies the same URL, robots.txt and per-host rules to
// every hop of a redirect chain
func (f *Fetcher) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= f.config.MaxRedirects {
		return fmt.Errorf("%w: %d", ErrTooManyRedirects, len(via))
	}
	if err := f.checkURL(req.URL); err != nil {
		return err
	}
	if !f.politeness.IsURLAllowed(req.Context(), req.URL) {
		return ErrBlockedByRobots
	}
	f.logger.WithFields(logrus.Fields{
		"from": via[len(via)-1].URL.String(),
		"to":   req.URL.String(),
	}).Debug("Following redirect")
	return f.politeness.Wait(req.Context(), req.URL)
}

// parseHTML extracts the title and the text outside script-like elements
func parseHTML(body io.Reader, page *Page) error {
	tokenizer := html.NewTokenizer(body)
	var text strings.Builder
	skip := 0
	inTitle := false

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if errors.Is(tokenizer.Err(), io.EOF) {
				page.Text = cleanText(text.String())
				return nil
			}
			return tokenizer.Err()

		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "script", "style", "noscript", "template":
				skip++
			case "title":
				inTitle = true
			}

		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "script", "style", "noscript", "template":
				if skip > 0 {
					skip--
				}
			case "title":
				inTitle = false
			}

		case html.TextToken:
			data := string(tokenizer.Text())
			if inTitle {
				page.Title = cleanText(data)
				continue
			}
			if skip == 0 {
				if t := strings.TrimSpace(data); t != "" {
					text.WriteString(t)
					text.WriteString(" ")
				}
			}
		}
	}
}

// cleanText removes excessive whitespace
func cleanText(input string) string {
	return strings.Join(strings.Fields(input), " ")
}
