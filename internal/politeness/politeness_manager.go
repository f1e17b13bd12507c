package politeness

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"

	"github.com/autonotes/backend/internal/config"
)

// PolitenessManager keeps page fetches respectful: robots.txt rules are
// honoured and each host sees at most one request per MinHostDelay.
// Per-host state is bounded by MaxTrackedHosts.
type PolitenessManager struct {
	config config.FetcherConfig
	logger *logrus.Entry
	client *http.Client

	mu          sync.Mutex
	limiters    map[string]*hostLimiter
	robotsCache map[string]*robotsEntry
}

type hostLimiter struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// robotsEntry caches robots.txt data. A nil robots means none was found.
type robotsEntry struct {
	robots    *robotstxt.RobotsData
	fetchTime time.Time
}

// NewPolitenessManager creates a new politeness manager
func NewPolitenessManager(cfg config.FetcherConfig, client *http.Client, logger *logrus.Entry) *PolitenessManager {
	if logger == nil {
		logger = logrus.WithField("component", "politeness_manager")
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &PolitenessManager{
		config:      cfg,
		logger:      logger,
		client:      client,
		limiters:    make(map[string]*hostLimiter),
		robotsCache: make(map[string]*robotsEntry),
	}
}

// Wait blocks until a request to the URL's host is allowed by the per-host
// delay, or ctx is done.
func (pm *PolitenessManager) Wait(ctx context.Context, u *url.URL) error {
	return pm.limiter(u.Host).Wait(ctx)
}

// IsURLAllowed checks if URL is allowed according to robots.txt. A robots.txt
// that cannot be fetched allows the request.
func (pm *PolitenessManager) IsURLAllowed(ctx context.Context, u *url.URL) bool {
	if !pm.config.EnableRobotsCheck {
		return true
	}

	robots, err := pm.getRobotsData(ctx, u)
	if err != nil {
		pm.logger.WithError(err).WithField("domain", u.Host).Warn("Failed to get robots.txt, allowing request")
		return true
	}
	if robots == nil {
		return true
	}

	group := robots.FindGroup(pm.config.UserAgent)
	if group == nil {
		return true
	}
	return group.Test(u.EscapedPath())
}

// HostCount returns the number of hosts with a rate limiter
func (pm *PolitenessManager) HostCount() int {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return len(pm.limiters)
}

// RobotsCount returns the number of cached robots.txt entries
func (pm *PolitenessManager) RobotsCount() int {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return len(pm.robotsCache)
}

func (pm *PolitenessManager) limiter(host string) *rate.Limiter {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	now := time.Now()
	if hl, ok := pm.limiters[host]; ok {
		hl.lastUsed = now
		return hl.limiter
	}
	pm.pruneLimiters(now)

	limit := rate.Inf
	if pm.config.MinHostDelay > 0 {
		limit = rate.Every(pm.config.MinHostDelay)
	}
	l := rate.NewLimiter(limit, 1)
	pm.limiters[host] = &hostLimiter{limiter: l, lastUsed: now}
	pm.logger.WithField("domain", host).Debug("Created new host limiter")
	return l
}

// pruneLimiters drops limiters that have fully refilled, since a fresh one
// behaves the same, then makes room for one more host under the cap by
// dropping the least recently used. Callers hold pm.mu.
func (pm *PolitenessManager) pruneLimiters(now time.Time) {
	for host, hl := range pm.limiters {
		l := hl.limiter
		if l.Limit() == rate.Inf || l.TokensAt(now) >= float64(l.Burst()) {
			delete(pm.limiters, host)
		}
	}
	limit := pm.config.MaxTrackedHosts
	for limit > 0 && len(pm.limiters) >= limit {
		var oldest string
		for host, hl := range pm.limiters {
			if oldest == "" || hl.lastUsed.Before(pm.limiters[oldest].lastUsed) {
				oldest = host
			}
		}
		delete(pm.limiters, oldest)
	}
}

// pruneRobots drops expired robots.txt entries, then the oldest ones until
// one more fits under the cap. Callers hold pm.mu.
func (pm *PolitenessManager) pruneRobots(now time.Time) {
	for key, entry := range pm.robotsCache {
		if now.Sub(entry.fetchTime) >= pm.config.RobotsCacheDuration {
			delete(pm.robotsCache, key)
		}
	}
	limit := pm.config.MaxTrackedHosts
	for limit > 0 && len(pm.robotsCache) >= limit {
		var oldest string
		for key, entry := range pm.robotsCache {
			if oldest == "" || entry.fetchTime.Before(pm.robotsCache[oldest].fetchTime) {
				oldest = key
			}
		}
		delete(pm.robotsCache, oldest)
	}
}

// getRobotsData fetches and caches robots.txt for the URL's scheme and host
func (pm *PolitenessManager) getRobotsData(ctx context.Context, u *url.URL) (*robotstxt.RobotsData, error) {
	key := u.Scheme + "://" + u.Host

	pm.mu.Lock()
	entry, exists := pm.robotsCache[key]
	pm.mu.Unlock()

	if exists && time.Since(entry.fetchTime) < pm.config.RobotsCacheDuration {
		return entry.robots, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, key+"/robots.txt", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create robots.txt request: %w", err)
	}
	req.Header.Set("User-Agent", pm.config.UserAgent)

	resp, err := pm.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	var robots *robotstxt.RobotsData
	if resp.StatusCode == http.StatusOK {
		robots, err = robotstxt.FromResponse(resp)
		if err != nil {
			return nil, fmt.Errorf("failed to parse robots.txt: %w", err)
		}
	}

	// Cache the result (even if nil for 404s)
	now := time.Now()
	pm.mu.Lock()
	if _, ok := pm.robotsCache[key]; !ok {
		pm.pruneRobots(now)
	}
	pm.robotsCache[key] = &robotsEntry{robots: robots, fetchTime: now}
	pm.mu.Unlock()

	return robots, nil
}
