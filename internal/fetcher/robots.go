package fetcher

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

type RobotsCache struct {
	cache     map[string]*RobotsTxt
	ttl       time.Duration
	userAgent string
	mu        sync.RWMutex
}

type RobotsTxt struct {
	rules     []robotsRule
	expiresAt time.Time
}

type robotsRule struct {
	allow  bool
	prefix string
}

func NewRobotsCache(ttl time.Duration, userAgent string) *RobotsCache {
	return &RobotsCache{
		cache:     make(map[string]*RobotsTxt),
		ttl:       ttl,
		userAgent: userAgent,
	}
}

// IsAllowed checks u against its host's robots.txt. A robots.txt that cannot
// be fetched allows everything.
func (rc *RobotsCache) IsAllowed(ctx context.Context, u *url.URL, client *http.Client) (bool, error) {
	key := u.Scheme + "://" + u.Host

	rc.mu.RLock()
	cached, exists := rc.cache[key]
	rc.mu.RUnlock()

	if !exists || time.Now().After(cached.expiresAt) {
		cached = &RobotsTxt{
			rules:     rc.fetch(ctx, key, client),
			expiresAt: time.Now().Add(rc.ttl),
		}
		rc.mu.Lock()
		rc.cache[key] = cached
		rc.mu.Unlock()
	}

	return allowedByRules(cached.rules, u.RequestURI()), nil
}

func (rc *RobotsCache) fetch(ctx context.Context, origin string, client *http.Client) []robotsRule {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", rc.userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}
	return parseRobots(io.LimitReader(resp.Body, 512*1024))
}

// parseRobots keeps the Allow/Disallow rules of the "User-agent: *" groups.
func parseRobots(r io.Reader) []robotsRule {
	var rules []robotsRule
	inGroup, groupHasRules := false, false

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		field, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		field = strings.ToLower(strings.TrimSpace(field))
		value = strings.TrimSpace(value)

		switch field {
		case "user-agent":
			if groupHasRules {
				inGroup, groupHasRules = false, false
			}
			if value == "*" {
				inGroup = true
			}
		case "allow", "disallow":
			groupHasRules = true
			if inGroup && value != "" {
				rules = append(rules, robotsRule{allow: field == "allow", prefix: value})
			}
		}
	}
	return rules
}

// allowedByRules applies the longest matching prefix; Allow wins a tie.
func allowedByRules(rules []robotsRule, path string) bool {
	best := -1
	allowed := true
	for _, r := range rules {
		if !strings.HasPrefix(path, r.prefix) {
			continue
		}
		if n := len(r.prefix); n > best || (n == best && r.allow) {
			best = n
			allowed = r.allow
		}
	}
	return allowed
}
