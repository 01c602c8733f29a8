package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/yourusername/namecheck/models"
	"gopkg.in/yaml.v3"
)

// PreservedSource supplies the current preserved-username list.
// Order is irrelevant to the availability decision.
type PreservedSource interface {
	PreservedUsernames(ctx context.Context) ([]string, error)
}

// SettingsPreservedSource reads the list stored on the site settings row.
type SettingsPreservedSource struct {
	repo models.SiteSettingsRepositoryInterface
}

func NewSettingsPreservedSource(repo models.SiteSettingsRepositoryInterface) *SettingsPreservedSource {
	return &SettingsPreservedSource{repo: repo}
}

func (s *SettingsPreservedSource) PreservedUsernames(ctx context.Context) ([]string, error) {
	list, err := s.repo.PreservedUsernames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load preserved usernames from settings: %w", err)
	}
	return list, nil
}

// StaticPreservedSource serves a fixed list, typically from the config file.
type StaticPreservedSource []string

func (s StaticPreservedSource) PreservedUsernames(context.Context) ([]string, error) {
	out := make([]string, len(s))
	copy(out, s)
	return out, nil
}

// NewPreservedSource builds the configured source wrapped in a snapshot cache.
func NewPreservedSource(cfg PreservedConfig, settings models.SiteSettingsRepositoryInterface) (*CachedPreservedSource, error) {
	var src PreservedSource
	switch cfg.Source {
	case "", "settings":
		if settings == nil {
			return nil, fmt.Errorf("settings preserved source needs a settings repository")
		}
		src = NewSettingsPreservedSource(settings)
	case "file":
		src = StaticPreservedSource(cfg.Usernames)
	case "s3":
		s3src, err := NewS3PreservedSource(cfg.S3)
		if err != nil {
			return nil, err
		}
		src = s3src
	default:
		return nil, fmt.Errorf("unknown preserved source %q", cfg.Source)
	}
	return NewCachedPreservedSource(src, cfg.CacheTTL), nil
}

// ParsePreservedList decodes a preserved list document: either a YAML sequence
// of strings or plain text with one entry per line. Blank lines and lines
// starting with "#" are skipped in the plain text form.
func ParsePreservedList(data []byte) ([]string, error) {
	var list []string
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	// Not a YAML sequence, probably because of a pattern like /^a:b/; fall back to lines.
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, nil
}

// CachedPreservedSource keeps a snapshot of another source for ttl.
// When a refresh fails the previous snapshot is served; only a cache that has
// never loaded returns the error.
type CachedPreservedSource struct {
	source PreservedSource
	ttl    time.Duration
	now    func() time.Time

	mu      sync.RWMutex
	entries []string
	loaded  bool
	expires time.Time
}

func NewCachedPreservedSource(source PreservedSource, ttl time.Duration) *CachedPreservedSource {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedPreservedSource{source: source, ttl: ttl, now: time.Now}
}

func (c *CachedPreservedSource) PreservedUsernames(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	if c.loaded && c.now().Before(c.expires) {
		e := c.entries
		c.mu.RUnlock()
		return e, nil
	}
	c.mu.RUnlock()

	// Refresh under write lock
	c.mu.Lock()
	defer c.mu.Unlock()
	// Double-check in case another goroutine refreshed
	if c.loaded && c.now().Before(c.expires) {
		return c.entries, nil
	}
	list, err := c.source.PreservedUsernames(ctx)
	if err != nil {
		if c.loaded {
			log.Printf("Preserved usernames refresh failed, serving previous list: %v", err)
			return c.entries, nil
		}
		return nil, err
	}
	c.entries = list
	c.loaded = true
	c.expires = c.now().Add(c.ttl)
	return c.entries, nil
}

// Invalidate forces the next read to hit the underlying source.
// The current snapshot stays available as a fallback.
func (c *CachedPreservedSource) Invalidate() {
	c.mu.Lock()
	c.expires = time.Time{}
	c.mu.Unlock()
}
