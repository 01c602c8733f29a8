package services

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/namecheck/models"
	"golang.org/x/sync/errgroup"
)

// Decide combines the three availability signals.
func Decide(activeCount, usedCount int, isPreserved bool) bool {
	return activeCount == 0 && usedCount == 0 && !isPreserved
}

// Availability decides whether a username may be registered.
// It holds no mutable state of its own and is safe for concurrent use.
type Availability struct {
	users     models.UserRepositoryInterface
	used      models.UsedUsernameRepositoryInterface
	preserved PreservedSource
	matcher   *PreservedMatcher
	timeout   time.Duration
}

func NewAvailability(users models.UserRepositoryInterface, used models.UsedUsernameRepositoryInterface, preserved PreservedSource) *Availability {
	return &Availability{users: users, used: used, preserved: preserved}
}

// WithMatcher uses m for compiled-entry caching.
func (a *Availability) WithMatcher(m *PreservedMatcher) *Availability {
	a.matcher = m
	return a
}

// WithTimeout bounds each check when the caller's context has no deadline.
func (a *Availability) WithTimeout(d time.Duration) *Availability {
	a.timeout = d
	return a
}

// Check runs the active-account, used-username and preserved-list checks
// concurrently. Store errors are returned; malformed preserved patterns are not.
func (a *Availability) Check(ctx context.Context, username string) (bool, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && a.timeout > 0 {
		c, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		ctx = c
	}

	lower := LowerUsername(username)
	var (
		activeCount, usedCount int
		preserved              bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := a.users.CountActiveByUsernameLower(gctx, lower)
		if err != nil {
			return fmt.Errorf("count active users: %w", err)
		}
		activeCount = n
		return nil
	})
	g.Go(func() error {
		n, err := a.used.CountByUsername(gctx, lower)
		if err != nil {
			return fmt.Errorf("count used usernames: %w", err)
		}
		usedCount = n
		return nil
	})
	g.Go(func() error {
		entries, err := a.preserved.PreservedUsernames(gctx)
		if err != nil {
			return fmt.Errorf("fetch preserved usernames: %w", err)
		}
		// Patterns see the raw username, not the folded one.
		preserved = a.matcher.IsPreserved(username, entries)
		return nil
	})
	if err := g.Wait(); err != nil {
		return false, err
	}

	return Decide(activeCount, usedCount, preserved), nil
}

// Explain returns per-entry preserved-list diagnostics for username.
func (a *Availability) Explain(ctx context.Context, username string) ([]PreservedMatch, error) {
	entries, err := a.preserved.PreservedUsernames(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch preserved usernames: %w", err)
	}
	return a.matcher.Explain(username, entries), nil
}
