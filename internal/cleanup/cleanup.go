// Package cleanup purges expired and revoked local sessions on a cron schedule.
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/starterkit/internal/db"
)

// CleanupResult represents the result of one purge run
type CleanupResult struct {
	Step     string        `json:"step"`
	Success  bool          `json:"success"`
	Removed  int64         `json:"removed"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// SessionStore is the part of the database the cleaner needs
type SessionStore interface {
	DeleteInactiveSessions(now time.Time) (int64, error)
}

var _ SessionStore = (*db.DB)(nil)

// SessionCleaner runs the purge on a schedule
type SessionCleaner struct {
	store    SessionStore
	schedule string
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	last    *CleanupResult
	running bool
}

// NewSessionCleaner creates a cleaner; schedule uses robfig/cron syntax
// including descriptors such as "@every 15m"
func NewSessionCleaner(store SessionStore, schedule string, logger *slog.Logger) *SessionCleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionCleaner{
		store:    store,
		schedule: schedule,
		logger:   logger,
		now:      time.Now,
	}
}

// RunOnce purges inactive sessions immediately
func (c *SessionCleaner) RunOnce() CleanupResult {
	start := time.Now()
	result := CleanupResult{Step: "Delete inactive sessions"}

	removed, err := c.store.DeleteInactiveSessions(c.now())
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err.Error()
		c.logger.Error("Failed to purge inactive sessions", "error", err)
	} else {
		result.Success = true
		result.Removed = removed
		if removed > 0 {
			c.logger.Info("Purged inactive sessions", "removed", removed, "duration", result.Duration)
		}
	}

	c.mu.Lock()
	c.last = &result
	c.mu.Unlock()

	return result
}

// LastResult returns the most recent run, if any
func (c *SessionCleaner) LastResult() (CleanupResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.last == nil {
		return CleanupResult{}, false
	}
	return *c.last, true
}

// Start schedules the purge. It returns an error if the schedule does not parse.
func (c *SessionCleaner) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(c.schedule, func() { c.RunOnce() }); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", c.schedule, err)
	}
	scheduler.Start()

	c.cron = scheduler
	c.running = true
	c.logger.Info("Session cleanup scheduled", "schedule", c.schedule)
	return nil
}

// Stop unschedules the purge and waits for a running purge to finish or ctx to end
func (c *SessionCleaner) Stop(ctx context.Context) {
	c.mu.Lock()
	scheduler := c.cron
	c.cron = nil
	c.running = false
	c.mu.Unlock()

	if scheduler == nil {
		return
	}

	select {
	case <-scheduler.Stop().Done():
	case <-ctx.Done():
		c.logger.Warn("Session cleanup did not stop before shutdown deadline")
	}
}
