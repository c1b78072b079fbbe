// Package ratelimit implements a fixed-window request counter keyed by caller.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-rental-kyc/internal/domain"
)

type window struct {
	start time.Time
	count int
}

// FixedWindow admits at most max calls per key in each window. A key's window
// starts with its first call and resets once the window has fully elapsed.
type FixedWindow struct {
	mu      sync.Mutex
	windows map[string]*window
	window  time.Duration
	max     int
	now     func() time.Time
}

func NewFixedWindow(d time.Duration, max int) *FixedWindow {
	return &FixedWindow{
		windows: make(map[string]*window),
		window:  d,
		max:     max,
		now:     time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (f *FixedWindow) WithClock(now func() time.Time) *FixedWindow {
	f.now = now
	return f
}

// Allow records one call for key and returns domain.ErrRateLimited when the
// key has exhausted its window.
func (f *FixedWindow) Allow(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	w, ok := f.windows[key]
	if !ok || now.Sub(w.start) >= f.window {
		f.windows[key] = &window{start: now, count: 1}
		return nil
	}
	if w.count >= f.max {
		return fmt.Errorf("limit of %d per %s reached: %w", f.max, f.window, domain.ErrRateLimited)
	}
	w.count++
	return nil
}

// Sweep drops windows that have expired.
func (f *FixedWindow) Sweep() {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.now()
	for k, w := range f.windows {
		if now.Sub(w.start) >= f.window {
			delete(f.windows, k)
		}
	}
}

// RunSweeper calls Sweep every interval until stop is closed.
func (f *FixedWindow) RunSweeper(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			f.Sweep()
		case <-stop:
			return
		}
	}
}

func (f *FixedWindow) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.windows)
}
