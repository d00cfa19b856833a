// Package session owns the registry session cookie shared by every search.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/starford/marca/internal/apperr"
)

const opRefresh = "session.refresh"

// Config controls how sessions are acquired.
type Config struct {
	EntryURL       string
	UserAgent      string
	AcceptLanguage string
	TTL            time.Duration
	// Timeout bounds a shared refresh, which outlives any single caller.
	Timeout        time.Duration
}

// Snapshot is a point-in-time view of the session state.
type Snapshot struct {
	Active   bool
	IssuedAt time.Time
}

// Manager holds a single registry session cookie. The lock guards the
// in-memory fields only and is never held across network I/O.
type Manager struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
	now    func() time.Time

	group singleflight.Group

	mu       sync.Mutex
	cookie   string
	issuedAt time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a Manager with no session.
func NewManager(cfg Config, client *http.Client, opts ...Option) *Manager {
	m := &Manager{
		cfg:    cfg,
		client: client,
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// EnsureValid returns the current cookie, refreshing it first when there is
// none or it is older than the TTL.
func (m *Manager) EnsureValid(ctx context.Context) (string, error) {
	m.mu.Lock()
	cookie, fresh := m.cookie, m.validLocked()
	m.mu.Unlock()

	if fresh {
		return cookie, nil
	}
	return m.Refresh(ctx)
}

// Refresh fetches the registry entry page and stores the first cookie it
// sets. Concurrent callers share one upstream request. The request is
// detached from the callers' contexts: a caller that gives up returns its
// own context error while the others keep waiting for the result.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	ch := m.group.DoChan("refresh", func() (any, error) {
		fetchCtx := context.WithoutCancel(ctx)
		if m.cfg.Timeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(fetchCtx, m.cfg.Timeout)
			defer cancel()
		}
		return m.fetch(fetchCtx)
	})

	select {
	case <-ctx.Done():
		return "", apperr.New(apperr.ErrSession, opRefresh, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			m.logger.Debug("session: refresh shared")
		}
		return res.Val.(string), nil
	}
}

// Invalidate drops the cookie so the next EnsureValid refreshes it.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.cookie = ""
	m.mu.Unlock()
	m.logger.Info("session: invalidated")
}

// Snapshot reports whether a usable session exists and when it was issued.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{Active: m.validLocked(), IssuedAt: m.issuedAt}
}

func (m *Manager) validLocked() bool {
	return m.cookie != "" && m.now().Sub(m.issuedAt) <= m.cfg.TTL
}

func (m *Manager) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.cfg.EntryURL, nil)
	if err != nil {
		return "", apperr.New(apperr.ErrSession, opRefresh, err)
	}
	req.Header.Set("User-Agent", m.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", m.cfg.AcceptLanguage)
	req.Header.Set("Connection", "keep-alive")

	resp, err := m.client.Do(req)
	if err != nil {
		m.logger.Error("session: refresh failed", slog.String("error", err.Error()))
		return "", apperr.New(apperr.ErrSession, opRefresh, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		m.logger.Error("session: refresh rejected", slog.Int("status", resp.StatusCode))
		return "", apperr.New(apperr.ErrSession, opRefresh, fmt.Errorf("entry page returned HTTP %d", resp.StatusCode))
	}

	cookies := resp.Cookies()
	if len(cookies) == 0 {
		m.logger.Error("session: no cookie in entry page response")
		return "", apperr.New(apperr.ErrSession, opRefresh, errors.New("entry page set no cookie"))
	}
	cookie := cookies[0].Name + "=" + cookies[0].Value

	m.mu.Lock()
	m.cookie = cookie
	m.issuedAt = m.now()
	m.mu.Unlock()

	m.logger.Info("session: refreshed", slog.String("cookie_name", cookies[0].Name))
	return cookie, nil
}
