// Package testutil provides an in-process fake trademark registry and
// canned result pages for tests.
package testutil

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const (
	EntryPath  = "/pePI/jsp/marcas/Pesquisa_classe_basica.jsp"
	SearchPath = "/pePI/servlet/MarcasServletController"
	CookieName = "JSESSIONID"
)

// FakeRegistry serves the entry page (sets a session cookie) and the search
// servlet (returns a configurable page), counting hits on each.
type FakeRegistry struct {
	Server *httptest.Server

	entryHits  atomic.Int32
	searchHits atomic.Int32

	mu            sync.Mutex
	entryStatus   int
	setCookie     bool
	searchStatus  int
	searchBody    []byte
	contentType   string
	searchDelay   time.Duration
	entryDelay    time.Duration
	lastForm      url.Values
	lastCookie    string
	lastUserAgent string
	lastReferer   string
}

// NewFakeRegistry starts a fake registry that returns ResultsPage and is
// closed when the test ends.
func NewFakeRegistry(t *testing.T) *FakeRegistry {
	t.Helper()
	f := &FakeRegistry{
		entryStatus:  http.StatusOK,
		setCookie:    true,
		searchStatus: http.StatusOK,
		searchBody:   []byte(ResultsPage),
		contentType:  "text/html; charset=utf-8",
	}
	mux := http.NewServeMux()
	mux.HandleFunc(EntryPath, f.serveEntry)
	mux.HandleFunc(SearchPath, f.serveSearch)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// EntryURL is the session acquisition page.
func (f *FakeRegistry) EntryURL() string { return f.Server.URL + EntryPath }

// SearchURL is the search servlet.
func (f *FakeRegistry) SearchURL() string { return f.Server.URL + SearchPath }

// SetEntryResponse controls the entry page status and whether it sets a cookie.
func (f *FakeRegistry) SetEntryResponse(status int, setCookie bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entryStatus, f.setCookie = status, setCookie
}

// SetSearchResponse controls the search status and body.
func (f *FakeRegistry) SetSearchResponse(status int, body string) {
	f.SetSearchBytes(status, "text/html; charset=utf-8", []byte(body))
}

// SetSearchBytes controls the search status, content type, and raw body.
func (f *FakeRegistry) SetSearchBytes(status int, contentType string, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchStatus, f.contentType, f.searchBody = status, contentType, body
}

// SetSearchDelay makes the search servlet sleep before answering.
func (f *FakeRegistry) SetSearchDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchDelay = d
}

// SetEntryDelay makes the entry page sleep before answering.
func (f *FakeRegistry) SetEntryDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entryDelay = d
}

// EntryHits returns how many times the entry page was fetched.
func (f *FakeRegistry) EntryHits() int { return int(f.entryHits.Load()) }

// SearchHits returns how many searches were posted.
func (f *FakeRegistry) SearchHits() int { return int(f.searchHits.Load()) }

// LastForm returns the form of the most recent search.
func (f *FakeRegistry) LastForm() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastForm
}

// LastCookie returns the Cookie header of the most recent search.
func (f *FakeRegistry) LastCookie() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastCookie
}

// LastHeaders returns the User-Agent and Referer of the most recent search.
func (f *FakeRegistry) LastHeaders() (userAgent, referer string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastUserAgent, f.lastReferer
}

func (f *FakeRegistry) serveEntry(w http.ResponseWriter, r *http.Request) {
	n := f.entryHits.Add(1)
	f.mu.Lock()
	status, setCookie, delay := f.entryStatus, f.setCookie, f.entryDelay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if setCookie {
		http.SetCookie(w, &http.Cookie{Name: CookieName, Value: fmt.Sprintf("session-%d", n), Path: "/pePI"})
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, "<html><body><form name=\"pesquisa\"></form></body></html>")
}

func (f *FakeRegistry) serveSearch(w http.ResponseWriter, r *http.Request) {
	f.searchHits.Add(1)
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	_ = r.ParseForm()

	f.mu.Lock()
	f.lastForm = r.PostForm
	f.lastCookie = r.Header.Get("Cookie")
	f.lastUserAgent = r.Header.Get("User-Agent")
	f.lastReferer = r.Header.Get("Referer")
	status, contentType, body, delay := f.searchStatus, f.contentType, f.searchBody, f.searchDelay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// Logger returns a logger that only reports errors, for quiet test output.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a Clock set to a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
