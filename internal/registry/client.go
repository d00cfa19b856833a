// Package registry searches the national trademark registry: it posts the
// search form under a session cookie, retries through CAPTCHA walls, and
// parses the result table into candidate marks.
package registry

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/starford/marca/internal/apperr"
	"github.com/starford/marca/internal/models"
)

const opSearch = "registry.search"

// SessionProvider supplies and invalidates the registry session cookie.
type SessionProvider interface {
	EnsureValid(ctx context.Context) (string, error)
	Invalidate()
}

// Config describes the search endpoint and the CAPTCHA retry budget.
type Config struct {
	SearchURL       string
	Referer         string
	UserAgent       string
	CaptchaAttempts int
	CaptchaDelay    time.Duration
}

// Client performs registry searches.
type Client struct {
	cfg      Config
	http     *http.Client
	sessions SessionProvider
	parser   Parser
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithParser replaces the HTML parser.
func WithParser(p Parser) Option {
	return func(c *Client) { c.parser = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a registry client.
func NewClient(cfg Config, httpClient *http.Client, sessions SessionProvider, opts ...Option) *Client {
	if cfg.CaptchaAttempts < 1 {
		cfg.CaptchaAttempts = 1
	}
	c := &Client{
		cfg:      cfg,
		http:     httpClient,
		sessions: sessions,
		parser:   NewHTMLParser(DefaultSelectors()),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search runs q against the registry. Failures carry one of the
// apperr kinds Session, Captcha, Timeout, Parse, or Upstream.
func (c *Client) Search(ctx context.Context, q models.SearchQuery) (*models.SearchResult, error) {
	start := time.Now()
	page, err := c.searchWithRetry(ctx, q)
	if err != nil {
		c.logger.Warn("registry: search failed",
			slog.String("marca", q.Name),
			slog.String("error", err.Error()))
		return nil, err
	}

	c.logger.Info("registry: search done",
		slog.String("marca", q.Name),
		slog.Int("candidates", len(page.Candidates)),
		slog.Int("total", page.TotalCount),
		slog.Duration("took", time.Since(start)))

	return &models.SearchResult{
		QueryName:  q.Name,
		Candidates: page.Candidates,
		TotalCount: page.TotalCount,
		ClassLabel: page.ClassLabel,
		ClassCode:  q.ClassCode,
	}, nil
}

// attempt performs one session check plus one search POST.
func (c *Client) attempt(ctx context.Context, q models.SearchQuery) (*Page, error) {
	cookie, err := c.sessions.EnsureValid(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.SearchURL, strings.NewReader(searchForm(q).Encode()))
	if err != nil {
		return nil, apperr.New(apperr.ErrUpstream, opSearch, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Cookie", cookie)
	if c.cfg.Referer != "" {
		req.Header.Set("Referer", c.cfg.Referer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(opSearch, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		c.sessions.Invalidate()
		return nil, apperr.New(apperr.ErrUpstream, opSearch, fmt.Errorf("registry denied access (HTTP %d)", resp.StatusCode))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, apperr.New(apperr.ErrUpstream, opSearch, fmt.Errorf("registry returned HTTP %d", resp.StatusCode))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, transportError(opSearch, err)
	}
	if len(raw) > maxBodyBytes {
		return nil, apperr.New(apperr.ErrParse, opSearch, errTooLarge)
	}
	body, err := charset.NewReader(bytes.NewReader(raw), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, apperr.New(apperr.ErrParse, opSearch, err)
	}
	return c.parser.Parse(body)
}

func searchForm(q models.SearchQuery) url.Values {
	form := url.Values{}
	form.Set("Action", "SearchBasic")
	form.Set("marca", q.Name)
	if q.ClassCode != "" {
		form.Set("ncl", q.ClassCode)
	}
	if q.MarkType != "" {
		form.Set("tipo", q.MarkType)
	}
	form.Set("pagina", strconv.Itoa(max(q.Page, 1)))
	return form
}
