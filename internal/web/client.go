// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/jeranaias/chatwatch/internal/fragment"
)

// Configuration constants.
const (
	// DefaultSessionCookie is the cookie Flask stores its session in.
	DefaultSessionCookie = "session"

	// DefaultUserAgent identifies chatwatch to the server.
	DefaultUserAgent = "chatwatch"

	// MaxBodySize caps how much of a page is read.
	MaxBodySize = 4 * 1024 * 1024
)

var (
	// ErrUnsupportedScheme is returned for URLs that are not http or https.
	ErrUnsupportedScheme = errors.New("only http and https urls are supported")

	// ErrBodyTooLarge is returned when a page exceeds the body size cap.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrLoginRequired is returned when the server redirected to its login
	// page, meaning the session cookie is missing or expired.
	ErrLoginRequired = errors.New("login required")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s", e.URL, e.Status)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// Config configures a Client.
type Config struct {
	// Session is the value of the session cookie; empty leaves the jar empty.
	Session       string
	SessionCookie string
	UserAgent     string

	// Timeout bounds each request. Zero leaves it to the caller's context.
	Timeout time.Duration

	MaxBodySize int64

	// Transport overrides http.DefaultTransport.
	Transport http.RoundTripper
}

// Client fetches pages and posts forms against the chat server.
type Client struct {
	http          *http.Client
	jar           http.CookieJar
	session       string
	sessionCookie string
	userAgent     string
	maxBody       int64
}

// New creates a Client with an empty cookie jar.
func New(cfg Config) (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	if cfg.SessionCookie == "" {
		cfg.SessionCookie = DefaultSessionCookie
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = MaxBodySize
	}

	return &Client{
		http: &http.Client{
			Jar:       jar,
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		jar:           jar,
		session:       strings.TrimSpace(cfg.Session),
		sessionCookie: cfg.SessionCookie,
		userAgent:     cfg.UserAgent,
		maxBody:       cfg.MaxBodySize,
	}, nil
}

// Authorize installs the session cookie for the host of rawURL.
func (c *Client) Authorize(rawURL string) error {
	u, err := parseURL(rawURL)
	if err != nil {
		return err
	}
	if c.session == "" {
		return nil
	}
	c.jar.SetCookies(u, []*http.Cookie{{
		Name:     c.sessionCookie,
		Value:    c.session,
		Path:     "/",
		HttpOnly: true,
	}})
	return nil
}

// HasSession reports whether a session cookie is configured.
func (c *Client) HasSession() bool {
	return c.session != ""
}

// =============================================================================
// REQUESTS
// =============================================================================

// Fetch retrieves the body of rawURL.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := parseURL(rawURL)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return c.do(req)
}

// FetchDocument retrieves and parses rawURL.
func (c *Client) FetchDocument(ctx context.Context, rawURL string) (*fragment.Document, error) {
	body, err := c.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return fragment.ParseBytes(body)
}

// Submit validates values against form, sends it and returns the page the
// server answered with (after redirects). pageURL is the page the form was
// read from; relative actions resolve against it.
func (c *Client) Submit(ctx context.Context, pageURL string, form *fragment.Form, values url.Values) (*fragment.Document, error) {
	if form == nil {
		return nil, errors.New("submit: no form")
	}
	if err := form.Validate(values); err != nil {
		return nil, err
	}

	page, err := parseURL(pageURL)
	if err != nil {
		return nil, err
	}
	action, err := form.Resolve(page)
	if err != nil {
		return nil, err
	}
	if action.Scheme != "http" && action.Scheme != "https" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, action.Scheme)
	}

	var req *http.Request
	if form.Method == http.MethodGet {
		action.RawQuery = values.Encode()
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, action.String(), nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, form.Method, action.String(), strings.NewReader(values.Encode()))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Referer", page.String())

	body, err := c.do(req)
	if err != nil {
		log.Printf("MESSAGE_SEND_FAILED | action=%s error=%v", action, err)
		return nil, err
	}
	log.Printf("MESSAGE_SENT | action=%s bytes=%d", action, len(body))
	return fragment.ParseBytes(body)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, URL: req.URL.String()}
	}
	if landedOnLogin(req.URL, resp.Request.URL) {
		return nil, fmt.Errorf("%w: redirected to %s", ErrLoginRequired, resp.Request.URL.Path)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, c.maxBody)
	}
	return body, nil
}

// landedOnLogin reports whether a request for asked ended on a login page
// it did not ask for.
func landedOnLogin(asked, final *url.URL) bool {
	if final == nil || final.Path == asked.Path {
		return false
	}
	return strings.Contains(strings.ToLower(final.Path), "login")
}

func parseURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, rawURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid url %q: missing host", rawURL)
	}
	return u, nil
}
