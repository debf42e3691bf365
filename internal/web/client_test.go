// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatwatch/internal/fragment"
)

// chatServer is a minimal stand-in for the classroom chat application.
type chatServer struct {
	mu       sync.Mutex
	messages []string
	posted   url.Values
}

func (s *chatServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/student/chat", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("session"); err != nil || c.Value != "valid" {
			http.Redirect(w, r, "/login?next=/student/chat", http.StatusFound)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		fmt.Fprint(w, `<html><body><div class="chat-messages">`)
		for _, m := range s.messages {
			fmt.Fprintf(w, `<div class="message sent"><div class="message-content">%s</div></div>`, m)
		}
		fmt.Fprint(w, `</div><form method="post" action="/student/send-message"><textarea name="content" required></textarea></form></body></html>`)
	})
	mux.HandleFunc("/student/send-message", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.posted = r.PostForm
		s.messages = append(s.messages, r.PostForm.Get("content"))
		s.mu.Unlock()
		http.Redirect(w, r, "/student/chat", http.StatusFound)
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><form action="/login"></form></body></html>`)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/big/chat", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, strings.Repeat("x", 2048))
	})
	return mux
}

func newTestClient(t *testing.T, session string) (*Client, *httptest.Server, *chatServer) {
	t.Helper()
	cs := &chatServer{messages: []string{"oi"}}
	srv := httptest.NewServer(cs.handler())
	t.Cleanup(srv.Close)

	c, err := New(Config{Session: session, UserAgent: "chatwatch-test"})
	require.NoError(t, err)
	require.NoError(t, c.Authorize(srv.URL))
	return c, srv, cs
}

// =============================================================================
// FETCH TESTS
// =============================================================================

func TestFetch_SendsSessionCookie(t *testing.T) {
	c, srv, _ := newTestClient(t, "valid")
	assert.True(t, c.HasSession())

	body, err := c.Fetch(context.Background(), srv.URL+"/student/chat")
	require.NoError(t, err)
	assert.Contains(t, string(body), `class="chat-messages"`)
}

func TestFetch_Headers(t *testing.T) {
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
	}))
	defer srv.Close()

	c, err := New(Config{})
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, DefaultUserAgent, gotUA)
	assert.Contains(t, gotAccept, "text/html")
}

func TestFetch_ExpiredSessionRedirectsToLogin(t *testing.T) {
	c, srv, _ := newTestClient(t, "expired")

	_, err := c.Fetch(context.Background(), srv.URL+"/student/chat")
	require.ErrorIs(t, err, ErrLoginRequired)
}

func TestFetch_StatusError(t *testing.T) {
	c, srv, _ := newTestClient(t, "valid")

	_, err := c.Fetch(context.Background(), srv.URL+"/broken")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusInternalServerError))
	assert.False(t, IsStatus(err, http.StatusNotFound))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Contains(t, se.Error(), "500")
}

func TestFetch_BodyTooLarge(t *testing.T) {
	cs := &chatServer{}
	srv := httptest.NewServer(cs.handler())
	defer srv.Close()

	c, err := New(Config{MaxBodySize: 1024})
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), srv.URL+"/big/chat")
	require.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestFetch_RejectsOtherSchemes(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)

	for _, raw := range []string{"file:///etc/passwd", "ftp://example.com/chat", "localhost:5000/chat"} {
		_, err := c.Fetch(context.Background(), raw)
		assert.ErrorIs(t, err, ErrUnsupportedScheme, raw)
	}

	_, err = c.Fetch(context.Background(), "http:///chat")
	assert.Error(t, err)
}

func TestFetch_Cancelled(t *testing.T) {
	c, srv, _ := newTestClient(t, "valid")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Fetch(ctx, srv.URL+"/student/chat")
	require.ErrorIs(t, err, context.Canceled)
}

// =============================================================================
// SUBMIT TESTS
// =============================================================================

func TestSubmit_PostsFormAndFollowsRedirect(t *testing.T) {
	c, srv, cs := newTestClient(t, "valid")
	pageURL := srv.URL + "/student/chat"

	doc, err := c.FetchDocument(context.Background(), pageURL)
	require.NoError(t, err)
	form, ok := doc.Form(fragment.MustCompile("form"))
	require.True(t, ok)

	values := form.Values(map[string]string{"content": "Tenho uma dúvida"})
	after, err := c.Submit(context.Background(), pageURL, form, values)
	require.NoError(t, err)

	frag := after.Find(fragment.MustCompile(".chat-messages"))
	require.NotNil(t, frag)
	entries := frag.Entries(fragment.DefaultEntrySelectors())
	require.Len(t, entries, 2)
	assert.Equal(t, "Tenho uma dúvida", entries[1].Body)
	assert.True(t, entries[1].Mine)

	cs.mu.Lock()
	defer cs.mu.Unlock()
	assert.Equal(t, "Tenho uma dúvida", cs.posted.Get("content"))
}

func TestSubmit_ValidatesBeforeSending(t *testing.T) {
	c, srv, cs := newTestClient(t, "valid")
	pageURL := srv.URL + "/student/chat"

	doc, err := c.FetchDocument(context.Background(), pageURL)
	require.NoError(t, err)
	form, ok := doc.Form(fragment.MustCompile("form"))
	require.True(t, ok)

	_, err = c.Submit(context.Background(), pageURL, form, form.Values(nil))
	var fieldErrs fragment.FieldErrors
	require.True(t, errors.As(err, &fieldErrs))

	cs.mu.Lock()
	defer cs.mu.Unlock()
	assert.Nil(t, cs.posted, "nothing should reach the server")
	assert.Len(t, cs.messages, 1)
}

func TestSubmit_NoForm(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)
	_, err = c.Submit(context.Background(), "http://localhost/chat", nil, nil)
	assert.Error(t, err)
}
