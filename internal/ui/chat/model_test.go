// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatwatch/internal/config"
	"github.com/jeranaias/chatwatch/internal/fragment"
	"github.com/jeranaias/chatwatch/internal/refresh"
	"github.com/jeranaias/chatwatch/internal/storage"
	"github.com/jeranaias/chatwatch/internal/ui/components"
	"github.com/jeranaias/chatwatch/internal/web"
)

const pageURL = "http://school.test/student/chat/7"

// =============================================================================
// FAKES
// =============================================================================

func chatPage(flash string, bodies ...string) string {
	var b strings.Builder
	b.WriteString(`<html><head><title>Chat with Ms. Rivera</title></head><body>`)
	if flash != "" {
		b.WriteString(`<div class="alert alert-success">` + flash + `</div>`)
	}
	b.WriteString(`<div class="chat-messages">`)
	for i, body := range bodies {
		class, who := "message received", "Rivera"
		if i%2 == 1 {
			class, who = "message sent", "Sam"
		}
		fmt.Fprintf(&b, `<div class="%s"><span class="message-sender">%s</span>`+
			`<span class="message-time">09:%02d</span><div class="message-content">%s</div></div>`,
			class, who, i, body)
	}
	b.WriteString(`</div><form method="post" action="/student/send-message">` +
		`<input type="hidden" name="to_user_id" value="7">` +
		`<textarea name="content" required></textarea></form></body></html>`)
	return b.String()
}

type fakeClient struct {
	mu        sync.Mutex
	page      string
	fetchErr  error
	submitted []url.Values
	reply     string
	submitErr error
}

func (c *fakeClient) setPage(page string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page, c.fetchErr = page, err
}

func (c *fakeClient) Fetch(context.Context, string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	return []byte(c.page), nil
}

func (c *fakeClient) FetchDocument(ctx context.Context, u string) (*fragment.Document, error) {
	body, err := c.Fetch(ctx, u)
	if err != nil {
		return nil, err
	}
	return fragment.ParseBytes(body)
}

func (c *fakeClient) Submit(_ context.Context, _ string, form *fragment.Form, values url.Values) (*fragment.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitted = append(c.submitted, values)
	if c.submitErr != nil {
		return nil, c.submitErr
	}
	return fragment.ParseBytes([]byte(c.reply))
}

type memStore struct {
	mu    sync.Mutex
	snaps map[string]storage.Snapshot
}

func (s *memStore) Save(_ context.Context, snap storage.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[snap.URL] = snap
	return nil
}

func (s *memStore) Load(_ context.Context, u string) (storage.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snaps[u]
	if !ok {
		return storage.Snapshot{}, storage.ErrNoSnapshot
	}
	return snap, nil
}

// stepClock moves forward a millisecond on every reading so event order is
// visible in timestamps.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func (c *stepClock) NewTicker(d time.Duration) refresh.Ticker {
	return refresh.SystemClock().NewTicker(d)
}

// =============================================================================
// HARNESS
// =============================================================================

type harness struct {
	m      Model
	client *fakeClient
	store  *memStore
	queue  chan func()
	copied []string
	saved  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		client: &fakeClient{page: chatPage("", "hello", "hi")},
		store:  &memStore{snaps: map[string]storage.Snapshot{}},
		queue:  make(chan func()),
		saved:  t.TempDir(),
	}

	cfg := config.Default()
	cfg.Server.URL = pageURL

	m, err := New(Options{
		Config:     cfg,
		Client:     h.client,
		Snapshots:  h.store,
		Dispatcher: func(fn func()) { h.queue <- fn },
		Clock:      &stepClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
		Clipboard: func(s string) error {
			h.copied = append(h.copied, s)
			return nil
		},
		ExportDir: h.saved,
	})
	require.NoError(t, err)
	t.Cleanup(m.shutdown)

	h.m = m
	h.update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return h
}

func (h *harness) update(msg tea.Msg) tea.Cmd {
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	return cmd
}

// run executes cmd and feeds every resulting message back into Update,
// skipping timer-driven ticks.
func (h *harness) run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case nil:
	case tea.BatchMsg:
		for _, c := range msg {
			h.run(c)
		}
	default:
		h.run(h.update(msg))
	}
}

func (h *harness) key(s string) tea.Cmd {
	switch s {
	case "tab":
		return h.update(tea.KeyMsg{Type: tea.KeyTab})
	case "enter":
		return h.update(tea.KeyMsg{Type: tea.KeyEnter})
	case "esc":
		return h.update(tea.KeyMsg{Type: tea.KeyEsc})
	case "ctrl+c":
		return h.update(tea.KeyMsg{Type: tea.KeyCtrlC})
	default:
		return h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	}
}

// load delivers the initial page.
func (h *harness) load(t *testing.T) {
	t.Helper()
	doc, err := h.client.FetchDocument(context.Background(), pageURL)
	require.NoError(t, err)
	h.run(h.update(pageLoadedMsg{doc: doc}))
}

// refresh runs one cycle, pumping its UI work through Update.
func (h *harness) refresh(t *testing.T) error {
	t.Helper()
	r := h.m.refresher
	done := make(chan error, 1)
	go func() { done <- r.Refresh(context.Background()) }()

	for {
		select {
		case fn := <-h.queue:
			h.run(h.update(DispatchMsg{Fn: fn}))
		case err := <-done:
			// Hooks dispatched after the cycle returned.
			for {
				select {
				case fn := <-h.queue:
					h.run(h.update(DispatchMsg{Fn: fn}))
				default:
					return err
				}
			}
		case <-time.After(5 * time.Second):
			t.Fatal("refresh did not finish")
		}
	}
}

func (h *harness) toastTexts() []string {
	var out []string
	for _, toast := range h.m.toasts.Toasts() {
		out = append(out, toast.Message)
	}
	return out
}

// =============================================================================
// TESTS
// =============================================================================

func TestNew_RequiresClient(t *testing.T) {
	_, err := New(Options{Config: config.Default()})
	assert.Error(t, err)
}

func TestNew_InvalidSelector(t *testing.T) {
	cfg := config.Default()
	cfg.Server.URL = pageURL
	cfg.Fragment.Selector = "[["
	_, err := New(Options{Config: cfg, Client: &fakeClient{}})
	assert.Error(t, err)
}

func TestPageLoad(t *testing.T) {
	h := newHarness(t)
	h.client.setPage(chatPage("Welcome back!", "hello", "hi"), nil)
	h.load(t)

	tr := h.m.viewport.Transcript()
	require.Len(t, tr, 2)
	assert.Equal(t, "hi", tr[1].Body)
	assert.True(t, h.m.viewport.AtBottom())

	require.NotNil(t, h.m.form)
	assert.Equal(t, "/student/send-message", h.m.form.Action)
	assert.Contains(t, h.toastTexts(), "Welcome back!")
	assert.Contains(t, h.m.header.View(), "Chat with Ms. Rivera")

	snap, err := h.store.Load(context.Background(), pageURL)
	require.NoError(t, err)
	assert.Contains(t, snap.HTML, "hello")
}

func TestPageLoad_Failure(t *testing.T) {
	h := newHarness(t)
	h.run(h.update(pageLoadedMsg{err: web.ErrLoginRequired}))

	assert.False(t, h.m.viewport.Loaded())
	require.Len(t, h.toastTexts(), 1)
	assert.Contains(t, h.toastTexts()[0], "session has expired")
}

func TestPageLoad_NoChatRegion(t *testing.T) {
	h := newHarness(t)
	doc, err := fragment.ParseBytes([]byte(`<html><body><div class="alert alert-info">Hi</div></body></html>`))
	require.NoError(t, err)

	h.run(h.update(pageLoadedMsg{doc: doc}))
	assert.False(t, h.m.viewport.Loaded())
	texts := strings.Join(h.toastTexts(), "\n")
	assert.Contains(t, texts, "Hi")
	assert.Contains(t, texts, ".chat-messages")
}

func TestSnapshotShownUntilPageArrives(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.Save(context.Background(), storage.Snapshot{
		URL:  pageURL,
		HTML: `<div class="message received"><span class="message-sender">Rivera</span><div class="message-content">from last time</div></div>`,
	}))

	h.run(h.m.loadSnapshot())
	require.Len(t, h.m.viewport.Transcript(), 1)
	assert.Equal(t, "from last time", h.m.viewport.Transcript()[0].Body)

	h.load(t)
	assert.Len(t, h.m.viewport.Transcript(), 2)

	// A late snapshot never replaces live content.
	h.run(h.m.loadSnapshot())
	assert.Equal(t, "hello", h.m.viewport.Transcript()[0].Body)
}

func TestRefreshCycle_AppendsAndFollows(t *testing.T) {
	h := newHarness(t)
	h.load(t)

	h.client.setPage(chatPage("", "hello", "hi", "how are you?"), nil)
	require.NoError(t, h.refresh(t))

	tr := h.m.viewport.Transcript()
	require.Len(t, tr, 3)
	assert.Equal(t, "how are you?", tr[2].Body)
	assert.True(t, h.m.viewport.AtBottom())
	assert.Equal(t, components.StateLive, h.m.status.State(h.m.clock.Now()))
}

func TestRefreshCycle_FailsSilently(t *testing.T) {
	h := newHarness(t)
	h.load(t)
	before := h.m.viewport.Transcript()

	h.client.setPage("", errors.New("connection refused"))
	err := h.refresh(t)

	var ce *refresh.CycleError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, refresh.StageFetch, ce.Stage)
	assert.Equal(t, before, h.m.viewport.Transcript(), "content untouched")
	assert.Empty(t, h.toastTexts(), "no popup for a failed poll")
	assert.Equal(t, components.StateError, h.m.status.State(h.m.clock.Now()))
	assert.Contains(t, h.m.status.View(h.m.clock.Now()), "connection refused")
}

func TestRefreshCycle_SessionExpiredIsShown(t *testing.T) {
	h := newHarness(t)
	h.load(t)

	h.client.setPage("", web.ErrLoginRequired)
	require.Error(t, h.refresh(t))
	require.Len(t, h.toastTexts(), 1)
	assert.Contains(t, h.toastTexts()[0], "session has expired")
}

func TestCompose_ValidatesBeforePosting(t *testing.T) {
	h := newHarness(t)
	h.load(t)

	h.key("tab")
	require.True(t, h.m.composing)

	cmd := h.key("enter")
	assert.Nil(t, cmd, "blank message is not posted")
	assert.Empty(t, h.client.submitted)
	require.Len(t, h.toastTexts(), 1)
	assert.Contains(t, h.toastTexts()[0], "content")
}

func TestCompose_SendsAndShowsReply(t *testing.T) {
	h := newHarness(t)
	h.load(t)
	h.client.reply = chatPage("Message sent!", "hello", "hi", "see you at 3")

	h.key("tab")
	h.key("  see you at 3 ")
	h.run(h.key("enter"))

	require.Len(t, h.client.submitted, 1)
	sent := h.client.submitted[0]
	assert.Equal(t, "see you at 3", sent.Get("content"))
	assert.Equal(t, "7", sent.Get("to_user_id"))

	assert.False(t, h.m.sending)
	assert.Empty(t, h.m.compose.Value())
	assert.Len(t, h.m.viewport.Transcript(), 3)
	assert.True(t, h.m.viewport.AtBottom())
	assert.Contains(t, h.toastTexts(), "Message sent!")
}

func TestCompose_SendFailureKeepsText(t *testing.T) {
	h := newHarness(t)
	h.load(t)
	h.client.submitErr = &web.StatusError{StatusCode: 500, Status: "500 Internal Server Error", URL: pageURL}

	h.key("tab")
	h.key("hello again")
	h.run(h.key("enter"))

	assert.Equal(t, "hello again", h.m.compose.Value())
	require.NotEmpty(t, h.toastTexts())
	assert.Contains(t, h.toastTexts()[0], "Message not sent")
}

func TestCompose_NoForm(t *testing.T) {
	h := newHarness(t)
	h.key("tab")
	h.key("hi")
	assert.Nil(t, h.key("enter"))
	assert.Contains(t, h.toastTexts(), "This page has no message form.")
}

func TestKeys_CopyLastMessage(t *testing.T) {
	h := newHarness(t)
	h.key("y")
	assert.Empty(t, h.copied)
	assert.Contains(t, h.toastTexts(), "No messages to copy.")

	h.load(t)
	h.key("y")
	assert.Equal(t, []string{"hi"}, h.copied)
}

func TestKeys_ExportConversation(t *testing.T) {
	h := newHarness(t)
	h.key("e")
	assert.Contains(t, h.toastTexts(), "Nothing loaded yet.")

	h.load(t)
	h.key("e")

	files, err := filepath.Glob(filepath.Join(h.saved, "*.md"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, files[0], "Chat_with_Ms._Rivera")

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "**Rivera**")
	assert.Contains(t, string(data), "> hello")
	assert.Contains(t, string(data), "**You**")
	assert.Contains(t, h.toastTexts(), "Saved "+files[0])
}

func TestKeys_Help(t *testing.T) {
	h := newHarness(t)
	h.key("?")
	require.True(t, h.m.help.Visible())
	// glamour puts styling between words
	assert.Contains(t, ansi.Strip(h.m.View()), "refresh now")

	h.key("q")
	assert.False(t, h.m.help.Visible(), "q closes help instead of quitting")
	assert.False(t, h.m.quitting)
}

func TestKeys_Quit(t *testing.T) {
	h := newHarness(t)
	cmd := h.key("q")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.True(t, h.m.quitting)
	assert.Empty(t, h.m.View())
}

func TestKeys_ScrollAndFollow(t *testing.T) {
	h := newHarness(t)
	bodies := make([]string, 30)
	for i := range bodies {
		bodies[i] = fmt.Sprintf("message %d", i)
	}
	h.client.setPage(chatPage("", bodies...), nil)
	h.load(t)
	require.True(t, h.m.viewport.AtBottom())

	h.key("g")
	assert.Equal(t, 0, h.m.viewport.ScrollTop())

	// Reading old messages: a new one arrives without moving the view.
	h.client.setPage(chatPage("", append(bodies, "new one")...), nil)
	require.NoError(t, h.refresh(t))
	assert.Equal(t, 0, h.m.viewport.ScrollTop())
	assert.Equal(t, 1, h.m.viewport.Unseen())

	h.key("G")
	assert.True(t, h.m.viewport.AtBottom())
	assert.Equal(t, 0, h.m.viewport.Unseen())
}

func TestConfigReload(t *testing.T) {
	h := newHarness(t)

	cfg := h.m.cfg.Clone()
	cfg.UI.ShowTimestamps = false
	h.update(ConfigReloadedMsg{Config: cfg})
	assert.Same(t, cfg, h.m.cfg)
	assert.Contains(t, h.toastTexts(), "Config reloaded.")

	cfg2 := cfg.Clone()
	cfg2.Refresh.IntervalMs = 2000
	h.update(ConfigReloadedMsg{Config: cfg2})
	assert.Contains(t, strings.Join(h.toastTexts(), "\n"), "after a restart")

	h.update(ConfigReloadedMsg{Err: errors.New("bad toml")})
	assert.Contains(t, strings.Join(h.toastTexts(), "\n"), "bad toml")
}

func TestBridge_QueuesUntilAttached(t *testing.T) {
	b := NewBridge()
	ran := false
	b.Dispatch(func() { ran = true })

	require.Len(t, b.pending, 1)
	msg, ok := b.pending[0].(DispatchMsg)
	require.True(t, ok)
	msg.Fn()
	assert.True(t, ran)
}

// slowProgram records messages and holds the first one back until released.
type slowProgram struct {
	mu      sync.Mutex
	got     []string
	release chan struct{}
	first   sync.Once
}

func (p *slowProgram) Send(msg tea.Msg) {
	p.first.Do(func() { <-p.release })
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, msg.(ConfigReloadedMsg).Err.Error())
}

func (p *slowProgram) received() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.got...)
}

func TestBridge_QueuedMessagesArriveFirst(t *testing.T) {
	b := NewBridge()
	p := &slowProgram{release: make(chan struct{})}
	msg := func(s string) tea.Msg { return ConfigReloadedMsg{Err: errors.New(s)} }

	b.Send(msg("queued-1"))
	b.Send(msg("queued-2"))
	b.attach(p)

	done := make(chan struct{})
	go func() {
		b.Send(msg("after-attach"))
		close(done)
	}()
	<-done
	close(p.release)

	require.Eventually(t, func() bool { return len(p.received()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"queued-1", "queued-2", "after-attach"}, p.received())

	b.Send(msg("direct"))
	require.Eventually(t, func() bool { return len(p.received()) == 4 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "direct", p.received()[3])
}
