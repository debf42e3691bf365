// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tail.go - Print new chat messages as they arrive.
//
// Command: tail [url] [--compose]
// Short:   Follow a chat page in a plain terminal
//
// Examples:
//   chatwatch tail http://localhost:5000/student/chat
//   chatwatch tail --compose http://localhost:5000/student/chat
//   chatwatch tail -q http://localhost:5000/teacher/chat | grep Maria
//
// The refresher runs with a Serial dispatcher: there is no event loop, so
// container updates run under one mutex on whichever goroutine finished
// the fetch.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/peterh/liner"

	"github.com/jeranaias/chatwatch/internal/config"
	"github.com/jeranaias/chatwatch/internal/fragment"
	"github.com/jeranaias/chatwatch/internal/model"
	"github.com/jeranaias/chatwatch/internal/refresh"
	"github.com/jeranaias/chatwatch/internal/web"
)

// =============================================================================
// LINE CONTAINER
// =============================================================================

// lineContainer is a refresh.Container backed by an append-only terminal.
// Everything printed stays visible in the scrollback, so the reader is
// always at the bottom and each replacement prints only the entries that
// were not printed before.
type lineContainer struct {
	out     io.Writer
	sel     fragment.EntrySelectors
	shown   model.Transcript
	printed int
}

func newLineContainer(out io.Writer, sel fragment.EntrySelectors) *lineContainer {
	return &lineContainer{out: out, sel: sel}
}

func (c *lineContainer) Present() bool { return true }

func (c *lineContainer) ScrollTop() int { return 0 }

func (c *lineContainer) SetScrollTop(int) {}

func (c *lineContainer) ScrollHeight() int { return len(c.shown) }

func (c *lineContainer) ClientHeight() int { return len(c.shown) }

// ReplaceContent prints the entries after the part shared with the
// previous content. Edits above that point are announced, not reprinted.
func (c *lineContainer) ReplaceContent(f *fragment.Fragment) {
	next := f.Entries(c.sel)
	keep := c.shown.CommonPrefix(next)
	if keep < len(c.shown) && c.printed > 0 {
		fmt.Fprintln(c.out, RenderConditional(DimStyle, "-- earlier messages changed --"))
	}
	for _, e := range next[keep:] {
		fmt.Fprintln(c.out, RenderEntry(e))
		c.printed++
	}
	c.shown = next
}

// =============================================================================
// COMMAND
// =============================================================================

// HandleTail follows the chat page until interrupted.
func HandleTail(args Args) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	SetupStderrLogging(args)

	if args.Compose {
		if err := RequiresTTY("compose messages"); err != nil {
			return err
		}
	}

	client, err := NewClient(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	t, err := newTail(cfg, client, os.Stdout, os.Stderr)
	if err != nil {
		return err
	}
	if err := t.load(ctx); err != nil {
		return err
	}

	if !t.refresher.Active() {
		t.notice(fmt.Sprintf("Not polling: %s does not contain %s.", cfg.Server.URL, cfg.Refresh.TriggerPath))
		return nil
	}
	if !args.Quiet {
		t.notice(fmt.Sprintf("Watching %s every %s (ctrl+c to stop)", t.refresher.PageURL(), intervalLabel(t.refresher.Interval())))
	}

	if err := t.refresher.Start(ctx); err != nil {
		return err
	}
	defer t.refresher.Stop()

	if args.Compose {
		return t.compose(ctx)
	}
	<-ctx.Done()
	return nil
}

// tail holds the state of one tail session.
type tail struct {
	cfg       *config.Config
	client    *web.Client
	refresher *refresh.Refresher
	dispatch  refresh.Dispatcher
	container *lineContainer
	errOut    io.Writer

	flashSel fragment.Selector
	formSel  fragment.Selector

	mu   sync.Mutex
	form *fragment.Form
}

func newTail(cfg *config.Config, client *web.Client, out, errOut io.Writer) (*tail, error) {
	entrySel, err := cfg.Fragment.EntrySelectors()
	if err != nil {
		return nil, err
	}
	fragSel, err := cfg.Fragment.FragmentSelector()
	if err != nil {
		return nil, err
	}
	flashSel, err := cfg.Fragment.FlashSelector()
	if err != nil {
		return nil, err
	}
	formSel, err := cfg.Fragment.FormSelector()
	if err != nil {
		return nil, err
	}

	t := &tail{
		cfg:       cfg,
		client:    client,
		dispatch:  refresh.Serial(),
		container: newLineContainer(out, entrySel),
		errOut:    errOut,
		flashSel:  flashSel,
		formSel:   formSel,
	}

	t.refresher, err = refresh.New(refresh.Options{
		PageURL:      cfg.Server.URL,
		Selector:     fragSel,
		Interval:     cfg.Refresh.Interval(),
		TriggerPath:  cfg.Refresh.TriggerPath,
		NearBottom:   cfg.Refresh.NearBottom,
		FetchTimeout: cfg.Refresh.FetchTimeout(),
		DropStale:    cfg.Refresh.DropStale,
		ManualEvery:  cfg.Refresh.ManualEvery(),
		Fetcher:      client,
		Container:    t.container,
		Dispatcher:   t.dispatch,
		OnError:      t.onError,
		OnApply:      t.onApply,
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// load fetches the page and prints its current messages.
func (t *tail) load(ctx context.Context) error {
	doc, err := t.client.FetchDocument(ctx, t.refresher.PageURL())
	if err != nil {
		return NewCommandError("tail", "load page", err)
	}
	var loadErr error
	t.dispatch(func() { loadErr = t.refresher.Load(doc) })
	if errors.Is(loadErr, refresh.ErrRemoteFragmentMissing) {
		return fmt.Errorf("page has no %s region: %w", t.refresher.Selector(), loadErr)
	}
	return loadErr
}

func (t *tail) onApply(a refresh.Applied) {
	if form, ok := a.Document.Form(t.formSel); ok {
		t.mu.Lock()
		t.form = form
		t.mu.Unlock()
	}
	if t.cfg.Log.Debug {
		log.Printf("REFRESH_APPLIED | cycle=%s seq=%d manual=%t", a.Cycle.ID, a.Cycle.Seq, a.Cycle.Manual)
	}
}

// onError keeps failures out of the transcript. Only an expired session is
// worth interrupting the reader for.
func (t *tail) onError(e *refresh.CycleError) {
	log.Printf("REFRESH_FAILED | cycle=%s stage=%s error=%v", e.Cycle.ID, e.Stage, e.Err)
	if errors.Is(e, web.ErrLoginRequired) {
		t.notice(RenderConditional(WarningStyle, "Session expired; log in again and update the session cookie."))
	}
}

func (t *tail) notice(msg string) {
	fmt.Fprintln(t.errOut, msg)
}

// =============================================================================
// COMPOSE
// =============================================================================

// compose reads lines from the terminal and posts each one.
func (t *tail) compose(ctx context.Context) error {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	defer line.Close()

	history := historyPath()
	if f, err := os.Open(history); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer saveHistory(line, history)

	for ctx.Err() == nil {
		text, err := line.Prompt("> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		line.AppendHistory(text)

		if err := t.send(ctx, text); err != nil {
			t.notice(RenderConditional(ErrorStyle, "Message not sent: ") + err.Error())
		}
	}
	return nil
}

// send posts text through the page's chat form and shows the page the
// server answered with.
func (t *tail) send(ctx context.Context, text string) error {
	t.mu.Lock()
	form := t.form
	t.mu.Unlock()
	if form == nil {
		return errors.New("this page has no message form")
	}

	field := t.cfg.Fragment.ComposeField
	if _, ok := form.Field(field); !ok {
		return fmt.Errorf("the message form has no %s field", field)
	}
	values := form.Values(map[string]string{field: text})
	if err := form.Validate(values); err != nil {
		return err
	}

	doc, err := t.client.Submit(ctx, t.refresher.PageURL(), form, values)
	if err != nil {
		return err
	}
	for _, f := range doc.Flashes(t.flashSel) {
		t.notice(RenderFlash(f))
	}

	var loadErr error
	t.dispatch(func() { loadErr = t.refresher.Load(doc) })
	if loadErr != nil {
		log.Printf("SUBMIT_PAGE_UNUSABLE | error=%v", loadErr)
	}
	return nil
}

func historyPath() string {
	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "compose_history")
}

func saveHistory(line *liner.State, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	line.WriteHistory(f)
}
