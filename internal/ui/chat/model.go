// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"log"
	"net/url"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatwatch/internal/config"
	"github.com/jeranaias/chatwatch/internal/export"
	"github.com/jeranaias/chatwatch/internal/fragment"
	"github.com/jeranaias/chatwatch/internal/refresh"
	"github.com/jeranaias/chatwatch/internal/storage"
	"github.com/jeranaias/chatwatch/internal/ui/components"
	"github.com/jeranaias/chatwatch/internal/ui/styles"
	"github.com/jeranaias/chatwatch/internal/web"
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Client loads and posts chat pages. *web.Client satisfies it.
type Client interface {
	refresh.Fetcher
	FetchDocument(ctx context.Context, url string) (*fragment.Document, error)
	Submit(ctx context.Context, pageURL string, form *fragment.Form, values url.Values) (*fragment.Document, error)
}

// SnapshotStore keeps the last fragment per page. *storage.SnapshotStore
// satisfies it.
type SnapshotStore interface {
	Save(ctx context.Context, snap storage.Snapshot) error
	Load(ctx context.Context, url string) (storage.Snapshot, error)
}

// Options configures a Model.
type Options struct {
	Config *config.Config
	Client Client

	// Dispatcher delivers refresher work to Update, normally Bridge.Dispatch.
	Dispatcher refresh.Dispatcher

	// Snapshots is optional.
	Snapshots SnapshotStore

	// Clock defaults to the system clock.
	Clock refresh.Clock

	// Clipboard defaults to the system clipboard.
	Clipboard func(string) error

	// ExportDir receives conversations saved with the export key.
	// Default: the current directory.
	ExportDir string
}

// hookLog collects what the refresher reported through its hooks. Hooks run
// on the UI thread, so no locking is needed.
type hookLog struct {
	applied []refresh.Applied
	failed  []*refresh.CycleError
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model of the chat view.
type Model struct {
	cfg    *config.Config
	theme  *styles.Theme
	keys   KeyMap
	client Client
	store  SnapshotStore
	clock  refresh.Clock
	copyFn func(string) error
	export *export.Options

	refresher *refresh.Refresher
	hooks     *hookLog
	ctx       context.Context
	cancel    context.CancelFunc

	header   *components.Header
	viewport *components.ChatViewport
	status   *components.StatusBar
	toasts   *components.ToastManager
	help     *components.Modal
	compose  textinput.Model

	flashSel fragment.Selector
	formSel  fragment.Selector
	form     *fragment.Form

	composing bool
	sending   bool
	quitting  bool
	width     int
	height    int
}

// New builds the chat model and its refresher.
func New(opts Options) (Model, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Client == nil {
		return Model{}, errors.New("chat: client is required")
	}

	entrySel, err := cfg.Fragment.EntrySelectors()
	if err != nil {
		return Model{}, err
	}
	fragSel, err := cfg.Fragment.FragmentSelector()
	if err != nil {
		return Model{}, err
	}
	flashSel, err := cfg.Fragment.FlashSelector()
	if err != nil {
		return Model{}, err
	}
	formSel, err := cfg.Fragment.FormSelector()
	if err != nil {
		return Model{}, err
	}

	clock := opts.Clock
	if clock == nil {
		clock = refresh.SystemClock()
	}
	copyFn := opts.Clipboard
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}

	exportOpts := export.DefaultOptions()
	if opts.ExportDir != "" {
		exportOpts.OutputDir = opts.ExportDir
	}
	exportOpts.IncludeTimestamps = cfg.UI.ShowTimestamps

	theme := styles.NewTheme(cfg.UI.Theme)
	keys := DefaultKeyMap()

	vp := components.NewChatViewport(theme, entrySel)
	vp.SetRowPixels(cfg.UI.RowPixels)
	vp.SetShowTimestamps(cfg.UI.ShowTimestamps)

	hooks := &hookLog{}
	r, err := refresh.New(refresh.Options{
		PageURL:      cfg.Server.URL,
		Selector:     fragSel,
		Interval:     cfg.Refresh.Interval(),
		TriggerPath:  cfg.Refresh.TriggerPath,
		NearBottom:   cfg.Refresh.NearBottom,
		FetchTimeout: cfg.Refresh.FetchTimeout(),
		DropStale:    cfg.Refresh.DropStale,
		ManualEvery:  cfg.Refresh.ManualEvery(),
		Clock:        clock,
		Fetcher:      opts.Client,
		Container:    vp,
		Dispatcher:   opts.Dispatcher,
		OnError:      func(e *refresh.CycleError) { hooks.failed = append(hooks.failed, e) },
		OnApply:      func(a refresh.Applied) { hooks.applied = append(hooks.applied, a) },
	})
	if err != nil {
		return Model{}, err
	}

	header := components.NewHeader(theme)
	header.SetURL(r.PageURL())

	status := components.NewStatusBar(theme)
	status.SetPage(r.PageURL(), r.Active(), r.Interval())

	input := textinput.New()
	input.Placeholder = "Type your message..."
	input.Prompt = "> "
	input.PromptStyle = theme.ComposePrompt
	input.CharLimit = 2000

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		cfg:       cfg,
		theme:     theme,
		keys:      keys,
		client:    opts.Client,
		store:     opts.Snapshots,
		clock:     clock,
		copyFn:    copyFn,
		export:    exportOpts,
		refresher: r,
		hooks:     hooks,
		ctx:       ctx,
		cancel:    cancel,
		header:    header,
		viewport:  vp,
		status:    status,
		toasts:    components.NewToastManager(),
		help:      components.NewModal(theme, keys.HelpMarkdown()),
		compose:   input,
		flashSel:  flashSel,
		formSel:   formSel,
		width:     80,
		height:    24,
	}, nil
}

// Refresher returns the refresher driving the view.
func (m Model) Refresher() *refresh.Refresher {
	return m.refresher
}

// Init loads the snapshot and the page, and starts polling.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.loadPage(),
		m.startRefresher(),
		statusTick(),
		components.ToastTickCmd(),
	}
	if m.store != nil {
		cmds = append(cmds, m.loadSnapshot())
	}
	return tea.Batch(cmds...)
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m Model) loadPage() tea.Cmd {
	ctx, url, client := m.ctx, m.refresher.PageURL(), m.client
	return func() tea.Msg {
		doc, err := client.FetchDocument(ctx, url)
		return pageLoadedMsg{doc: doc, err: err}
	}
}

func (m Model) startRefresher() tea.Cmd {
	ctx, r := m.ctx, m.refresher
	return func() tea.Msg {
		return refresherStartedMsg{err: r.Start(ctx)}
	}
}

func (m Model) loadSnapshot() tea.Cmd {
	ctx, url, store := m.ctx, m.refresher.PageURL(), m.store
	return func() tea.Msg {
		snap, err := store.Load(ctx, url)
		return snapshotLoadedMsg{snap: snap, err: err}
	}
}

func (m Model) saveSnapshot(a refresh.Applied) tea.Cmd {
	if m.store == nil {
		return nil
	}
	store := m.store
	snap := storage.Snapshot{
		URL:       m.refresher.PageURL(),
		HTML:      a.Fragment.InnerHTML(),
		FetchedAt: a.Cycle.Started,
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Save(ctx, snap); err != nil {
			log.Printf("SNAPSHOT_SAVE_FAILED | url=%s error=%v", snap.URL, err)
		}
		return nil
	}
}

func (m Model) submit(form *fragment.Form, values url.Values) tea.Cmd {
	ctx, page, client := m.ctx, m.refresher.PageURL(), m.client
	return func() tea.Msg {
		doc, err := client.Submit(ctx, page, form, values)
		return submitResultMsg{doc: doc, err: err}
	}
}

// shutdown stops polling. Safe to call more than once.
func (m Model) shutdown() {
	m.cancel()
	m.refresher.Stop()
}

// describe turns an error into a short user-facing sentence.
func describe(err error) string {
	var fe fragment.FieldErrors
	switch {
	case errors.As(err, &fe):
		return "Please fix: " + fe.Error()
	case errors.Is(err, web.ErrLoginRequired):
		return "Your session has expired. Log in again and update the session cookie."
	default:
		return err.Error()
	}
}
