// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatwatch/internal/config"
	"github.com/jeranaias/chatwatch/internal/export"
	"github.com/jeranaias/chatwatch/internal/fragment"
	"github.com/jeranaias/chatwatch/internal/refresh"
	"github.com/jeranaias/chatwatch/internal/storage"
	"github.com/jeranaias/chatwatch/internal/ui/components"
	"github.com/jeranaias/chatwatch/internal/ui/styles"
	"github.com/jeranaias/chatwatch/internal/util"
	"github.com/jeranaias/chatwatch/internal/web"
)

// Rows taken by everything except the viewport.
const (
	headerRows  = 1
	composeRows = 3
	statusRows  = 1
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.viewport.Update(msg)
		return m, nil

	case DispatchMsg:
		msg.Fn()
		return m, m.drainHooks()

	case pageLoadedMsg:
		return m.handlePageLoaded(msg)

	case snapshotLoadedMsg:
		return m.handleSnapshotLoaded(msg)

	case submitResultMsg:
		return m.handleSubmitResult(msg)

	case refresherStartedMsg:
		if msg.err != nil {
			log.Printf("REFRESH_START_FAILED | url=%s error=%v", m.refresher.PageURL(), msg.err)
			m.toasts.AddError("Automatic refresh could not start: " + msg.err.Error())
		}
		return m, nil

	case ConfigReloadedMsg:
		return m.applyConfig(msg)

	case statusTickMsg:
		if m.quitting {
			return m, nil
		}
		return m, tea.Batch(m.status.SetStats(m.refresher.Stats()), statusTick())

	case components.ToastTickMsg:
		m.toasts.Tick(msg.Time)
		return m, components.ToastTickCmd()

	case spinner.TickMsg:
		return m, m.status.Update(msg)
	}

	if m.composing {
		var cmd tea.Cmd
		m.compose, cmd = m.compose.Update(msg)
		return m, cmd
	}
	return m, nil
}

// =============================================================================
// REFRESHER HOOKS
// =============================================================================

// drainHooks reacts to everything the refresher reported since the last call.
func (m *Model) drainHooks() tea.Cmd {
	applied, failed := m.hooks.applied, m.hooks.failed
	m.hooks.applied, m.hooks.failed = nil, nil

	var cmds []tea.Cmd
	for _, a := range applied {
		m.absorbPage(a.Document)
		m.status.SetError("")
		cmds = append(cmds, m.saveSnapshot(a))
		if m.cfg.Log.Debug {
			log.Printf("REFRESH_APPLIED | cycle=%s seq=%d pinned=%t entries=%d",
				a.Cycle.ID, a.Cycle.Seq, a.Pinned, len(m.viewport.Transcript()))
		}
	}

	for _, e := range failed {
		log.Printf("REFRESH_FAILED | cycle=%s stage=%s error=%v", e.Cycle.ID, e.Stage, e.Err)
		m.status.SetError(string(e.Stage) + ": " + e.Err.Error())
		if errors.Is(e, web.ErrLoginRequired) {
			m.toasts.AddError(describe(e))
		}
	}

	cmds = append(cmds, m.status.SetStats(m.refresher.Stats()))
	return tea.Batch(cmds...)
}

// absorbPage picks up the title, chat form and flash messages of a page.
func (m *Model) absorbPage(doc *fragment.Document) {
	if doc == nil {
		return
	}
	m.header.SetTitle(doc.Title())
	if form, ok := doc.Form(m.formSel); ok {
		m.form = form
	}
	for _, f := range doc.Flashes(m.flashSel) {
		m.toasts.AddFlash(f)
	}
}

// =============================================================================
// PAGE LOADS
// =============================================================================

func (m Model) handlePageLoaded(msg pageLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if errors.Is(msg.err, context.Canceled) {
			return m, nil
		}
		log.Printf("PAGE_LOAD_FAILED | url=%s error=%v", m.refresher.PageURL(), msg.err)
		m.toasts.AddError("Could not load the chat: " + describe(msg.err))
		m.status.SetError(msg.err.Error())
		return m, nil
	}

	if err := m.refresher.Load(msg.doc); err != nil {
		m.absorbPage(msg.doc)
		if errors.Is(err, refresh.ErrRemoteFragmentMissing) {
			m.toasts.Add(components.NewToast(components.ToastKindWarning,
				"This page has no "+m.refresher.Selector().String()+" region to follow."))
		}
		log.Printf("PAGE_LOAD_UNUSABLE | url=%s error=%v", m.refresher.PageURL(), err)
	}
	return m, m.drainHooks()
}

func (m Model) handleSnapshotLoaded(msg snapshotLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if !errors.Is(msg.err, storage.ErrNoSnapshot) && !errors.Is(msg.err, context.Canceled) {
			log.Printf("SNAPSHOT_LOAD_FAILED | url=%s error=%v", m.refresher.PageURL(), msg.err)
		}
		return m, nil
	}
	// The live page won the race.
	if m.viewport.Loaded() {
		return m, nil
	}

	frag, err := fragment.FromHTML(msg.snap.HTML)
	if err != nil {
		log.Printf("SNAPSHOT_LOAD_FAILED | url=%s error=%v", m.refresher.PageURL(), err)
		return m, nil
	}
	m.viewport.ReplaceContent(frag)
	m.viewport.ScrollToBottom()
	return m, nil
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m.quit()
	}

	if m.help.Visible() {
		if key.Matches(msg, m.keys.Help, m.keys.Quit) || msg.String() == "esc" {
			m.help.Close()
		}
		return m, nil
	}

	if m.composing {
		return m.handleComposeKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Help):
		m.help.Open()
	case key.Matches(msg, m.keys.Up):
		m.viewport.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.viewport.ScrollDown(1)
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.PageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.PageDown()
	case key.Matches(msg, m.keys.Home):
		m.viewport.ScrollToTop()
	case key.Matches(msg, m.keys.End):
		m.viewport.ScrollToBottom()
	case key.Matches(msg, m.keys.Refresh):
		return m.refreshNow()
	case key.Matches(msg, m.keys.Compose):
		m.composing = true
		return m, m.compose.Focus()
	case key.Matches(msg, m.keys.Copy):
		m.copyLast()
	case key.Matches(msg, m.keys.Export):
		m.exportTranscript()
	case key.Matches(msg, m.keys.Dismiss):
		m.toasts.Dismiss()
	}
	return m, nil
}

func (m Model) handleComposeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Send):
		return m.send()
	case key.Matches(msg, m.keys.Blur):
		m.composing = false
		m.compose.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.compose, cmd = m.compose.Update(msg)
	return m, cmd
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.shutdown()
	return m, tea.Quit
}

// refreshNow runs a cycle immediately. Before polling has started it falls
// back to reloading the page.
func (m Model) refreshNow() (tea.Model, tea.Cmd) {
	err := m.refresher.Trigger()
	switch {
	case err == nil, errors.Is(err, refresh.ErrRateLimited):
		return m, nil
	case errors.Is(err, refresh.ErrInactive):
		m.toasts.AddStatus("Automatic refresh only runs on chat pages. Reloading once.")
	}
	return m, m.loadPage()
}

func (m *Model) copyLast() {
	last, ok := m.viewport.Transcript().Last()
	if !ok {
		m.toasts.AddStatus("No messages to copy.")
		return
	}
	if err := m.copyFn(last.Body); err != nil {
		m.toasts.AddError("Could not copy: " + err.Error())
		return
	}
	who := last.Author
	if last.Mine {
		who = "you"
	}
	m.toasts.Add(components.NewToast(components.ToastKindSuccess,
		"Copied message from "+who+" ("+util.Truncate(last.Body, 24)+")"))
}

// exportTranscript writes what the view currently shows to a Markdown file.
func (m *Model) exportTranscript() {
	if !m.viewport.Loaded() {
		m.toasts.AddStatus("Nothing loaded yet.")
		return
	}
	doc := &export.Document{
		Title:     m.header.Title(),
		URL:       m.refresher.PageURL(),
		FetchedAt: m.clock.Now(),
		Messages:  m.viewport.Transcript(),
	}
	path, err := export.ExportToFile(doc, export.NewMarkdownExporter(m.export), m.export)
	if err != nil {
		log.Printf("EXPORT_FAILED | error=%v", err)
		m.toasts.AddError("Could not save: " + err.Error())
		return
	}
	log.Printf("EXPORTED | path=%s messages=%d", path, len(doc.Messages))
	m.toasts.Add(components.NewToast(components.ToastKindSuccess, "Saved "+path))
}

// =============================================================================
// COMPOSE
// =============================================================================

func (m Model) send() (tea.Model, tea.Cmd) {
	if m.sending {
		return m, nil
	}
	if m.form == nil {
		m.toasts.AddError("This page has no message form.")
		return m, nil
	}

	field := m.cfg.Fragment.ComposeField
	if _, ok := m.form.Field(field); !ok {
		m.toasts.AddError("The message form has no " + field + " field.")
		return m, nil
	}

	values := m.form.Values(map[string]string{field: strings.TrimSpace(m.compose.Value())})
	if err := m.form.Validate(values); err != nil {
		m.toasts.Add(components.NewToast(components.ToastKindWarning, describe(err)))
		return m, nil
	}

	m.sending = true
	m.compose.Blur()
	return m, m.submit(m.form, values)
}

func (m Model) handleSubmitResult(msg submitResultMsg) (tea.Model, tea.Cmd) {
	m.sending = false
	if m.composing {
		m.compose.Focus()
	}

	if msg.err != nil {
		if errors.Is(msg.err, context.Canceled) {
			return m, nil
		}
		m.toasts.AddError("Message not sent: " + describe(msg.err))
		return m, nil
	}

	m.compose.Reset()
	if err := m.refresher.Load(msg.doc); err != nil {
		// Redirected somewhere without the chat region; still show its flashes.
		m.absorbPage(msg.doc)
	}
	return m, m.drainHooks()
}

// =============================================================================
// LAYOUT AND CONFIG
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width, m.height = msg.Width, msg.Height
	m.theme.SetSize(msg.Width, msg.Height)
	m.header.SetWidth(msg.Width)
	m.status.SetWidth(msg.Width)
	m.help.SetSize(msg.Width, msg.Height)
	m.compose.Width = msg.Width - 8

	follow := m.viewport.AtBottom()
	m.viewport.SetSize(msg.Width, msg.Height-headerRows-composeRows-statusRows)
	if follow {
		m.viewport.ScrollToBottom()
	}
	return m, nil
}

// applyConfig re-applies display settings from a reloaded config. Refresh
// and server settings take effect on the next start.
func (m Model) applyConfig(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.toasts.Add(components.NewToast(components.ToastKindWarning,
			"Config not reloaded: "+msg.Err.Error()))
		return m, nil
	}

	prev := m.cfg
	m.cfg = msg.Config
	applyUI(&m, msg.Config.UI)

	if prev.Refresh != msg.Config.Refresh || prev.Server != msg.Config.Server {
		m.toasts.AddStatus("Config reloaded. Refresh and server changes apply after a restart.")
	} else {
		m.toasts.AddStatus("Config reloaded.")
	}
	return m, nil
}

func applyUI(m *Model, ui config.UIConfig) {
	theme := styles.NewTheme(ui.Theme)
	theme.SetSize(m.width, m.height)
	m.theme = theme

	m.header.SetTheme(theme)
	m.status.SetTheme(theme)
	m.help.SetTheme(theme)
	m.compose.PromptStyle = theme.ComposePrompt
	m.viewport.SetRowPixels(ui.RowPixels)
	m.viewport.SetTheme(theme)
	m.viewport.SetShowTimestamps(ui.ShowTimestamps)
}
