package notifcenter

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harborops/opsdash/internal/keys"
	"github.com/harborops/opsdash/internal/notify"
	"github.com/harborops/opsdash/internal/theme"
)

// EntriesLoadedMsg is sent when the entry list has been rebuilt from
// the notification center.
type EntriesLoadedMsg struct {
	Entries []Entry
	Unread  int
}

// CheckNowMsg asks the host to force an immediate scheduler tick.
type CheckNowMsg struct{}

// Model is the notification center list view.
type Model struct {
	list   list.Model
	center *notify.Center
	keys   *keys.KeyMap
	width  int
	height int
}

// New creates a new notification center view backed by the given
// center.
func New(c *notify.Center, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Notifications"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		center: c,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init returns a command that loads the initial entries.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Load returns a command that rebuilds the entry list from the center:
// alerts first in priority order, then notifications most recent
// first.
func (m Model) Load() tea.Cmd {
	c := m.center
	return func() tea.Msg {
		alerts := c.Alerts()
		notifications := c.Notifications()

		entries := make([]Entry, 0, len(alerts)+len(notifications))
		for _, a := range alerts {
			entries = append(entries, Entry{
				Notification: a.Notification,
				Priority:     a.Priority,
				IsAlert:      true,
			})
		}
		for _, n := range notifications {
			entries = append(entries, Entry{Notification: n})
		}

		return EntriesLoadedMsg{Entries: entries, Unread: c.UnreadCount()}
	}
}

// Update handles messages for the notification center view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EntriesLoadedMsg:
		items := make([]list.Item, len(msg.Entries))
		for i, e := range msg.Entries {
			items[i] = e
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleKeys processes key input for the list.
func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	ctx := context.Background()

	switch {
	case key.Matches(msg, m.keys.MarkRead):
		if entry, ok := m.list.SelectedItem().(Entry); ok {
			m.center.MarkRead(ctx, entry.Notification.ID)
			return m, m.Load()
		}
		return m, nil

	case key.Matches(msg, m.keys.MarkAllRead):
		m.center.MarkAllRead(ctx)
		return m, m.Load()

	case key.Matches(msg, m.keys.Dismiss):
		if entry, ok := m.list.SelectedItem().(Entry); ok {
			m.center.Remove(ctx, entry.Notification.ID)
			return m, m.Load()
		}
		return m, nil

	case key.Matches(msg, m.keys.ClearAll):
		m.center.ClearAll(ctx)
		return m, m.Load()

	case key.Matches(msg, m.keys.ClearAlerts):
		m.center.ClearAllAlerts(ctx)
		return m, m.Load()

	case key.Matches(msg, m.keys.CheckNow):
		return m, func() tea.Msg { return CheckNowMsg{} }
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}

// View renders the notification list.
func (m Model) View() string {
	return m.list.View()
}
