// Package app wires the notification center, the alert scheduler, and
// the terminal UI into the root Bubble Tea model.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/harborops/opsdash/internal/keys"
	"github.com/harborops/opsdash/internal/notify"
	"github.com/harborops/opsdash/internal/schedule"
	"github.com/harborops/opsdash/internal/ui"
	"github.com/harborops/opsdash/internal/ui/notifcenter"
)

// tickMsg fires on the low-frequency poll timer. Each tick triggers a
// throttled scheduler pass.
type tickMsg time.Time

// schedulerDoneMsg reports a finished scheduler pass.
type schedulerDoneMsg struct {
	emitted int
}

// Model is the root Bubble Tea model.
type Model struct {
	layout       ui.Layout
	keys         *keys.KeyMap
	center       *notify.Center
	scheduler    *schedule.Scheduler
	notifView    notifcenter.Model
	log          *zap.Logger
	pollInterval time.Duration
	ready        bool
	unread       int
}

// New creates the root application model.
func New(
	center *notify.Center,
	scheduler *schedule.Scheduler,
	log *zap.Logger,
	pollInterval time.Duration,
) Model {
	k := keys.DefaultKeyMap()
	if pollInterval <= 0 {
		pollInterval = time.Minute
	}

	return Model{
		keys:         k,
		center:       center,
		scheduler:    scheduler,
		notifView:    notifcenter.New(center, k, 80, 24),
		log:          log,
		pollInterval: pollInterval,
	}
}

// Init loads the notification list, runs a first scheduler pass, and
// starts the poll timer.
func (m Model) Init() tea.Cmd {
	m.scheduler.OnSessionStart(context.Background())
	return tea.Batch(
		m.notifView.Init(),
		m.runTick(true),
		m.nextTick(),
	)
}

// Update handles messages and dispatches to the notification view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		m.notifView.SetSize(m.layout.ContentWidth(), m.layout.ContentHeight())
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.runTick(false), m.nextTick())

	case notifcenter.CheckNowMsg:
		return m, m.runTick(true)

	case schedulerDoneMsg:
		if msg.emitted > 0 {
			m.log.Info("scheduler pass emitted notifications",
				zap.Int("count", msg.emitted))
		}
		return m, m.notifView.Load()

	case notifcenter.EntriesLoadedMsg:
		m.unread = msg.Unread
		var cmd tea.Cmd
		m.notifView, cmd = m.notifView.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.scheduler.OnSessionEnd()
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.notifView, cmd = m.notifView.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.notifView, cmd = m.notifView.Update(msg)
	return m, cmd
}

// View renders the full frame.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	header := m.layout.RenderHeader("opsdash", ui.UnreadBadge(m.unread))
	statusBar := m.layout.RenderStatusBar(m.statusHints())
	return m.layout.RenderWithFrame(header, m.notifView.View(), statusBar)
}

// nextTick schedules the following poll timer tick.
func (m Model) nextTick() tea.Cmd {
	return tea.Tick(m.pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// runTick runs one scheduler pass off the UI loop. force bypasses the
// throttle gate.
func (m Model) runTick(force bool) tea.Cmd {
	s := m.scheduler
	return func() tea.Msg {
		ctx := context.Background()
		var emitted int
		if force {
			emitted = s.CheckNow(ctx)
		} else {
			emitted = s.Tick(ctx)
		}
		return schedulerDoneMsg{emitted: emitted}
	}
}

// statusHints joins the short help bindings into the status bar text.
func (m Model) statusHints() string {
	var parts []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		parts = append(parts, fmt.Sprintf("%s %s", h.Key, h.Desc))
	}
	return strings.Join(parts, "  ")
}
