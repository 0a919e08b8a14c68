package notifcenter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harborops/opsdash/internal/model"
	"github.com/harborops/opsdash/internal/theme"
)

// Entry wraps a notification or alert so both render in one list.
// Alerts come first, in priority order.
type Entry struct {
	Notification model.Notification
	Priority     int
	IsAlert      bool
}

// FilterValue returns the string used for fuzzy filtering.
func (e Entry) FilterValue() string {
	return e.Notification.Title + " " + e.Notification.Message
}

// ItemDelegate implements list.ItemDelegate for rendering entries.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused for now).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single list item line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	entry, ok := item.(Entry)
	if !ok {
		return
	}

	n := entry.Notification
	isSelected := index == m.Index()

	var prefix string
	if n.Read {
		prefix = "○"
	} else {
		prefix = theme.UnreadStyle.Render("●")
	}

	kindBadge := theme.KindStyle(n.Kind).Render(kindLabel(n.Kind))

	alertBadge := ""
	if entry.IsAlert {
		alertBadge = theme.PriorityStyle(entry.Priority).Render(" ALERT")
	}

	line := fmt.Sprintf(
		"%s %s%s %s | %s %s",
		prefix, kindBadge, alertBadge, n.Title, n.Message,
		theme.HelpStyle.Render(relativeTime(n.CreatedAt)),
	)

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// kindLabel returns the short uppercase badge text for a kind.
func kindLabel(kind model.Kind) string {
	label := strings.ToUpper(string(kind))
	if len(label) > 4 {
		label = label[:4]
	}
	return label
}

// relativeTime formats t as a compact "how long ago" string.
func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("Jan 02")
	}
}
