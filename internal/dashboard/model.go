// Package dashboard is a terminal view of the live watchdog state and the
// most recent activity, polled from the HTTP API.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/iammorganparry/hyprcontext/internal/models"
)

const (
	recentLimit  = 200
	fetchTimeout = 10 * time.Second
)

// Source is what the dashboard polls.
type Source interface {
	Focus(ctx context.Context) (*models.FocusResponse, error)
	Recent(ctx context.Context, days, limit int) (*models.ObservationListResponse, error)
}

type refreshedMsg struct {
	focus  *models.FocusResponse
	recent []models.Observation
	err    error
	at     time.Time
}

type pollMsg struct{}

type Model struct {
	source   Source
	interval time.Duration
	keys     KeyMap

	table   table.Model
	spinner spinner.Model

	focus       *models.FocusResponse
	recent      []models.Observation
	days        int
	loading     bool
	err         error
	lastRefresh time.Time

	width  int
	height int
}

// New builds the dashboard. interval is the poll period.
func New(source Source, interval time.Duration) Model {
	t := table.New(
		table.WithColumns(columns(100)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorBorder).
		BorderBottom(true).
		Foreground(ColorMagenta)
	styles.Selected = styles.Selected.
		Foreground(ColorFgPrimary).
		Background(ColorBgHighlight).
		Bold(false)
	t.SetStyles(styles)

	return Model{
		source:   source,
		interval: interval,
		keys:     DefaultKeyMap(),
		table:    t,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(ColorCyan)),
		),
		days:    1,
		loading: true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refreshCmd())
}

func (m Model) refreshCmd() tea.Cmd {
	source, days := m.source, m.days
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		msg := refreshedMsg{at: time.Now()}
		msg.focus, msg.err = source.Focus(ctx)
		if msg.err != nil {
			return msg
		}
		recent, err := source.Recent(ctx, days, recentLimit)
		if err != nil {
			msg.err = err
			return msg
		}
		msg.recent = recent.Observations
		return msg
	}
}

func (m Model) pollCmd() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return pollMsg{}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetColumns(columns(m.width - 4))
		// Header, focus panel, detail and status bar take roughly 14 rows.
		m.table.SetHeight(max(m.height-14, 3))

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			if !m.loading {
				m.loading = true
				cmds = append(cmds, m.refreshCmd(), m.spinner.Tick)
			}
			return m, tea.Batch(cmds...)
		case key.Matches(msg, m.keys.Days):
			if m.days == 1 {
				m.days = 7
			} else {
				m.days = 1
			}
			m.loading = true
			return m, tea.Batch(m.refreshCmd(), m.spinner.Tick)
		}

	case refreshedMsg:
		m.loading = false
		m.lastRefresh = msg.at
		m.err = msg.err
		if msg.err == nil {
			m.focus = msg.focus
			m.recent = msg.recent
			m.table.SetRows(rows(m.recent))
		}
		cmds = append(cmds, m.pollCmd())

	case pollMsg:
		if !m.loading {
			m.loading = true
			cmds = append(cmds, m.refreshCmd(), m.spinner.Tick)
		}

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render("HyprContext"))
	b.WriteString("\n\n")
	b.WriteString(m.renderFocus())
	b.WriteString("\n")

	title := fmt.Sprintf("Recent activity (%s)", dayLabel(m.days))
	b.WriteString(PanelTitleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")
	b.WriteString(m.renderDetail())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render(m.keys.helpLine()))
	return b.String()
}

func (m Model) renderFocus() string {
	if m.focus == nil {
		return PanelStyle.Render(LabelStyle.Render("waiting for server…"))
	}

	wd := m.focus.Watchdog
	lines := []string{
		LabelStyle.Render("watchdog  ") + statusStyle(wd.Status).Render(wd.Status) +
			LabelStyle.Render(fmt.Sprintf("  streak %d/%d", wd.ConsecutiveDistractionCount, wd.Threshold)),
	}
	if wd.LastAlertTime != nil {
		lines = append(lines, LabelStyle.Render("last alert ")+ValueStyle.Render(wd.LastAlertTime.Local().Format("15:04:05")))
	}
	if day := m.focus.Today; day != nil {
		distracted := (time.Duration(day.DistractionSeconds) * time.Second).String()
		lines = append(lines, LabelStyle.Render("today     ")+ValueStyle.Render(fmt.Sprintf(
			"%d captures, %d distracted (%s), %d alerts",
			day.ObservationCount, day.DistractedCount, distracted, day.AlertCount,
		)))
		if day.LimitSeconds > 0 {
			lines = append(lines, LabelStyle.Render("budget    ")+budgetLine(day))
		}
	}
	return PanelStyle.Render(strings.Join(lines, "\n"))
}

func budgetLine(day *models.FocusDay) string {
	if day.BudgetSpent {
		return StatusAlertedStyle.Render("spent")
	}
	left := (time.Duration(day.RemainingSeconds) * time.Second).String()
	text := fmt.Sprintf("%s left (%.0f%% used)", left, day.PercentUsed)
	if day.BudgetWarned {
		return StatusWarningStyle.Render(text)
	}
	return ValueStyle.Render(text)
}

func (m Model) renderDetail() string {
	if len(m.recent) == 0 {
		return DetailStyle.Render(LabelStyle.Render("no activity recorded"))
	}
	obs := m.selected()
	if obs == nil {
		return ""
	}
	desc := obs.Description
	if obs.Private {
		desc = "(private window)"
	}
	text := ValueStyle.Render(desc)
	if len(obs.Tags) > 0 {
		text += "\n" + TagStyle.Render(strings.Join(obs.Tags, ", "))
	}
	return DetailStyle.Render(text)
}

func (m Model) renderStatusBar() string {
	var parts []string
	if m.loading {
		parts = append(parts, m.spinner.View()+" refreshing")
	}
	if !m.lastRefresh.IsZero() {
		parts = append(parts, "updated "+m.lastRefresh.Format("15:04:05"))
	}
	parts = append(parts, fmt.Sprintf("%d observations", len(m.recent)))
	bar := StatusBarStyle.Render(strings.Join(parts, " • "))
	if m.err != nil {
		bar += ErrorStyle.Render(" " + m.err.Error())
	}
	return bar
}

// selected maps the table cursor back to an observation. Rows are shown
// newest first.
func (m Model) selected() *models.Observation {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.recent) {
		return nil
	}
	return &m.recent[len(m.recent)-1-i]
}

func columns(width int) []table.Column {
	const fixed = 8 + 14 + 14
	rest := max(width-fixed-8, 20)
	return []table.Column{
		{Title: "Time", Width: 8},
		{Title: "App", Width: 14},
		{Title: "Tags", Width: 14},
		{Title: "Title", Width: rest * 2 / 5},
		{Title: "Description", Width: rest - rest*2/5},
	}
}

func rows(obs []models.Observation) []table.Row {
	out := make([]table.Row, 0, len(obs))
	for i := len(obs) - 1; i >= 0; i-- {
		o := obs[i]
		desc := o.Description
		if o.Private {
			desc = "(private)"
		}
		out = append(out, table.Row{
			o.Timestamp.Local().Format("15:04:05"),
			o.ActiveApplication,
			strings.Join(o.Tags, ","),
			o.WindowTitle,
			desc,
		})
	}
	return out
}

func dayLabel(days int) string {
	if days == 1 {
		return "today"
	}
	return fmt.Sprintf("last %d days", days)
}
