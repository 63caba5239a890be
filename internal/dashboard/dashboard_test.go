package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iammorganparry/hyprcontext/internal/models"
)

type fakeSource struct {
	focus    *models.FocusResponse
	recent   []models.Observation
	err      error
	lastDays int
}

func (f *fakeSource) Focus(context.Context) (*models.FocusResponse, error) {
	return f.focus, f.err
}

func (f *fakeSource) Recent(_ context.Context, days, _ int) (*models.ObservationListResponse, error) {
	f.lastDays = days
	return &models.ObservationListResponse{Observations: f.recent, Total: len(f.recent)}, nil
}

var base = time.Date(2024, 3, 5, 10, 0, 0, 0, time.Local)

func newSource() *fakeSource {
	return &fakeSource{
		focus: &models.FocusResponse{
			Watchdog: models.WatchdogSnapshot{Status: "warning", ConsecutiveDistractionCount: 2, Threshold: 3},
			Today: &models.FocusDay{
				Date: "2024-03-05", ObservationCount: 12, DistractedCount: 2, DistractionSeconds: 40,
				LimitSeconds: 1800, RemainingSeconds: 1760, PercentUsed: 2.2,
			},
		},
		recent: []models.Observation{
			{ID: "a", Timestamp: base, ActiveApplication: "kitty", WindowTitle: "nvim", Description: "editing pipeline.go"},
			{ID: "b", Timestamp: base.Add(time.Minute), ActiveApplication: "firefox", WindowTitle: "YouTube", Description: "watching a talk", Tags: []string{"youtube"}},
		},
	}
}

// refresh runs the model's fetch command synchronously and feeds the result back.
func refresh(t *testing.T, m Model) Model {
	t.Helper()
	msg := m.refreshCmd()()
	updated, _ := m.Update(msg)
	return updated.(Model)
}

func TestRefreshPopulatesView(t *testing.T) {
	m := refresh(t, New(newSource(), time.Second))

	assert.False(t, m.loading)
	require.Len(t, m.table.Rows(), 2)
	assert.Equal(t, "YouTube", m.table.Rows()[0][3], "newest row first")

	sel := m.selected()
	require.NotNil(t, sel)
	assert.Equal(t, "b", sel.ID)

	view := m.View()
	assert.Contains(t, view, "warning")
	assert.Contains(t, view, "streak 2/3")
	assert.Contains(t, view, "12 captures, 2 distracted (40s)")
	assert.Contains(t, view, "29m20s left (2% used)")
	assert.Contains(t, view, "watching a talk")
}

func TestBudgetSpentShown(t *testing.T) {
	src := newSource()
	src.focus.Today.BudgetWarned = true
	src.focus.Today.BudgetSpent = true
	src.focus.Today.RemainingSeconds = 0

	view := refresh(t, New(src, time.Second)).View()
	assert.Contains(t, view, "budget")
	assert.Contains(t, view, "spent")
	assert.NotContains(t, view, "left (")
}

func TestRefreshErrorKeepsPreviousData(t *testing.T) {
	src := newSource()
	m := refresh(t, New(src, time.Second))

	src.err = errors.New("connection refused")
	m = refresh(t, m)

	assert.Len(t, m.recent, 2)
	assert.Contains(t, m.View(), "connection refused")
}

func TestDaysToggle(t *testing.T) {
	src := newSource()
	m := refresh(t, New(src, time.Second))

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	m = updated.(Model)
	require.NotNil(t, cmd)
	assert.Equal(t, 7, m.days)

	m = refresh(t, m)
	assert.Equal(t, 7, src.lastDays)
	assert.Contains(t, m.View(), "last 7 days")
}

func TestQuit(t *testing.T) {
	m := New(newSource(), time.Second)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestEmptyStateAndPrivateRows(t *testing.T) {
	m := New(&fakeSource{focus: &models.FocusResponse{}}, time.Second)
	assert.Contains(t, m.View(), "waiting for server")

	m = refresh(t, m)
	assert.Contains(t, m.View(), "no activity recorded")

	r := rows([]models.Observation{{Timestamp: base, WindowTitle: "Bank", Description: "secret", Private: true}})
	assert.Equal(t, "(private)", r[0][4])
}

func TestStatusStyle(t *testing.T) {
	assert.Equal(t, StatusAlertedStyle.Render("x"), statusStyle("alerted_distracted").Render("x"))
	assert.Equal(t, StatusUnknownStyle.Render("x"), statusStyle("").Render("x"))
}
