package tui

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jamesainslie/primesieve/pkg/primesieve/logging"
	"github.com/jamesainslie/primesieve/pkg/primesieve/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModel(t *testing.T) {
	m := NewModel(1000, 4, nil)
	assert.Equal(t, 1000, m.limit)
	assert.Equal(t, 4, m.workers)
	assert.False(t, m.done)
	assert.NoError(t, m.err)
	assert.NotNil(t, m.Init())
}

func TestModel_Progress(t *testing.T) {
	m := NewModel(1000, 4, nil)

	next, cmd := m.Update(ProgressMsg(types.Progress{
		Phase:        types.PhaseSegments,
		Workers:      4,
		WorkersDone:  1,
		StrikesDone:  30,
		StrikesTotal: 60,
	}))
	assert.Nil(t, cmd)

	model := next.(Model)
	assert.Equal(t, types.PhaseSegments, model.progress.Phase)
	assert.InDelta(t, 0.5, model.progress.Fraction(), 1e-9)

	view := model.View()
	assert.Contains(t, view, "Striking multiples")
	assert.Contains(t, view, "50%")
	assert.Contains(t, view, "1/4")
}

func TestModel_Done(t *testing.T) {
	m := NewModel(100, 4, nil)

	next, cmd := m.Update(DoneMsg{Result: &types.Result{Count: 25}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	model := next.(Model)
	assert.True(t, model.done)
	assert.Equal(t, types.PhaseDone, model.progress.Phase)
	view := model.View()
	assert.Contains(t, view, "Sieve complete")
	assert.Contains(t, view, "100%")
}

func TestModel_DoneWithError(t *testing.T) {
	m := NewModel(100, 4, nil)

	next, _ := m.Update(DoneMsg{Err: errors.New("boom")})
	model := next.(Model)
	assert.Contains(t, model.View(), "Error: boom")
}

func TestModel_Cancel(t *testing.T) {
	cancelled := false
	m := NewModel(100, 4, func() { cancelled = true })

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.True(t, cancelled)
	assert.True(t, next.(Model).cancelled)
}

func TestRenderBar(t *testing.T) {
	bar := renderBar(0.5, 20)
	assert.Equal(t, 10, strings.Count(bar, "█"))
	assert.Equal(t, 10, strings.Count(bar, "░"))

	assert.Equal(t, 10, strings.Count(renderBar(2, 10), "█"))
	assert.Equal(t, 10, strings.Count(renderBar(0, 4), "░"), "width is at least 10")
}

func TestModel_LogPanel(t *testing.T) {
	m := NewModel(100, 4, nil)
	assert.NotContains(t, m.View(), "sieve:")

	logs := logging.NewLogBuffer(10)
	for i := range 6 {
		logs.Add(logging.Entry{
			Time:      time.Now(),
			Level:     logging.LevelInfo,
			Component: "sieve",
			Message:   fmt.Sprintf("event %d", i),
		})
	}
	m = m.WithLogs(logs)

	view := m.View()
	assert.NotContains(t, view, "event 1")
	assert.Contains(t, view, "event 2")
	assert.Contains(t, view, "event 5")
}

func TestRenderLogs_Truncates(t *testing.T) {
	logs := logging.NewLogBuffer(2)
	logs.Add(logging.Entry{Message: strings.Repeat("x", 200)})

	m := NewModel(100, 4, nil).WithLogs(logs)
	out := m.renderLogs(40)
	assert.Contains(t, out, "...")
	assert.NotContains(t, out, strings.Repeat("x", 40))
}
