package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/primesieve/pkg/primesieve/logging"
	"github.com/jamesainslie/primesieve/pkg/primesieve/types"
)

// ProgressMsg is sent when sieve progress is updated.
type ProgressMsg types.Progress

// DoneMsg is sent when the sieve finishes.
type DoneMsg struct {
	Result *types.Result
	Err    error
}

// Model is the progress view of a running sieve.
type Model struct {
	progress  types.Progress
	spinner   spinner.Model
	limit     int
	workers   int
	startTime time.Time
	width     int
	done      bool
	cancelled bool
	result    *types.Result
	err       error
	cancel    func()
	logs      *logging.LogBuffer
}

// logLines is the height of the log panel.
const logLines = 4

// NewModel creates a progress model for a run over [2, limit] with workers.
// cancel, if non-nil, is called when the user interrupts.
func NewModel(limit, workers int, cancel func()) Model {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return Model{
		spinner:   s,
		limit:     limit,
		workers:   workers,
		startTime: time.Now(),
		width:     80,
		cancel:    cancel,
	}
}

// WithLogs shows the newest entries of b below the stats.
func (m Model) WithLogs(b *logging.LogBuffer) Model {
	m.logs = b
	return m
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.cancelled = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
		return m, nil

	case ProgressMsg:
		m.progress = types.Progress(msg)
		return m, nil

	case DoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		if msg.Err == nil {
			m.progress.Phase = types.PhaseDone
		}
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the model.
func (m Model) View() string {
	contentWidth := max(m.width-4, 40)
	inner := contentWidth - 2

	var b strings.Builder

	title := titleStyle.Render(fmt.Sprintf("primesieve  N = %s", humanize.Comma(int64(m.limit))))
	hint := mutedTextStyle.Render("[q to stop]")
	spacing := max(inner-lipgloss.Width(title)-lipgloss.Width(hint), 1)
	b.WriteString(title + strings.Repeat(" ", spacing) + hint)
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(errorTextStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	case m.done:
		b.WriteString(successTextStyle.Render("Sieve complete"))
	case m.cancelled:
		b.WriteString(mutedTextStyle.Render("Stopping after the current phase..."))
	default:
		b.WriteString(fmt.Sprintf("%s %s", m.spinner.View(), phaseLabel(m.progress.Phase)))
	}
	b.WriteString("\n\n")

	b.WriteString(renderBar(m.progress.Fraction(), inner-6))
	b.WriteString(fmt.Sprintf(" %3.0f%%", m.progress.Fraction()*100))
	b.WriteString("\n\n")

	b.WriteString(m.renderStats())

	if panel := m.renderLogs(inner); panel != "" {
		b.WriteString("\n\n")
		b.WriteString(panel)
	}

	return outerBoxStyle.Width(contentWidth).Render(b.String())
}

// renderStats renders worker, strike and elapsed boxes side by side.
func (m Model) renderStats() string {
	elapsed := m.progress.Elapsed
	if elapsed == 0 {
		elapsed = time.Since(m.startTime)
	}

	boxes := []string{
		statBox("Workers", fmt.Sprintf("%d/%d", m.progress.WorkersDone, m.workers)),
		statBox("Strikes", fmt.Sprintf("%s/%s",
			humanize.Comma(m.progress.StrikesDone), humanize.Comma(m.progress.StrikesTotal))),
		statBox("Elapsed", elapsed.Truncate(time.Millisecond).String()),
	}
	if m.result != nil {
		boxes = append(boxes, statBox("Primes", humanize.Comma(m.result.Count)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

// renderLogs renders the newest log entries, one line each, cut to width.
func (m Model) renderLogs(width int) string {
	if m.logs == nil {
		return ""
	}
	entries := m.logs.Last(logLines)
	if len(entries) == 0 {
		return ""
	}

	lines := make([]string, len(entries))
	for i, e := range entries {
		line := e.String()
		if len(line) > width {
			line = line[:max(width-3, 0)] + "..."
		}
		style := mutedTextStyle
		if e.Level >= logging.LevelWarn {
			style = warningTextStyle
		}
		lines[i] = style.Render(line)
	}
	return strings.Join(lines, "\n")
}

func statBox(label, value string) string {
	return statBoxStyle.Render(mutedTextStyle.Render(label) + "\n" + statValueStyle.Render(value))
}

// renderBar draws a determinate progress bar of the given width.
func renderBar(fraction float64, width int) string {
	width = max(width, 10)
	filled := int(fraction * float64(width))
	filled = min(max(filled, 0), width)
	return progressFillStyle.Render(strings.Repeat("█", filled)) +
		progressEmptyStyle.Render(strings.Repeat("░", width-filled))
}

func phaseLabel(p types.Phase) string {
	switch p {
	case types.PhaseSeed:
		return "Sieving seed primes"
	case types.PhasePartition:
		return "Partitioning"
	case types.PhaseSegments:
		return "Striking multiples"
	case types.PhaseAggregate:
		return "Aggregating"
	case types.PhaseDone:
		return "Done"
	default:
		return "Starting"
	}
}
