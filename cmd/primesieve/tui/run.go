package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jamesainslie/primesieve/pkg/primesieve/logging"
	"github.com/jamesainslie/primesieve/pkg/primesieve/sieve"
	"github.com/jamesainslie/primesieve/pkg/primesieve/types"
)

var logger = logging.Get("tui")

// Run executes the sieve while rendering its progress and returns the
// sieve's result. Interrupting the TUI cancels ctx for the sieve, which
// stops at the next phase boundary.
func Run(ctx context.Context, opts sieve.Options) (*types.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := NewModel(opts.Limit, opts.Workers, cancel).WithLogs(logging.Panel())
	p := tea.NewProgram(model, tea.WithContext(ctx))

	opts.OnProgress = func(pr types.Progress) {
		p.Send(ProgressMsg(pr))
	}

	type outcome struct {
		result *types.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		r, err := sieve.Run(ctx, opts)
		done <- outcome{r, err}
		p.Send(DoneMsg{Result: r, Err: err})
	}()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		logger.Error("tui exited", "error", err)
		cancel()
		out := <-done
		if out.err != nil {
			return nil, out.err
		}
		return nil, fmt.Errorf("tui: %w", err)
	}

	out := <-done
	return out.result, out.err
}
