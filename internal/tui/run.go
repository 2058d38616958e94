package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dabcheck/dabcheck/internal/engine"
	"github.com/dabcheck/dabcheck/internal/watch"
)

// Run browses the findings of a live session: cfg's tree is watched and
// every source is presented on a shared board.
func Run(ctx context.Context, eng *engine.Engine, cfg watch.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	board := NewBoard(nil)
	m := NewModel(board, eng, LoadPrefs())
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	// Send blocks until the program reads it, and surfaces are called with
	// engine locks held.
	board.notify = func() { go p.Send(boardChangedMsg{}) }

	cfg.Surface = board.Surface
	onRelease := cfg.OnRelease
	cfg.OnRelease = func(rel string) {
		board.Forget(rel)
		if onRelease != nil {
			onRelease(rel)
		}
	}
	onRefresh := cfg.OnRefresh
	cfg.OnRefresh = func(rel string, err error) {
		if err != nil {
			go p.Send(statusMsg(fmt.Sprintf("%s: %v", rel, err)))
		}
		if onRefresh != nil {
			onRefresh(rel, err)
		}
	}

	host := watch.New(cfg, eng)
	hostErr := make(chan error, 1)
	go func() { hostErr <- host.Run(ctx) }()

	_, err := p.Run()
	cancel()
	if werr := <-hostErr; werr != nil {
		return fmt.Errorf("watch %s: %w", cfg.Root, werr)
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
