package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"tsxload/internal/checkrun"
	"tsxload/internal/ui"
)

type checkOutcome struct {
	results []checkrun.FileResult
	summary checkrun.Summary
	err     error
}

// runCheckWithUI runs the check in the background while a progress view
// renders its events. names must match the display names checkrun emits.
func runCheckWithUI(ctx context.Context, title string, names []string, req checkrun.Request) ([]checkrun.FileResult, checkrun.Summary, error) {
	events := make(chan checkrun.Event, 256)
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		req.Progress = checkrun.ChannelSink{Ch: events}
		res, sum, err := checkrun.Check(ctx, req)
		outcomeCh <- checkOutcome{results: res, summary: sum, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, names, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr), tea.WithContext(ctx))
	_, uiErr := program.Run()
	// The view may quit early; keep the producer from blocking.
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, outcome.summary, uiErr
	}
	return outcome.results, outcome.summary, outcome.err
}
