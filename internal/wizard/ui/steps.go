package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/DCC-EX/EX-Installer-sub000/internal/tasks"
)

// StepPrinter writes one line per task event: a running marker when a
// step starts, dimmed output lines while it streams, and a success or
// failure marker when it finishes.
type StepPrinter struct {
	Out   io.Writer
	Width int

	// Quiet suppresses streamed output lines, keeping only the step
	// start and result markers
	Quiet bool
}

// NewStepPrinter returns a printer for stdout sized to the terminal.
func NewStepPrinter() *StepPrinter {
	return &StepPrinter{Out: os.Stdout, Width: TerminalWidth()}
}

// RunStep drains a runner, printing progress as it arrives, and
// returns the terminal envelope.
func (p *StepPrinter) RunStep(r *tasks.Runner) tasks.Envelope {
	p.printLine(stepStyle.Render(MarkerRunning), r.Topic())
	env := r.Drain(func(progress tasks.Envelope) {
		if p.Quiet || progress.Status != tasks.StatusOutput {
			return
		}
		p.printLine(mutedStyle.Render(MarkerOutput), mutedStyle.Render(progress.Text()))
	})

	if env.Status == tasks.StatusError {
		p.printLine(errorStyle.Render(FailureMarker), errorStyle.Render(env.Topic))
		if text := env.Text(); text != "" {
			p.printLine(" ", text)
		}
	} else {
		p.printLine(successStyle.Render(SuccessMarker), env.Topic)
	}
	return env
}

// RunSteps drains runners in order, stopping at the first failure.
func (p *StepPrinter) RunSteps(runners ...*tasks.Runner) error {
	for _, r := range runners {
		if env := p.RunStep(r); env.Status == tasks.StatusError {
			return fmt.Errorf("%s: %s", env.Topic, env.Text())
		}
	}
	return nil
}

// printLine writes "marker text", truncating to the terminal width.
func (p *StepPrinter) printLine(marker, text string) {
	line := marker + " " + text
	if p.Width > 0 {
		line = truncate(line, p.Width)
	}
	fmt.Fprintln(p.Out, line)
}

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	// Width is bytes, close enough for log-style lines
	cut := strings.ToValidUTF8(s[:width-1], "")
	return cut + "…"
}
