package terminal

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/bivvy/internal/domain/execution"
	"github.com/felixgeelhaar/bivvy/internal/domain/workflow"
	"github.com/felixgeelhaar/bivvy/internal/ports"
)

// Progress prints one line per run event. It is passed to the runner with
// workflow.WithProgress.
func (t *Terminal) Progress(event workflow.Event) {
	switch event.Kind {
	case workflow.EventStepSkipped:
		t.printf(t.out, "%s %s\n", t.styles.Muted.Render("○"), t.styles.Muted.Render(event.Step+" (skipped)"))
	case workflow.EventStepStarting:
		counter := t.styles.Muted.Render(fmt.Sprintf("[%d/%d]", event.Index+1, event.Total))
		t.printf(t.out, "%s %s\n", counter, t.styles.Step.Render(event.Step))
	case workflow.EventStepFinished:
		if event.Result != nil {
			t.printf(t.out, "%s\n", t.resultLine(*event.Result))
		}
	}
}

// StepOutput echoes one line of a running step's output, indented under
// the step header. It is passed to the runner with workflow.WithOutput.
func (t *Terminal) StepOutput(_ string, line ports.OutputLine) {
	gutter := t.styles.Muted.Render("  │ ")
	if line.Stream == ports.Stderr {
		t.printf(t.out, "%s%s\n", gutter, t.styles.Warning.Render(line.Text))
		return
	}
	t.printf(t.out, "%s%s\n", gutter, line.Text)
}

func (t *Terminal) resultLine(r execution.StepResult) string {
	switch {
	case r.Skipped():
		reason := r.SkipReason()
		if reason == "" {
			reason = "skipped"
		}
		return fmt.Sprintf("%s %s %s", t.styles.Muted.Render("○"), r.Name(), t.styles.Muted.Render("("+reason+")"))
	case r.Success() && r.DryRun():
		return fmt.Sprintf("%s %s %s", t.styles.Muted.Render("~"), r.Name(), t.styles.Muted.Render("would run: "+r.Output()))
	case r.Success():
		line := fmt.Sprintf("%s %s %s", t.styles.Success.Render("✓"), r.Name(), t.styles.Muted.Render(formatDuration(r.Duration())))
		if detail := r.RecoveryDetail(); detail != "" {
			line += " " + t.styles.Warning.Render(detail)
		}
		return line
	case r.AllowedFailure():
		return fmt.Sprintf("%s %s %s", t.styles.Warning.Render("!"), r.Name(), t.styles.Warning.Render("failed, continuing: "+errorText(r.Error())))
	default:
		return fmt.Sprintf("%s %s %s", t.styles.Error.Render("✗"), r.Name(), t.styles.Error.Render(errorText(r.Error())))
	}
}

func errorText(err error) string {
	if err == nil {
		return "failed"
	}
	return err.Error()
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return d.Round(100 * time.Millisecond).String()
	default:
		return d.Round(time.Second).String()
	}
}
