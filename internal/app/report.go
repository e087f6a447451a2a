package app

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/felixgeelhaar/bivvy/internal/adapters/terminal"
	"github.com/felixgeelhaar/bivvy/internal/domain/config"
	"github.com/felixgeelhaar/bivvy/internal/domain/environment"
	"github.com/felixgeelhaar/bivvy/internal/domain/history"
	"github.com/felixgeelhaar/bivvy/internal/domain/requirement"
	"github.com/felixgeelhaar/bivvy/internal/domain/workflow"
)

// reporter renders command results as text.
type reporter struct {
	out    io.Writer
	styles terminal.Styles
	title  cases.Caser
}

func (b *Bivvy) report() *reporter {
	return &reporter{out: b.out, styles: b.styles, title: cases.Title(language.English)}
}

func (r *reporter) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

func (r *reporter) heading(text string) {
	r.printf("\n%s\n", r.styles.Title.Render(text))
}

// Summary prints the closing lines of a run.
func (r *reporter) Summary(result *workflow.Result) {
	var succeeded, failed int
	for _, step := range result.Steps {
		switch {
		case step.Skipped():
		case step.Failed():
			failed++
		default:
			succeeded++
		}
	}

	outcome := r.styles.Success.Render("complete")
	if !result.Success {
		outcome = r.styles.Error.Render("failed")
	}
	r.heading(fmt.Sprintf("%s workflow %s", r.title.String(result.Workflow), outcome))
	r.printf("  %s\n", r.styles.Muted.Render(fmt.Sprintf("environment %s · %s", result.Environment, result.Duration.Round(time.Millisecond))))
	r.printf("  %d succeeded · %d failed · %d skipped\n", succeeded, failed, len(result.Skipped))
}

// Plan prints the ordered steps of a plan and its dependency waves.
func (r *reporter) Plan(plan *workflow.Plan) {
	r.heading(fmt.Sprintf("%s plan (environment %s)", r.title.String(plan.Workflow), plan.Environment))

	width := 0
	for _, entry := range plan.Entries() {
		width = max(width, lipgloss.Width(entry.Step().Name))
	}
	for i, entry := range plan.Entries() {
		status := entry.Status().String()
		switch entry.Status() {
		case workflow.PlanRun:
			status = r.styles.Success.Render(status)
		default:
			status = r.styles.Muted.Render(status)
		}
		line := fmt.Sprintf("  %2d. %-*s  %s", i+1, width, entry.Step().Name, status)
		if chk := entry.Check(); chk != nil && chk.Description != "" {
			line += r.styles.Muted.Render("  (" + chk.Description + ")")
		}
		r.printf("%s\n", line)
	}

	if len(plan.Groups) > 0 {
		r.printf("\n  Dependency groups:\n")
		for i, group := range plan.Groups {
			r.printf("    %d: %s\n", i+1, strings.Join(group, ", "))
		}
	}
	if len(plan.Excluded) > 0 {
		r.printf("\n  %s\n", r.styles.Muted.Render("Not in this environment: "+strings.Join(plan.Excluded, ", ")))
	}

	s := plan.Summary()
	r.printf("\n  %d steps: %d to run, %d complete, %d skipped, %d filtered\n", s.Total, s.Run, s.Complete, s.Skipped, s.Filtered)
}

// List prints the workflows and steps of cfg.
func (r *reporter) List(cfg *config.Config) {
	r.heading("Workflows")
	names := cfg.WorkflowNames()
	if _, ok := cfg.Workflows["default"]; !ok {
		r.printf("  %-12s %s\n", "default", r.styles.Muted.Render("(implicit) every step"))
	}
	for _, name := range names {
		wf := cfg.Workflows[name]
		desc := wf.Description
		if desc != "" {
			desc += " "
		}
		r.printf("  %-12s %s%s\n", name, desc, r.styles.Muted.Render("["+strings.Join(wf.Steps, ", ")+"]"))
	}

	r.heading("Steps")
	for _, name := range cfg.StepNames() {
		sc := cfg.Steps[name]
		line := fmt.Sprintf("  %-12s %s", name, sc.Title)
		var notes []string
		if len(sc.DependsOn) > 0 {
			notes = append(notes, "after: "+strings.Join(sc.DependsOn, ", "))
		}
		if len(sc.Requires) > 0 {
			notes = append(notes, "requires: "+strings.Join(sc.Requires, ", "))
		}
		if len(sc.OnlyEnvironments) > 0 {
			notes = append(notes, "only: "+strings.Join(sc.OnlyEnvironments, ", "))
		}
		if len(notes) > 0 {
			line += " " + r.styles.Muted.Render("["+strings.Join(notes, "; ")+"]")
		}
		r.printf("%s\n", strings.TrimRight(line, " "))
	}
}

// Requirements prints one line per requirement report.
func (r *reporter) Requirements(env environment.Resolved, reports []RequirementReport) {
	r.heading(fmt.Sprintf("Requirements (environment %s)", env))
	if len(reports) == 0 {
		r.printf("  No step declares requirements.\n")
		return
	}

	width := 0
	for _, rep := range reports {
		width = max(width, lipgloss.Width(rep.Name))
	}
	for _, rep := range reports {
		mark, detail := r.requirementLine(rep)
		r.printf("  %s %-*s  %s  %s\n", mark, width, rep.Name, detail,
			r.styles.Muted.Render("used by "+strings.Join(rep.Steps, ", ")))
	}
}

func (r *reporter) requirementLine(rep RequirementReport) (string, string) {
	if rep.Provided {
		return r.styles.Muted.Render("-"), "provided by environment"
	}
	detail := requirement.Describe(rep.Status)
	switch st := rep.Status.(type) {
	case requirement.Satisfied:
		return r.styles.Success.Render("✓"), detail
	case requirement.SystemOnly, requirement.Inactive, requirement.ServiceDown:
		return r.styles.Warning.Render("!"), detail
	case requirement.Missing:
		if st.InstallHint != "" {
			detail += ": " + st.InstallHint
		}
		return r.styles.Error.Render("✗"), detail
	default:
		return r.styles.Error.Render("?"), detail
	}
}

// History prints records as returned by the repository, newest first.
func (r *reporter) History(records []history.Record) {
	r.heading("Run history")
	if len(records) == 0 {
		r.printf("  No runs recorded yet.\n")
		return
	}
	for _, rec := range records {
		var mark string
		switch rec.Status {
		case history.StatusSuccess:
			mark = r.styles.Success.Render("✓")
		case history.StatusInterrupted:
			mark = r.styles.Warning.Render("!")
		default:
			mark = r.styles.Error.Render("✗")
		}
		line := fmt.Sprintf("  %s %s  %-10s %-12s %8s",
			mark,
			rec.Timestamp.Local().Format("2006-01-02 15:04"),
			rec.Workflow,
			rec.Environment,
			rec.Duration.Round(100*time.Millisecond),
		)
		if rec.Error != "" {
			line += "  " + r.styles.Error.Render(rec.Error)
		}
		r.printf("%s\n", line)
	}
}
