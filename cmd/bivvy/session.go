package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/bivvy/internal/adapters/logging"
	"github.com/felixgeelhaar/bivvy/internal/adapters/shell"
	"github.com/felixgeelhaar/bivvy/internal/adapters/terminal"
	"github.com/felixgeelhaar/bivvy/internal/app"
	"github.com/felixgeelhaar/bivvy/internal/domain/workflow"
)

// newBivvy builds and loads the application for one command. Tests
// replace it to inject doubles.
var newBivvy = func(cmd *cobra.Command) (*app.Bivvy, error) {
	logger, err := newLogger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	root, err := resolveProjectDir()
	if err != nil {
		return nil, err
	}

	term := newTerminal(cmd.OutOrStdout(), cmd.ErrOrStderr())
	b := app.New(root, term, shell.NewRunner(),
		app.WithConfigPath(cfgFile),
		app.WithLogger(logger),
		app.WithReportOutput(term.Out(), term.Styles()),
	)
	if err := b.Load(cmd.Context()); err != nil {
		return nil, err
	}
	return b, nil
}

func newLogger(out io.Writer) (*logging.Console, error) {
	level := "warn"
	if verbose {
		level = "debug"
	}
	return logging.New(level, logFormat, out)
}

// newTerminal applies --yes and --non-interactive. With --yes, re-run
// prompts for completed steps keep their "no" default.
func newTerminal(out, errOut io.Writer) *terminal.Terminal {
	opts := []terminal.Option{terminal.WithOutput(out, errOut)}
	if nonInteractive {
		opts = append(opts, terminal.WithInteractive(false))
	}
	if yesFlag {
		opts = append(opts, terminal.WithAssumeYes(workflow.PromptRerun))
	}
	return terminal.New(opts...)
}

func resolveProjectDir() (string, error) {
	if projectDir != "" {
		return projectDir, nil
	}
	return os.Getwd()
}
