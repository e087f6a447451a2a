package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/bivvy/internal/domain/config"
	"github.com/felixgeelhaar/bivvy/internal/domain/environment"
	"github.com/felixgeelhaar/bivvy/internal/domain/execution"
	"github.com/felixgeelhaar/bivvy/internal/domain/graph"
)

var (
	// Global flags
	cfgFile        string
	projectDir     string
	envName        string
	verbose        bool
	logFormat      string
	nonInteractive bool
	yesFlag        bool
)

var rootCmd = &cobra.Command{
	Use:   "bivvy",
	Short: "Set up a development environment, one step at a time",
	Long: `Bivvy runs the setup workflows declared in .bivvy/config.yml.

Each step runs in dependency order. Steps that are already complete are
skipped, and missing tools or services are detected before a step runs
so they can be installed, activated or started first.`,
	SilenceErrors: true, // We handle error formatting ourselves
	SilenceUsage:  true, // Don't show usage on error
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .bivvy/config.yml)")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "dir", "C", "", "project directory (default: current directory)")
	rootCmd.PersistentFlags().StringVarP(&envName, "env", "e", "", "environment to use (default: detected)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "never prompt; use default answers")
	rootCmd.PersistentFlags().BoolVarP(&yesFlag, "yes", "y", false, "auto-confirm prompts")

	registerFlagCompletions()

	rootCmd.AddCommand(versionCmd)
}

// formatError returns a user-friendly error message.
// With verbose=false: shows only the user message and suggestion.
// With verbose=true: also shows the underlying technical error.
func formatError(err error) string {
	var list *config.ErrorList
	if errors.As(err, &list) {
		lines := make([]string, 0, list.Len()+1)
		lines = append(lines, fmt.Sprintf("configuration has %d problem(s):", list.Len()))
		for _, userErr := range list.Errors() {
			lines = append(lines, "  - "+userMessage(userErr))
		}
		return strings.Join(lines, "\n")
	}

	var userErr *config.UserError
	if errors.As(err, &userErr) {
		return withSuggestion(userMessage(userErr), userErr.Suggestion, userErr.Underlying)
	}

	var depErr *graph.DependencyError
	if errors.As(err, &depErr) {
		return withSuggestion(depErr.Error(), depErr.Suggestion, nil)
	}

	var stepErr *execution.StepError
	if errors.As(err, &stepErr) {
		return withSuggestion(stepErr.Error(), stepErr.Suggestion, stepErr.Underlying)
	}
	return err.Error()
}

func userMessage(userErr *config.UserError) string {
	msg := userErr.Message
	if userErr.Context != "" {
		msg += fmt.Sprintf(" (at %s)", userErr.Context)
	}
	return msg
}

func withSuggestion(msg, suggestion string, underlying error) string {
	if suggestion != "" {
		msg += fmt.Sprintf("\n\nSuggestion: %s", suggestion)
	}
	if verbose && underlying != nil {
		msg += fmt.Sprintf("\n\nTechnical details: %v", underlying)
	}
	return msg
}

// printError prints an error message to stderr with proper formatting.
func printError(err error) {
	printErrorTo(os.Stderr, err)
}

// printErrorTo prints an error message to the given writer.
func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", formatError(err))
}

// registerFlagCompletions sets up custom completions for global flags.
func registerFlagCompletions() {
	_ = rootCmd.RegisterFlagCompletionFunc("config", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"yml", "yaml", "toml"}, cobra.ShellCompDirectiveFilterFileExt
	})

	_ = rootCmd.RegisterFlagCompletionFunc("dir", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return nil, cobra.ShellCompDirectiveFilterDirs
	})

	_ = rootCmd.RegisterFlagCompletionFunc("log-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{
			"text\tHuman-readable lines",
			"json\tOne JSON object per line",
		}, cobra.ShellCompDirectiveNoFileComp
	})

	_ = rootCmd.RegisterFlagCompletionFunc("env", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{environment.Development, environment.CI, environment.Codespace, environment.Docker}, cobra.ShellCompDirectiveNoFileComp
	})
}
