package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/knqyf263/gh-test-with/internal/config"
	"github.com/spf13/cobra"
)

// Options holds flags shared by all commands
type Options struct {
	Repo        string
	Format      string
	Resolve     bool
	Concurrency int
	Debug       bool
}

// ActionsOptions holds flags of the actions command
type ActionsOptions struct {
	FromEvent  bool
	OutputName string
}

func main() {
	var opts Options
	a := newApp(&opts)
	rootCmd := newRootCmd(a)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	a.close()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree, binding flags to a.opts
func newRootCmd(a *app) *cobra.Command {
	opts := a.opts
	var actionsOpts ActionsOptions

	rootCmd := &cobra.Command{
		Use:   "gh-test-with [<number> | <url> | <owner/repo#number>]",
		Short: `List the pull requests a pull request says to "Test with"`,
		Long: `Read a pull request description and print every cross-repository pull
request named on a line starting with "Test with:", for example

  Test with: seL4/sel4test#200, https://github.com/seL4/camkes-tool/pull/78

References are printed as OWNER/REPO#NUMBER, space separated and in order.`,
		Example: `  # PR for the current branch
  $ gh test-with

  # A specific PR of the current repository
  $ gh test-with 1234

  # PR from URL or reference, with the state of each referenced PR
  $ gh test-with https://github.com/seL4/seL4/pull/1234 --resolve
  $ gh test-with seL4/seL4#1234 --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			selector := ""
			if len(args) > 0 {
				selector = args[0]
			}
			err := a.runRoot(cmd.Context(), selector)
			if errors.Is(err, errCancelled) {
				fmt.Fprintln(os.Stderr, "Cancelled.")
				return nil
			}
			return err
		},
	}

	parseCmd := &cobra.Command{
		Use:   "parse [<file> | -]",
		Short: "Extract references from text in a file or on standard input",
		Example: `  $ gh pr view 1234 --json body -q .body | gh test-with parse
  $ gh test-with parse description.md`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			return a.runParse(cmd.Context(), path)
		},
	}

	actionsCmd := &cobra.Command{
		Use:   "actions",
		Short: "Extract references for the pull request that triggered a GitHub Actions workflow",
		Long: `Read GITHUB_EVENT_NAME and GITHUB_EVENT_PATH, fail unless the workflow runs
for a pull_request or pull_request_target event, and print the references of
that pull request. When GITHUB_OUTPUT is set the line is also written as a
step output.`,
		Example: `  # In a workflow step
  - run: echo "PRS=$(gh test-with actions)" >> "$GITHUB_ENV"
    env:
      GH_TOKEN: ${{ github.token }}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runActions(cmd.Context(), &actionsOpts)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.Repo, "repo", "R", "", "Repository for bare PR numbers in OWNER/REPO format")
	rootCmd.PersistentFlags().StringVarP(&opts.Format, "format", "", config.FormatText, "Output format: text, lines or json")
	rootCmd.PersistentFlags().BoolVarP(&opts.Debug, "debug", "", false, "Log API requests to stderr")

	for _, cmd := range []*cobra.Command{rootCmd, parseCmd} {
		cmd.Flags().BoolVarP(&opts.Resolve, "resolve", "", false, "Look up each referenced pull request and show its state")
		cmd.Flags().IntVarP(&opts.Concurrency, "concurrency", "", config.DefaultConcurrency, "Maximum parallel lookups with --resolve")
	}

	actionsCmd.Flags().BoolVarP(&actionsOpts.FromEvent, "from-event", "", false, "Use the description from the event payload instead of fetching it")
	actionsCmd.Flags().StringVarP(&actionsOpts.OutputName, "output-name", "", "prs", "Step output name written to GITHUB_OUTPUT")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(actionsCmd)
	return rootCmd
}
