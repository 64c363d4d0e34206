package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cli/go-gh/v2/pkg/prompter"
	"github.com/cli/go-gh/v2/pkg/repository"
	"github.com/cli/go-gh/v2/pkg/term"
	"github.com/knqyf263/gh-test-with/internal/config"
	"github.com/knqyf263/gh-test-with/internal/git"
	"github.com/knqyf263/gh-test-with/internal/github"
	"github.com/knqyf263/gh-test-with/internal/prref"
	"github.com/knqyf263/gh-test-with/internal/report"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var errCancelled = errors.New("cancelled")

// app carries the state shared by all commands. External collaborators are
// fields so tests can replace them
type app struct {
	opts   *Options
	config *config.Config
	env    config.Env
	logger *zap.Logger

	in    io.Reader
	out   io.Writer
	isTTY bool
	width int

	newFetcher    func() (*github.Fetcher, error)
	configDir     func() (string, error)
	currentRepo   func() (string, error)
	currentBranch func() (string, error)
	selectPR      func(message string, candidates []string) (int, error)
}

func newApp(opts *Options) *app {
	t := term.FromEnv()
	width, _, err := t.Size()
	if err != nil {
		width = 80
	}

	a := &app{
		opts:   opts,
		config: &config.Config{Format: config.FormatText, Resolve: config.ResolveConfig{Concurrency: config.DefaultConcurrency}},
		env:    config.LoadEnv(os.Getenv),
		logger: zap.NewNop(),
		in:     os.Stdin,
		out:    os.Stdout,
		isTTY:  t.IsTerminalOutput(),
		width:  width,
		currentRepo: func() (string, error) {
			repo, err := repository.Current()
			if err != nil {
				return "", err
			}
			return repo.Owner + "/" + repo.Name, nil
		},
		currentBranch: func() (string, error) {
			return git.CurrentBranch(".")
		},
		configDir: defaultConfigDir,
		selectPR:  promptSelect,
	}
	a.newFetcher = func() (*github.Fetcher, error) {
		return github.NewDefaultFetcher(a.logger)
	}
	return a
}

// setup builds the logger and merges the config file with flags
func (a *app) setup(cmd *cobra.Command) error {
	logger, err := newLogger(a.opts.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.logger = logger

	dir, err := a.configDir()
	if err != nil {
		return err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Format = a.opts.Format
	}
	if flags.Changed("concurrency") {
		cfg.Resolve.Concurrency = a.opts.Concurrency
	}
	if a.opts.Repo != "" {
		repo, err := repository.Parse(a.opts.Repo)
		if err != nil {
			return fmt.Errorf("invalid --repo: %w", err)
		}
		cfg.Repository = repo.Owner + "/" + repo.Name
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.config = cfg
	a.logger.Debug("Loaded configuration",
		zap.String("dir", dir),
		zap.String("repository", cfg.Repository),
		zap.String("format", cfg.Format),
		zap.Int("concurrency", cfg.Resolve.Concurrency))
	return nil
}

// defaultConfigDir is the repository root, or the working directory outside a checkout
func defaultConfigDir() (string, error) {
	if dir, err := git.Root("."); err == nil {
		return dir, nil
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return dir, nil
}

func (a *app) close() {
	// Sync fails on terminals; nothing is buffered there anyway
	_ = a.logger.Sync()
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.Sampling = nil
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	cfg.EncoderConfig.TimeKey = ""
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

func (a *app) printer() *report.Printer {
	return &report.Printer{
		Out:    a.out,
		Format: a.config.Format,
		IsTTY:  a.isTTY,
		Width:  a.width,
	}
}

// defaultRepo is the repository bare PR numbers refer to
func (a *app) defaultRepo() string {
	if a.config.Repository != "" {
		return a.config.Repository
	}
	repo, err := a.currentRepo()
	if err != nil {
		a.logger.Debug("No current repository", zap.Error(err))
		return ""
	}
	return repo
}

func (a *app) runRoot(ctx context.Context, selector string) error {
	fetcher, err := a.newFetcher()
	if err != nil {
		return err
	}

	var sel github.Selector
	if selector != "" {
		sel, err = github.ParseSelector(selector, a.defaultRepo())
		if err != nil {
			return fmt.Errorf("failed to parse PR selector: %w", err)
		}
	} else {
		sel, err = a.selectBranchPR(ctx, fetcher)
		if err != nil {
			return err
		}
	}

	refs, err := fetcher.References(ctx, sel)
	if err != nil {
		return err
	}
	a.logger.Debug("Extracted references", zap.Stringer("pr", sel), zap.Int("count", len(refs)))
	return a.emit(ctx, fetcher, refs)
}

// selectBranchPR finds the open pull request for the checked out branch
func (a *app) selectBranchPR(ctx context.Context, fetcher *github.Fetcher) (github.Selector, error) {
	repo := a.defaultRepo()
	if repo == "" {
		return github.Selector{}, fmt.Errorf("failed to determine repository: use --repo or run inside a git checkout")
	}

	branch, err := a.currentBranch()
	if err != nil {
		return github.Selector{}, fmt.Errorf("failed to get current branch: %w", err)
	}

	prs, err := fetcher.PullRequestsForBranch(ctx, repo, branch)
	if err != nil {
		return github.Selector{}, err
	}

	selected := 0
	if len(prs) > 1 {
		candidates := make([]string, len(prs))
		for i := range prs {
			candidates[i] = github.FormatPRCandidate(&prs[i])
		}
		selected, err = a.selectPR(fmt.Sprintf("Several pull requests use branch %s", branch), candidates)
		if err != nil {
			return github.Selector{}, err
		}
		if selected < 0 || selected >= len(prs) {
			return github.Selector{}, errCancelled
		}
	}

	return github.Selector{Repo: repo, Number: prs[selected].Number}, nil
}

func (a *app) runParse(ctx context.Context, path string) error {
	var data []byte
	var err error
	if path == "" || path == "-" {
		data, err = io.ReadAll(a.in)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	refs := prref.FindReferences(string(data))
	a.logger.Debug("Extracted references", zap.Int("count", len(refs)))
	return a.emit(ctx, nil, refs)
}

func (a *app) runActions(ctx context.Context, opts *ActionsOptions) error {
	if !a.env.IsPullRequestEvent() {
		return fmt.Errorf("%w (GITHUB_EVENT_NAME=%q)", github.ErrNotPullRequestEvent, a.env.EventName)
	}

	event, err := github.LoadEvent(a.env.EventPath)
	if err != nil {
		return err
	}
	sel := event.Selector(a.env.Repository)

	var refs []prref.Reference
	if opts.FromEvent {
		refs = event.References()
	} else {
		fetcher, err := a.newFetcher()
		if err != nil {
			return err
		}
		if refs, err = fetcher.References(ctx, sel); err != nil {
			return err
		}
	}
	a.logger.Debug("Extracted references", zap.Stringer("pr", sel), zap.Int("count", len(refs)))

	if err := a.printer().References(refs); err != nil {
		return err
	}
	if a.env.OutputPath == "" {
		if a.env.Actions {
			a.logger.Warn("GITHUB_OUTPUT is not set, step output skipped")
		}
		return nil
	}
	return writeStepOutput(a.env.OutputPath, opts.OutputName, prref.Join(refs))
}

// emit prints refs, looking each one up first with --resolve
func (a *app) emit(ctx context.Context, fetcher *github.Fetcher, refs []prref.Reference) error {
	p := a.printer()
	if !a.opts.Resolve {
		return p.References(refs)
	}

	if fetcher == nil {
		var err error
		if fetcher, err = a.newFetcher(); err != nil {
			return err
		}
	}
	resolved, err := fetcher.Resolve(ctx, refs, a.config.Resolve.Concurrency)
	if err != nil {
		return fmt.Errorf("failed to resolve references: %w", err)
	}
	return p.Resolved(resolved)
}

// writeStepOutput appends name=value to the GITHUB_OUTPUT file
func writeStepOutput(path, name, value string) error {
	if name == "" || strings.ContainsAny(name, "=\r\n") {
		return fmt.Errorf("invalid output name %q", name)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open step output file: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%s=%s\n", name, value); err != nil {
		f.Close()
		return fmt.Errorf("failed to write step output: %w", err)
	}
	return f.Close()
}

func promptSelect(message string, candidates []string) (int, error) {
	// Prompts go to stderr to avoid capture by $()
	p := prompter.New(os.Stdin, os.Stderr, os.Stderr)
	return p.Select(message, "", candidates)
}
