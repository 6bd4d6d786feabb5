package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/Enter-tainer/tree-sitter/pkg/config"
	"github.com/Enter-tainer/tree-sitter/pkg/observability"
	"github.com/Enter-tainer/tree-sitter/pkg/safeconv"
	"github.com/Enter-tainer/tree-sitter/pkg/textutil"
	"github.com/Enter-tainer/tree-sitter/pkg/treesitter"
	"github.com/Enter-tainer/tree-sitter/pkg/version"
)

// ErrBinaryFile is returned for inputs that are not source text.
var ErrBinaryFile = errors.New("binary file")

// seedStream is the second PCG word; the first comes from the seed.
const seedStream = 0x9e3779b97f4a7c15

// globalOptions holds the persistent root flags.
type globalOptions struct {
	configFile string
	language   string
	verbose    bool
	quiet      bool
	noColor    bool
}

// app is the per-command runtime: configuration, telemetry and the parsers
// opened so far.
type app struct {
	cfg       *config.Config
	opts      *globalOptions
	providers observability.Providers
	logger    *slog.Logger
	tracer    trace.Tracer
	parsers   map[string]*treesitter.Parser
}

func newApp(cmd *cobra.Command, opts *globalOptions, mode observability.AppMode) (*app, error) {
	cfg, err := config.LoadConfig(opts.configFile)
	if err != nil {
		return nil, err
	}

	switch {
	case opts.verbose:
		cfg.Logging.Level = "debug"
	case opts.quiet:
		cfg.Logging.Level = "error"
	}

	tel := cfg.Telemetry(mode, version.Version)
	tel.LogWriter = cmd.ErrOrStderr()

	providers, err := observability.Init(tel)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	return &app{
		cfg:       cfg,
		opts:      opts,
		providers: providers,
		logger:    providers.Logger,
		tracer:    providers.Tracer,
		parsers:   make(map[string]*treesitter.Parser),
	}, nil
}

// close flushes telemetry. Its error is joined into the command's own.
func (a *app) close(ctx context.Context, err error) error {
	return errors.Join(err, a.providers.Shutdown(ctx))
}

// languageFor resolves the grammar for path: flag, then config, then enry.
func (a *app) languageFor(path string, content []byte) (string, error) {
	if a.opts.language != "" {
		return a.opts.language, nil
	}

	if a.cfg.Fuzz.Language != "" {
		return a.cfg.Fuzz.Language, nil
	}

	lang, err := treesitter.DetectLanguage(path, content)
	if err != nil {
		return "", fmt.Errorf("%w (use --language)", err)
	}

	return lang, nil
}

func (a *app) parser(language string) (*treesitter.Parser, error) {
	if p, ok := a.parsers[language]; ok {
		return p, nil
	}

	p, err := treesitter.NewParser(language)
	if err != nil {
		return nil, err
	}

	a.parsers[language] = p

	return p, nil
}

// openFile reads and parses path. language may be empty to resolve it.
// The caller closes the returned tree.
func (a *app) openFile(ctx context.Context, path, language string) (*treesitter.Tree, string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}

	if textutil.IsBinary(content) {
		return nil, "", fmt.Errorf("%w: %s", ErrBinaryFile, path)
	}

	if language == "" {
		language, err = a.languageFor(path, content)
		if err != nil {
			return nil, "", err
		}
	}

	p, err := a.parser(language)
	if err != nil {
		return nil, "", err
	}

	tree, err := p.Parse(ctx, content)
	if err != nil {
		return nil, "", err
	}

	a.logger.DebugContext(ctx, "parsed file", "file", path, "language", language,
		"size", humanize.Bytes(safeconv.Size(len(content))), "lines", textutil.CountLines(content),
		"has_error", tree.HasError())

	return tree, language, nil
}

// rng seeds a PCG source. Zero draws a fresh seed, which is logged so the
// run can be repeated.
func (a *app) rng(ctx context.Context, seed uint64) (*rand.Rand, uint64) {
	if seed == 0 {
		seed = a.cfg.Fuzz.Seed
	}

	if seed == 0 {
		seed = rand.Uint64()
	}

	a.logger.InfoContext(ctx, "random source", "seed", seed)

	return rand.New(rand.NewPCG(seed, seedStream)), seed
}
