package application

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/cloud-it/template-app-configurator/internal/artifact"
	"github.com/cloud-it/template-app-configurator/internal/config"
	"github.com/cloud-it/template-app-configurator/internal/report"
	"github.com/cloud-it/template-app-configurator/internal/rewrite"
	"github.com/cloud-it/template-app-configurator/internal/storage"
)

// ErrNoFileSystem is returned when New is called without a file system.
var ErrNoFileSystem = errors.New("file system is required")

// projectMarkers are the directories that identify a template checkout.
var projectMarkers = []string{"app", "terraform"}

// App encapsulates one customization run and its dependencies.
type App struct {
	cfg       config.ProjectConfig
	rewriter  *rewrite.Rewriter
	generator *artifact.Generator
	logger    *zap.Logger
	dryRun    bool
}

type options struct {
	dryRun bool
	now    func() time.Time
}

// Option customises an App.
type Option func(*options)

// WithDryRun computes every outcome without writing any file.
func WithDryRun(enabled bool) Option {
	return func(o *options) { o.dryRun = enabled }
}

// WithClock sets the clock used for artifact timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New wires the rewriter and the artifact generator around cfg and fsys.
func New(cfg config.ProjectConfig, fsys storage.FileSystem, logger *zap.Logger, opts ...Option) (*App, error) {
	if fsys == nil {
		return nil, ErrNoFileSystem
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	if o.dryRun {
		fsys = storage.NewDryRunFileSystem(fsys)
	}

	return &App{
		cfg:       cfg,
		rewriter:  rewrite.New(fsys, logger.Named("rewrite")),
		generator: artifact.New(fsys, logger.Named("artifact"), artifact.WithClock(o.now)),
		logger:    logger,
		dryRun:    o.dryRun,
	}, nil
}

// Run rewrites the presentation and infrastructure files, regenerates the
// artifacts and renders the summary to w. The returned error aggregates
// every failed file; the summary is complete either way.
func (a *App) Run(w io.Writer) (report.Summary, error) {
	a.logger.Info("applying project configuration",
		zap.String("project", a.cfg.Project.Name),
		zap.String("domain", a.cfg.Domain.Base),
		zap.String("environment", a.cfg.Environment),
		zap.Bool("dry_run", a.dryRun),
	)

	var outcomes []report.Outcome
	outcomes = append(outcomes, a.rewriter.Apply(rewrite.PresentationTargets(), rewrite.PresentationRules(a.cfg))...)
	outcomes = append(outcomes, a.rewriter.Apply(rewrite.InfrastructureTargets(), rewrite.InfrastructureRules(a.cfg))...)
	outcomes = append(outcomes, a.generator.Generate(a.cfg)...)

	summary := report.Summarize(outcomes)
	summary.DryRun = a.dryRun

	if w != nil {
		if err := report.New(w).Render(a.cfg, summary); err != nil {
			a.logger.Warn("render summary", zap.Error(err))
		}
	}

	if summary.Failed() {
		return summary, fmt.Errorf("%d file(s) failed: %w", summary.Counts[report.StatusFailed], multierr.Combine(summary.Errors()...))
	}
	return summary, nil
}

// ResolveProjectRoot locates the template checkout containing start by
// walking up the directory tree.
func ResolveProjectRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	for {
		if isProjectRoot(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("unable to locate a project root (directory with %v) from %s", projectMarkers, start)
}

func isProjectRoot(dir string) bool {
	for _, marker := range projectMarkers {
		info, err := os.Stat(filepath.Join(dir, marker))
		if err != nil || !info.IsDir() {
			return false
		}
	}
	return true
}
