package rewrite

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cloud-it/template-app-configurator/internal/report"
	"github.com/cloud-it/template-app-configurator/internal/storage"
)

// Rewriter applies rule tables to existing files, writing only files whose
// content changes.
type Rewriter struct {
	fs     storage.FileSystem
	logger *zap.Logger
}

// New creates a Rewriter operating on fs.
func New(fs storage.FileSystem, logger *zap.Logger) *Rewriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Rewriter{fs: fs, logger: logger}
}

// Apply processes the files of set in order and returns one outcome per
// file. A failure on one file does not stop the remaining files.
func (r *Rewriter) Apply(set TargetSet, rules RuleSet) []report.Outcome {
	r.logger.Debug("applying rule table",
		zap.String("phase", set.Name),
		zap.Int("rules", rules.Len()),
		zap.Int("files", len(set.Files)),
	)

	outcomes := make([]report.Outcome, 0, len(set.Files))
	for _, name := range set.Files {
		outcome := r.rewriteFile(name, rules)
		outcome.Phase = set.Name
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (r *Rewriter) rewriteFile(name string, rules RuleSet) report.Outcome {
	logger := r.logger.With(zap.String("file", name))

	exists, err := r.fs.Exists(name)
	if err != nil {
		logger.Error("stat target file", zap.Error(err))
		return failed(name, fmt.Errorf("stat %s: %w", name, err))
	}
	if !exists {
		logger.Warn("target file not found, skipping")
		return report.Outcome{Path: name, Status: report.StatusSkipped}
	}

	data, err := r.fs.ReadFile(name)
	if err != nil {
		logger.Error("read target file", zap.Error(err))
		return failed(name, fmt.Errorf("read %s: %w", name, err))
	}

	original := string(data)
	updated := rules.Apply(original)
	if updated == original {
		logger.Debug("target file already up to date")
		return report.Outcome{Path: name, Status: report.StatusUnchanged}
	}

	if err := r.fs.WriteFile(name, []byte(updated)); err != nil {
		logger.Error("write target file", zap.Error(err))
		return failed(name, fmt.Errorf("write %s: %w", name, err))
	}

	logger.Info("target file updated")
	return report.Outcome{Path: name, Status: report.StatusUpdated}
}

func failed(name string, err error) report.Outcome {
	return report.Outcome{Path: name, Status: report.StatusFailed, Err: err}
}
