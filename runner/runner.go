// Package runner finds check documents and executes them one after another against a
// shared variable context.
package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shibukawa/sqlverify"
	"github.com/shibukawa/sqlverify/actiondoc"
	"github.com/shibukawa/sqlverify/queryaction"
)

// Runner executes check documents sequentially.
type Runner struct {
	engine     *queryaction.Engine
	vars       queryaction.VariableContext
	defaults   actiondoc.Defaults
	logger     *zap.Logger
	runPattern string
	failFast   bool
}

// NewRunner creates a runner. Variables exported by one document are visible to the
// documents executed after it.
func NewRunner(engine *queryaction.Engine, vars queryaction.VariableContext, defaults actiondoc.Defaults) *Runner {
	return &Runner{
		engine:   engine,
		vars:     vars,
		defaults: defaults,
		logger:   zap.NewNop(),
	}
}

// SetLogger sets the logger used for progress messages.
func (r *Runner) SetLogger(logger *zap.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// SetRunPattern sets the document name filter (prefix of the file name without extension).
func (r *Runner) SetRunPattern(pattern string) {
	r.runPattern = pattern
}

// SetFailFast stops the run at the first failed document.
func (r *Runner) SetFailFast(failFast bool) {
	r.failFast = failFast
}

// FindDocuments returns the markdown documents below paths, sorted and filtered by the run pattern.
func (r *Runner) FindDocuments(paths []string) ([]string, error) {
	var files []string

	for _, root := range paths {
		err := walkAndProcessFiles(root, func(p string, info os.FileInfo) {
			if strings.EqualFold(filepath.Ext(info.Name()), ".md") {
				files = append(files, filepath.Clean(p))
			}
		})
		if err != nil {
			return nil, fmt.Errorf("failed to find check documents in %s: %w", root, err)
		}
	}

	slices.Sort(files)
	files = slices.Compact(files)

	if r.runPattern != "" {
		files = r.filterDocuments(files)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", sqlverify.ErrNoDocumentsFound, r.runPattern)
	}

	return files, nil
}

// filterDocuments uses prefix matching like Go's -run flag.
func (r *Runner) filterDocuments(files []string) []string {
	var filtered []string

	for _, file := range files {
		filename := filepath.Base(file)
		nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

		if strings.HasPrefix(nameWithoutExt, r.runPattern) {
			filtered = append(filtered, file)
		}
	}

	return filtered
}

// Run executes every document found below paths.
func (r *Runner) Run(ctx context.Context, paths []string) (*Summary, error) {
	files, err := r.FindDocuments(paths)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Total: len(files)}
	start := time.Now()

	for i, file := range files {
		if ctx.Err() != nil || (r.failFast && summary.Failed > 0) {
			summary.Skipped = len(files) - i
			break
		}

		result := r.runDocument(ctx, file)
		summary.add(result)
	}

	summary.Duration = time.Since(start)

	return summary, nil
}

func (r *Runner) runDocument(ctx context.Context, file string) Result {
	start := time.Now()
	result := Result{Path: file}

	doc, err := actiondoc.ParseFile(file)
	if err != nil {
		result.Name = file
		result.Kind = queryaction.KindConfiguration
		result.Error = err
		result.Duration = time.Since(start)

		r.logger.Error("failed to parse check document", zap.String("path", file), zap.Error(err))

		return result
	}

	result.Name = doc.Name

	r.logger.Info("running check", zap.String("name", doc.Name), zap.String("path", file))

	report, err := r.engine.Execute(ctx, doc.ToAction(r.defaults), r.vars)
	result.Duration = time.Since(start)
	result.Retries = report.Retries

	if err != nil {
		result.Kind = queryaction.ClassifyFailure(err)
		result.Error = err

		r.logger.Warn("check failed",
			zap.String("name", doc.Name),
			zap.Stringer("kind", result.Kind),
			zap.Int("retries", report.Retries),
			zap.Error(err))

		return result
	}

	result.Success = true

	return result
}

// Check parses every document and shape-checks its statements without touching a database.
func (r *Runner) Check(paths []string) (*Summary, error) {
	files, err := r.FindDocuments(paths)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Total: len(files)}
	start := time.Now()

	for _, file := range files {
		summary.add(checkDocument(file, r.defaults))
	}

	summary.Duration = time.Since(start)

	return summary, nil
}

func checkDocument(file string, defaults actiondoc.Defaults) Result {
	start := time.Now()
	result := Result{Path: file, Name: file}

	doc, err := actiondoc.ParseFile(file)
	if err == nil {
		result.Name = doc.Name
		_, err = doc.ToAction(defaults).Source().Load()
	}

	result.Duration = time.Since(start)

	if err != nil {
		result.Kind = queryaction.ClassifyFailure(err)
		if result.Kind == queryaction.KindUnknown {
			result.Kind = queryaction.KindConfiguration
		}

		result.Error = err

		return result
	}

	result.Success = true

	return result
}
