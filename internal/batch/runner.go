package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/google/uuid"

	"vpkplaces/internal/config"
	"vpkplaces/internal/logging"
	"vpkplaces/internal/output"
	"vpkplaces/internal/places"
)

var (
	// ErrInputNotFound reports a missing input directory.
	ErrInputNotFound = errors.New("input directory does not exist")
	// ErrOutputNotFound reports a missing output directory.
	ErrOutputNotFound = errors.New("output directory does not exist")
)

// Reasons attached to skipped outcomes.
const (
	ReasonNoEntityLump = "no vpk or no ents"
	ReasonNoPlaces     = "no place entities"
)

// Extractor turns one archive into its places.
type Extractor interface {
	Extract(path string) (*places.PlaceMap, error)
}

// Recorder persists finished runs.
type Recorder interface {
	Record(ctx context.Context, summary *Summary) error
}

// Options configures one run.
type Options struct {
	InputDir   string
	OutputDir  string
	Filter     string
	Merge      bool
	MergedName string
	Output     output.Options
	// RunID is generated when empty.
	RunID string
}

// Runner executes extraction runs.
type Runner struct {
	extractor Extractor
	logger    *slog.Logger
	recorder  Recorder
	now       func() time.Time
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithRecorder stores every run summary through r.
func WithRecorder(r Recorder) RunnerOption {
	return func(run *Runner) {
		run.recorder = r
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) RunnerOption {
	return func(run *Runner) {
		if now != nil {
			run.now = now
		}
	}
}

// NewRunner builds a Runner. A nil logger discards output.
func NewRunner(extractor Extractor, logger *slog.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		extractor: extractor,
		logger:    logging.NewComponentLogger(logger, "batch"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes every file of opts.InputDir. Per-file problems become
// outcomes; the returned error is reserved for invalid options, unreadable
// directories, output failures, and cancellation. The summary is non-nil
// whenever the run got as far as listing the input directory.
func (r *Runner) Run(ctx context.Context, opts Options) (*Summary, error) {
	if r == nil || r.extractor == nil {
		return nil, errors.New("batch runner is not configured")
	}
	opts = withDefaults(opts)
	filter, err := config.CompileFilter(opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("compile filter: %w", err)
	}
	switch opts.Output.FormatName() {
	case output.FormatJSON, output.FormatYAML:
	default:
		return nil, fmt.Errorf("%w: %q", output.ErrUnknownFormat, opts.Output.Format)
	}
	if err := requireDir(opts.OutputDir, ErrOutputNotFound); err != nil {
		return nil, err
	}
	if err := requireDir(opts.InputDir, ErrInputNotFound); err != nil {
		return nil, err
	}

	lock, err := output.AcquireLock(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := lock.Release(); rerr != nil {
			r.logger.Warn("release output lock failed", logging.Error(rerr))
		}
	}()

	summary := &Summary{
		RunID:     opts.RunID,
		StartedAt: r.now().UTC(),
		InputDir:  opts.InputDir,
		OutputDir: opts.OutputDir,
		Merge:     opts.Merge,
		Format:    opts.Output.FormatName(),
	}
	runErr := r.run(ctx, opts, filter, summary)
	summary.FinishedAt = r.now().UTC()
	switch {
	case runErr == nil:
		summary.Status = RunCompleted
	case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
		summary.Status = RunCanceled
		summary.Error = runErr.Error()
	default:
		summary.Status = RunFailed
		summary.Error = runErr.Error()
	}
	r.record(ctx, summary)
	return summary, runErr
}

func (r *Runner) run(ctx context.Context, opts Options, filter *regexp2.Regexp, summary *Summary) error {
	files, err := listFiles(opts.InputDir)
	if err != nil {
		return err
	}

	results := places.NewResultSet()
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("run canceled", logging.Int("remaining", len(files)-len(summary.Outcomes)))
			return err
		}
		outcome, pm := r.processFile(filter, opts.InputDir, name)
		summary.Outcomes = append(summary.Outcomes, outcome)
		if pm != nil {
			results.Set(archiveID(name), pm)
		}
	}

	written, err := r.write(opts, results)
	summary.Written = written
	if err != nil {
		return err
	}
	r.logger.Info("Done",
		logging.Int("extracted", summary.Count(StatusExtracted)),
		logging.Int("skipped", summary.Count(StatusSkipped)),
		logging.Int("failed", summary.Count(StatusFailed)),
	)
	return nil
}

func (r *Runner) processFile(filter *regexp2.Regexp, dir, name string) (Outcome, *places.PlaceMap) {
	fileAttr := logging.String(logging.FieldFile, name)
	matched, err := filter.MatchString(name)
	if err != nil {
		r.logger.Warn("filter evaluation failed", fileAttr, logging.Error(err))
		return Outcome{Name: name, Status: StatusFailed, Reason: err.Error()}, nil
	}
	if !matched {
		r.logger.Info("Filtered", fileAttr)
		return Outcome{Name: name, Status: StatusFiltered}, nil
	}

	r.logger.Info("Processing", fileAttr)
	pm, err := r.extract(filepath.Join(dir, name))
	switch {
	case errors.Is(err, places.ErrEntryNotFound):
		r.logger.Info("Skipping", fileAttr, logging.String(logging.FieldReason, ReasonNoEntityLump))
		return Outcome{Name: name, Status: StatusSkipped, Reason: ReasonNoEntityLump}, nil
	case err != nil:
		r.logger.Error("Skipping", fileAttr,
			logging.String(logging.FieldStatus, string(StatusFailed)),
			logging.Error(err),
		)
		return Outcome{Name: name, Status: StatusFailed, Reason: err.Error()}, nil
	case pm.Len() == 0:
		r.logger.Info("Skipping", fileAttr, logging.String(logging.FieldReason, ReasonNoPlaces))
		return Outcome{Name: name, Status: StatusSkipped, Reason: ReasonNoPlaces}, nil
	}

	r.logger.Info(fmt.Sprintf("Found %d placenames", pm.Len()), fileAttr, logging.Int(logging.FieldPlaces, pm.Len()))
	return Outcome{Name: name, Status: StatusExtracted, Places: pm.Len(), Vectors: pm.VectorCount()}, pm
}

// extract isolates one archive so a panicking decoder only fails that file.
func (r *Runner) extract(path string) (pm *places.PlaceMap, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			pm = nil
			err = fmt.Errorf("panic while extracting: %v", rec)
		}
	}()
	pm, err = r.extractor.Extract(path)
	if err == nil && pm == nil {
		pm = places.NewPlaceMap()
	}
	return pm, err
}

func (r *Runner) write(opts Options, results *places.ResultSet) ([]string, error) {
	if opts.Merge {
		path := filepath.Join(opts.OutputDir, opts.Output.FileName(opts.MergedName))
		if err := output.WriteFile(path, results, opts.Output); err != nil {
			return nil, err
		}
		r.logger.Info("Written merged file", logging.String(logging.FieldPath, path))
		return []string{path}, nil
	}

	var written []string
	for _, name := range results.Names() {
		path := filepath.Join(opts.OutputDir, opts.Output.FileName(name))
		if err := output.WriteFile(path, results.Get(name), opts.Output); err != nil {
			return written, err
		}
		r.logger.Info("Written map file", logging.String(logging.FieldPath, path))
		written = append(written, path)
	}
	return written, nil
}

func (r *Runner) record(ctx context.Context, summary *Summary) {
	if r.recorder == nil {
		return
	}
	// Cancellation of the run must not prevent its record.
	if err := r.recorder.Record(context.WithoutCancel(ctx), summary); err != nil {
		r.logger.Warn("record run history failed", logging.Error(err))
	}
}

func withDefaults(opts Options) Options {
	if strings.TrimSpace(opts.Filter) == "" {
		opts.Filter = config.DefaultFilter
	}
	if strings.TrimSpace(opts.MergedName) == "" {
		opts.MergedName = config.DefaultMergedName
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	return opts
}

func requireDir(dir string, missing error) error {
	if strings.TrimSpace(dir) == "" {
		return missing
	}
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", missing, dir)
		}
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", missing, dir)
	}
	return nil
}

// listFiles returns the names of regular files directly inside dir, sorted.
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, dir)
		}
		return nil, fmt.Errorf("read input directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		switch {
		case entry.Type().IsRegular():
		case entry.Type()&fs.ModeSymlink != 0:
			info, err := os.Stat(filepath.Join(dir, entry.Name()))
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
		default:
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// archiveID strips the extension from a file name.
func archiveID(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
