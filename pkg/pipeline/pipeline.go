// Package pipeline wires loader, annotator, aggregator and writer into a
// single linear run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/japaniel/headliner/pkg/annotate"
	"github.com/japaniel/headliner/pkg/config"
	"github.com/japaniel/headliner/pkg/nlp"
	"github.com/japaniel/headliner/pkg/stats"
	"github.com/japaniel/headliner/pkg/table"
)

// Opener loads the model named by a model id.
type Opener func(modelID string) (nlp.Model, error)

// OpenModel is the default Opener, backed by nlp.Open.
func OpenModel(modelID string) (nlp.Model, error) {
	return nlp.Open(modelID)
}

// Runner executes one pipeline run.
type Runner struct {
	Config config.Config
	// Out receives the user-facing progress lines and report.
	Out io.Writer
	// Logger receives errors and warnings. nil means no logging.
	Logger *log.Logger
	// Open loads the model; defaults to OpenModel.
	Open Opener
	// OnProgress is forwarded to the Annotator.
	OnProgress func(done, total int)
}

// New creates a Runner printing to stdout and logging via the standard logger.
func New(cfg config.Config) *Runner {
	return &Runner{
		Config: cfg,
		Out:    os.Stdout,
		Logger: log.Default(),
		Open:   OpenModel,
	}
}

// Result summarises a completed run.
type Result struct {
	Rows      int
	Annotated bool
	Top       []stats.EntityCount
}

// Run loads the input, annotates it, prints the top entities and saves the
// output. A missing input or a failed save aborts the run; an unavailable
// model or a failed annotation degrades to writing the table unannotated.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	cfg := r.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	out := r.Out
	if out == nil {
		out = io.Discard
	}

	// 1. Load
	tbl, err := table.Load(cfg.InputPath)
	if err != nil {
		if errors.Is(err, table.ErrNotFound) {
			r.logf("Error: File not found at %s", cfg.InputPath)
		}
		return nil, fmt.Errorf("load %s: %w", cfg.InputPath, err)
	}
	fmt.Fprintf(out, "Loaded %s with %d rows.\n", cfg.InputPath, tbl.Len())

	// 2. Annotate
	if err := r.annotate(ctx, out, tbl); err != nil {
		return nil, err
	}

	// 3. Statistics
	top := stats.TopEntities(tbl, cfg.TopK)
	stats.Report(out, top, cfg.TopK)

	// 4. Save
	if err := table.Save(tbl, cfg.OutputPath); err != nil {
		r.logf("Error: Failed to save %s: %v", cfg.OutputPath, err)
		return nil, err
	}
	fmt.Fprintf(out, "\nProcessed data saved successfully to: %s\n", cfg.OutputPath)

	return &Result{Rows: tbl.Len(), Annotated: tbl.Annotated, Top: top}, nil
}

// annotate returns an error only when the run must stop (cancellation);
// model problems are logged and the table is left unannotated.
func (r *Runner) annotate(ctx context.Context, out io.Writer, tbl *table.Table) error {
	open := r.Open
	if open == nil {
		open = OpenModel
	}
	model, err := open(r.Config.ModelID)
	if err != nil {
		r.logf("Warning: model %q unavailable: %v. Use -model %s, -model %s or a path to a kagome dictionary archive. Continuing without annotations.",
			r.Config.ModelID, err, nlp.EnglishModelID, nlp.JapaneseModelID)
		return nil
	}

	fmt.Fprintln(out, "Processing text (this may take a moment)...")
	an := annotate.New(model)
	an.Workers = r.Config.Workers
	an.Logger = r.Logger
	an.OnProgress = r.OnProgress
	if err := an.Annotate(ctx, tbl); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		r.logf("Warning: annotation failed: %v. Continuing without annotations.", err)
	}
	return nil
}

func (r *Runner) logf(format string, args ...interface{}) {
	if r.Logger != nil {
		r.Logger.Printf(format, args...)
	}
}
