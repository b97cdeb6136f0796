// Package annotate runs a model over every headline in a table.
package annotate

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/japaniel/headliner/pkg/nlp"
	"github.com/japaniel/headliner/pkg/table"
)

// Annotator fills the entities and pos_tags columns of a table.
type Annotator struct {
	Model nlp.Model
	// Workers is the number of rows analysed concurrently. 1 is sequential.
	Workers int
	// Logger is used for informational messages. nil means no logging.
	Logger *log.Logger
	// OnProgress is called after each row with the number of rows done.
	// With more than one worker it is called from worker goroutines.
	OnProgress func(done, total int)
}

// New creates a sequential Annotator for m.
func New(m nlp.Model) *Annotator {
	return &Annotator{Model: m, Workers: 1}
}

// Annotate analyses every row's title. Results are committed only when all
// rows succeed; on error the table is left exactly as it was.
func (an *Annotator) Annotate(ctx context.Context, t *table.Table) error {
	if an.Model == nil {
		return fmt.Errorf("annotate: %w", nlp.ErrModelUnavailable)
	}
	docs := make([]nlp.Doc, t.Len())

	if an.Logger != nil {
		an.Logger.Printf("Annotating %d rows with %d worker(s)", t.Len(), max(an.Workers, 1))
	}

	var err error
	if an.Workers <= 1 {
		err = an.sequential(ctx, t, docs)
	} else {
		err = an.parallel(ctx, t, docs)
	}
	if err != nil {
		return err
	}

	for i, row := range t.Rows {
		row.Entities = docs[i].Entities
		row.POSTags = docs[i].Tokens
	}
	t.Annotated = true
	return nil
}

func (an *Annotator) sequential(ctx context.Context, t *table.Table, docs []nlp.Doc) error {
	total := t.Len()
	for i, row := range t.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc, err := an.Model.Analyze(row.Title)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		docs[i] = doc
		if an.OnProgress != nil {
			an.OnProgress(i+1, total)
		}
	}
	return nil
}

// parallel fans rows out over a WorkerPool. Each job writes only its own
// slot in docs, so order is preserved without further coordination.
func (an *Annotator) parallel(parent context.Context, t *table.Table, docs []nlp.Doc) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	pool := NewWorkerPool(an.Workers, an.Workers*2)
	pool.Start(ctx)

	var (
		mu       sync.Mutex
		firstErr error
		done     int64
	)
	total := t.Len()
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
		cancel()
	}

	for i, row := range t.Rows {
		idx, title := i, row.Title
		err := pool.SubmitCtx(ctx, func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc, err := an.Model.Analyze(title)
			if err != nil {
				err = fmt.Errorf("row %d: %w", idx+1, err)
				fail(err)
				return err
			}
			docs[idx] = doc
			n := atomic.AddInt64(&done, 1)
			if an.OnProgress != nil {
				an.OnProgress(int(n), total)
			}
			return nil
		})
		if err != nil {
			break
		}
	}
	pool.Close()

	mu.Lock()
	defer mu.Unlock()
	if firstErr != nil {
		return firstErr
	}
	if err := parent.Err(); err != nil {
		return err
	}
	if n := atomic.LoadInt64(&done); int(n) != total {
		return fmt.Errorf("annotate: %d of %d rows processed", n, total)
	}
	return nil
}
