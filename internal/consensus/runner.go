package consensus

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"soltab/internal/domain"
	"soltab/internal/port"
)

// MethodError wraps the failure of one extraction method.
type MethodError struct {
	Method string
	Err    error
}

func (e *MethodError) Error() string {
	return fmt.Sprintf("extraction method %s: %v", e.Method, e.Err)
}

func (e *MethodError) Unwrap() error {
	return e.Err
}

// Runner runs every extraction method on a table in parallel and reconciles
// whatever succeeds. A failing method never fails the table.
type Runner struct {
	methods     []port.GridExtractor
	reconciler  *Reconciler
	concurrency int
	logger      *zap.Logger
}

// NewRunner creates a Runner. A concurrency <= 0 runs all methods at once.
func NewRunner(methods []port.GridExtractor, reconciler *Reconciler, concurrency int, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{methods: methods, reconciler: reconciler, concurrency: concurrency, logger: logger}
}

// Methods returns the names of the configured extraction methods.
func (r *Runner) Methods() []string {
	out := make([]string, len(r.methods))
	for i, m := range r.methods {
		out[i] = m.Name()
	}
	return out
}

// Run extracts ref with every method and reconciles the results. A failing
// method is excluded. The errors returned are a canceled context and a
// method handing back a malformed grid (ErrGridShape), which is a contract
// violation rather than bad data.
func (r *Runner) Run(ctx context.Context, ref port.TableRef) (*domain.ConsensusResult, error) {
	extractions := make([]Extraction, len(r.methods))
	errs := make([]error, len(r.methods))

	var g errgroup.Group
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	for i, m := range r.methods {
		g.Go(func() error {
			grid, err := m.Extract(ctx, ref)
			extractions[i] = Extraction{Method: m.Name(), Grid: grid}
			if err != nil {
				errs[i] = &MethodError{Method: m.Name(), Err: err}
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("extracting %s table %d: %w", ref.Document, ref.TableIndex, err)
	}

	for _, err := range errs {
		if errors.Is(err, domain.ErrGridShape) {
			return nil, fmt.Errorf("extracting %s table %d: %w", ref.Document, ref.TableIndex, err)
		}
	}

	usable := make([]Extraction, 0, len(extractions))
	failed := make(map[string]string)
	for i, e := range extractions {
		if errs[i] != nil {
			r.logger.Warn("consensus.Runner: extraction method failed",
				zap.String("document", ref.Document),
				zap.Int("table", ref.TableIndex),
				zap.Error(errs[i]),
			)
			failed[e.Method] = errs[i].Error()
			continue
		}
		usable = append(usable, e)
	}

	res := r.reconciler.Reconcile(usable)
	for m, reason := range failed {
		addFailure(res, m, reason)
	}
	return res, nil
}
