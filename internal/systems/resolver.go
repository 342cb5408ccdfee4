package systems

import (
	"context"
	"errors"
	"os"
	"sync"

	"go.uber.org/zap"

	"soltab/internal/domain"
	"soltab/internal/port"
)

// Resolver maps tables to chemical systems using the page text of their
// source documents. Page text is read once per document.
type Resolver struct {
	source port.PageTextSource
	logger *zap.Logger

	mu    sync.Mutex
	cache map[string][]domain.ChemicalSystem
}

// NewResolver creates a Resolver. A nil source resolves nothing.
func NewResolver(source port.PageTextSource, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{source: source, logger: logger, cache: map[string][]domain.ChemicalSystem{}}
}

// Resolve returns the system for the table at ref. Tables without a known
// page, or from documents without readable text, get confidence none.
func (r *Resolver) Resolve(ctx context.Context, ref port.TableRef) domain.ChemicalSystem {
	none := domain.ChemicalSystem{Confidence: domain.SystemConfidenceNone, Page: ref.Page}
	if r.source == nil || ref.Page < 1 {
		return none
	}
	pages := r.pages(ctx, ref.Document)
	if ref.Page > len(pages) {
		return none
	}
	return pages[ref.Page-1]
}

func (r *Resolver) pages(ctx context.Context, doc string) []domain.ChemicalSystem {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.cache[doc]; ok {
		return p
	}
	texts, err := r.source.PageTexts(ctx, doc)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		// Not cached: a later call with a live context reads the text again.
		r.logger.Debug("systems.Resolver: page text read interrupted",
			zap.String("document", doc),
			zap.Error(err),
		)
		return nil
	}
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.logger.Warn("systems.Resolver: reading page text failed",
				zap.String("document", doc),
				zap.Error(err),
			)
		}
		texts = nil
	}
	p := PageSystems(texts)
	r.cache[doc] = p
	return p
}
