package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"soltab/internal/consensus"
	"soltab/internal/consolidate"
	"soltab/internal/domain"
	"soltab/internal/header"
	"soltab/internal/metrics"
	"soltab/internal/phase"
	"soltab/internal/port"
	"soltab/internal/table"
	"soltab/internal/validator"
	"soltab/internal/validator/science"
)

// Outcome labels for processed tables.
const (
	OutcomeProcessed    = "processed"
	OutcomeNoExtraction = "no_extraction"
	OutcomeFailed       = "failed"
)

// SystemResolver names the chemical system of a table.
type SystemResolver interface {
	Resolve(ctx context.Context, ref port.TableRef) domain.ChemicalSystem
}

// ProcessorConfig holds per-table processing options.
type ProcessorConfig struct {
	// UseColumnAnalysis feeds a column-analysis pass to type propagation.
	UseColumnAnalysis bool
}

// Processor turns one table reference into a validated TableRecord:
// extraction consensus, cell cleaning and phase splitting, header
// inference, typing, system identification and validation.
type Processor struct {
	runner     *consensus.Runner
	splitter   *phase.Splitter
	inferencer *header.Inferencer
	systems    SystemResolver
	engine     *validator.Engine
	metrics    *metrics.Recorder
	cfg        ProcessorConfig
	logger     *zap.Logger
	now        func() time.Time
}

// NewProcessor creates a Processor. systems and rec may be nil.
func NewProcessor(
	runner *consensus.Runner,
	splitter *phase.Splitter,
	inferencer *header.Inferencer,
	systems SystemResolver,
	engine *validator.Engine,
	rec *metrics.Recorder,
	cfg ProcessorConfig,
	logger *zap.Logger,
) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		runner:     runner,
		splitter:   splitter,
		inferencer: inferencer,
		systems:    systems,
		engine:     engine,
		metrics:    rec,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock replaces the time source used for ProcessedAt.
func (p *Processor) WithClock(now func() time.Time) *Processor {
	p.now = now
	return p
}

// RecordID is the stable identifier of the record for a table. Re-processing
// the same table yields the same ID.
func RecordID(prov domain.Provenance) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("soltab:table:"+prov.TableName()))
}

// Process runs the full per-table pipeline. Bad data never fails: it lowers
// the score. Errors are a canceled context or ErrGridShape from a method.
func (p *Processor) Process(ctx context.Context, ref port.TableRef) (*domain.TableRecord, error) {
	start := time.Now()
	prov := domain.Provenance{SourceDocument: ref.Document, Page: ref.Page, TableIndex: ref.TableIndex}

	res, err := p.runner.Run(ctx, ref)
	if err != nil {
		return nil, err
	}
	p.metrics.StageDuration("extract", time.Since(start))
	for m := range res.Failures {
		p.metrics.MethodFailed(m)
	}

	rec := &domain.TableRecord{
		ID:          RecordID(prov),
		Provenance:  prov,
		Consensus:   res,
		TableTypes:  []domain.ColumnType{},
		ProcessedAt: p.now().UTC(),
	}
	rec.System = p.resolveSystem(ctx, ref)

	subject := &science.Subject{
		Table:     &domain.Table{Provenance: prov},
		System:    rec.System.Name,
		Consensus: res,
	}

	outcome := OutcomeNoExtraction
	if !res.NoExtraction && res.Merged != nil {
		outcome = OutcomeProcessed
		p.metrics.Agreement(res.Agreement)
		p.build(rec, subject, res.Merged)
	}

	stage := time.Now()
	report := p.engine.Validate(ctx, subject)
	p.metrics.StageDuration("validate", time.Since(stage))

	rec.Table = subject.Table
	rec.Flags = report.Flags
	rec.Score = report.Score
	rec.Priority = report.Priority
	rec.NeedsReview = report.NeedsReview || res.NeedsReview

	p.metrics.Quality(rec.Score, flagCounts(rec.Flags))
	p.metrics.TableProcessed(outcome, time.Since(start))
	p.logger.Info("service.Processor: table processed",
		zap.String("table", prov.Label()),
		zap.String("outcome", outcome),
		zap.Int("score", rec.Score),
		zap.String("priority", string(rec.Priority)),
		zap.Bool("needs_review", rec.NeedsReview),
		zap.Duration("elapsed", time.Since(start)),
	)
	return rec, nil
}

func (p *Processor) build(rec *domain.TableRecord, subject *science.Subject, merged *domain.Grid) {
	g := merged
	if g.Provenance.Page == 0 && rec.Provenance.Page > 0 {
		prov := g.Provenance
		prov.Page = rec.Provenance.Page
		g = g.WithProvenance(prov)
	}
	rec.Provenance.ExtractionMethod = g.Provenance.ExtractionMethod

	stage := time.Now()
	split, sum := p.splitter.Process(g)
	p.metrics.StageDuration("split", time.Since(stage))

	stage = time.Now()
	in := &header.Input{Grid: split}
	if p.cfg.UseColumnAnalysis {
		in.Upstream = header.Analyze(split)
	}
	hres := p.inferencer.Infer(in)
	p.metrics.StageDuration("header", time.Since(stage))

	tbl := table.Build(hres.Grid, hres.Assignments)
	tbl.Provenance = rec.Provenance

	rec.HeaderMethod = hres.Method
	rec.HeaderConfidence = hres.Confidence
	rec.Assignments = hres.Assignments
	rec.PhasesFound = sum.PhasesFound
	rec.TableTypes = consolidate.ClassifyTableTypes(tbl)

	subject.Table = tbl
	subject.Assignments = hres.Assignments
	subject.HeaderConfidence = hres.Confidence
}

func (p *Processor) resolveSystem(ctx context.Context, ref port.TableRef) domain.ChemicalSystem {
	if p.systems == nil {
		return domain.ChemicalSystem{Confidence: domain.SystemConfidenceNone, Page: ref.Page}
	}
	return p.systems.Resolve(ctx, ref)
}

// flagCounts groups flags by severity and kind for metrics.
func flagCounts(flags []domain.ValidationFlag) map[string]map[string]int {
	out := map[string]map[string]int{}
	for _, f := range flags {
		sev := string(f.Severity)
		if out[sev] == nil {
			out[sev] = map[string]int{}
		}
		out[sev][f.Kind]++
	}
	return out
}
