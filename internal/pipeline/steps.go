package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/linkrank/internal/cache"
	"github.com/nao1215/linkrank/internal/graph"
	"github.com/nao1215/linkrank/internal/model"
	"github.com/nao1215/linkrank/internal/pagerank"
)

// Step names.
const (
	StepLoadCorpus  = "load_corpus"
	StepBuildGraph  = "build_graph"
	StepCacheLookup = "cache_lookup"
	StepSolve       = "solve"
	StepCacheStore  = "cache_store"
	StepPersist     = "persist"
)

// ResultCache stores ranking results by corpus fingerprint.
// *cache.Cache satisfies it.
type ResultCache interface {
	Get(fingerprint string) (*cache.Entry, bool, error)
	Put(fingerprint string, entry *cache.Entry) error
}

// RunSaver persists completed runs.
// *database.RankDB satisfies it.
type RunSaver interface {
	SaveRankRun(ctx context.Context, run *model.RankRun) error
}

// errNoDocuments is returned when a step runs before documents are loaded.
var errNoDocuments = errors.New("no documents loaded")

// LoadCorpusStep reads the crawled documents from the state's source.
type LoadCorpusStep struct{}

// NewLoadCorpusStep creates a LoadCorpusStep.
func NewLoadCorpusStep() *LoadCorpusStep {
	return &LoadCorpusStep{}
}

// Name returns the step name.
func (s *LoadCorpusStep) Name() string {
	return StepLoadCorpus
}

// Do executes the load step.
func (s *LoadCorpusStep) Do(ctx context.Context, state *State) error {
	if state.Source == nil {
		return fmt.Errorf("no corpus source: %w", graph.ErrEmptyCorpus)
	}

	docs, err := state.Source.Documents(ctx)
	if err != nil {
		return err
	}

	state.Documents = docs
	state.Run.DocumentCount = len(docs)
	return nil
}

// BuildGraphStep turns the loaded documents into a link graph.
type BuildGraphStep struct{}

// NewBuildGraphStep creates a BuildGraphStep.
func NewBuildGraphStep() *BuildGraphStep {
	return &BuildGraphStep{}
}

// Name returns the step name.
func (s *BuildGraphStep) Name() string {
	return StepBuildGraph
}

// Do executes the build step.
func (s *BuildGraphStep) Do(_ context.Context, state *State) error {
	g, err := graph.Build(state.Documents)
	if err != nil {
		return err
	}

	state.Graph = g
	state.Run.VertexCount = g.VertexCount()
	state.Run.EdgeCount = g.EdgeCount()
	state.Run.DanglingCount = g.DanglingCount()
	return nil
}

// CacheLookupStep restores scores of an identical earlier run.
// Cache failures are recorded as warnings.
type CacheLookupStep struct {
	cache  ResultCache
	params cache.Params
	logger *slog.Logger
}

// NewCacheLookupStep creates a lookup step for results solved with solver.
func NewCacheLookupStep(c ResultCache, solver *pagerank.Solver, logger *slog.Logger) *CacheLookupStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheLookupStep{
		cache:  c,
		params: paramsOf(solver),
		logger: logger,
	}
}

// Name returns the step name.
func (s *CacheLookupStep) Name() string {
	return StepCacheLookup
}

// Do executes the lookup step.
func (s *CacheLookupStep) Do(_ context.Context, state *State) error {
	if len(state.Documents) == 0 {
		return errNoDocuments
	}

	fp := cache.Fingerprint(state.Documents, s.params)
	state.Run.Fingerprint = fp

	entry, ok, err := s.cache.Get(fp)
	if err != nil {
		state.Run.AddWarning(fmt.Sprintf("cache lookup failed: %v", err))
		return nil
	}
	if !ok {
		s.logger.Debug("cache miss", "fingerprint", fp)
		return nil
	}

	// A stale entry from a different graph would break the vertex set.
	if len(entry.Scores) != state.Graph.VertexCount() {
		state.Run.AddWarning("cache entry does not match the link graph; ignoring it")
		return nil
	}

	s.logger.Info("cache hit", "corpus", state.Run.Corpus, "fingerprint", fp)
	state.Result = pagerank.NewResult(entry.Scores, entry.Iterations)
	state.Run.CacheHit = true
	return nil
}

// SolveStep computes PageRank over the link graph.
// When the cache already supplied a result, it only records it.
type SolveStep struct {
	solver  *pagerank.Solver
	metrics *Metrics
}

// SolveStepOption configures a SolveStep.
type SolveStepOption func(*SolveStep)

// WithSolveMetrics records solve duration and iterations.
func WithSolveMetrics(m *Metrics) SolveStepOption {
	return func(s *SolveStep) {
		s.metrics = m
	}
}

// NewSolveStep creates a SolveStep.
func NewSolveStep(solver *pagerank.Solver, opts ...SolveStepOption) *SolveStep {
	s := &SolveStep{solver: solver}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *SolveStep) Name() string {
	return StepSolve
}

// Do executes the solve step.
func (s *SolveStep) Do(ctx context.Context, state *State) error {
	run := state.Run
	run.Alpha = s.solver.Alpha()
	run.Tolerance = s.solver.Tolerance()
	run.MaxIterations = s.solver.MaxIterations()

	if state.Result == nil {
		start := time.Now()
		res, err := s.solver.Solve(ctx, state.Graph)
		if s.metrics != nil {
			s.metrics.ObserveSolve(time.Since(start), res, err)
		}
		if err != nil {
			return err
		}
		state.Result = res
	}

	run.Scores = state.Result.Scores()
	run.Iterations = state.Result.Iterations()
	if run.CacheHit {
		run.Representation = "cache"
	} else {
		run.Representation = state.Result.Representation().String()
	}
	return nil
}

// CacheStoreStep remembers freshly solved scores.
// Cache failures are recorded as warnings.
type CacheStoreStep struct {
	cache ResultCache
}

// NewCacheStoreStep creates a CacheStoreStep.
func NewCacheStoreStep(c ResultCache) *CacheStoreStep {
	return &CacheStoreStep{cache: c}
}

// Name returns the step name.
func (s *CacheStoreStep) Name() string {
	return StepCacheStore
}

// Do executes the store step.
func (s *CacheStoreStep) Do(_ context.Context, state *State) error {
	run := state.Run
	if run.CacheHit || state.Result == nil || run.Fingerprint == "" {
		return nil
	}

	err := s.cache.Put(run.Fingerprint, &cache.Entry{
		Scores:         run.Scores,
		Iterations:     run.Iterations,
		Representation: run.Representation,
	})
	if err != nil {
		run.AddWarning(fmt.Sprintf("cache store failed: %v", err))
	}
	return nil
}

// PersistStep saves the run and its scores.
// Storage failures are recorded as warnings.
type PersistStep struct {
	store RunSaver
}

// NewPersistStep creates a PersistStep.
func NewPersistStep(store RunSaver) *PersistStep {
	return &PersistStep{store: store}
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return StepPersist
}

// Do executes the persist step.
func (s *PersistStep) Do(ctx context.Context, state *State) error {
	run := state.Run
	run.Duration = time.Since(run.StartedAt)
	if err := s.store.SaveRankRun(ctx, run); err != nil {
		run.AddWarning(fmt.Sprintf("persist failed: %v", err))
	}
	return nil
}

// paramsOf returns the cache parameters of solver.
func paramsOf(solver *pagerank.Solver) cache.Params {
	return cache.Params{
		Alpha:         solver.Alpha(),
		Tolerance:     solver.Tolerance(),
		MaxIterations: solver.MaxIterations(),
	}
}

// Components are the collaborators of a standard ranking pipeline.
// Cache, Store and Metrics are optional.
type Components struct {
	Solver  *pagerank.Solver
	Cache   ResultCache
	Store   RunSaver
	Metrics *Metrics
	Logger  *slog.Logger
}

// NewRankPipeline assembles the standard ranking pipeline.
func NewRankPipeline(c Components) *Pipeline {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := New(WithLogger(logger), WithMetrics(c.Metrics))
	p.AddSteps(NewLoadCorpusStep(), NewBuildGraphStep())

	if c.Cache != nil {
		p.AddStep(NewCacheLookupStep(c.Cache, c.Solver, logger))
	}

	p.AddStep(NewSolveStep(c.Solver, WithSolveMetrics(c.Metrics)))

	if c.Cache != nil {
		p.AddStep(NewCacheStoreStep(c.Cache))
	}
	if c.Store != nil {
		p.AddStep(NewPersistStep(c.Store))
	}

	return p
}
