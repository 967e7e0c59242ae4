package pagerank

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/nao1215/linkrank/internal/graph"
)

// Default solver parameters.
const (
	// DefaultAlpha is the damping factor: the probability of following a
	// link rather than jumping to a random page.
	DefaultAlpha = 0.85

	// DefaultTolerance is the convergence threshold on the largest
	// component change between two iterations.
	DefaultTolerance = 1e-8

	// DefaultMaxIterations caps power iteration.
	DefaultMaxIterations = 10000

	// DefaultSparseThreshold is the vertex count above which Auto switches
	// from the dense to the sparse representation. A dense matrix of this
	// size holds 4M float64 values (32 MiB).
	DefaultSparseThreshold = 2000
)

// Solver runs PageRank power iteration. A Solver holds only parameters and
// can be reused; each Solve call works on its own vectors.
type Solver struct {
	alpha           float64
	tolerance       float64
	maxIterations   int
	representation  Representation
	sparseThreshold int
	logger          *slog.Logger
}

// Option configures a Solver.
type Option func(*Solver)

// WithAlpha sets the damping factor. It must be in (0, 1).
func WithAlpha(alpha float64) Option {
	return func(s *Solver) {
		s.alpha = alpha
	}
}

// WithTolerance sets the convergence threshold. It must be positive.
func WithTolerance(tolerance float64) Option {
	return func(s *Solver) {
		s.tolerance = tolerance
	}
}

// WithMaxIterations sets the iteration cap. It must be positive.
func WithMaxIterations(n int) Option {
	return func(s *Solver) {
		s.maxIterations = n
	}
}

// WithRepresentation selects the transition matrix representation.
func WithRepresentation(r Representation) Option {
	return func(s *Solver) {
		s.representation = r
	}
}

// WithSparseThreshold sets the vertex count above which Auto uses Sparse.
func WithSparseThreshold(n int) Option {
	return func(s *Solver) {
		if n > 0 {
			s.sparseThreshold = n
		}
	}
}

// WithLogger sets the logger used for convergence diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Solver) {
		s.logger = logger
	}
}

// NewSolver creates a Solver with the default parameters overridden by opts.
func NewSolver(opts ...Option) *Solver {
	s := &Solver{
		alpha:           DefaultAlpha,
		tolerance:       DefaultTolerance,
		maxIterations:   DefaultMaxIterations,
		representation:  Auto,
		sparseThreshold: DefaultSparseThreshold,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Alpha returns the damping factor.
func (s *Solver) Alpha() float64 { return s.alpha }

// Tolerance returns the convergence threshold.
func (s *Solver) Tolerance() float64 { return s.tolerance }

// MaxIterations returns the iteration cap.
func (s *Solver) MaxIterations() int { return s.maxIterations }

// Validate checks the solver parameters.
func (s *Solver) Validate() error {
	// NaN fails both comparisons, so test for the valid range.
	if !(s.alpha > 0 && s.alpha < 1) {
		return ErrInvalidAlpha
	}
	if !(s.tolerance > 0) {
		return ErrInvalidTolerance
	}
	if s.maxIterations <= 0 {
		return ErrInvalidMaxIterations
	}
	return nil
}

// RepresentationFor returns the representation Solve would use for a graph
// with n vertices.
func (s *Solver) RepresentationFor(n int) Representation {
	if s.representation != Auto {
		return s.representation
	}
	if n > s.sparseThreshold {
		return Sparse
	}
	return Dense
}

// Solve computes PageRank scores for every vertex of g.
//
// The context is checked between iterations; cancellation aborts the run
// without a result. Reaching the iteration cap returns *ConvergenceError.
func (s *Solver) Solve(ctx context.Context, g *graph.LinkGraph) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if g == nil || g.VertexCount() == 0 {
		return nil, graph.ErrEmptyCorpus
	}

	idx := newVertexIndex(g)
	n := len(idx.order)

	repr := s.RepresentationFor(n)
	var op operator
	switch repr {
	case Sparse:
		op = newSparseOperator(g, idx, s.alpha)
	default:
		op = newDenseMatrix(g, idx, s.alpha)
	}

	start := time.Now()
	x, iterations, err := iterate(ctx, op, uniformVector(n), s.tolerance, s.maxIterations)
	if err != nil {
		s.logger.Debug("pagerank failed",
			"vertices", n,
			"representation", repr.String(),
			"error", err,
		)
		return nil, err
	}

	s.logger.Debug("pagerank converged",
		"vertices", n,
		"representation", repr.String(),
		"iterations", iterations,
		"elapsed", time.Since(start),
	)

	scores := make(map[string]float64, n)
	for i, url := range idx.order {
		scores[url] = x[i]
	}

	return &Result{
		scores:         scores,
		iterations:     iterations,
		representation: repr,
	}, nil
}

// Solve is a convenience wrapper for NewSolver(WithAlpha(alpha),
// WithTolerance(tolerance)).Solve(ctx, g).
func Solve(ctx context.Context, g *graph.LinkGraph, alpha, tolerance float64) (*Result, error) {
	return NewSolver(WithAlpha(alpha), WithTolerance(tolerance)).Solve(ctx, g)
}

// uniformVector returns the initial rank vector 1/n per component.
func uniformVector(n int) []float64 {
	x := make([]float64, n)
	v := 1 / float64(n)
	for i := range x {
		x[i] = v
	}
	return x
}

// iterate runs x_next = x · M until the largest component change is within
// tolerance, and returns the final vector and the number of products
// computed. A NaN delta never satisfies the tolerance.
func iterate(ctx context.Context, op operator, x0 []float64, tolerance float64, maxIterations int) ([]float64, int, error) {
	x := make([]float64, len(x0))
	copy(x, x0)
	next := make([]float64, op.size())

	var delta float64
	for it := 1; it <= maxIterations; it++ {
		if err := ctx.Err(); err != nil {
			return nil, it - 1, fmt.Errorf("pagerank aborted after %d iterations: %w", it-1, err)
		}

		op.apply(x, next)
		delta = maxAbsDiff(x, next)
		x, next = next, x

		if delta <= tolerance {
			return x, it, nil
		}
	}

	return nil, maxIterations, &ConvergenceError{
		Iterations: maxIterations,
		Delta:      delta,
		Tolerance:  tolerance,
	}
}

// maxAbsDiff returns max_i |a[i] - b[i]|, or NaN if any difference is NaN.
func maxAbsDiff(a, b []float64) float64 {
	var m float64
	for i := range a {
		d := math.Abs(a[i] - b[i])
		if math.IsNaN(d) {
			return d
		}
		if d > m {
			m = d
		}
	}
	return m
}
