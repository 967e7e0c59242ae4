// Package pagerank computes PageRank scores over a link graph.
//
// The solver fixes a lexicographic ordering of the graph's vertices, builds
// a transition matrix M and runs power iteration x_next = x · M from the
// uniform vector until the largest component change is within tolerance.
//
// For a source with outbound links, M[src][dst] is
//
//	(1-alpha)/N + alpha/|out(src)|   if dst is a target of src
//	(1-alpha)/N                      otherwise
//
// A dangling source (never crawled, or crawled without links) gets the
// uniform row 1/N. The damping factor is not applied to dangling rows.
//
// Two representations compute the same product:
//   - Dense materialises the N×N matrix and suits small corpora.
//   - Sparse derives x · M from per-vertex outbound contributions and
//     uses memory proportional to the number of links.
//
// The iteration is capped. Reaching the cap without convergence returns a
// *ConvergenceError and no scores.
//
// # Usage
//
//	solver := pagerank.NewSolver(pagerank.WithAlpha(0.85))
//	result, err := solver.Solve(ctx, g)
//	if err != nil {
//		return err
//	}
//	score, _ := result.Score("http://example.com/")
package pagerank
