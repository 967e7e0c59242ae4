package pagerank

import (
	"github.com/nao1215/linkrank/internal/graph"
)

// operator applies one power iteration step: dst = x · M.
// Implementations must write every element of dst.
type operator interface {
	size() int
	apply(x, dst []float64)
}

// vertexIndex fixes the vertex ordering used for every vector and matrix
// of a run.
type vertexIndex struct {
	order []string
	pos   map[string]int
}

// newVertexIndex orders the graph's vertices lexicographically.
func newVertexIndex(g *graph.LinkGraph) *vertexIndex {
	order := g.Vertices()
	pos := make(map[string]int, len(order))
	for i, v := range order {
		pos[v] = i
	}
	return &vertexIndex{order: order, pos: pos}
}

// denseMatrix is the full row-major transition matrix.
type denseMatrix struct {
	n    int
	data []float64
}

// newDenseMatrix builds M row by row. Rows of sources with links sum to 1;
// dangling rows are uniform.
func newDenseMatrix(g *graph.LinkGraph, idx *vertexIndex, alpha float64) *denseMatrix {
	n := len(idx.order)
	m := &denseMatrix{n: n, data: make([]float64, n*n)}

	uniform := 1 / float64(n)
	teleport := (1 - alpha) * uniform

	for i, src := range idx.order {
		row := m.row(i)
		links := g.OutboundLinks(src)
		if len(links) == 0 {
			for j := range row {
				row[j] = uniform
			}
			continue
		}

		for j := range row {
			row[j] = teleport
		}
		w := alpha / float64(len(links))
		for _, dst := range links {
			row[idx.pos[dst]] += w
		}
	}

	return m
}

func (m *denseMatrix) size() int { return m.n }

func (m *denseMatrix) row(i int) []float64 {
	return m.data[i*m.n : (i+1)*m.n]
}

func (m *denseMatrix) at(i, j int) float64 {
	return m.data[i*m.n+j]
}

func (m *denseMatrix) apply(x, dst []float64) {
	for j := range dst {
		dst[j] = 0
	}
	for i, xi := range x {
		if xi == 0 {
			continue
		}
		row := m.row(i)
		for j, v := range row {
			dst[j] += xi * v
		}
	}
}

// sparseOperator computes x · M without materialising M.
//
// Every column receives the dangling mass spread uniformly plus the
// teleport share of the linked mass; link targets additionally receive
// alpha * x[src] / outdegree(src).
type sparseOperator struct {
	n        int
	alpha    float64
	out      [][]int
	dangling []int
	linked   []int
}

func newSparseOperator(g *graph.LinkGraph, idx *vertexIndex, alpha float64) *sparseOperator {
	n := len(idx.order)
	op := &sparseOperator{
		n:     n,
		alpha: alpha,
		out:   make([][]int, n),
	}

	for i, src := range idx.order {
		links := g.OutboundLinks(src)
		if len(links) == 0 {
			op.dangling = append(op.dangling, i)
			continue
		}
		targets := make([]int, len(links))
		for k, dst := range links {
			targets[k] = idx.pos[dst]
		}
		op.out[i] = targets
		op.linked = append(op.linked, i)
	}

	return op
}

func (s *sparseOperator) size() int { return s.n }

func (s *sparseOperator) apply(x, dst []float64) {
	var danglingMass, linkedMass float64
	for _, i := range s.dangling {
		danglingMass += x[i]
	}
	for _, i := range s.linked {
		linkedMass += x[i]
	}

	base := (danglingMass + (1-s.alpha)*linkedMass) / float64(s.n)
	for j := range dst {
		dst[j] = base
	}

	for _, i := range s.linked {
		targets := s.out[i]
		w := s.alpha * x[i] / float64(len(targets))
		for _, j := range targets {
			dst[j] += w
		}
	}
}
