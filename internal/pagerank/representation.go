package pagerank

import (
	"fmt"
	"strings"
)

// Representation selects how the transition matrix is held in memory.
type Representation int

const (
	// Auto picks Dense for small graphs and Sparse above the sparse threshold.
	Auto Representation = iota

	// Dense materialises the full N×N transition matrix.
	Dense

	// Sparse computes x · M from outbound link lists.
	Sparse
)

// String returns the lower-case name of the representation.
func (r Representation) String() string {
	switch r {
	case Auto:
		return "auto"
	case Dense:
		return "dense"
	case Sparse:
		return "sparse"
	default:
		return fmt.Sprintf("representation(%d)", int(r))
	}
}

// ParseRepresentation parses "auto", "dense" or "sparse" (case-insensitive).
func ParseRepresentation(s string) (Representation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return Auto, nil
	case "dense":
		return Dense, nil
	case "sparse":
		return Sparse, nil
	default:
		return Auto, fmt.Errorf("unknown matrix representation %q (want auto, dense or sparse)", s)
	}
}
