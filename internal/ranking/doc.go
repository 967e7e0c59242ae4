// Package ranking combines link authority (PageRank) with text relevance
// (TF-IDF) into a final search ordering.
//
// Two combination modes exist:
//   - ModeSum: final = authority*wA + relevance*wR
//   - ModeProduct: final = relevance * authority, the authority acting as
//     a boost on the text score
package ranking
