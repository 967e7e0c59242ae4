// Package relevance scores documents against a text query with TF-IDF.
//
// Text is case folded, split on anything that is not a letter or a digit,
// stripped of English stop words and reduced to Snowball stems. For a term
// t and document d:
//
//	TF(t, d) = count(t, d) / tokens(d)
//	IDF(t)   = ln(N / df(t))
//
// where N is the number of indexed documents and df(t) the number of
// documents containing t. The score of a query is the sum of TF-IDF over
// its distinct terms.
package relevance
