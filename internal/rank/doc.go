// Package rank provides the scoring math for hybrid retrieval: cosine
// similarity for the semantic signal, min-max normalization, and the
// weighted linear fusion that merges semantic and keyword score lists into
// one ranking.
//
// Both input lists are normalized to [0,1] independently before fusion. A
// constant list maps every value to 0.5, sidestepping the undefined 0/0.
// Fusion sorts descending by the weighted sum with a stable tie-break on
// original corpus order, then truncates to top-K.
package rank
