// Package chunker splits extracted document text into overlapping windows
// for embedding and retrieval.
//
// Windows target a fixed size with a fixed overlap between consecutive
// chunks, so a phrase falling on a window edge still appears whole in one
// of them. Rather than cutting at an arbitrary byte, each window is
// trimmed back to the most natural boundary inside its tail: a paragraph
// break first, then a line break, then a sentence end, then a word gap.
// Only when none of those exist does a window end mid-word.
//
// Splitting operates on runes, never bytes, so multi-byte characters are
// not torn apart.
package chunker
