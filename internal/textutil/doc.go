// Package textutil turns chapter and video titles into filesystem-safe names.
//
// Unsafe punctuation is mapped to fullwidth equivalents rather than dropped,
// so "Q&A: Part 1/2" stays recognisable as "Q&A： Part 1／2". Reserved
// Windows device names get a "_file" suffix and empty results become
// "unnamed".
package textutil
