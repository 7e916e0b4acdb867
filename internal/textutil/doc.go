// Package textutil normalizes transcript and subtitle text for comparison.
//
// Text is Unicode-decomposed, stripped of combining marks, lowercased, and
// reduced to letters, digits, and single spaces before word-level comparison.
package textutil
