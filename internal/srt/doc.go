// Package srt reads and rewrites SubRip subtitle timing.
//
// Parsing yields ordered segment.Segment cues; rewriting shifts every
// "HH:MM:SS,mmm --> HH:MM:SS,mmm" pair by a constant offset while leaving all
// other bytes of the file untouched, so a zero shift is an identity and a
// shift followed by its inverse restores the original timestamps.
package srt
