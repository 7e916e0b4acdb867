// Package logging assembles the slog loggers used by subsync.
//
// It owns the console and JSON handlers, level and output plumbing, and
// context helpers that tag lines with the run ID and pipeline stage. Warnings
// go through WarnWithContext so every WARN line carries an event type, a hint,
// and the user-facing impact. NewNop serves tests and optional wiring.
package logging
