// Package main hosts the subsync CLI entrypoint and command graph.
//
// The Cobra-based command tree runs sync engines in-process: full syncs,
// quick checks, concurrent batches, calibration management, the run ledger,
// and configuration scaffolding. It centralizes configuration resolution and
// structured logging setup so subcommands can focus on output instead of
// wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
