// Package services defines shared utilities consumed by the sync pipeline and
// its external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs and stage names for logging.
//   - Structured error markers plus the Wrap helper so failures from ffmpeg,
//     WhisperX, and file I/O can be classified into run outcomes.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
