// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect runs ffprobe and decodes streams and format metadata. The extractor
// uses FirstAudioStream to pick the track it decodes and DurationSeconds to
// detect truncated extractions.
package ffprobe
