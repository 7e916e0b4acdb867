// Package whisperx extracts audio from video files and segments speech with
// WhisperX.
//
// Extractor selects the first audio stream via ffprobe, converts it to mono
// 16 kHz PCM with ffmpeg, and verifies the WAV header with go-audio/wav.
// Service runs WhisperX through uvx and converts its JSON output into
// segment.Segment values, dropping sub-threshold noise.
//
// Both types accept a command runner override so tests never spawn processes.
package whisperx
