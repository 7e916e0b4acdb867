// Package audioprep conditions extracted audio before speech detection.
//
// Preprocess runs one ffmpeg pass with the FilterChain (leading silence trim,
// loudness normalization, rumble highpass, speech-band boost, compression) and
// resamples to mono 16 kHz. Any failure or timeout degrades to the original
// audio; callers receive a Result, never an error.
//
// DetectSilence is a diagnostic built on ffmpeg's silencedetect filter.
package audioprep
