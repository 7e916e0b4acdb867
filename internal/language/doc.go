// Package language normalizes language hints for the speech segmenter.
//
// Codes come from configuration or from ffprobe stream tags and may be ISO
// 639-1, ISO 639-2 (either variant), BCP 47, or an English name. Parsing is
// delegated to golang.org/x/text/language.
package language
