package syncer

import (
	"subsync/internal/segment"
	"subsync/internal/srt"
)

// SRTCodec reads and rewrites SubRip files.
type SRTCodec struct{}

func (SRTCodec) ParseTimings(path string) ([]segment.Segment, error) {
	return srt.ParseTimings(path)
}

func (SRTCodec) ParseTexts(path string) ([]string, error) {
	return srt.ParseTexts(path)
}

func (SRTCodec) Rewrite(path string, offsetSeconds float64, outputPath string) (string, error) {
	return srt.Rewrite(path, offsetSeconds, outputPath)
}

func (SRTCodec) DefaultOutputPath(path string) string {
	return srt.DefaultOutputPath(path)
}
