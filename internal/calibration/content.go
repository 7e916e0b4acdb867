package calibration

import (
	"path/filepath"
	"strings"
)

// ContentType partitions calibration history.
type ContentType string

const (
	Movie       ContentType = "movie"
	TV          ContentType = "tv"
	Documentary ContentType = "documentary"
)

var (
	tvMarkers          = []string{"s0", "s1", "s2", "season", "episode", "ep", "e0"}
	documentaryMarkers = []string{"documentary", "docum", "natgeo", "bbc", "discovery"}
)

// Classify infers a content type from the video file name. The heuristic is
// keyword based and may misclassify; anything unrecognised is a movie.
func Classify(path string) ContentType {
	name := strings.ToLower(filepath.Base(path))
	if containsAny(name, tvMarkers) {
		return TV
	}
	if containsAny(name, documentaryMarkers) {
		return Documentary
	}
	return Movie
}

// ParseContentType maps user input to a content type. Unknown values are movies.
func ParseContentType(value string) ContentType {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "tv", "show", "series":
		return TV
	case "documentary", "doc":
		return Documentary
	default:
		return Movie
	}
}

// String returns the stored form of the content type.
func (c ContentType) String() string {
	if c == "" {
		return string(Movie)
	}
	return string(c)
}

func containsAny(s string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
