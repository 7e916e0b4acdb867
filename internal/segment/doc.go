// Package segment defines the timed text records shared by the subtitle codec,
// the speech segmenter, and the offset estimator.
//
// A Segment is a closed time interval in seconds with optional text. Both
// subtitle cues and detected speech spans use the same record so the estimator
// can compare them directly.
package segment
