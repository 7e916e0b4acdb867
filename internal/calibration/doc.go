// Package calibration learns from user corrections to automatic subtitle
// offsets and applies the learned bias to future estimates.
//
// Every time a user states the offset that actually worked for a video, the
// store records the automatic estimate, the accepted value, and the content
// type inferred from the file name. Later runs add the mean correction for the
// same content type (or the global mean when that type has no history yet).
//
// # Storage
//
// The history is a single JSON file (default:
// ~/.local/share/subsync/sync_calibration.json) holding at most the 50 most
// recent corrections:
//
//	{
//	  "corrections": [{"auto": 2.1, "user": 2.5, "correction": 0.4, "type": "movie"}],
//	  "avg_correction": 0.4
//	}
//
// The file is rewritten in full after every change. A sibling ".lock" file
// serializes read-modify-write cycles across processes.
package calibration
