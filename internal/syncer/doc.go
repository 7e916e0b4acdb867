// Package syncer runs the end-to-end subtitle auto-sync pipeline.
//
// A run is strictly sequential:
//
//	extract audio -> preprocess -> detect speech -> parse subtitle timings ->
//	estimate offset -> [calibrate] -> decide -> rewrite (or copy) -> cleanup
//
// Each stage depends on the complete output of the previous one. The context
// is checked between stages, so cancellation stops a run before the next
// external tool is started but never interrupts one mid-flight. Temporary
// audio lives in a per-run directory under the work directory and is removed
// on every path; a failed run leaves no output file behind.
//
// Engine.QuickCheck runs the same analysis without writing anything, and
// Engine.RunBatch runs several independent syncs concurrently with results in
// request order.
package syncer
