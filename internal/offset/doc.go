// Package offset estimates the constant time shift between subtitle cues and
// detected speech.
//
// Four independent methods run over the two segment lists:
//
//   - FirstSegment aligns the first cue with the first speech segment.
//   - CrossCorrelate scores a grid of candidate shifts by nearest-neighbour
//     distance between segment starts and picks the lowest score.
//   - GapCorrelation compares the rhythm of inter-segment gaps. It only
//     adjusts the reported confidence.
//   - Midpoint aligns the middle segments of long lists.
//
// Reconcile is the single decision point: the cross-correlation offset wins
// unless the midpoint disagrees by more than the configured threshold, in
// which case the two are blended. CheckDirection and TextCorroboration are
// diagnostics; they log and annotate the Estimate but never change the offset.
//
// Positive offsets delay subtitles, negative offsets advance them.
package offset
