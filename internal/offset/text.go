package offset

import (
	"unicode/utf8"

	"subsync/internal/segment"
	"subsync/internal/textutil"
)

// TextCheck is the outcome of comparing cue text with transcribed speech.
type TextCheck struct {
	Pairs   int     `json:"pairs"`
	Matches int     `json:"matches"`
	Ratio   float64 `json:"ratio"`
}

// TextCorroboration compares the leading words of the first few cues with the
// corresponding speech transcriptions. A pair counts as a match when both
// texts are long enough and their leading-word sets share TextMinOverlap words.
func TextCorroboration(subTexts []string, speech []segment.Segment, p Params) TextCheck {
	p = p.withDefaults()
	pairs := min(p.TextPairs, len(subTexts), len(speech))
	check := TextCheck{Pairs: pairs}
	if pairs == 0 {
		return check
	}
	for i := 0; i < pairs; i++ {
		sub := textutil.Fold(subTexts[i])
		spoken := textutil.Fold(speech[i].Text)
		if utf8.RuneCountInString(sub) <= p.TextMinLength || utf8.RuneCountInString(spoken) <= p.TextMinLength {
			continue
		}
		overlap := textutil.Overlap(
			textutil.LeadingWordSet(sub, p.TextLeadingWords),
			textutil.LeadingWordSet(spoken, p.TextLeadingWords),
		)
		if overlap >= p.TextMinOverlap {
			check.Matches++
		}
	}
	check.Ratio = float64(check.Matches) / float64(pairs)
	return check
}
