package offset

import (
	"fmt"
	"math"
)

// Direction labels.
const (
	DirectionDelay   = "delay"
	DirectionAdvance = "advance"
	DirectionInSync  = "in sync"
)

// Round snaps offset to the nearest multiple of precision.
func Round(offset, precision float64) float64 {
	if precision <= 0 {
		return offset
	}
	snapped := math.Round(offset/precision) * precision
	// Trim float noise such as 2.9999999999999996.
	snapped = math.Round(snapped*1e9) / 1e9
	if snapped == 0 {
		return 0
	}
	return snapped
}

// Direction reports which way subtitles must move.
func Direction(offset float64) string {
	switch {
	case offset > 0:
		return DirectionDelay
	case offset < 0:
		return DirectionAdvance
	default:
		return DirectionInSync
	}
}

// Describe renders the user-facing action for an offset.
func Describe(offset float64) string {
	switch Direction(offset) {
	case DirectionDelay:
		return fmt.Sprintf("delay subtitles by %.2fs", offset)
	case DirectionAdvance:
		return fmt.Sprintf("advance subtitles by %.2fs", math.Abs(offset))
	default:
		return "subtitles already in sync"
	}
}

// InSync reports whether offset is below threshold in magnitude.
func InSync(offset, threshold float64) bool {
	return math.Abs(offset) < threshold
}
