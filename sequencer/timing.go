package sequencer

import "math"

const (
	TotalSteps  = 64
	StepsPerBar = 16
	Bars        = TotalSteps / StepsPerBar

	DefaultTempo = 120
	MinTempo     = 40
	MaxTempo     = 240

	// MaxEntryTempo bounds direct numeric entry, which may leave the
	// control range but must keep steps long enough to schedule.
	MaxEntryTempo = 999
)

// stepTolerance absorbs float error when elapsed time lands on a boundary
const stepTolerance = 1e-9

// StepDuration returns the length of one 16th-note step in seconds.
func StepDuration(bpm float64) float64 {
	return 60 / (bpm * 4)
}

// LoopDuration returns the length of the whole 4-bar loop in seconds.
func LoopDuration(bpm float64) float64 {
	return StepDuration(bpm) * TotalSteps
}

// StepIndexAt returns the grid step playing elapsed seconds into a session.
// Display only: dispatch is driven by the ordinal counter.
func StepIndexAt(elapsed, bpm float64) int {
	q := math.Floor(elapsed/StepDuration(bpm) + stepTolerance)
	idx := int(math.Mod(q, TotalSteps))
	if idx < 0 {
		idx += TotalSteps
	}
	return idx
}

// OffsetWindow returns the half-open [lo, hi) range of loop offsets owned
// by step.
func OffsetWindow(step int) (lo, hi float64) {
	return float64(step) / TotalSteps, float64(step+1) / TotalSteps
}

// InWindow reports whether a loop offset belongs to step.
func InWindow(offset float64, step int) bool {
	lo, hi := OffsetWindow(step)
	return offset >= lo && offset < hi
}

// StepForOffset returns the step whose window contains offset.
func StepForOffset(offset float64) int {
	s := int(math.Floor(offset * TotalSteps))
	if s < 0 {
		return 0
	}
	if s >= TotalSteps {
		return TotalSteps - 1
	}
	return s
}

// ClampTempo bounds bpm to the range the tempo controls allow.
func ClampTempo(bpm int) int {
	if bpm < MinTempo {
		return MinTempo
	}
	if bpm > MaxTempo {
		return MaxTempo
	}
	return bpm
}
