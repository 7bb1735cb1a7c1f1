package render

import (
	"fmt"

	"github.com/atlasmap-sc/scatter/internal/viewport"
)

// Reason tells a render pass why it runs and therefore how much work it
// may skip.
type Reason int

const (
	// Dirty recomputes ranges and redraws everything.
	Dirty Reason = iota
	// SelectionChanged redraws the selection overlay only.
	SelectionChanged
	PerformScale
	PerformTranslate
	PerformScaleAndTranslate
	AfterScale
	AfterTranslate
	AfterScaleAndTranslate
)

var reasonNames = [...]string{
	Dirty:                    "DIRTY",
	SelectionChanged:         "SELECTION_CHANGED",
	PerformScale:             "PERFORM_SCALE",
	PerformTranslate:         "PERFORM_TRANSLATE",
	PerformScaleAndTranslate: "PERFORM_SCALE_AND_TRANSLATE",
	AfterScale:               "AFTER_SCALE",
	AfterTranslate:           "AFTER_TRANSLATE",
	AfterScaleAndTranslate:   "AFTER_SCALE_AND_TRANSLATE",
}

func (r Reason) String() string {
	if r < 0 || int(r) >= len(reasonNames) {
		return fmt.Sprintf("Reason(%d)", int(r))
	}
	return reasonNames[r]
}

// During reports whether r is emitted while a gesture is in progress.
func (r Reason) During() bool {
	return r == PerformScale || r == PerformTranslate || r == PerformScaleAndTranslate
}

// PerformReason returns the in-gesture reason for a transform change.
func PerformReason(c viewport.Change) (Reason, bool) {
	switch c {
	case viewport.Translate:
		return PerformTranslate, true
	case viewport.Scale:
		return PerformScale, true
	case viewport.ScaleAndTranslate:
		return PerformScaleAndTranslate, true
	}
	return Dirty, false
}

// AfterReason returns the settle reason for the combined changes of a
// gesture.
func AfterReason(scaled, translated bool) (Reason, bool) {
	switch {
	case scaled && translated:
		return AfterScaleAndTranslate, true
	case scaled:
		return AfterScale, true
	case translated:
		return AfterTranslate, true
	}
	return Dirty, false
}
