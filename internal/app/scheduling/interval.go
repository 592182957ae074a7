package scheduling

import (
	"fmt"
	"time"

	"github.com/yigit/unitime/internal/pkg/apperrors"
)

// ErrInvalidInterval is returned for any interval whose start is not strictly
// before its end.
var ErrInvalidInterval = fmt.Errorf("%w: start time must be before end time", apperrors.ErrValidationFailed)

// Interval is the half-open time range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewInterval builds a validated interval.
func NewInterval(start, end time.Time) (Interval, error) {
	iv := Interval{Start: start, End: end}
	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

// Validate returns ErrInvalidInterval unless Start < End.
func (iv Interval) Validate() error {
	if !iv.Start.Before(iv.End) {
		return fmt.Errorf("%w (start=%s, end=%s)", ErrInvalidInterval,
			iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339))
	}
	return nil
}

// Overlaps reports whether the two half-open intervals share at least one
// instant: a < d && c < b. Intervals that only touch at a boundary do not
// overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Duration of the interval.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Clip returns the part of iv inside window, and false when they do not
// overlap.
func (iv Interval) Clip(window Interval) (Interval, bool) {
	if !iv.Overlaps(window) {
		return Interval{}, false
	}
	out := iv
	if out.Start.Before(window.Start) {
		out.Start = window.Start
	}
	if out.End.After(window.End) {
		out.End = window.End
	}
	return out, true
}
