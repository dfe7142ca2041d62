package schedule

import "time"

const (
	transitionStep      = 24 * time.Hour
	transitionPrecision = time.Minute
)

// NextTransition finds the first instant after from and no later than until
// at which loc's UTC offset changes. It reports false for zones without
// transitions in the window.
func NextTransition(from, until time.Time, loc *time.Location) (time.Time, bool) {
	if loc == nil || !until.After(from) {
		return time.Time{}, false
	}

	lo := from
	_, base := lo.In(loc).Zone()
	for lo.Before(until) {
		hi := lo.Add(transitionStep)
		if hi.After(until) {
			hi = until
		}
		if _, off := hi.In(loc).Zone(); off != base {
			return bisect(lo, hi, base, loc), true
		}
		lo = hi
	}
	return time.Time{}, false
}

// bisect narrows [lo, hi] down to the first minute whose offset differs from base.
func bisect(lo, hi time.Time, base int, loc *time.Location) time.Time {
	for hi.Sub(lo) > transitionPrecision {
		mid := lo.Add(hi.Sub(lo) / 2)
		if _, off := mid.In(loc).Zone(); off != base {
			hi = mid
		} else {
			lo = mid
		}
	}
	return hi.Truncate(transitionPrecision)
}
