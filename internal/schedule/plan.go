// Package schedule computes the future instants at which a rendered calendar
// must be regenerated.
package schedule

import (
	"sort"
	"time"
)

// DefaultTransitionLookahead bounds the search for the next zone-offset change.
const DefaultTransitionLookahead = 3 // months

// Plan is an ascending, deduplicated list of instants strictly after the
// time it was generated for.
type Plan []time.Time

// Next returns the earliest instant of the plan.
func (p Plan) Next() (time.Time, bool) {
	if len(p) == 0 {
		return time.Time{}, false
	}
	return p[0], true
}

// Planner produces refresh plans for a single time zone.
type Planner struct {
	// Location is the wall-clock zone used for midnights. Nil means time.Local.
	Location *time.Location

	// TransitionLookahead is the number of months searched for a zone-offset
	// change. Zero means DefaultTransitionLookahead; negative disables the search.
	TransitionLookahead int
}

// NewPlanner creates a Planner for loc.
func NewPlanner(loc *time.Location) *Planner {
	return &Planner{Location: loc, TransitionLookahead: DefaultTransitionLookahead}
}

func (p *Planner) location() *time.Location {
	if p == nil || p.Location == nil {
		return time.Local
	}
	return p.Location
}

// PlanRefreshes returns the refresh instants for now: the next local midnight,
// one and six hours after it, the midnight a week out, the midnight one
// calendar month out, and the midnight following the next offset transition.
func (p *Planner) PlanRefreshes(now time.Time) Plan {
	loc := p.location()
	local := now.In(loc)
	y, m, d := local.Date()

	midnight := NextMidnight(now, loc)
	candidates := []time.Time{
		midnight,
		midnight.Add(time.Hour),
		midnight.Add(6 * time.Hour),
		time.Date(y, m, d+7, 0, 0, 0, 0, loc),
		time.Date(y, m+1, d, 0, 0, 0, 0, loc),
	}

	months := DefaultTransitionLookahead
	if p != nil && p.TransitionLookahead != 0 {
		months = p.TransitionLookahead
	}
	if months > 0 {
		until := local.AddDate(0, months, 0)
		if tr, ok := NextTransition(now, until, loc); ok {
			candidates = append(candidates, NextMidnight(tr, loc))
		}
	}

	return normalize(now, candidates)
}

// Sorted returns in as a Plan: ascending and without duplicate instants.
func Sorted(in []time.Time) Plan {
	return normalize(time.Time{}, in)
}

func normalize(now time.Time, in []time.Time) Plan {
	sort.Slice(in, func(i, j int) bool { return in[i].Before(in[j]) })

	out := make(Plan, 0, len(in))
	for _, t := range in {
		if !now.IsZero() && !t.After(now) {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Equal(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// NextMidnight returns the first local midnight in loc strictly after t.
func NextMidnight(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	y, m, d := local.Date()
	next := time.Date(y, m, d+1, 0, 0, 0, 0, loc)
	for !next.After(t) {
		d++
		next = time.Date(y, m, d+1, 0, 0, 0, 0, loc)
	}
	return next
}
