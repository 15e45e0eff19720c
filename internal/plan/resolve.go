package plan

import "sort"

// GapSeconds is the spacing inserted between effects when an overlapping
// window is pushed later.
const GapSeconds = 0.1

// Ranged is any effect with a time window that conflict resolution can move.
type Ranged interface {
	Range() TimeRange
	SetRange(TimeRange)
}

func asRanged[T any, PT interface {
	Ranged
	*T
}](items []T) []Ranged {
	out := make([]Ranged, len(items))
	for i := range items {
		out[i] = PT(&items[i])
	}
	return out
}

// DetectConflicts returns the index pairs of effects whose windows overlap
// by more than zero. Windows that merely touch do not conflict.
func DetectConflicts(items []Ranged) [][2]int {
	var conflicts [][2]int
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if items[i].Range().Overlap(items[j].Range()) > 0 {
				conflicts = append(conflicts, [2]int{i, j})
			}
		}
	}
	return conflicts
}

// Resolve rewrites windows in place so that no two overlap. Effects are
// ordered by start time, then each overlapping effect is pushed to begin
// GapSeconds after its predecessor ends. Durations are preserved; only
// start positions move, so every effect still plays in full. Running
// Resolve on an already-resolved track changes nothing.
func Resolve(items []Ranged) {
	if len(items) < 2 {
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Range(), items[j].Range()
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.End < b.End
	})

	prevEnd := items[0].Range().End
	for i := 1; i < len(items); i++ {
		r := items[i].Range()
		if r.Start < prevEnd {
			d := r.Duration()
			r.Start = prevEnd + GapSeconds
			r.End = r.Start + d
			items[i].SetRange(r)
		}
		prevEnd = r.End
	}
}
