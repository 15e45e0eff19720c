package plan

import (
	"math"
	"testing"
)

func approx(got, want float64) bool {
	return math.Abs(got-want) < 1e-9
}

func TestOverlapTouchingIsZero(t *testing.T) {
	a := TimeRange{Start: 5, End: 10}
	b := TimeRange{Start: 10, End: 13}
	if got := a.Overlap(b); got != 0 {
		t.Fatalf("overlap = %v, want 0", got)
	}
}

func TestDetectConflicts(t *testing.T) {
	zooms := []ZoomEffect{
		{TimeRange: TimeRange{Start: 5, End: 10}},
		{TimeRange: TimeRange{Start: 8, End: 13}},
		{TimeRange: TimeRange{Start: 20, End: 25}},
	}
	conflicts := DetectConflicts(asRanged(zooms))
	if len(conflicts) != 1 {
		t.Fatalf("conflicts = %v, want exactly one", conflicts)
	}
	if conflicts[0] != [2]int{0, 1} {
		t.Fatalf("conflict pair = %v, want [0 1]", conflicts[0])
	}
}

func TestResolveShiftsOverlapPreservingDuration(t *testing.T) {
	zooms := []ZoomEffect{
		{TimeRange: TimeRange{Start: 5, End: 10}},
		{TimeRange: TimeRange{Start: 8, End: 13}},
	}
	Resolve(asRanged(zooms))

	if !approx(zooms[0].Start, 5) || !approx(zooms[0].End, 10) {
		t.Fatalf("first zoom moved: %+v", zooms[0])
	}
	if !approx(zooms[1].Start, 10.1) || !approx(zooms[1].End, 15.1) {
		t.Fatalf("second zoom = [%v, %v], want [10.1, 15.1]", zooms[1].Start, zooms[1].End)
	}
	if !approx(zooms[1].Duration(), 5) {
		t.Fatalf("duration not preserved: %v", zooms[1].Duration())
	}
}

func TestResolveChainsCascadingOverlaps(t *testing.T) {
	cuts := []CutSegment{
		{TimeRange: TimeRange{Start: 0, End: 4}},
		{TimeRange: TimeRange{Start: 2, End: 6}},
		{TimeRange: TimeRange{Start: 3, End: 5}},
	}
	Resolve(asRanged(cuts))

	ranges := [][2]float64{}
	for _, c := range cuts {
		ranges = append(ranges, [2]float64{c.Start, c.End})
	}
	// Sorted by original start: [0,4], [2,6]->[4.1,8.1], [3,5]->[8.2,10.2].
	want := [][2]float64{{0, 4}, {4.1, 8.1}, {8.2, 10.2}}
	for i := range want {
		if !approx(ranges[i][0], want[i][0]) || !approx(ranges[i][1], want[i][1]) {
			t.Fatalf("ranges = %v, want %v", ranges, want)
		}
	}
	if got := DetectConflicts(asRanged(cuts)); len(got) != 0 {
		t.Fatalf("conflicts remain after resolve: %v", got)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	zooms := []ZoomEffect{
		{TimeRange: TimeRange{Start: 5, End: 10}},
		{TimeRange: TimeRange{Start: 8, End: 13}},
	}
	Resolve(asRanged(zooms))
	first := make([]ZoomEffect, len(zooms))
	copy(first, zooms)

	Resolve(asRanged(zooms))
	for i := range zooms {
		if !approx(zooms[i].Start, first[i].Start) || !approx(zooms[i].End, first[i].End) {
			t.Fatalf("second resolve moved effects: %+v vs %+v", zooms, first)
		}
	}
}

func TestResolveHandlesEmptyAndSingle(t *testing.T) {
	Resolve(nil)
	one := []ZoomEffect{{TimeRange: TimeRange{Start: 1, End: 2}}}
	Resolve(asRanged(one))
	if !approx(one[0].Start, 1) || !approx(one[0].End, 2) {
		t.Fatalf("single effect moved: %+v", one[0])
	}
}

func TestResolveConflictsTreatsTracksIndependently(t *testing.T) {
	p := &EditingPlan{
		ZoomEffects:    []ZoomEffect{{TimeRange: TimeRange{Start: 5, End: 10}, Scale: 1.1}},
		TextHighlights: []TextHighlight{{TimeRange: TimeRange{Start: 5, End: 10}, Text: "boom"}},
	}
	p.ResolveConflicts()

	if !approx(p.ZoomEffects[0].Start, 5) || !approx(p.TextHighlights[0].Start, 5) {
		t.Fatalf("cross-track windows were moved: %+v %+v", p.ZoomEffects[0], p.TextHighlights[0])
	}
}
