// Package plan models the editing plan produced for a job and the rules
// that make it safe to render: structural validation, parameter clamping,
// and normalization of overlapping time-ranged effects.
package plan

// TimeRange is a half-open window over the video timeline, in seconds.
type TimeRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the length of the window in seconds.
func (r TimeRange) Duration() float64 { return r.End - r.Start }

// Overlap returns the length of the intersection with other, in seconds.
// Windows that merely touch overlap by zero.
func (r TimeRange) Overlap(other TimeRange) float64 {
	low := r.Start
	if other.Start > low {
		low = other.Start
	}
	high := r.End
	if other.End < high {
		high = other.End
	}
	if high <= low {
		return 0
	}
	return high - low
}

// Range returns the window itself; with SetRange it lets effect types that
// embed TimeRange participate in conflict resolution.
func (r *TimeRange) Range() TimeRange { return *r }

// SetRange replaces the window.
func (r *TimeRange) SetRange(v TimeRange) { *r = v }

// HighlightSegment marks a portion of the source worth keeping or promoting.
type HighlightSegment struct {
	TimeRange
	Label string  `json:"label,omitempty"`
	Score float64 `json:"score,omitempty"`
}

// ZoomEffect is a punch-in on the speaker over a window.
type ZoomEffect struct {
	TimeRange
	Scale float64 `json:"scale"`
}

// TextHighlight overlays emphasized caption text over a window.
type TextHighlight struct {
	TimeRange
	Text string `json:"text"`
}

// Animation overlays an animated graphic from a named template.
type Animation struct {
	TimeRange
	Template string `json:"template"`
	Text     string `json:"text,omitempty"`
}

// BRollPlacement covers a window with stock footage found by search query.
type BRollPlacement struct {
	TimeRange
	SearchQuery string `json:"search_query"`
	AssetURL    string `json:"asset_url,omitempty"`
}

// CutSegment removes a window from the final cut.
type CutSegment struct {
	TimeRange
	Reason string `json:"reason,omitempty"`
}

// Transition is a scene change applied at a point in time.
type Transition struct {
	At       float64 `json:"at"`
	Style    string  `json:"style"`
	Duration float64 `json:"duration"`
}

// SoundEffect plays a named audio cue at a point in time.
type SoundEffect struct {
	At     float64 `json:"at"`
	Name   string  `json:"name"`
	Volume float64 `json:"volume"`
}

// ColorGrade applies a whole-video look.
type ColorGrade struct {
	Style     string  `json:"style"`
	Intensity float64 `json:"intensity"`
}

// EditingPlan is the full machine-generated edit for one video.
type EditingPlan struct {
	SchemaVersion  string             `json:"schema_version,omitempty"`
	Highlights     []HighlightSegment `json:"highlights,omitempty"`
	ZoomEffects    []ZoomEffect       `json:"zoom_effects,omitempty"`
	TextHighlights []TextHighlight    `json:"text_highlights,omitempty"`
	Animations     []Animation        `json:"animations,omitempty"`
	BRoll          []BRollPlacement   `json:"broll,omitempty"`
	Cuts           []CutSegment       `json:"cuts,omitempty"`
	Transitions    []Transition       `json:"transitions,omitempty"`
	SoundEffects   []SoundEffect      `json:"sound_effects,omitempty"`
	ColorGrade     *ColorGrade        `json:"color_grade,omitempty"`
}

// ResolveConflicts normalizes every time-ranged effect track in place so no
// two effects of the same kind overlap. Tracks are independent: a zoom may
// still coincide with a text highlight.
func (p *EditingPlan) ResolveConflicts() {
	Resolve(asRanged(p.ZoomEffects))
	Resolve(asRanged(p.TextHighlights))
	Resolve(asRanged(p.Animations))
	Resolve(asRanged(p.BRoll))
	Resolve(asRanged(p.Cuts))
}
