package plan

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Parameter bounds for clampable effect settings.
const (
	MinZoomScale          = 1.05
	MaxZoomScale          = 1.25
	DefaultZoomScale      = 1.1
	MinSoundVolume        = 0.0
	MaxSoundVolume        = 1.0
	MinTransitionDuration = 0.2
	MaxTransitionDuration = 2.0
	MinGradeIntensity     = 0.0
	MaxGradeIntensity     = 1.0
)

// Zoom pacing policy: too many punch-ins, or punch-ins too close together,
// read as glitches rather than emphasis.
const (
	MaxZoomEffects    = 6
	MinZoomGapSeconds = 8.0
)

// AnimationTemplates is the registry of renderable animation templates.
// Plans referencing anything else are rejected.
var AnimationTemplates = map[string]bool{
	"arrow":       true,
	"circle":      true,
	"underline":   true,
	"confetti":    true,
	"counter":     true,
	"lower-third": true,
}

// ValidationError aggregates every structural problem found in a plan.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid editing plan: %s", strings.Join(e.Problems, "; "))
}

// AsValidationError extracts a *ValidationError from err if present.
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

// Validate checks a plan against the video it will be applied to. Structural
// problems (windows outside the video, inverted ranges, unknown animation
// templates, empty required text) are hard errors and the plan must not be
// rendered. Out-of-bounds parameters are clamped in place and reported as
// warnings, as is the zoom pacing policy, which drops excess zooms rather
// than failing the job.
func Validate(p *EditingPlan, mediaDuration float64) ([]string, error) {
	v := &validator{duration: mediaDuration}

	for i := range p.Highlights {
		v.checkRange(fmt.Sprintf("highlight[%d]", i), p.Highlights[i].TimeRange)
	}
	for i := range p.ZoomEffects {
		z := &p.ZoomEffects[i]
		v.checkRange(fmt.Sprintf("zoom[%d]", i), z.TimeRange)
		if z.Scale == 0 {
			z.Scale = DefaultZoomScale
		}
		v.clamp(fmt.Sprintf("zoom[%d] scale", i), &z.Scale, MinZoomScale, MaxZoomScale)
	}
	for i := range p.TextHighlights {
		th := &p.TextHighlights[i]
		v.checkRange(fmt.Sprintf("text_highlight[%d]", i), th.TimeRange)
		if strings.TrimSpace(th.Text) == "" {
			v.fail(fmt.Sprintf("text_highlight[%d] has empty text", i))
		}
	}
	for i := range p.Animations {
		a := &p.Animations[i]
		v.checkRange(fmt.Sprintf("animation[%d]", i), a.TimeRange)
		if !AnimationTemplates[a.Template] {
			v.fail(fmt.Sprintf("animation[%d] references unknown template %q", i, a.Template))
		}
	}
	for i := range p.BRoll {
		b := &p.BRoll[i]
		v.checkRange(fmt.Sprintf("broll[%d]", i), b.TimeRange)
		if strings.TrimSpace(b.SearchQuery) == "" && strings.TrimSpace(b.AssetURL) == "" {
			v.fail(fmt.Sprintf("broll[%d] has neither search query nor asset", i))
		}
	}
	for i := range p.Cuts {
		v.checkRange(fmt.Sprintf("cut[%d]", i), p.Cuts[i].TimeRange)
	}
	for i := range p.Transitions {
		tr := &p.Transitions[i]
		v.checkPoint(fmt.Sprintf("transition[%d]", i), tr.At)
		v.clamp(fmt.Sprintf("transition[%d] duration", i), &tr.Duration, MinTransitionDuration, MaxTransitionDuration)
	}
	for i := range p.SoundEffects {
		sfx := &p.SoundEffects[i]
		v.checkPoint(fmt.Sprintf("sound_effect[%d]", i), sfx.At)
		if strings.TrimSpace(sfx.Name) == "" {
			v.fail(fmt.Sprintf("sound_effect[%d] has empty name", i))
		}
		v.clamp(fmt.Sprintf("sound_effect[%d] volume", i), &sfx.Volume, MinSoundVolume, MaxSoundVolume)
	}
	if p.ColorGrade != nil {
		v.clamp("color_grade intensity", &p.ColorGrade.Intensity, MinGradeIntensity, MaxGradeIntensity)
	}

	if len(v.problems) > 0 {
		return v.warnings, &ValidationError{Problems: v.problems}
	}

	p.ZoomEffects = v.applyZoomPolicy(p.ZoomEffects)
	return v.warnings, nil
}

type validator struct {
	duration float64
	problems []string
	warnings []string
}

func (v *validator) fail(problem string) {
	v.problems = append(v.problems, problem)
}

func (v *validator) warn(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) checkRange(label string, r TimeRange) {
	if r.Start < 0 || r.End > v.duration {
		v.fail(fmt.Sprintf("%s window [%.2f, %.2f] is outside the video (duration %.2fs)", label, r.Start, r.End, v.duration))
		return
	}
	if r.Start >= r.End {
		v.fail(fmt.Sprintf("%s window [%.2f, %.2f] has non-positive duration", label, r.Start, r.End))
	}
}

func (v *validator) checkPoint(label string, at float64) {
	if at < 0 || at > v.duration {
		v.fail(fmt.Sprintf("%s at %.2fs is outside the video (duration %.2fs)", label, at, v.duration))
	}
}

func (v *validator) clamp(label string, value *float64, min, max float64) {
	switch {
	case *value < min:
		v.warn("%s %.3f below minimum, clamped to %.3f", label, *value, min)
		*value = min
	case *value > max:
		v.warn("%s %.3f above maximum, clamped to %.3f", label, *value, max)
		*value = max
	}
}

// applyZoomPolicy enforces zoom pacing: zooms starting within
// MinZoomGapSeconds of the previous kept zoom are dropped, and at most
// MaxZoomEffects survive.
func (v *validator) applyZoomPolicy(zooms []ZoomEffect) []ZoomEffect {
	if len(zooms) == 0 {
		return zooms
	}
	sorted := make([]ZoomEffect, len(zooms))
	copy(sorted, zooms)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	kept := sorted[:1]
	for _, z := range sorted[1:] {
		last := kept[len(kept)-1]
		if z.Start-last.Start < MinZoomGapSeconds {
			v.warn("zoom at %.2fs dropped: starts within %.0fs of previous zoom", z.Start, MinZoomGapSeconds)
			continue
		}
		kept = append(kept, z)
	}
	if len(kept) > MaxZoomEffects {
		v.warn("%d zooms exceed the maximum of %d, keeping the first %d", len(kept), MaxZoomEffects, MaxZoomEffects)
		kept = kept[:MaxZoomEffects]
	}
	return kept
}
