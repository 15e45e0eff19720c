package plan

import (
	"strings"
	"testing"
)

func validPlan() *EditingPlan {
	return &EditingPlan{
		ZoomEffects: []ZoomEffect{
			{TimeRange: TimeRange{Start: 5, End: 10}, Scale: 1.1},
		},
		TextHighlights: []TextHighlight{
			{TimeRange: TimeRange{Start: 12, End: 15}, Text: "key point"},
		},
		Animations: []Animation{
			{TimeRange: TimeRange{Start: 20, End: 23}, Template: "arrow"},
		},
		Transitions:  []Transition{{At: 30, Style: "crossfade", Duration: 0.5}},
		SoundEffects: []SoundEffect{{At: 35, Name: "whoosh", Volume: 0.8}},
	}
}

func TestValidateAcceptsWellFormedPlan(t *testing.T) {
	warnings, err := Validate(validPlan(), 120)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none", warnings)
	}
}

func TestValidateRejectsStructuralProblems(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*EditingPlan)
		problem string
	}{
		{
			name:    "window past end of video",
			mutate:  func(p *EditingPlan) { p.ZoomEffects[0].End = 500 },
			problem: "outside the video",
		},
		{
			name: "inverted window",
			mutate: func(p *EditingPlan) {
				p.ZoomEffects[0] = ZoomEffect{TimeRange: TimeRange{Start: 10, End: 10}, Scale: 1.1}
			},
			problem: "non-positive duration",
		},
		{
			name:    "unknown animation template",
			mutate:  func(p *EditingPlan) { p.Animations[0].Template = "explode" },
			problem: "unknown template",
		},
		{
			name:    "empty text highlight",
			mutate:  func(p *EditingPlan) { p.TextHighlights[0].Text = "  " },
			problem: "empty text",
		},
		{
			name: "broll with no query or asset",
			mutate: func(p *EditingPlan) {
				p.BRoll = []BRollPlacement{{TimeRange: TimeRange{Start: 40, End: 44}}}
			},
			problem: "neither search query nor asset",
		},
		{
			name:    "negative transition point",
			mutate:  func(p *EditingPlan) { p.Transitions[0].At = -1 },
			problem: "outside the video",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := validPlan()
			tc.mutate(p)
			_, err := Validate(p, 120)
			if err == nil {
				t.Fatal("expected validation error")
			}
			verr, ok := AsValidationError(err)
			if !ok {
				t.Fatalf("err = %T, want *ValidationError", err)
			}
			if !strings.Contains(verr.Error(), tc.problem) {
				t.Fatalf("error %q missing %q", verr.Error(), tc.problem)
			}
		})
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	p := validPlan()
	p.Animations[0].Template = "explode"
	p.TextHighlights[0].Text = ""
	_, err := Validate(p, 120)
	verr, ok := AsValidationError(err)
	if !ok {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if len(verr.Problems) != 2 {
		t.Fatalf("problems = %v, want 2", verr.Problems)
	}
}

func TestValidateClampsParametersWithWarnings(t *testing.T) {
	p := validPlan()
	p.ZoomEffects[0].Scale = 3.0
	p.SoundEffects[0].Volume = 1.4
	p.Transitions[0].Duration = 0.05
	p.ColorGrade = &ColorGrade{Style: "warm", Intensity: -0.2}

	warnings, err := Validate(p, 120)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(warnings) != 4 {
		t.Fatalf("warnings = %v, want 4", warnings)
	}
	if p.ZoomEffects[0].Scale != MaxZoomScale {
		t.Fatalf("zoom scale = %v, want %v", p.ZoomEffects[0].Scale, MaxZoomScale)
	}
	if p.SoundEffects[0].Volume != MaxSoundVolume {
		t.Fatalf("volume = %v, want %v", p.SoundEffects[0].Volume, MaxSoundVolume)
	}
	if p.Transitions[0].Duration != MinTransitionDuration {
		t.Fatalf("transition duration = %v, want %v", p.Transitions[0].Duration, MinTransitionDuration)
	}
	if p.ColorGrade.Intensity != MinGradeIntensity {
		t.Fatalf("grade intensity = %v, want %v", p.ColorGrade.Intensity, MinGradeIntensity)
	}
}

func TestValidateDefaultsMissingZoomScale(t *testing.T) {
	p := validPlan()
	p.ZoomEffects[0].Scale = 0
	warnings, err := Validate(p, 120)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none for defaulted scale", warnings)
	}
	if p.ZoomEffects[0].Scale != DefaultZoomScale {
		t.Fatalf("scale = %v, want %v", p.ZoomEffects[0].Scale, DefaultZoomScale)
	}
}

func TestValidateEnforcesZoomPacing(t *testing.T) {
	p := validPlan()
	p.ZoomEffects = nil
	for i := 0; i < 10; i++ {
		p.ZoomEffects = append(p.ZoomEffects, ZoomEffect{
			TimeRange: TimeRange{Start: float64(i) * 10, End: float64(i)*10 + 3},
			Scale:     1.1,
		})
	}
	// One extra zoom 2s after the first should be dropped for pacing.
	p.ZoomEffects = append(p.ZoomEffects, ZoomEffect{
		TimeRange: TimeRange{Start: 2, End: 4},
		Scale:     1.1,
	})

	warnings, err := Validate(p, 200)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(p.ZoomEffects) != MaxZoomEffects {
		t.Fatalf("zooms = %d, want %d", len(p.ZoomEffects), MaxZoomEffects)
	}
	var droppedPacing, droppedCount bool
	for _, w := range warnings {
		if strings.Contains(w, "starts within") {
			droppedPacing = true
		}
		if strings.Contains(w, "exceed the maximum") {
			droppedCount = true
		}
	}
	if !droppedPacing || !droppedCount {
		t.Fatalf("warnings = %v, want pacing and count drops", warnings)
	}
}
