package planner

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"reelforge/internal/plan"
	"reelforge/internal/services"
	"reelforge/internal/services/highlights"
	"reelforge/internal/services/transcriber"
)

const systemPrompt = `You are a video editing director. Given a transcript with
timings and a list of detected highlights, produce an editing plan as a single
JSON object with these optional arrays: "zoom_effects" ({start, end, scale}),
"text_highlights" ({start, end, text}), "animations" ({start, end, template,
text}), "broll" ({start, end, search_query}), "cuts" ({start, end, reason}),
"transitions" ({at, style, duration}), "sound_effects" ({at, name, volume}),
and an optional "color_grade" ({style, intensity}). All times are seconds from
the start of the video. Respond with JSON only, no commentary.`

// PromptInput is everything the model needs to plan one video's edit.
type PromptInput struct {
	DurationSeconds float64
	Transcript      *transcriber.Transcript
	Detection       *highlights.Detection
	Templates       []string
}

// Render builds the user prompt. Transcript segments are flattened to keep
// the prompt compact; word-level timings are omitted.
func (in PromptInput) Render() (string, error) {
	if in.Transcript == nil || (len(in.Transcript.Segments) == 0 && strings.TrimSpace(in.Transcript.Text) == "") {
		return "", services.Wrap(services.ErrValidation, "generating-plan", "prompt", "transcript is empty", nil)
	}
	if in.DurationSeconds <= 0 {
		return "", services.Wrap(services.ErrValidation, "generating-plan", "prompt", "video duration unknown", nil)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Video duration: %.1f seconds.\n", in.DurationSeconds)

	templates := in.Templates
	if len(templates) == 0 {
		templates = animationTemplateNames()
	}
	fmt.Fprintf(&b, "Available animation templates: %s.\n\n", strings.Join(templates, ", "))

	b.WriteString("Transcript:\n")
	if len(in.Transcript.Segments) > 0 {
		for _, seg := range in.Transcript.Segments {
			text := strings.TrimSpace(seg.Text)
			if text == "" {
				continue
			}
			fmt.Fprintf(&b, "[%.1f-%.1f] %s\n", seg.Start, seg.End, text)
		}
	} else {
		b.WriteString(in.Transcript.Text)
		b.WriteString("\n")
	}

	if in.Detection != nil && len(in.Detection.Highlights) > 0 {
		b.WriteString("\nDetected highlights:\n")
		encoded, err := json.Marshal(in.Detection.Highlights)
		if err != nil {
			return "", fmt.Errorf("planner: encode highlights: %w", err)
		}
		b.Write(encoded)
		b.WriteString("\n")
	}

	return b.String(), nil
}

func animationTemplateNames() []string {
	names := make([]string, 0, len(plan.AnimationTemplates))
	for name := range plan.AnimationTemplates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
