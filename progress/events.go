package progress

// Step identifies where in the pipeline a progress event was emitted.
type Step string

const (
	StepDescribing       Step = "describing"
	StepSelecting        Step = "selecting"
	StepGeneratingImages Step = "generating_images"
	StepOutfitReady      Step = "outfit_ready"
	StepComplete         Step = "complete"
	StepError            Step = "error"
)

// Event is one progress update pushed to a connected client. Percent is
// monotonically non-decreasing within a request and omitted for
// outfit_ready events, which instead carry the outfit details.
type Event struct {
	Step    Step           `json:"step"`
	Message string         `json:"message,omitempty"`
	Percent *int           `json:"progress_percent,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func percent(n int) *int { return &n }

// Describing reports progress through the image-description phase.
func Describing(described, total, pct int) Event {
	return Event{
		Step:    StepDescribing,
		Message: "Analyzing your wardrobe",
		Percent: percent(pct),
		Details: map[string]any{"described": described, "total_images": total},
	}
}

// Selecting marks the start of the outfit-selection call.
func Selecting(pct int) Event {
	return Event{
		Step:    StepSelecting,
		Message: "Choosing outfit combinations",
		Percent: percent(pct),
	}
}

// GeneratingImages marks the start of the parallel image-generation phase.
func GeneratingImages(totalOutfits, pct int) Event {
	return Event{
		Step:    StepGeneratingImages,
		Message: "Generating outfit images",
		Percent: percent(pct),
		Details: map[string]any{"total_outfits": totalOutfits},
	}
}

// OutfitReady announces one finished outfit image, in whatever order the
// underlying generation calls complete.
func OutfitReady(outfitNumber int, imageURL string, totalOutfits int) Event {
	return Event{
		Step:    StepOutfitReady,
		Message: "Outfit ready",
		Details: map[string]any{
			"outfit_number": outfitNumber,
			"image_url":     imageURL,
			"total_outfits": totalOutfits,
		},
	}
}

// Complete is the terminal success event.
func Complete() Event {
	return Event{Step: StepComplete, Message: "All outfits ready", Percent: percent(100)}
}

// Error is the terminal failure event; the client should stop waiting.
func Error(message string) Event {
	return Event{Step: StepError, Message: message}
}
