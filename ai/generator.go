package ai

import (
	"context"
	"fmt"

	"github.com/fitly/fashion-ai/models"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiGenerator renders outfit combinations into composite images using
// Gemini's image generation model.
type GeminiGenerator struct {
	apiKey string
}

func NewGeminiGenerator(apiKey string) *GeminiGenerator {
	return &GeminiGenerator{apiKey: apiKey}
}

// GenerateOutfitImage produces one composite image: the person from the
// selfies (when present) wearing exactly the given clothing items, styled
// per the guidance text.
func (g *GeminiGenerator) GenerateOutfitImage(ctx context.Context, selfies, clothing []models.UploadedImage, guidance string) ([]byte, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}
	if len(clothing) == 0 {
		return nil, fmt.Errorf("no clothing images provided for outfit generation")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %v", err)
	}
	defer client.Close()

	model := client.GenerativeModel(generationModel)

	parts := []genai.Part{genai.Text(buildGenerationPrompt(len(selfies) > 0, guidance))}
	for _, img := range selfies {
		parts = append(parts, genai.ImageData(imageFormat(img.MimeType), img.Data))
	}
	for _, img := range clothing {
		parts = append(parts, genai.ImageData(imageFormat(img.MimeType), img.Data))
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("failed to generate outfit image: %v", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no content generated")
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if blob, ok := part.(genai.Blob); ok && len(blob.Data) > 0 {
			return blob.Data, nil
		}
	}
	return nil, fmt.Errorf("no image returned by model")
}

func buildGenerationPrompt(personalized bool, guidance string) string {
	base := `Generate a high-quality, realistic fashion photograph of a model wearing EXACTLY the clothing items shown in the provided images and NOTHING ELSE.

Requirements:
- Show ONLY the provided clothing items, no additional garments or accessories
- Professional fashion photo style with appropriate lighting and composition
- Neutral pose, all items clearly visible`

	if personalized {
		base = `Generate a high-quality, realistic fashion photograph of the person from the first photo wearing EXACTLY the clothing items shown in the remaining images.

Requirements:
- Keep the person's face, build and skin tone faithful to their photo
- Show ONLY the provided clothing items, no additional garments or accessories
- Professional fashion photo style with appropriate lighting and composition`
	}

	if guidance != "" {
		base += "\n\nStyling notes from the stylist:\n" + guidance
	}
	return base
}
