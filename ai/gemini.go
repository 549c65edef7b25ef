package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/fitly/fashion-ai/models"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	describeModel   = "gemini-2.0-flash"
	generationModel = "gemini-3-pro-image-preview"
)

const clothingPrompt = `Describe this clothing item concisely in one sentence. Include:
- Type of garment (shirt, pants, jacket, etc.)
- Color(s)
- Material/fabric if visible
- Style/cut (casual, formal, fitted, loose, etc.)
- Any distinctive patterns or features

Format: "[color] [material] [type], [style/cut], [pattern/features]"
Example: "blue denim jeans, straight cut, casual"
Keep it under 20 words.`

const personPrompt = `Describe this person's appearance for a fashion stylist in one or two sentences. Include:
- Apparent build and height impression
- Skin tone and hair color/style
- Overall style impression

Do not guess age or identity. Keep it under 40 words.`

// GeminiDescriber converts images into short textual descriptions using
// Gemini's vision models.
type GeminiDescriber struct {
	apiKey string
}

func NewGeminiDescriber(apiKey string) *GeminiDescriber {
	return &GeminiDescriber{apiKey: apiKey}
}

func (d *GeminiDescriber) DescribeClothingItem(ctx context.Context, img models.UploadedImage) (string, error) {
	return d.describe(ctx, img, clothingPrompt)
}

func (d *GeminiDescriber) DescribePersonAppearance(ctx context.Context, img models.UploadedImage) (string, error) {
	return d.describe(ctx, img, personPrompt)
}

func (d *GeminiDescriber) describe(ctx context.Context, img models.UploadedImage, prompt string) (string, error) {
	if d.apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(d.apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create Gemini client: %v", err)
	}
	defer client.Close()

	model := client.GenerativeModel(describeModel)
	// Lower temperature keeps descriptions consistent between runs.
	model.SetTemperature(0.3)

	resp, err := model.GenerateContent(ctx,
		genai.ImageData(imageFormat(img.MimeType), img.Data),
		genai.Text(prompt),
	)
	if err != nil {
		return "", fmt.Errorf("failed to describe image %s: %v", img.Filename, err)
	}

	text := firstText(resp)
	if text == "" {
		return "", fmt.Errorf("no description generated for %s", img.Filename)
	}
	return text, nil
}

// imageFormat maps a MIME type to the format label the genai SDK expects,
// e.g. "image/jpeg" -> "jpeg".
func imageFormat(mimeType string) string {
	if idx := strings.Index(mimeType, "/"); idx >= 0 && idx+1 < len(mimeType) {
		return mimeType[idx+1:]
	}
	return "jpeg"
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return strings.TrimSpace(b.String())
}
