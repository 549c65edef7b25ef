package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/fitly/fashion-ai/models"
	"github.com/fitly/fashion-ai/pipeline"
	openai "github.com/sashabaranov/go-openai"
)

// StylistAgent talks to an OpenAI-compatible agent endpoint (e.g. a
// DigitalOcean Gradient agent) for query classification and outfit
// selection.
type StylistAgent struct {
	client *openai.Client
	model  string
}

func NewStylistAgent(endpoint, accessKey, model string) *StylistAgent {
	cfg := openai.DefaultConfig(accessKey)
	cfg.BaseURL = strings.TrimSuffix(endpoint, "/") + "/api/v1"
	return &StylistAgent{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// ClassifyQuery decides whether the user's text is a question needing a
// direct answer or a styling instruction for the selector. An unparseable
// agent reply falls back to treating the whole query as an instruction
// rather than failing the request.
func (a *StylistAgent) ClassifyQuery(ctx context.Context, query string, wardrobe []pipeline.WardrobeItem, personDesc string, history []models.Turn) (*pipeline.QueryResult, error) {
	prompt := buildClassifyPrompt(query, wardrobe, personDesc, history)

	raw, err := a.complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("classify call failed: %w", err)
	}
	return parseClassification(raw, query), nil
}

// SelectOutfits asks the agent for 1 to 12 outfit combinations as JSON and
// validates the reply shape before it reaches the coordinator.
func (a *StylistAgent) SelectOutfits(ctx context.Context, in pipeline.SelectionInput) ([]models.OutfitCombination, error) {
	prompt := buildSelectionPrompt(in)

	raw, err := a.complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("selection call failed: %w", err)
	}
	return parseSelection(raw, in.Wardrobe)
}

func (a *StylistAgent) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("agent returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildClassifyPrompt(query string, wardrobe []pipeline.WardrobeItem, personDesc string, history []models.Turn) string {
	var b strings.Builder
	b.WriteString("You are a fashion AI assistant. The user has provided a query along with clothing items.\n\n")

	fmt.Fprintf(&b, "Available clothing items: %d items", len(wardrobe))
	if len(wardrobe) > 0 {
		b.WriteString(" including ")
		max := len(wardrobe)
		if max > 5 {
			max = 5
		}
		var heads []string
		for _, item := range wardrobe[:max] {
			heads = append(heads, firstClause(item.Description))
		}
		b.WriteString(strings.Join(heads, ", "))
		if len(wardrobe) > 5 {
			b.WriteString(", and more")
		}
	}
	b.WriteString("\n")

	if personDesc != "" {
		fmt.Fprintf(&b, "\nPerson information:\n%s\n", personDesc)
	}
	writeHistory(&b, history)

	fmt.Fprintf(&b, "\nUser query: %q\n", query)
	b.WriteString(`
Determine whether this is a QUESTION that needs an answer (e.g. "What would look good for a date?") or an INSTRUCTION for outfit styling (e.g. "Make it more formal").

Reply in exactly this format:
TYPE: [QUESTION or INSTRUCTION]
RESPONSE: [your answer to the question, or the styling guidance to pass to the outfit generator]`)
	return b.String()
}

func buildSelectionPrompt(in pipeline.SelectionInput) string {
	var b strings.Builder
	b.WriteString("You are an expert fashion stylist. I have the following clothing items in my wardrobe:\n\n")
	for _, item := range in.Wardrobe {
		fmt.Fprintf(&b, "%d. %s\n", item.Index, item.Description)
	}

	if in.PersonDescription != "" {
		fmt.Fprintf(&b, "\nThe person wearing the outfits: %s\n", in.PersonDescription)
	}
	if in.Weather.TemperatureC != 0 || in.Weather.Condition != "" || in.Weather.Location != "" {
		fmt.Fprintf(&b, "\nCurrent weather: %.0f°C, %s", in.Weather.TemperatureC, in.Weather.Condition)
		if in.Weather.Location != "" {
			fmt.Fprintf(&b, " in %s", in.Weather.Location)
		}
		b.WriteString("\n")
	}
	if in.Instruction != "" {
		fmt.Fprintf(&b, "\nStyling instruction from the user: %s\n", in.Instruction)
	}
	writeHistory(&b, in.History)

	b.WriteString(`
Create between 1 and 12 cohesive outfit combinations from these items, suited to the person and the weather.

Respond with ONLY a JSON array, no other text, in this exact shape:
[
  {
    "outfit_number": 1,
    "item_numbers": [2, 4, 5],
    "reasoning": "why these items work together",
    "wearing_instructions": "how to wear and combine the pieces",
    "fashion_advice": "optional extra styling tip"
  }
]`)
	return b.String()
}

func writeHistory(b *strings.Builder, history []models.Turn) {
	if len(history) == 0 {
		return
	}
	b.WriteString("\nRecent conversation:\n")
	for _, turn := range history {
		fmt.Fprintf(b, "%s: %s\n", turn.Role, turn.Content)
	}
}

// firstClause trims a description down to its leading clause, e.g.
// "blue denim jeans, straight cut, casual" -> "blue denim jeans".
func firstClause(desc string) string {
	if idx := strings.Index(desc, ","); idx > 0 {
		return desc[:idx]
	}
	return desc
}
