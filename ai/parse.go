package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fitly/fashion-ai/models"
	"github.com/fitly/fashion-ai/pipeline"
)

const defaultWearingInstructions = "Wear the pieces together as described."

// parseClassification reads the agent's TYPE/RESPONSE reply. When the
// reply does not follow the format, the whole query is treated as a
// styling instruction, matching how a stylist would interpret free text.
func parseClassification(raw, query string) *pipeline.QueryResult {
	raw = strings.TrimSpace(raw)

	var queryType string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(strings.ToUpper(line), "TYPE:") {
			continue
		}
		value := strings.ToUpper(strings.TrimSpace(line[len("TYPE:"):]))
		if strings.Contains(value, "QUESTION") {
			queryType = "question"
		} else if strings.Contains(value, "INSTRUCTION") {
			queryType = "instruction"
		}
		break
	}

	content := ""
	if idx := strings.Index(raw, "RESPONSE:"); idx >= 0 {
		content = strings.TrimSpace(raw[idx+len("RESPONSE:"):])
	}

	switch queryType {
	case "question":
		if content == "" {
			content = "I can help you with that based on your wardrobe!"
		}
		return &pipeline.QueryResult{IsQuestion: true, Answer: content}
	case "instruction":
		if content == "" {
			content = query
		}
		return &pipeline.QueryResult{Instruction: content}
	default:
		return &pipeline.QueryResult{Instruction: query}
	}
}

type outfitWire struct {
	OutfitNumber        int    `json:"outfit_number"`
	ItemNumbers         []int  `json:"item_numbers"`
	Reasoning           string `json:"reasoning"`
	WearingInstructions string `json:"wearing_instructions"`
	FashionAdvice       string `json:"fashion_advice"`
}

// parseSelection validates the agent's JSON reply at the boundary: item
// numbers must reference real wardrobe entries, reasoning must be present,
// and at most MaxOutfits combinations survive. Combinations are renumbered
// 1..n so ordinals are always unique regardless of what the model sent.
func parseSelection(raw string, wardrobe []pipeline.WardrobeItem) ([]models.OutfitCombination, error) {
	payload := stripCodeFence(raw)

	var wire []outfitWire
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return nil, fmt.Errorf("malformed selection response: %v", err)
	}
	if len(wire) == 0 {
		return nil, fmt.Errorf("selection response contained no outfits")
	}

	byIndex := make(map[int]string, len(wardrobe))
	for _, item := range wardrobe {
		byIndex[item.Index] = item.Filename
	}

	var combos []models.OutfitCombination
	for _, w := range wire {
		if len(combos) == pipeline.MaxOutfits {
			break
		}
		if strings.TrimSpace(w.Reasoning) == "" {
			continue
		}

		seen := make(map[int]bool, len(w.ItemNumbers))
		var filenames []string
		for _, n := range w.ItemNumbers {
			if seen[n] {
				continue
			}
			seen[n] = true
			if name, ok := byIndex[n]; ok {
				filenames = append(filenames, name)
			}
		}
		if len(filenames) == 0 {
			continue
		}

		wearing := strings.TrimSpace(w.WearingInstructions)
		if wearing == "" {
			wearing = defaultWearingInstructions
		}

		combos = append(combos, models.OutfitCombination{
			OutfitNumber:        len(combos) + 1,
			ItemFilenames:       filenames,
			Reasoning:           strings.TrimSpace(w.Reasoning),
			WearingInstructions: wearing,
			FashionAdvice:       strings.TrimSpace(w.FashionAdvice),
		})
	}

	if len(combos) == 0 {
		return nil, fmt.Errorf("selection response contained no usable outfits")
	}
	return combos, nil
}

// stripCodeFence unwraps a ```json fenced block, which chat models often
// add despite being told not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:] // drop the language tag line
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
