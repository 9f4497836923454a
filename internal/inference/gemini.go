package inference

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/dyuan/voiceledger/internal/ledger"
)

// DefaultModel is the Gemini model used for classification.
const DefaultModel = "gemini-2.5-flash"

// draftSchema constrains the model's reply to the draft shape. Category and
// type are pinned to the exact closed-set labels.
var draftSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"amount": {
			Type:        genai.TypeNumber,
			Description: "The monetary value of the transaction.",
		},
		"category": {
			Type:        genai.TypeString,
			Enum:        categoryLabels(),
			Description: "The category that best fits the transaction.",
		},
		"description": {
			Type:        genai.TypeString,
			Description: "A brief description of the transaction (e.g. 'Lunch at cafe', 'Taxi to airport').",
		},
		"type": {
			Type:        genai.TypeString,
			Enum:        []string{string(ledger.TypeExpense), string(ledger.TypeIncome)},
			Description: "Whether this is an expense or income.",
		},
		"date": {
			Type:        genai.TypeString,
			Description: "The date of the transaction in ISO 8601 format (YYYY-MM-DD).",
		},
	},
	Required: []string{"amount", "category", "description", "type", "date"},
}

func categoryLabels() []string {
	labels := make([]string, len(ledger.Categories))
	for i, c := range ledger.Categories {
		labels[i] = string(c)
	}
	return labels
}

// geminiGenerator is the production Generator backed by the Gemini API.
type geminiGenerator struct {
	model string
}

func (g *geminiGenerator) Generate(ctx context.Context, apiKey string, parts []*genai.Part) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return "", fmt.Errorf("create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: parts,
		},
	}

	// Temperature pinned low to bias toward deterministic extraction.
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   draftSchema,
		Temperature:      genai.Ptr(float32(0.1)),
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return resp.Text(), nil
}
