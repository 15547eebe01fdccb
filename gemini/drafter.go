// Package gemini implements drafting, embedding, and token counting on
// the Google Gemini API.
package gemini

import (
	"context"

	"github.com/fwojciec/locsearch"
	"google.golang.org/genai"
)

const draftModel = "gemini-2.5-flash"

// Ensure Drafter implements locsearch.Drafter at compile time.
var _ locsearch.Drafter = (*Drafter)(nil)

// Drafter implements locsearch.Drafter using Google Gemini.
type Drafter struct {
	client *genai.Client
}

// NewDrafter creates a new Drafter.
func NewDrafter(client *genai.Client) *Drafter {
	return &Drafter{client: client}
}

// Draft generates prose from the prompt text.
func (d *Drafter) Draft(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", locsearch.Errorf(locsearch.EINVALID, "prompt required")
	}

	result, err := d.client.Models.GenerateContent(ctx, draftModel,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: prompt}},
		}},
		draftConfig(),
	)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", locsearch.Errorf(locsearch.EINTERNAL, "gemini returned nil result")
	}

	return result.Text(), nil
}

// draftConfig returns the GenerateContentConfig for drafting calls.
func draftConfig() *genai.GenerateContentConfig {
	temp := float32(0.4)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: "You are a research assistant writing factual reports from web content. Work only from the material provided. If the material does not cover something, say so.",
			}},
		},
		Temperature: &temp,
	}
}
