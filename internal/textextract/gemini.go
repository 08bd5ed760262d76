package textextract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiOCR transcribes invoice images using Google Gemini.
type GeminiOCR struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiOCR creates a new GeminiOCR backend.
func NewGeminiOCR(apiKey string, modelName string) (*GeminiOCR, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &GeminiOCR{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

// Extract transcribes all text visible in the image.
func (g *GeminiOCR) Extract(ctx context.Context, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	pngData, err := normalizeToPNG(data)
	if err != nil {
		return "", err
	}

	parts := []genai.Part{
		genai.ImageData("png", pngData),
		genai.Text(transcribePrompt),
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	return cleanTranscription(sb.String()), nil
}

// Close closes the Gemini client.
func (g *GeminiOCR) Close() error {
	return g.client.Close()
}
