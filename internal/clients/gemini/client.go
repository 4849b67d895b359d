// Package gemini provides a Google Gemini client that transcribes holdings
// screenshots into plain text lines for the resolver.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/bobmcallan/fundval/internal/common"
	"github.com/bobmcallan/fundval/internal/interfaces"
)

const (
	DefaultModel        = "gemini-2.0-flash"
	DefaultMaxImageSize = 20 * 1024 * 1024 // inline data limit
)

// holdingsPrompt asks for one "<name> <amount>" line per position, which is
// the shape the resolver parses best.
const holdingsPrompt = `This image is a screenshot of a Chinese mutual fund holdings page.
Transcribe every fund position as one line of plain text in the form:
<fund name or 6-digit code> <position amount>
Use the position amount (持仓金额 / 资产), not the profit columns.
Output only the lines, no headings, no commentary.`

// generator is the part of the genai models API the client uses
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client implements HoldingsExtractor
type Client struct {
	models       generator
	model        string
	maxImageSize int
	logger       *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithModel sets the model to use
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithMaxImageSize caps accepted image payloads
func WithMaxImageSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxImageSize = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return newClient(genaiClient.Models, opts...), nil
}

func newClient(models generator, opts ...ClientOption) *Client {
	c := &Client{
		models:       models,
		model:        DefaultModel,
		maxImageSize: DefaultMaxImageSize,
		logger:       common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ExtractHoldingsText sends a screenshot to Gemini and returns the transcribed
// holdings lines. An empty mimeType is sniffed from the image bytes.
func (c *Client) ExtractHoldingsText(ctx context.Context, image []byte, mimeType string) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("empty image")
	}
	if len(image) > c.maxImageSize {
		return "", fmt.Errorf("image too large: %d bytes (max %d)", len(image), c.maxImageSize)
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(image)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("unsupported content type %q", mimeType)
	}

	c.logger.Debug().Str("model", c.model).Str("mime", mimeType).Int("bytes", len(image)).Msg("Extracting holdings from image")

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{Text: holdingsPrompt},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
		},
	}}

	result, err := c.models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text, err := extractTextFromResponse(result)
	if err != nil {
		return "", err
	}
	return cleanTranscript(text), nil
}

// extractTextFromResponse extracts text from a generate content response
func extractTextFromResponse(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	text := ""
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}

	return text, nil
}

// cleanTranscript strips markdown fences and blank lines the model sometimes adds
func cleanTranscript(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// Ensure Client implements HoldingsExtractor
var _ interfaces.HoldingsExtractor = (*Client)(nil)
