package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"premises/internal/app/services/chat"
)

const defaultModel = "gemini-2.0-flash"

var ErrEmptyResponse = errors.New("gemini: model returned no candidates")

// Client adapts the Google GenAI SDK to the chat service's generator port.
type Client struct {
	client *genai.Client
	model  string
}

func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

func buildContents(turns []chat.Turn, message string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(turns)+1)
	for _, turn := range turns {
		var role genai.Role = genai.RoleUser
		if turn.Role == "model" || turn.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}
	return append(contents, genai.NewContentFromText(message, genai.RoleUser))
}

func config(system string) *genai.GenerateContentConfig {
	if system == "" {
		return nil
	}
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	}
}

func (c *Client) Generate(ctx context.Context, system string, turns []chat.Turn, message string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, buildContents(turns, message), config(system))
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (c *Client) Stream(ctx context.Context, system string, turns []chat.Turn, message string, emit func(delta string) error) error {
	for resp, err := range c.client.Models.GenerateContentStream(ctx, c.model, buildContents(turns, message), config(system)) {
		if err != nil {
			return fmt.Errorf("gemini: stream: %w", err)
		}
		if delta := resp.Text(); delta != "" {
			if err := emit(delta); err != nil {
				return err
			}
		}
	}
	return nil
}

var _ chat.Generator = (*Client)(nil)
