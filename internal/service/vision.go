package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/marlow/watchdex/internal/domain"
	"github.com/marlow/watchdex/internal/prompts"
)

// VisionService extracts structured watch attributes from photos using an
// OpenAI-compatible vision model endpoint.
type VisionService struct {
	client   *resty.Client
	model    string
	endpoint string
}

// VisionConfig holds configuration for the vision service.
type VisionConfig struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// NewVisionService creates a new vision service.
// Parameters:
//   - cfg: vision configuration including provider, model, and API key.
// Returns:
//   - *VisionService: initialized vision client wrapper.
func NewVisionService(cfg *VisionConfig) *VisionService {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	// Prevent hanging requests against slow providers
	client.SetTimeout(60 * time.Second)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &VisionService{
		client:   client,
		model:    cfg.Model,
		endpoint: baseURL + "/chat/completions",
	}
}

// GetModel returns the model name being used.
func (s *VisionService) GetModel() string {
	return s.model
}

// OpenAI-compatible Chat Completion API request/response structures
type openAIRequest struct {
	Model     string          `json:"model"`
	Messages  []openAIMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens"`
}

type openAIMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // string for system, []interface{} for user with images
}

type openAITextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type openAIImageContent struct {
	Type     string         `json:"type"`
	ImageURL openAIImageURL `json:"image_url"`
}

type openAIImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// ExtractFromPhotos asks the vision model to describe the watch shown in the
// given photos and parses the reply into a WatchPhotoExtraction.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - photoURLs: publicly accessible photo URLs of a single watch.
// Returns:
//   - *domain.WatchPhotoExtraction: parsed attribute set.
//   - error: non-nil if the API request or response parsing fails.
func (s *VisionService) ExtractFromPhotos(ctx context.Context, photoURLs []string) (*domain.WatchPhotoExtraction, error) {
	if len(photoURLs) == 0 {
		return nil, fmt.Errorf("no photo URLs provided")
	}

	content := make([]interface{}, 0, len(photoURLs)+1)
	content = append(content, openAITextContent{
		Type: "text",
		Text: prompts.VisionUserPrompt,
	})
	for _, url := range photoURLs {
		content = append(content, openAIImageContent{
			Type: "image_url",
			ImageURL: openAIImageURL{
				URL:    url,
				Detail: "auto", // auto gives better engraving legibility than low
			},
		})
	}

	req := openAIRequest{
		Model: s.model,
		Messages: []openAIMessage{
			{
				Role:    "system",
				Content: prompts.VisionSystemPrompt,
			},
			{
				Role:    "user",
				Content: content,
			},
		},
		MaxTokens: 500,
	}

	var resp openAIResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post(s.endpoint)

	if err != nil {
		return nil, fmt.Errorf("failed to call vision API: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		errorMsg := fmt.Sprintf("HTTP %d", httpResp.StatusCode())
		if resp.Error != nil {
			errorMsg = fmt.Sprintf("HTTP %d: %s", httpResp.StatusCode(), resp.Error.Message)
		} else {
			errorMsg = fmt.Sprintf("HTTP %d: %s", httpResp.StatusCode(), string(httpResp.Body()))
		}
		return nil, fmt.Errorf("vision API returned error: %s", errorMsg)
	}

	if resp.Error != nil {
		return nil, fmt.Errorf("vision API error: %s", resp.Error.Message)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from vision API (status: %d)", httpResp.StatusCode())
	}

	return parseExtraction(resp.Choices[0].Message.Content)
}

// parseExtraction decodes the model reply into an extraction, tolerating
// markdown code fences around the JSON body.
func parseExtraction(reply string) (*domain.WatchPhotoExtraction, error) {
	cleaned := stripCodeFence(reply)
	var extraction domain.WatchPhotoExtraction
	if err := json.Unmarshal([]byte(cleaned), &extraction); err != nil {
		return nil, fmt.Errorf("failed to parse vision reply as JSON: %w", err)
	}
	return &extraction, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}
