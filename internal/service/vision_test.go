package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseExtraction(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		wantBrand string
		wantErr   bool
	}{
		{
			name:      "plain json",
			reply:     `{"brand": "Rolex", "model": "Submariner Date", "reference_number": "116610LN"}`,
			wantBrand: "Rolex",
		},
		{
			name:      "json code fence",
			reply:     "```json\n{\"brand\": \"Omega\", \"model\": \"Speedmaster\"}\n```",
			wantBrand: "Omega",
		},
		{
			name:      "bare code fence",
			reply:     "```\n{\"brand\": \"Tudor\"}\n```",
			wantBrand: "Tudor",
		},
		{
			name:    "not json",
			reply:   "I cannot identify this watch.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extraction, err := parseExtraction(tt.reply)
			if tt.wantErr {
				if err == nil {
					t.Error("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if extraction.Brand != tt.wantBrand {
				t.Errorf("expected brand %q, got %q", tt.wantBrand, extraction.Brand)
			}
		})
	}
}

func TestVisionService_ExtractFromPhotos(t *testing.T) {
	var gotReq openAIRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{
					"content": `{"brand": "Rolex", "model": "Submariner Date", "reference_number": "116610LN", "confidence_level": "high"}`,
				}},
			},
		})
	}))
	defer server.Close()

	svc := NewVisionService(&VisionConfig{
		Model:   "gpt-4o-mini",
		APIKey:  "test-key",
		BaseURL: server.URL,
	})

	extraction, err := svc.ExtractFromPhotos(context.Background(), []string{
		"https://example.com/a.jpg",
		"https://example.com/b.jpg",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if extraction.Brand != "Rolex" || extraction.ReferenceNumber != "116610LN" {
		t.Errorf("got wrong extraction: %+v", extraction)
	}
	if gotReq.Model != "gpt-4o-mini" {
		t.Errorf("expected model forwarded, got %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(gotReq.Messages))
	}
	// User message carries the prompt plus one image part per photo
	content, ok := gotReq.Messages[1].Content.([]interface{})
	if !ok {
		t.Fatalf("expected user content array, got %T", gotReq.Messages[1].Content)
	}
	if len(content) != 3 {
		t.Errorf("expected 3 content parts, got %d", len(content))
	}
}

func TestVisionService_ExtractFromPhotos_NoPhotos(t *testing.T) {
	svc := NewVisionService(&VisionConfig{Model: "gpt-4o-mini"})

	if _, err := svc.ExtractFromPhotos(context.Background(), nil); err == nil {
		t.Error("expected an error with no photo URLs")
	}
}

func TestVisionService_ExtractFromPhotos_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "rate limit exceeded", "type": "rate_limit"},
		})
	}))
	defer server.Close()

	svc := NewVisionService(&VisionConfig{
		Model:   "gpt-4o-mini",
		BaseURL: server.URL,
	})

	if _, err := svc.ExtractFromPhotos(context.Background(), []string{"https://example.com/a.jpg"}); err == nil {
		t.Error("expected an error on HTTP 429")
	}
}
