package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Extraction is the structured result the model is instructed to return
// for every turn of a booking conversation.
type Extraction struct {
	Reply           string `json:"reply"`
	Completed       bool   `json:"completed"`
	AppointmentDate string `json:"appointment_date"`
	AppointmentTime string `json:"appointment_time"`
}

type Client struct {
	APIKey  string
	Model   string
	BaseURL string
	DryRun  bool
	http    *http.Client
}

func NewClient(apiKey, model, baseURL string, timeout time.Duration, dryRun bool) *Client {
	return &Client{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: baseURL,
		DryRun:  dryRun,
		http:    &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model          string    `json:"model"`
	Messages       []Message `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Extract sends the system instruction plus turn history to the chat
// completions API in JSON mode and parses the model's structured answer.
func (c *Client) Extract(ctx context.Context, system string, history []Message) (*Extraction, error) {
	// DRY-RUN: no HTTP request, scripted non-final reply
	if c.DryRun || c.APIKey == "" {
		log.Printf("[llm][dry-run] turns=%d", len(history))
		return &Extraction{Reply: "Noted. Could you confirm a date and time for the appointment?"}, nil
	}

	reqBody := chatRequest{Model: c.Model}
	reqBody.Messages = append([]Message{{Role: "system", Content: system}}, history...)
	reqBody.ResponseFormat.Type = "json_object"

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat completion request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("api error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("empty choices in response")
	}

	return ParseExtraction(parsed.Choices[0].Message.Content)
}

// ParseExtraction decodes the model's JSON answer. Models sometimes emit
// the literal string "null" for the optional fields, treat it as unset.
func ParseExtraction(raw string) (*Extraction, error) {
	var ext Extraction
	if err := json.Unmarshal([]byte(raw), &ext); err != nil {
		return nil, fmt.Errorf("parse model output: %w", err)
	}
	if ext.AppointmentDate == "null" {
		ext.AppointmentDate = ""
	}
	if ext.AppointmentTime == "null" {
		ext.AppointmentTime = ""
	}
	return &ext, nil
}
