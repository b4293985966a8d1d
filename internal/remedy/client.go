package remedy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to an OpenAI-compatible chat completions endpoint such as Ollama.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
	Stream         bool           `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate asks the model for a remedy and decodes the JSON object it answers with.
func (c *Client) Generate(ctx context.Context, symptom string, lang Language) (Suggestion, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(lang)},
			{Role: "user", Content: "Symptom: " + symptom},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return Suggestion{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Suggestion{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Suggestion{}, fmt.Errorf("llm request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Suggestion{}, fmt.Errorf("llm returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Suggestion{}, fmt.Errorf("decode llm response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return Suggestion{}, fmt.Errorf("llm returned no choices")
	}

	var suggestion Suggestion
	if err := json.Unmarshal([]byte(decoded.Choices[0].Message.Content), &suggestion); err != nil {
		return Suggestion{}, fmt.Errorf("decode llm content: %w", err)
	}
	if strings.TrimSpace(suggestion.Remedy) == "" {
		return Suggestion{}, fmt.Errorf("llm content has no remedy")
	}
	return suggestion, nil
}

func systemPrompt(lang Language) string {
	return fmt.Sprintf(`You are a helpful elder who knows safe, traditional home remedies.
Given a symptom, suggest one simple home remedy and answer with a structured JSON object:
{"symptom": "...", "remedy": "...", "description": "...", "language": {"name": "%s", "code": "%s", "confidence": 0.0}}
Always advise seeing a doctor when symptoms are severe or persist.
Respond ONLY in %s (%s).`, lang.Name, lang.Code, lang.Name, lang.Code)
}
