// Package assistant talks to a generative-language API to answer
// first-aid questions while the user waits for an ambulance.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent"

// systemPrompt anchors every conversation to the emergency-assistance
// context so the model does not wander off into general chat.
const systemPrompt = "You are InstaAid, an assistant inside an ambulance booking app. " +
	"The user is waiting for an ambulance. Give short, calm first-aid guidance. " +
	"Always remind the user that professional help is on the way and never " +
	"advise them to cancel the ambulance."

// Message is one turn of the conversation. Role is "user" or "model".
type Message struct {
	Role string
	Text string
}

type Client struct {
	Endpoint string
	APIKey   string
	HTTP     *http.Client
}

func NewClient(apiKey, endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{Endpoint: endpoint, APIKey: apiKey, HTTP: &http.Client{Timeout: 30 * time.Second}}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	SystemInstruction *content  `json:"system_instruction,omitempty"`
	Contents          []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Chat sends the conversation history plus the new user message and
// returns the model's reply. History order is oldest first.
func (c *Client) Chat(ctx context.Context, history []Message, userText string) (string, error) {
	if c.APIKey == "" {
		return "", errors.New("assistant api key is not configured")
	}

	reqBody := generateRequest{
		SystemInstruction: &content{Parts: []part{{Text: systemPrompt}}},
	}
	for _, m := range history {
		role := m.Role
		if role != "model" {
			role = "user"
		}
		reqBody.Contents = append(reqBody.Contents, content{Role: role, Parts: []part{{Text: m.Text}}})
	}
	reqBody.Contents = append(reqBody.Contents, content{Role: "user", Parts: []part{{Text: userText}}})

	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("assistant request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return "", fmt.Errorf("assistant returned %d: %s", resp.StatusCode, snippet)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode assistant response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("assistant returned no candidates")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}
