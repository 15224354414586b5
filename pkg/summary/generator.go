package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/trialbridge-health/platform/pkg/common/logger"
)

// Generator produces a short patient-facing summary of an abstract or
// description. Summarize never fails: without a configured backend, or on
// any backend error, it falls back to a deterministic truncated prefix.
type Generator struct {
	apiKey    string
	baseURL   string
	modelName string
	maxChars  int
	client    *http.Client
}

func NewGenerator(apiKey, baseURL, modelName string, maxChars int, client *http.Client) *Generator {
	if maxChars <= 0 {
		maxChars = 240
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Generator{
		apiKey:    apiKey,
		baseURL:   baseURL,
		modelName: modelName,
		maxChars:  maxChars,
		client:    client,
	}
}

func (g *Generator) Summarize(ctx context.Context, text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}
	if g.apiKey == "" {
		return g.truncate(trimmed)
	}

	generated, err := g.complete(ctx, trimmed)
	if err != nil || strings.TrimSpace(generated) == "" {
		if err != nil {
			logger.Log.WithError(err).Warn("summary generation failed, using truncated fallback")
		}
		return g.truncate(trimmed)
	}
	return strings.TrimSpace(generated)
}

func (g *Generator) complete(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf("Summarize the following medical text in two plain sentences a patient can understand:\n\n%s", text)

	payload := map[string]interface{}{
		"model": g.modelName,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0.3,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewBuffer(payloadBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("summary backend returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no response from summary backend")
	}
	return result.Choices[0].Message.Content, nil
}

// truncate cuts at the last word boundary inside the budget.
func (g *Generator) truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= g.maxChars {
		return text
	}
	cut := string(runes[:g.maxChars])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}
