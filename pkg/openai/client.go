package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/korjavin/mealdeals/pkg/logger"
	"github.com/sashabaranov/go-openai"
)

// Client represents an OpenAI API client
type Client struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *logger.Logger
}

// OfferInfo is what the model gets to see about an offer
type OfferInfo struct {
	Name     string  `json:"name"`
	Category string  `json:"category,omitempty"`
	Weight   float64 `json:"weight,omitempty"`
	Unit     string  `json:"weight_unit,omitempty"`
}

// New creates a new OpenAI client
func New(apiKey, apiBase, model string) *Client {
	config := openai.DefaultConfig(apiKey)
	if apiBase != "" {
		config.BaseURL = apiBase
	}

	return &Client{
		client:  openai.NewClientWithConfig(config),
		model:   model,
		timeout: 30 * time.Second,
		logger:  logger.New("openai"),
	}
}

// MatchIngredients asks the model which of the candidate ingredient names the
// offered product can be used as. Only names from candidates are returned,
// in the order the model gave them.
func (c *Client) MatchIngredients(ctx context.Context, offer OfferInfo, candidates []string) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	offerJSON, err := json.Marshal(offer)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal offer: %w", err)
	}
	candidatesJSON, err := json.Marshal(candidates)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal candidates: %w", err)
	}

	prompt := fmt.Sprintf(`
A grocery store has this product on offer:
%s

Which of the following ingredient names can this product be used as when cooking?
%s

Return a JSON array with the matching ingredient names, copied exactly as written above.
Return [] if none match. Only return the JSON, no other text.
`, string(offerJSON), string(candidatesJSON))

	c.logger.Debug("OpenAI prompt (first 100 chars): %s", truncateString(prompt, 100))

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "You are a grocery expert who maps store products to the recipe ingredients they can replace.",
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI API")
	}

	content := resp.Choices[0].Message.Content
	c.logger.Debug("OpenAI response (first 100 chars): %s", truncateString(content, 100))

	matched := filterCandidates(parseNameList(content), candidates)
	c.logger.Info("Matched offer %q to %d ingredients", offer.Name, len(matched))
	return matched, nil
}

// parseNameList reads a JSON array of names, falling back to a loose split
// when the model did not return valid JSON
func parseNameList(content string) []string {
	content = cleanJSONResponse(content)

	var names []string
	if err := json.Unmarshal([]byte(content), &names); err == nil {
		return names
	}

	var wrapped map[string][]string
	if err := json.Unmarshal([]byte(content), &wrapped); err == nil {
		for _, v := range wrapped {
			return v
		}
	}

	return extractNamesFromText(content)
}

// filterCandidates keeps names that are in candidates, dropping duplicates
func filterCandidates(names, candidates []string) []string {
	known := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		known[c] = true
	}

	var out []string
	seen := make(map[string]bool)
	for _, n := range names {
		n = strings.TrimSpace(n)
		if known[n] && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// truncateString truncates a string to the given length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// cleanJSONResponse cleans up the response from OpenAI to ensure it's valid JSON
func cleanJSONResponse(s string) string {
	// Remove markdown code block delimiters if present
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		// Skip the first line, which might contain "```json"
		if firstLineEnd := strings.Index(s, "\n"); firstLineEnd != -1 {
			s = s[firstLineEnd+1:]
		}
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}

	return s
}

// extractNamesFromText splits a non-JSON answer on common delimiters
func extractNamesFromText(s string) []string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '\n' || r == '"' || r == '[' || r == ']' || r == '\t'
	})

	var names []string
	for _, word := range words {
		word = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(word), "-"))
		if word == "" || word == "null" || word == "true" || word == "false" {
			continue
		}
		names = append(names, word)
	}
	return names
}
