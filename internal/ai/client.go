package ai

import (
	"Corsgo/internal/config"
	"Corsgo/internal/scanner"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// AIClient defines the interface for an AI analysis client.
type AIClient interface {
	AnalyzeVulnerability(ctx context.Context, vuln scanner.VulnerabilityResult) (string, error)
}

type client struct {
	cfg          *config.AIConfig
	geminiClient *genai.GenerativeModel
	openaiClient *openai.Client // Used for both OpenAI and Groq
}

// NewAIClient creates a new client for AI analysis based on the provided configuration.
func NewAIClient(cfg *config.AIConfig) (AIClient, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, fmt.Errorf("AI analysis is not enabled in the configuration")
	}

	switch cfg.Provider {
	case "gemini":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("Gemini API key is not configured in config.yaml")
		}
		genaiClient, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.APIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		return &client{cfg: cfg, geminiClient: genaiClient.GenerativeModel(cfg.Model)}, nil

	case "openai", "groq":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s API key is not configured in config.yaml", cfg.Provider)
		}
		oc := openai.DefaultConfig(cfg.APIKey)
		if cfg.Provider == "groq" {
			oc.BaseURL = groqBaseURL
		}
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		return &client{cfg: cfg, openaiClient: openai.NewClientWithConfig(oc)}, nil

	default:
		return nil, fmt.Errorf("unknown AI provider '%s'", cfg.Provider)
	}
}

// buildPrompt renders the finding, including the exact CORS evidence, for the model.
func buildPrompt(vuln scanner.VulnerabilityResult) string {
	var headers []string
	for k, v := range vuln.ObservedHeaders {
		headers = append(headers, fmt.Sprintf("%s: %s", k, v))
	}
	sort.Strings(headers)
	observed := "(none)"
	if len(headers) > 0 {
		observed = strings.Join(headers, "; ")
	}

	return fmt.Sprintf(`
You are a professional penetration tester providing a summary for a developer.
Analyze the following CORS finding and respond with a concise, actionable summary formatted in Markdown.

Use the following structure:
**Root Cause:** [Your analysis of the root cause]
**Exploitability:** [Whether a compliant browser lets a remote attacker read the response, and with which credentials]
**Recommendation:** [Your specific, actionable recommendation]
**Code Example (if relevant):**
`+"```"+`[language]
[Your code example for the fix]
`+"```"+`

Finding Details:
- Type: %s
- URL: %s
- Method: %s
- Request Sent: %s
- Classification: %s
- Observed Response Headers: %s
- Details: %s
- Severity: %s
`,
		vuln.VulnerabilityType,
		vuln.URL,
		vuln.Method,
		vuln.Payload,
		vuln.Classification,
		observed,
		vuln.Details,
		vuln.Severity,
	)
}

// AnalyzeVulnerability sends the finding to the configured LLM and returns its analysis.
func (c *client) AnalyzeVulnerability(ctx context.Context, vuln scanner.VulnerabilityResult) (string, error) {
	prompt := buildPrompt(vuln)

	switch c.cfg.Provider {
	case "gemini":
		if c.geminiClient == nil {
			return "", fmt.Errorf("Gemini client is not initialized")
		}
		resp, err := c.geminiClient.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return "", fmt.Errorf("failed to generate content from Gemini: %w", err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
			return "", fmt.Errorf("received an empty response from Gemini")
		}
		analysisResult, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
		if !ok {
			return "", fmt.Errorf("unexpected response format from Gemini")
		}
		return string(analysisResult), nil

	case "openai", "groq":
		if c.openaiClient == nil {
			return "", fmt.Errorf("%s client is not initialized", c.cfg.Provider)
		}
		resp, err := c.openaiClient.CreateChatCompletion(
			ctx,
			openai.ChatCompletionRequest{
				Model: c.cfg.Model,
				Messages: []openai.ChatCompletionMessage{
					{
						Role:    openai.ChatMessageRoleUser,
						Content: prompt,
					},
				},
			},
		)
		if err != nil {
			return "", fmt.Errorf("failed to generate content from %s: %w", c.cfg.Provider, err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("received an empty response from %s", c.cfg.Provider)
		}
		return resp.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("unhandled AI provider in AnalyzeVulnerability: %s", c.cfg.Provider)
}
