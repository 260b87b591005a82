// Package translate implements the translation requester: one blocking
// chat-completion call per TS entry against an OpenAI-compatible HTTP
// endpoint, and a strict parser for the labeled reply contract
// (TRANSLATION / EXPLANATION / CONFIDENCE).
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Provider configuration
// ---------------------------------------------------------------------------

// DefaultBaseURL is the stock OpenAI chat-completions endpoint.
const DefaultBaseURL = "https://api.openai.com/v1/chat/completions"

// DefaultModel is the model used when none is configured.
const DefaultModel = "gpt-4o"

// DefaultTimeout bounds a single request when no timeout is configured.
const DefaultTimeout = 60 * time.Second

// Provider holds the connection configuration for the translation service.
type Provider struct {
	// BaseURL is the API endpoint. A missing /chat/completions suffix is
	// appended automatically.
	BaseURL string
	// APIKey is the bearer token.
	APIKey string
	// Model is the model identifier.
	Model string
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string
	// Timeout is the per-request timeout.
	Timeout time.Duration
	// Verbose enables request/response debug logging.
	Verbose bool
}

func (p Provider) effectiveTimeout() time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	return DefaultTimeout
}

// Request carries one entry's fields to the model.
type Request struct {
	// Source is the untranslated text.
	Source string
	// Context is the TS context name.
	Context string
	// Comment is the disambiguation comment.
	Comment string
	// ExtraComment is the developer note.
	ExtraComment string
	// TargetLanguage is the human-readable target language name.
	TargetLanguage string
}

// Proposal is the model's candidate translation for one entry.
type Proposal struct {
	// Text is the proposed translation.
	Text string
	// Explanation is the model's rationale.
	Explanation string
	// Confidence is the model's self-reported confidence (e.g. "90%").
	Confidence string
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

// RequestError reports a failed translation request: a network error, a
// non-success HTTP status, or a reply that does not follow the labeled
// contract. The session skips the entry and continues.
type RequestError struct {
	// Status is the HTTP status code, 0 for network and parse failures.
	Status int
	// Body is a truncated response body for debug output.
	Body string
	// Err is the underlying failure.
	Err error
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("translation request failed: status %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("translation request failed: %v", e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// ---------------------------------------------------------------------------
// HTTP plumbing
// ---------------------------------------------------------------------------

// NormalizeEndpoint appends /chat/completions to base URLs that point at an
// API root instead of the completions resource.
func NormalizeEndpoint(base string) string {
	if strings.HasSuffix(base, "/chat/completions") {
		return base
	}
	return strings.TrimRight(base, "/") + "/chat/completions"
}

func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

func buildChatRequest(model, systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	req := struct {
		Model       string  `json:"model"`
		Messages    []msg   `json:"messages"`
		Temperature float64 `json:"temperature"`
		Stream      bool    `json:"stream"`
	}{
		Model: model,
		Messages: []msg{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
		Stream:      false,
	}
	return json.Marshal(req)
}

// extractResponseText pulls the generated text out of a chat-completion
// response, surfacing API error objects as errors.
func extractResponseText(body []byte) (string, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("invalid JSON response: %w", err)
	}

	if errObj, ok := raw["error"]; ok {
		if errMap, ok := errObj.(map[string]any); ok {
			if msg, ok := errMap["message"].(string); ok {
				return "", fmt.Errorf("API error: %s", msg)
			}
		}
		return "", fmt.Errorf("API error: %v", errObj)
	}

	if choices, ok := raw["choices"].([]any); ok && len(choices) > 0 {
		if choice, ok := choices[0].(map[string]any); ok {
			if message, ok := choice["message"].(map[string]any); ok {
				if content, ok := message["content"].(string); ok {
					return content, nil
				}
			}
		}
	}

	return "", fmt.Errorf("could not extract text from response: %s", truncate(string(body), 500))
}

// ---------------------------------------------------------------------------
// Prompt
// ---------------------------------------------------------------------------

const promptTemplate = `Translate the following text from the source language to %[1]s.
Consider the context, comment, and extracomment provided.

Source text: %[2]s
Context: %[3]s
Comment: %[4]s
Extracomment: %[5]s

Please provide:
1. The translation in %[1]s
2. A brief explanation of your translation choices
3. A confidence score (from 0 to 100%%) indicating your confidence in the translation

Format your response as:
TRANSLATION: [your translation]
EXPLANATION: [your explanation]
CONFIDENCE: [your confidence percentage]`

func buildUserPrompt(req Request) string {
	return fmt.Sprintf(promptTemplate,
		req.TargetLanguage, req.Source, req.Context, req.Comment, req.ExtraComment)
}

func buildSystemPrompt(req Request) string {
	return fmt.Sprintf("You are a professional translator to %s.", req.TargetLanguage)
}

// ---------------------------------------------------------------------------
// Reply parsing
// ---------------------------------------------------------------------------

// ParseProposal decomposes the model's reply per the labeled contract.
// TRANSLATION and EXPLANATION sections are required; CONFIDENCE is optional.
// Unlabeled lines continue the preceding section. Ambiguous replies are an
// error rather than a guess.
func ParseProposal(content string) (*Proposal, error) {
	p := &Proposal{}
	var current *string
	hasTranslation := false
	hasExplanation := false

	for _, line := range strings.Split(content, "\n") {
		switch {
		case strings.HasPrefix(line, "TRANSLATION:"):
			p.Text = strings.TrimSpace(strings.TrimPrefix(line, "TRANSLATION:"))
			current = &p.Text
			hasTranslation = true
		case strings.HasPrefix(line, "EXPLANATION:"):
			p.Explanation = strings.TrimSpace(strings.TrimPrefix(line, "EXPLANATION:"))
			current = &p.Explanation
			hasExplanation = true
		case strings.HasPrefix(line, "CONFIDENCE:"):
			p.Confidence = strings.TrimSpace(strings.TrimPrefix(line, "CONFIDENCE:"))
			current = &p.Confidence
		default:
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || current == nil {
				continue
			}
			if *current == "" {
				*current = trimmed
			} else {
				*current += "\n" + trimmed
			}
		}
	}

	if !hasTranslation || !hasExplanation {
		return nil, fmt.Errorf("reply does not follow the TRANSLATION/EXPLANATION contract: %s", truncate(content, 200))
	}
	return p, nil
}

// ---------------------------------------------------------------------------
// Request execution
// ---------------------------------------------------------------------------

// Translate sends one synchronous request for the entry described by req and
// returns the parsed proposal. All failure modes come back as *RequestError
// so the caller can report and move on.
func Translate(ctx context.Context, prov Provider, req Request) (*Proposal, error) {
	endpoint := NormalizeEndpoint(prov.BaseURL)

	body, err := buildChatRequest(prov.Model, buildSystemPrompt(req), buildUserPrompt(req), 0.3)
	if err != nil {
		return nil, &RequestError{Err: fmt.Errorf("building request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &RequestError{Err: fmt.Errorf("creating request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if prov.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+prov.APIKey)
	}

	if prov.Verbose {
		log.Printf("[DEBUG] POST %s model=%s", endpoint, prov.Model)
		log.Printf("[DEBUG] request body: %s", body)
	}

	client := makeHTTPClient(prov.Proxy, prov.effectiveTimeout())
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	respBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if prov.Verbose {
		log.Printf("[DEBUG] response status: %d", resp.StatusCode)
		log.Printf("[DEBUG] response body: %s", truncate(string(respBody), 2000))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RequestError{Status: resp.StatusCode, Body: truncate(string(respBody), 500)}
	}

	content, err := extractResponseText(respBody)
	if err != nil {
		return nil, &RequestError{Err: err}
	}

	prop, err := ParseProposal(content)
	if err != nil {
		return nil, &RequestError{Err: err}
	}

	// A source of bare ellipsis carries nothing translatable; the model's
	// output becomes the explanation and confidence drops to zero.
	if src := strings.TrimSpace(req.Source); src == "..." || src == "…" {
		prop.Explanation = prop.Text
		prop.Text = ""
		prop.Confidence = "0%"
	}

	return prop, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "…"
}
