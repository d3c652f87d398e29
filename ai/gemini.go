package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"go-beatmaker/debug"
)

const (
	DefaultModel      = "gemini-3-flash-preview"
	DefaultEndpoint   = "https://generativelanguage.googleapis.com/"
	DefaultAPIVersion = "v1beta"
	DefaultTimeout    = 30 * time.Second
)

// instrumentIDs are the keys the model is asked to fill
var instrumentIDs = []string{"Kick", "Snare", "HiHat", "OpenHH", "Clap", "Cowbell"}

// GeminiClient generates patterns with the Gemini API.
type GeminiClient struct {
	apiKey    string
	model     string
	endpoint  string
	timeout   time.Duration
	transport http.RoundTripper
}

// NewGeminiClient creates a client. Empty model or endpoint select the
// defaults.
func NewGeminiClient(apiKey, model, endpoint string, timeout time.Duration) *GeminiClient {
	if model == "" {
		model = DefaultModel
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &GeminiClient{
		apiKey:    apiKey,
		model:     model,
		endpoint:  strings.TrimRight(endpoint, "/") + "/",
		timeout:   timeout,
		transport: http.DefaultTransport,
	}
}

// statusRecorder remembers whether the service answered and with what
// status, so failures can be told apart without inspecting SDK errors
type statusRecorder struct {
	base http.RoundTripper

	mu     sync.Mutex
	status int
}

func (r *statusRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := r.base.RoundTrip(req)
	if err == nil {
		r.mu.Lock()
		r.status = resp.StatusCode
		r.mu.Unlock()
	}
	return resp, err
}

func (r *statusRecorder) lastStatus() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func responseSchema() *genai.Schema {
	tracks := make(map[string]*genai.Schema, len(instrumentIDs))
	for _, id := range instrumentIDs {
		tracks[id] = &genai.Schema{
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeInteger},
		}
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"patterns": {Type: genai.TypeObject, Properties: tracks},
			"genre":    {Type: genai.TypeString},
		},
		Required: []string{"patterns", "genre"},
	}
}

func promptText(style string) string {
	return fmt.Sprintf(`Create a professional 4-bar (64 steps) drum pattern for the following style: %q.
Return the pattern as a JSON object where keys are the instrument names ('%s')
and values are arrays of step indices (0 to 63) where a note should be played.
Ensure the pattern is musically coherent and fits the 16th note grid.`,
		style, strings.Join(instrumentIDs, "', '"))
}

// Generate asks the model for a pattern in the given style.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (*Result, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: no API key configured", ErrUnavailable)
	}

	rec := &statusRecorder{base: c.transport}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     c.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: c.timeout, Transport: rec},
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    c.endpoint,
			APIVersion: DefaultAPIVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	start := time.Now()
	resp, err := client.Models.GenerateContent(ctx, c.model, genai.Text(promptText(prompt)), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	})
	status := rec.lastStatus()
	debug.Log("ai", "status %d in %s", status, time.Since(start))
	if err != nil {
		// no answer, or an error status: the service is the problem
		if status < 200 || status > 299 {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrNoPattern, err)
	}

	return parseResponse(resp)
}

func parseResponse(resp *genai.GenerateContentResponse) (*Result, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("%w: empty response", ErrNoPattern)
	}

	var text strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			text.WriteString(p.Text)
		}
	}
	raw := strings.TrimSpace(text.String())
	if raw == "" {
		return nil, fmt.Errorf("%w: empty response", ErrNoPattern)
	}

	var res Result
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoPattern, err)
	}
	if res.Patterns == nil {
		return nil, fmt.Errorf("%w: no patterns", ErrNoPattern)
	}
	return &res, nil
}
