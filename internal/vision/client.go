package vision

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/julianstephens/nutriscan/internal/constants"
	nserrors "github.com/julianstephens/nutriscan/internal/errors"
	"github.com/julianstephens/nutriscan/internal/logger"
	"github.com/julianstephens/nutriscan/internal/models"
)

const analysisInstruction = `Identify the food in this photo and estimate its nutrition for the portion shown.
Reply with exactly one single-line JSON object and nothing else, in this shape:
{"name":"dish name","calories":number,"macros":{"protein":number,"carbs":number,"fat":number},"insight":"one short tip with an emoji"}
Use grams for macros and kcal for calories. Do not wrap the JSON in Markdown.`

// Config configures the vision client. APIKey is sent as a bearer token.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration // zero keeps the transport default
	MaxRetries int           // extra attempts after a parse failure; negative means none
	HTTPClient *http.Client
}

// Client calls an OpenAI-compatible chat completions endpoint with an image
// and parses the reply into an AnalysisResult.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	maxRetries int
	http       *http.Client
	parse      func(string) (models.AnalysisResult, error)
	inflight   singleflight.Group
}

func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = constants.DefaultVisionURL
	}
	model := cfg.Model
	if model == "" {
		model = constants.DefaultVisionModel
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = constants.VisionMaxRetries
	} else if maxRetries < 0 {
		maxRetries = 0
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		model:      model,
		maxRetries: maxRetries,
		http:       httpClient,
		parse:      ParseResponse,
	}
}

// Analyze estimates the nutrition of the food in image.
func (c *Client) Analyze(ctx context.Context, image []byte) (models.AnalysisResult, error) {
	return c.AnalyzeWithInstruction(ctx, image, analysisInstruction)
}

// AnalyzeWithInstruction sends image with a custom instruction and applies
// the same parsing and retry policy as Analyze. Concurrent calls for the
// same image and instruction share a single run of attempts.
func (c *Client) AnalyzeWithInstruction(ctx context.Context, image []byte, instruction string) (models.AnalysisResult, error) {
	if len(image) == 0 {
		return models.AnalysisResult{}, &nserrors.AnalysisError{
			Reason: nserrors.ReasonImageUnavailable,
			Err:    errors.New("image is empty"),
		}
	}

	v, err, shared := c.inflight.Do(flightKey(image, instruction), func() (interface{}, error) {
		return c.attempt(ctx, image, instruction)
	})
	if shared {
		logger.Debug("Joined in-flight analysis")
	}
	if err != nil {
		return models.AnalysisResult{}, err
	}
	return v.(models.AnalysisResult), nil
}

// attempt runs the bounded retry loop. Attempts are strictly sequential;
// only parse failures are retried.
func (c *Client) attempt(ctx context.Context, image []byte, instruction string) (models.AnalysisResult, error) {
	requestID := uuid.NewString()
	maxAttempts := 1 + c.maxRetries

	var lastParseErr error
	for n := 1; n <= maxAttempts; n++ {
		content, err := c.complete(ctx, image, instruction)
		if err != nil {
			if !errors.Is(err, nserrors.ErrMalformedResponse) {
				logger.Warn("Vision request failed", "request_id", requestID, "attempt", n, "error", err)
				return models.AnalysisResult{}, &nserrors.AnalysisError{Attempts: n, Reason: nserrors.ReasonTransport, Err: err}
			}
			lastParseErr = err
		} else {
			result, err := c.parse(content)
			if err == nil {
				logger.Debug("Vision analysis parsed", "request_id", requestID, "attempt", n, "name", result.Name)
				return result, nil
			}
			lastParseErr = err
		}
		logger.Warn("Vision response rejected", "request_id", requestID, "attempt", n, "max_attempts", maxAttempts, "error", lastParseErr)
	}

	return models.AnalysisResult{}, &nserrors.AnalysisError{Attempts: maxAttempts, Reason: nserrors.ReasonParse, Err: lastParseErr}
}

type imageURL struct {
	URL string `json:"url"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Stream      bool          `json:"stream"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// complete performs one non-streaming request and returns the text of the
// first choice. A body that is not a valid completion envelope is reported
// as a malformed response so the caller can retry it.
func (c *Client) complete(ctx context.Context, image []byte, instruction string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:  c.model,
		Stream: false,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL(image)}},
				{Type: "text", Text: instruction},
			},
		}},
		Temperature: constants.VisionTemperature,
		MaxTokens:   constants.VisionMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode vision request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build vision request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("vision request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read vision response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("vision service returned %d: %s", resp.StatusCode, preview(respBody))
	}

	var envelope chatResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return "", nserrors.Malformed("invalid response envelope: %v", err)
	}
	if len(envelope.Choices) == 0 {
		return "", nserrors.Malformed("response has no choices")
	}
	return envelope.Choices[0].Message.Content, nil
}

func dataURL(image []byte) string {
	mime := http.DetectContentType(image)
	if !strings.HasPrefix(mime, "image/") {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(image)
}

func flightKey(image []byte, instruction string) string {
	h := sha256.New()
	h.Write(image)
	h.Write([]byte{0})
	h.Write([]byte(instruction))
	return hex.EncodeToString(h.Sum(nil))
}

func preview(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > constants.ErrorBodyPreview {
		s = s[:constants.ErrorBodyPreview]
	}
	return s
}
