package deepai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// UGCSystemPrompt is prefixed to every user prompt to bias generations
// toward casual, authentic lifestyle photography.
const UGCSystemPrompt = `Create a UGC lifestyle photography image with the following specifications:

STYLE: UGC lifestyle photography, casual and authentic, smartphone-shot aesthetic, natural lighting

MODELS:
- Female (20-35): genuine smile, approachable, trustworthy, casual everyday wear
- Male (20-35): confident, friendly, relatable, modern casual or streetwear

PRODUCT FOCUS: Natural usage, product held, applied, or integrated in a lifestyle setting. Product should look like part of daily routine, not forced.

BACKGROUND: Realistic everyday settings such as living room, coffee shop, work desk, or outdoors

CAMERA: Eye level or handheld POV, close-up on model and product, natural framing, high resolution but natural, not overly polished

BRANDING: Relatable, positive, authentic tone. Warm, friendly, aspirational mood. Model appears as if recommending product to a friend.

USER REQUEST: `

const (
	DefaultWidth   = 512
	DefaultHeight  = 512
	DefaultVersion = "standard"
	// DefaultPreference only applies when the version is "genius".
	DefaultPreference = "photography"

	maxAttempts    = 3
	attemptTimeout = 60 * time.Second
	maxBackoff     = 5 * time.Second
)

var (
	// ErrTimeout means every attempt hit the per-attempt deadline.
	ErrTimeout = errors.New("image generation request timed out after multiple attempts")
	// ErrNetwork means every attempt failed before an HTTP response arrived.
	ErrNetwork = errors.New("network error connecting to image generation service after multiple attempts")
	ErrInvalidAPIKey     = errors.New("invalid API key")
	ErrRateLimited       = errors.New("rate limit exceeded")
	ErrMalformedResponse = errors.New("invalid response: missing output_url")
)

// UpstreamError is a non-2xx DeepAI response other than 401/429. It is
// surfaced immediately without retry.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("DeepAI API error: %d - %s", e.StatusCode, e.Body)
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	sleep      func(d time.Duration) // overridable in tests
}

type GenerateRequest struct {
	Prompt  string
	Width   int
	Height  int
	Version string
	// GeniusPreference is only sent when Version is "genius".
	GeniusPreference string
	NegativePrompt   string
	// BaseImage is a data URI or http(s) URL used for image-to-image runs.
	BaseImage string
}

type GenerateResult struct {
	ID               string
	OutputURL        string
	ShareURL         string
	BackendRequestID string
	NSFWScore        float64
	EnhancedPrompt   string
}

type apiResponse struct {
	ID               string  `json:"id"`
	OutputURL        string  `json:"output_url"`
	ShareURL         string  `json:"share_url"`
	BackendRequestID string  `json:"backend_request_id"`
	NSFWScore        float64 `json:"nsfw_score"`
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: attemptTimeout,
		},
		sleep: time.Sleep,
	}
}

// EnhancePrompt combines the UGC style template with the user prompt.
func EnhancePrompt(prompt string) string {
	return UGCSystemPrompt + prompt
}

// Generate runs text2img with retry. Network and timeout errors are retried
// with exponential backoff (1s, 2s, capped at 5s); non-2xx responses are
// surfaced immediately.
func (c *Client) Generate(ctx context.Context, genReq GenerateRequest) (*GenerateResult, error) {
	if genReq.Width == 0 {
		genReq.Width = DefaultWidth
	}
	if genReq.Height == 0 {
		genReq.Height = DefaultHeight
	}
	if genReq.Version == "" {
		genReq.Version = DefaultVersion
	}
	if genReq.GeniusPreference == "" {
		genReq.GeniusPreference = DefaultPreference
	}

	enhancedPrompt := EnhancePrompt(genReq.Prompt)

	var lastErr error
	var timedOut bool

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		body, contentType, err := c.buildForm(enhancedPrompt, genReq)
		if err != nil {
			return nil, err
		}

		result, err := c.doAttempt(ctx, body, contentType)
		if err == nil {
			result.EnhancedPrompt = enhancedPrompt
			return result, nil
		}

		if !isRetryable(err) {
			return nil, err
		}

		lastErr = err
		if isTimeout(err) {
			timedOut = true
		}

		if attempt == maxAttempts {
			break
		}

		wait := min(time.Duration(1<<(attempt-1))*time.Second, maxBackoff)
		c.sleep(wait)
	}

	if timedOut {
		return nil, fmt.Errorf("%w: %v", ErrTimeout, lastErr)
	}
	return nil, fmt.Errorf("%w: %v", ErrNetwork, lastErr)
}

func (c *Client) doAttempt(ctx context.Context, body *bytes.Buffer, contentType string) (*GenerateResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, "POST", c.baseURL+"/text2img", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrInvalidAPIKey
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result apiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
	}

	if result.OutputURL == "" {
		return nil, ErrMalformedResponse
	}

	return &GenerateResult{
		ID:               result.ID,
		OutputURL:        result.OutputURL,
		ShareURL:         result.ShareURL,
		BackendRequestID: result.BackendRequestID,
		NSFWScore:        result.NSFWScore,
	}, nil
}

func (c *Client) buildForm(enhancedPrompt string, genReq GenerateRequest) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	w.WriteField("text", enhancedPrompt)
	w.WriteField("width", strconv.Itoa(genReq.Width))
	w.WriteField("height", strconv.Itoa(genReq.Height))
	w.WriteField("image_generator_version", genReq.Version)

	if genReq.Version == "genius" && genReq.GeniusPreference != "" {
		w.WriteField("genius_preference", genReq.GeniusPreference)
	}
	if genReq.NegativePrompt != "" {
		w.WriteField("negative_prompt", genReq.NegativePrompt)
	}

	if genReq.BaseImage != "" {
		if strings.HasPrefix(genReq.BaseImage, "data:image/") {
			parts := strings.SplitN(genReq.BaseImage, ",", 2)
			if len(parts) != 2 {
				return nil, "", fmt.Errorf("invalid base image data")
			}
			data, err := base64.StdEncoding.DecodeString(parts[1])
			if err != nil {
				return nil, "", fmt.Errorf("invalid base image data: %w", err)
			}
			fw, err := w.CreateFormFile("image", "base_image.png")
			if err != nil {
				return nil, "", fmt.Errorf("failed to add base image: %w", err)
			}
			if _, err := fw.Write(data); err != nil {
				return nil, "", fmt.Errorf("failed to add base image: %w", err)
			}
		} else if strings.HasPrefix(genReq.BaseImage, "http") {
			// DeepAI accepts image URLs directly.
			w.WriteField("image", genReq.BaseImage)
		} else {
			return nil, "", fmt.Errorf("invalid base image data")
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize form: %w", err)
	}

	return body, w.FormDataContentType(), nil
}

// isRetryable reports whether the error came from the transport rather than
// an HTTP response. Only transport failures are retried.
func isRetryable(err error) bool {
	if errors.Is(err, ErrInvalidAPIKey) || errors.Is(err, ErrRateLimited) || errors.Is(err, ErrMalformedResponse) {
		return false
	}
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return false
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return strings.Contains(err.Error(), "failed to execute request")
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
