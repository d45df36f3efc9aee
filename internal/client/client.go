package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"time"
)

const (
	fileField   = "file"
	fileName    = "flower.jpg"
	contentType = "image/jpeg"

	// UnknownClass is reported when the response names no class.
	UnknownClass = "unknown"
)

// Result is a prediction as returned by the inference API.
type Result struct {
	PredictedClass string             `json:"predicted_class"`
	Probabilities  map[string]float64 `json:"probabilities"`
}

// HealthStatus is the body of the API root endpoint.
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// APIError is returned when the API answers with a non-200 status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api returned status %d: %s", e.StatusCode, e.Body)
}

// Client talks to the inference API. Requests are never retried.
type Client struct {
	predictURL string
	httpClient *http.Client
}

// New creates a client for the given prediction endpoint URL.
func New(predictURL string, timeout time.Duration) *Client {
	return &Client{
		predictURL: predictURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Classify uploads a JPEG image and returns the decoded prediction.
func (c *Client) Classify(ctx context.Context, jpegData []byte) (*Result, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fileField, fileName))
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create form part: %w", err)
	}
	if _, err := part.Write(jpegData); err != nil {
		return nil, fmt.Errorf("failed to write form part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.predictURL, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return decodeResult(respBody)
}

// decodeResult tolerates missing fields: an absent class becomes
// UnknownClass and absent probabilities an empty map.
func decodeResult(data []byte) (*Result, error) {
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if result.PredictedClass == "" {
		result.PredictedClass = UnknownClass
	}
	if result.Probabilities == nil {
		result.Probabilities = map[string]float64{}
	}

	return &result, nil
}

// Health queries the API root, which shares a host with the prediction
// endpoint.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	u, err := url.Parse(c.predictURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	u.Path = "/"
	u.RawQuery = ""

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var status HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &status, nil
}
