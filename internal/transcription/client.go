// Package transcription submits audio answers to the speech-to-text service
// and drives the asynchronous transcription workflow.
package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultAPIURL is the Speechmatics batch transcription endpoint.
	DefaultAPIURL = "https://eu1.asr.api.speechmatics.com/v2"

	// DefaultPollInterval is the delay between transcript readiness checks.
	DefaultPollInterval = 3 * time.Second

	// DefaultPollTimeout bounds how long a transcript may stay "not ready"
	// before the poll step fails.
	DefaultPollTimeout = 180 * time.Second
)

// EmptyTranscriptMessage is returned when the service produces a ready but
// empty transcript. Saying nothing intelligible is a valid answer, not a
// system fault.
const EmptyTranscriptMessage = "Can't evaluate your answer , please speak clearly"

// ErrPollTimeout indicates the transcript stayed unready past the timeout.
var ErrPollTimeout = errors.New("transcript polling timed out")

// Client calls the Speechmatics batch API.
type Client struct {
	apiURL       string
	apiKey       string
	httpClient   *http.Client
	pollInterval time.Duration
	pollTimeout  time.Duration
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithAPIURL overrides the service URL, used by tests.
func WithAPIURL(url string) ClientOption {
	return func(c *Client) { c.apiURL = strings.TrimRight(url, "/") }
}

// WithPollTiming overrides the poll interval and timeout.
func WithPollTiming(interval, timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.pollInterval = interval
		c.pollTimeout = timeout
	}
}

// NewClient creates a Speechmatics client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiURL:       DefaultAPIURL,
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		pollInterval: DefaultPollInterval,
		pollTimeout:  DefaultPollTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit posts audio for transcription and returns the service's job id.
// A 2xx response without a job id is an error.
func (c *Client) Submit(ctx context.Context, audioPath string, audio []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("data_file", audioPath)
	if err != nil {
		return "", fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("failed to write audio to multipart body: %w", err)
	}

	config := map[string]any{
		"type":                 "transcription",
		"transcription_config": map[string]string{"language": "en"},
	}
	configJSON, err := json.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("failed to encode transcription config: %w", err)
	}
	if err := writer.WriteField("config", string(configJSON)); err != nil {
		return "", fmt.Errorf("failed to write config field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/jobs", &body)
	if err != nil {
		return "", fmt.Errorf("failed to build submit request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription submit failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read submit response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("transcription submit returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("malformed submit response: %w", err)
	}
	if result.ID == "" {
		return "", fmt.Errorf("no job id in transcription submit response")
	}
	return result.ID, nil
}

// PollTranscript queries the job until a transcript is ready or the timeout
// passes. A ready-but-empty transcript yields EmptyTranscriptMessage.
// 202/204/404 mean "not ready yet"; any other non-200 status fails the poll
// immediately.
func (c *Client) PollTranscript(ctx context.Context, jobID string) (string, error) {
	url := fmt.Sprintf("%s/jobs/%s/transcript?format=txt", c.apiURL, jobID)
	deadline := time.Now().Add(c.pollTimeout)

	for {
		status, text, err := c.fetchTranscript(ctx, url)
		if err != nil {
			return "", err
		}

		switch status {
		case http.StatusOK:
			if text == "" {
				return EmptyTranscriptMessage, nil
			}
			return text, nil
		case http.StatusAccepted, http.StatusNoContent, http.StatusNotFound:
			// Not ready yet, keep polling.
		default:
			return "", fmt.Errorf("unexpected transcript status %d for job %s", status, jobID)
		}

		if time.Now().After(deadline) {
			return "", fmt.Errorf("%w for job %s after %s", ErrPollTimeout, jobID, c.pollTimeout)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

func (c *Client) fetchTranscript(ctx context.Context, url string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, "", fmt.Errorf("failed to build transcript request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("transcript request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", fmt.Errorf("failed to read transcript response: %w", err)
	}
	return resp.StatusCode, strings.TrimSpace(string(body)), nil
}
