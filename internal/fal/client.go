// Package fal submits jobs to the fal.ai queue and waits for their results.
package fal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"falgen/internal/apperr"
	"falgen/pkg/httputil"
)

const (
	DefaultQueueURL     = "https://queue.fal.run"
	DefaultTimeout      = 300 * time.Second
	DefaultPollInterval = time.Second

	statusInQueue    = "IN_QUEUE"
	statusInProgress = "IN_PROGRESS"
	statusCompleted  = "COMPLETED"
)

// Result is the JSON object fal returns for a finished job. Its schema is
// owned by each model endpoint.
type Result map[string]any

type Options struct {
	QueueURL     string
	PollInterval time.Duration
	Timeout      time.Duration
	PollRetries  int
}

type Client struct {
	apiKey       string
	httpClient   *http.Client
	poller       httputil.Doer
	queueURL     string
	pollInterval time.Duration
}

type submitResponse struct {
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
}

type logEntry struct {
	Message   string `json:"message"`
	Level     string `json:"level"`
	Timestamp string `json:"timestamp"`
}

type statusResponse struct {
	Status        string          `json:"status"`
	QueuePosition *int            `json:"queue_position"`
	Logs          []logEntry      `json:"logs"`
	Error         json.RawMessage `json:"error"`
	ErrorType     string          `json:"error_type"`
}

func NewClient(apiKey string, opts Options) *Client {
	queueURL := strings.TrimRight(opts.QueueURL, "/")
	if queueURL == "" {
		queueURL = DefaultQueueURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	httpClient := &http.Client{Timeout: timeout}

	return &Client{
		apiKey:       apiKey,
		httpClient:   httpClient,
		poller:       httputil.NewRetryClient(httpClient, httputil.RetryConfig{MaxRetries: opts.PollRetries}),
		queueURL:     queueURL,
		pollInterval: interval,
	}
}

// Submit enqueues a job for modelID and blocks until it completes. The job is
// submitted once; any transport or service failure is returned as a
// RemoteJob error.
func (c *Client) Submit(ctx context.Context, modelID string, payload map[string]any) (Result, error) {
	op := "submit " + modelID

	var queued submitResponse
	if err := c.doJSON(ctx, c.httpClient, http.MethodPost, c.queueURL+"/"+strings.TrimLeft(modelID, "/"), payload, &queued); err != nil {
		return nil, apperr.New(apperr.RemoteJob, op, err)
	}
	if queued.StatusURL == "" || queued.ResponseURL == "" {
		return nil, apperr.New(apperr.RemoteJob, op, errors.New("queue response missing status_url or response_url"))
	}

	slog.Debug("Job queued", "model", modelID, "request_id", queued.RequestID)

	if err := c.wait(ctx, queued); err != nil {
		return nil, apperr.New(apperr.RemoteJob, op, err)
	}

	var result Result
	if err := c.doJSON(ctx, c.poller, http.MethodGet, queued.ResponseURL, nil, &result); err != nil {
		return nil, apperr.New(apperr.RemoteJob, op, fmt.Errorf("fetch result: %w", err))
	}
	if result == nil {
		return nil, apperr.New(apperr.RemoteJob, op, errors.New("empty result"))
	}

	return result, nil
}

func (c *Client) wait(ctx context.Context, queued submitResponse) error {
	statusURL := withLogs(queued.StatusURL)
	lastPosition := -1
	seenLogs := 0
	started := false

	for {
		var st statusResponse
		if err := c.doJSON(ctx, c.poller, http.MethodGet, statusURL, nil, &st); err != nil {
			return fmt.Errorf("poll status: %w", err)
		}

		for _, entry := range st.Logs[min(seenLogs, len(st.Logs)):] {
			slog.Debug("fal", "log", entry.Message, "level", entry.Level)
		}
		seenLogs = max(seenLogs, len(st.Logs))

		switch st.Status {
		case statusCompleted:
			if msg := rawMessage(st.Error); msg != "" {
				if st.ErrorType != "" {
					return fmt.Errorf("job failed (%s): %s", st.ErrorType, msg)
				}
				return fmt.Errorf("job failed: %s", msg)
			}
			slog.Debug("Job completed", "request_id", queued.RequestID)
			return nil
		case statusInQueue:
			if st.QueuePosition != nil && *st.QueuePosition != lastPosition {
				lastPosition = *st.QueuePosition
				slog.Info("Waiting in queue", "position", lastPosition)
			}
		case statusInProgress:
			if !started {
				started = true
				slog.Info("Job in progress", "request_id", queued.RequestID)
			}
		default:
			return fmt.Errorf("unexpected job status %q", st.Status)
		}

		timer := time.NewTimer(c.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Client) doJSON(ctx context.Context, doer httputil.Doer, method, url string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Key "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := doer.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if msg := detailMessage(data); msg != "" {
			return fmt.Errorf("fal error (%s): %s", resp.Status, msg)
		}
		return fmt.Errorf("fal error: %s", resp.Status)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func withLogs(statusURL string) string {
	if strings.Contains(statusURL, "?") {
		return statusURL + "&logs=1"
	}
	return statusURL + "?logs=1"
}

// detailMessage pulls a readable message out of a fal error body. The detail
// field is a string, a list of validation errors, or an object with a message.
func detailMessage(body []byte) string {
	var errResp struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil || len(errResp.Detail) == 0 {
		return ""
	}

	var validation []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(errResp.Detail, &validation); err == nil {
		msgs := make([]string, 0, len(validation))
		for _, v := range validation {
			if v.Msg == "" {
				continue
			}
			if len(v.Loc) > 0 {
				msgs = append(msgs, fmt.Sprintf("%v: %s", v.Loc[len(v.Loc)-1], v.Msg))
			} else {
				msgs = append(msgs, v.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(errResp.Detail, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}

	return rawMessage(errResp.Detail)
}

func rawMessage(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
