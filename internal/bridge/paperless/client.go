// Package paperless is a stateless HTTP binding to a Paperless-style
// document ingestion API: a startup health check, multipart job submission
// and single-shot job status lookups. All timing policy (sleeping, retrying,
// deadlines) belongs to the caller.
package paperless

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ftpbridge/pkg/errors"
	"ftpbridge/pkg/logger"
)

const (
	healthCheckPath = "/api/ui_settings/"
	submitPath      = "/api/documents/post_document/"
	taskStatusPath  = "/api/tasks/"

	// multipart field name the ingestion endpoint expects
	documentField = "document"

	// responses larger than this are never legitimate task IDs
	maxSubmitResponseSize = 4 * 1024
)

// Client talks to one ingestion service instance. It holds no per-upload
// state and is shared read-only by all concurrent uploads; the embedded
// http.Client provides the reused connection pool.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *logger.Logger
}

// NewClient creates a client for the ingestion API at baseURL,
// authenticating every request with the given API token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger.WithField("component", "paperless-client"),
	}
}

// HealthCheck validates connectivity and the API token by hitting the UI
// settings endpoint. Used to fail fast at startup, before the FTP listener
// is opened.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthCheckPath, nil)
	if err != nil {
		return fmt.Errorf("%w: building health check request: %w", errors.ErrRemoteUnavailable, err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: health check: %w", errors.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: health check returned %s", errors.ErrRemoteUnavailable, resp.Status)
	}

	return nil
}

// Submit uploads the file at path as a multipart document submission and
// returns the task identifier assigned by the remote service. The service
// accepts the file synchronously and defers actual processing; callers must
// poll the returned task.
//
// Submission is not idempotent on the remote side: a network error here may
// leave a duplicate job behind. That risk is accepted, the caller treats any
// error as "not submitted".
func (c *Client) Submit(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: opening staged file: %w", errors.ErrLocalIO, err)
	}
	defer file.Close()

	// Stream the multipart body through a pipe so memory use stays bounded
	// regardless of file size.
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		part, err := form.CreateFormFile(documentField, filepath.Base(path))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(form.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+submitPath, pr)
	if err != nil {
		return "", fmt.Errorf("%w: building submit request: %w", errors.ErrRemoteUnavailable, err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	c.authorize(req)

	c.logger.Debug("submitting document", "file", filepath.Base(path))

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: submit: %w", errors.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: submit returned %s", errors.ErrRemoteUnavailable, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSubmitResponseSize))
	if err != nil {
		return "", fmt.Errorf("%w: reading submit response: %w", errors.ErrRemoteUnavailable, err)
	}

	// The endpoint returns the task UUID as a quoted JSON string.
	taskID := strings.Trim(strings.TrimSpace(string(body)), `"`)
	if taskID == "" {
		return "", fmt.Errorf("%w: submit returned an empty task id", errors.ErrRemoteUnavailable)
	}

	return taskID, nil
}

// PollStatus performs exactly one status lookup for the given task. It never
// sleeps or retries. Any non-2xx response is an error, never a job state.
func (c *Client) PollStatus(ctx context.Context, taskID string) (JobState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+taskStatusPath+"?task_id="+taskID, nil)
	if err != nil {
		return "", fmt.Errorf("%w: building status request: %w", errors.ErrRemoteUnavailable, err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: status lookup: %w", errors.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status lookup returned %s", errors.ErrRemoteUnavailable, resp.Status)
	}

	var tasks []struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tasks); err != nil {
		return "", fmt.Errorf("%w: decoding status response: %w", errors.ErrRemoteUnavailable, err)
	}

	// An empty array means the task is not visible yet; treat as pending.
	if len(tasks) == 0 {
		return StatePending, nil
	}

	return stateFromRemote(tasks[0].Status), nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Token "+c.token)
}
