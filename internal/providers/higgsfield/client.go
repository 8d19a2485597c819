package higgsfield

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"fanshorts/internal/infra"
)

// ErrMissingCredentials indicates the client has no API key/secret pair.
var ErrMissingCredentials = errors.New("higgsfield: api key and secret are required")

// Options configures the Higgsfield client.
type Options struct {
	APIKey         string
	Secret         string
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls against the Higgsfield platform API.
type Client struct {
	apiKey     string
	secret     string
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

// Motion is a predefined motion preset.
type Motion struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	PreviewURL    string `json:"preview_url"`
	StartEndFrame bool   `json:"start_end_frame"`
}

// GenerateInput captures the inputs for an image-to-video generation.
type GenerateInput struct {
	ImageURL string
	MotionID string
	Prompt   string
	Model    string
	Strength float64
}

// JobSet is the provider's job envelope. A set carries one job per requested
// output; this service only ever requests one.
type JobSet struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Jobs []Job  `json:"jobs"`
}

// Job is a single generation inside a job set.
type Job struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Results *struct {
		Min JobResult `json:"min"`
		Raw JobResult `json:"raw"`
	} `json:"results"`
}

// JobResult points at a rendered output.
type JobResult struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://platform.higgsfield.ai"
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		secret:     strings.TrimSpace(opts.Secret),
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != "" && c.secret != ""
}

// ListMotions returns the available motion presets.
func (c *Client) ListMotions(ctx context.Context) ([]Motion, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingCredentials
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/motions", nil)
	if err != nil {
		return nil, fmt.Errorf("higgsfield: build request: %w", err)
	}
	c.setHeaders(req)

	raw, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var motions []Motion
	if err := json.Unmarshal(raw, &motions); err != nil {
		return nil, fmt.Errorf("higgsfield: decode motions: %w", err)
	}
	return motions, nil
}

// GenerateVideo submits an image-to-video generation using a motion preset.
func (c *Client) GenerateVideo(ctx context.Context, input GenerateInput) (*JobSet, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingCredentials
	}
	model := input.Model
	if model == "" {
		model = "dop-preview"
	}
	prompt := strings.TrimSpace(input.Prompt)
	if prompt == "" {
		prompt = "A person performing motion"
	}
	strength := input.Strength
	if strength <= 0 {
		strength = 0.5
	}
	payload := map[string]any{
		"params": map[string]any{
			"model":  model,
			"prompt": prompt,
			"input_images": []map[string]any{
				{"type": "image_url", "image_url": input.ImageURL},
			},
			"motions": []map[string]any{
				{"id": input.MotionID, "strength": strength},
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("higgsfield: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/image2video/dop", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("higgsfield: build request: %w", err)
	}
	c.setHeaders(req)

	raw, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var set JobSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("higgsfield: decode job set: %w", err)
	}
	c.logger.Debug().Str("job_set_id", set.ID).Msg("higgsfield: job set created")
	return &set, nil
}

// GetJobSet fetches the current state of a job set.
func (c *Client) GetJobSet(ctx context.Context, id string) (*JobSet, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingCredentials
	}
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("higgsfield: job set id is required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/job-sets/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("higgsfield: build request: %w", err)
	}
	c.setHeaders(req)

	raw, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var set JobSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("higgsfield: decode job set: %w", err)
	}
	return &set, nil
}

// FirstResultURL returns the raw output URL of the first finished job.
func (s *JobSet) FirstResultURL() string {
	if s == nil {
		return ""
	}
	for _, job := range s.Jobs {
		if job.Results == nil {
			continue
		}
		if job.Results.Raw.URL != "" {
			return job.Results.Raw.URL
		}
		if job.Results.Min.URL != "" {
			return job.Results.Min.URL
		}
	}
	return ""
}

// FirstJobStatus returns the status of the first job in the set.
func (s *JobSet) FirstJobStatus() string {
	if s == nil || len(s.Jobs) == 0 {
		return ""
	}
	return s.Jobs[0].Status
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("hf-api-key", c.apiKey)
	req.Header.Set("hf-secret", c.secret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("higgsfield: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("higgsfield: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		detail := strings.TrimSpace(string(raw))
		if len(detail) > 200 {
			detail = detail[:200]
		}
		return nil, fmt.Errorf("higgsfield: status %d: %s", resp.StatusCode, detail)
	}
	return raw, nil
}
