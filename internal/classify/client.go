// Package classify talks to the external classification backend: the CSR
// event classifier and the ESG document scorer live behind the same base URL.
package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gzfs/greenlit/internal/metrics"
	"github.com/gzfs/greenlit/internal/services"
)

// ErrMalformedResponse marks a backend reply that decoded but carried an
// unusable payload. Callers can branch on it with errors.Is.
var ErrMalformedResponse = errors.New("malformed backend response")

// Client calls the classification backend over HTTP. It implements both
// services.Classifier and services.Scorer.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Classify posts an event description or a round of follow-up answers and
// returns the backend's verdict.
func (c *Client) Classify(ctx context.Context, req services.ClassifyRequest) (*services.Classification, error) {
	var res services.Classification
	err := c.post(ctx, "/classify", req, &res)
	metrics.ObserveBackendCall("classify", err)
	if err != nil {
		return nil, err
	}
	if !res.Complete && len(res.Questions) == 0 && res.EventID == "" {
		return nil, fmt.Errorf("%w: neither questions nor completion", ErrMalformedResponse)
	}
	return &res, nil
}

type analyzeRequest struct {
	PDFURL string `json:"pdf_url"`
}

// Analyze posts a document URL and returns the five-axis score report.
func (c *Client) Analyze(ctx context.Context, pdfURL string) (*services.ESGReport, error) {
	var res services.ESGReport
	err := c.post(ctx, "/esg/analyze", analyzeRequest{PDFURL: pdfURL}, &res)
	metrics.ObserveBackendCall("esg_analyze", err)
	if err != nil {
		return nil, err
	}
	if res.FinalScore == 0 && res.EnvironmentalScore == 0 && res.SocialScore == 0 && res.GovernanceScore == 0 {
		return nil, fmt.Errorf("%w: all scores absent", ErrMalformedResponse)
	}
	return &res, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(string(jsonBody)))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend error (status %d): %s", resp.StatusCode, string(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
