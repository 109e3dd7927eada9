package leadlinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a minimal Leadline HTTP API client for form UIs.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Lead represents the API lead model.
type Lead struct {
	CallerID           string  `json:"caller_id"`
	ClaimantName       string  `json:"claimant_name,omitempty"`
	ClaimantEmail      string  `json:"claimant_email,omitempty"`
	SourceID           string  `json:"source_id"`
	IncidentState      string  `json:"incident_state"`
	IncidentDate       string  `json:"incident_date"`
	AtFault            bool    `json:"at_fault"`
	Attorney           bool    `json:"attorney"`
	SeekingNewAttorney bool    `json:"seeking_new_attorney"`
	Settlement         bool    `json:"settlement"`
	HasInsurance       *bool   `json:"has_insurance,omitempty"`
	InsuranceCoverage  *string `json:"insurance_coverage,omitempty"`
	TrustedFormCertURL string  `json:"trusted_form_cert_url,omitempty"`
	PubID              string  `json:"pub_id,omitempty"`
	IsTest             bool    `json:"is_test"`
}

// Draft is the current draft plus UI hints.
type Draft struct {
	Lead               Lead   `json:"lead"`
	EligibilityWarning bool   `json:"eligibility_warning"`
	State              string `json:"state"`
}

// Submission is one recorded attempt.
type Submission struct {
	ID          string `json:"id"`
	Lead        Lead   `json:"lead"`
	SubmittedAt string `json:"submitted_at"`
	Status      string `json:"status"`
	APIResponse string `json:"api_response,omitempty"`
}

// Outcome is the result of a submit.
type Outcome struct {
	Status      string     `json:"status"`
	Submission  Submission `json:"submission"`
	TransferDID string     `json:"transfer_did,omitempty"`
	Message     string     `json:"message,omitempty"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// GetDraft fetches the current draft.
func (c *Client) GetDraft(ctx context.Context) (Draft, error) {
	var resp Draft
	err := c.do(ctx, http.MethodGet, "v0/draft", nil, &resp)
	return resp, err
}

// UpdateDraft applies a partial edit; nil map values are not supported,
// omit keys instead.
func (c *Client) UpdateDraft(ctx context.Context, fields map[string]any) (Draft, error) {
	var resp Draft
	err := c.do(ctx, http.MethodPatch, "v0/draft", fields, &resp)
	return resp, err
}

// Submit runs the pipeline on the current draft.
func (c *Client) Submit(ctx context.Context) (Outcome, error) {
	var resp Outcome
	err := c.do(ctx, http.MethodPost, "v0/submit", nil, &resp)
	return resp, err
}

// History lists submissions newest first.
func (c *Client) History(ctx context.Context) ([]Submission, error) {
	var resp struct {
		Items []Submission `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, "v0/history", nil, &resp)
	return resp.Items, err
}

// ExportCSV downloads the history export and returns the raw CSV.
func (c *Client) ExportCSV(ctx context.Context) (string, error) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base()+"/v0/history/export", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 300 {
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	return string(b), nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
