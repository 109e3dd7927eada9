// Package buyer talks to the external lead-buyer endpoint. The live client
// and the offline mock implement the same Submitter interface and are picked
// by configuration at construction time, so both paths stay testable.
package buyer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"leadline/internal/config"
	"leadline/internal/domain"
)

// Failure kinds reported by the live client.
const (
	KindNetwork  = "NETWORK"
	KindServer   = "SERVER"
	KindProtocol = "PROTOCOL"
)

// Ack is the buyer's JSON acknowledgment.
type Ack struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Accepted reports whether the buyer accepted the lead.
func (a Ack) Accepted() bool { return a.Status == "ok" }

// Error classifies a failed submission attempt.
type Error struct {
	Kind       string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindServer:
		return fmt.Sprintf("buyer returned status %d", e.StatusCode)
	case KindProtocol:
		return fmt.Sprintf("buyer response unreadable: %v", e.Err)
	default:
		return fmt.Sprintf("buyer unreachable: %v", e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Submitter sends one validated lead to the buyer. Implementations never
// retry; every failure surfaces once to the caller.
type Submitter interface {
	Submit(ctx context.Context, lead domain.Lead) (Ack, error)
}

// New selects the client for the configured mode.
func New(cfg *config.Config) Submitter {
	if cfg.Buyer.Mode == config.ModeMock {
		return &Mock{Delay: time.Duration(cfg.Buyer.MockDelay)}
	}
	return &HTTPClient{
		Endpoint: cfg.Buyer.Endpoint,
		Timeout:  time.Duration(cfg.Buyer.Timeout),
	}
}

// HTTPClient performs the real call. Every lead field travels as a query
// parameter on a POST with an empty body, which is the shape the buyer's
// enrich endpoint accepts.
type HTTPClient struct {
	Endpoint   string
	HTTPClient *http.Client
	Timeout    time.Duration
}

func (c *HTTPClient) Submit(ctx context.Context, lead domain.Lead) (Ack, error) {
	if c.HTTPClient == nil {
		timeout := c.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		c.HTTPClient = &http.Client{Timeout: timeout}
	}
	endpoint := c.Endpoint + "?" + Params(lead).Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return Ack{}, &Error{Kind: KindNetwork, Err: err}
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Ack{}, &Error{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Ack{}, &Error{Kind: KindProtocol, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Ack{}, &Error{Kind: KindServer, StatusCode: resp.StatusCode}
	}
	var ack Ack
	if err := json.Unmarshal(body, &ack); err != nil {
		return Ack{}, &Error{Kind: KindProtocol, Err: err}
	}
	if ack.Status == "" {
		return Ack{}, &Error{Kind: KindProtocol, Err: fmt.Errorf("ack missing status")}
	}
	return ack, nil
}

// Params renders a lead as the buyer's request parameters. Booleans become
// Yes/No, the test flag 1/0, absent optionals empty strings, and the
// incident date is normalized to MM/DD/YYYY.
func Params(lead domain.Lead) url.Values {
	v := url.Values{}
	v.Set("isTest", zeroOne(lead.IsTest))
	v.Set("callerId", lead.CallerID)
	v.Set("claimantName", lead.ClaimantName)
	v.Set("claimantEmail", lead.ClaimantEmail)
	v.Set("sourceId", lead.SourceID)
	v.Set("incidentState", lead.IncidentState)
	v.Set("incidentDate", FormatDate(lead.IncidentDate))
	v.Set("atFault", yesNo(lead.AtFault))
	v.Set("attorney", yesNo(lead.Attorney))
	v.Set("settlement", yesNo(lead.Settlement))
	v.Set("trustedFormCertURL", lead.TrustedFormCertURL)
	v.Set("pubId", lead.PubID)
	return v
}

// FormatDate normalizes a date string to MM/DD/YYYY. YYYY-MM-DD input is
// converted; MM/DD/YYYY passes through; anything else is returned as-is for
// the validator to have rejected upstream.
func FormatDate(date string) string {
	if date == "" {
		return ""
	}
	parts := strings.FieldsFunc(date, func(r rune) bool { return r == '-' || r == '/' })
	if len(parts) == 3 && len(parts[0]) == 4 {
		return fmt.Sprintf("%s/%s/%s", parts[1], parts[2], parts[0])
	}
	return date
}

// Mock synthesizes a success ack after a simulated delay. No network I/O.
type Mock struct {
	Delay time.Duration
}

func (m *Mock) Submit(ctx context.Context, lead domain.Lead) (Ack, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return Ack{}, &Error{Kind: KindNetwork, Err: ctx.Err()}
		}
	}
	return Ack{Status: "ok", Message: "lead accepted (mock)"}, nil
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func zeroOne(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
