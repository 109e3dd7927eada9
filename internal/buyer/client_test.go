package buyer_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"leadline/internal/buyer"
	"leadline/internal/config"
	"leadline/internal/domain"
)

func testLead() domain.Lead {
	return domain.Lead{
		CallerID:      "(555) 555-5555",
		ClaimantName:  "Jane Doe",
		SourceID:      "CC000001",
		IncidentState: "TX",
		IncidentDate:  "06/15/2024",
		AtFault:       true,
		PubID:         "CCBFTX",
	}
}

func TestHTTPClientSubmitParams(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		got = r.URL.Query()
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := &buyer.HTTPClient{Endpoint: srv.URL, Timeout: time.Second}
	ack, err := c.Submit(context.Background(), testLead())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !ack.Accepted() {
		t.Fatalf("expected accepted ack, got %+v", ack)
	}

	want := map[string]string{
		"isTest":        "0",
		"callerId":      "(555) 555-5555",
		"claimantName":  "Jane Doe",
		"claimantEmail": "",
		"sourceId":      "CC000001",
		"incidentState": "TX",
		"incidentDate":  "06/15/2024",
		"atFault":       "Yes",
		"attorney":      "No",
		"settlement":    "No",
		"pubId":         "CCBFTX",
	}
	for k, v := range want {
		if got.Get(k) != v {
			t.Errorf("param %s = %q, want %q", k, got.Get(k), v)
		}
	}
}

func TestHTTPClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := &buyer.HTTPClient{Endpoint: srv.URL, Timeout: time.Second}
	_, err := c.Submit(context.Background(), testLead())
	be, ok := err.(*buyer.Error)
	if !ok {
		t.Fatalf("expected *buyer.Error, got %v", err)
	}
	if be.Kind != buyer.KindServer || be.StatusCode != http.StatusBadGateway {
		t.Fatalf("kind=%s code=%d", be.Kind, be.StatusCode)
	}
}

func TestHTTPClientProtocolError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c := &buyer.HTTPClient{Endpoint: srv.URL, Timeout: time.Second}
	_, err := c.Submit(context.Background(), testLead())
	be, ok := err.(*buyer.Error)
	if !ok || be.Kind != buyer.KindProtocol {
		t.Fatalf("expected PROTOCOL error, got %v", err)
	}
}

func TestHTTPClientMissingStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := &buyer.HTTPClient{Endpoint: srv.URL, Timeout: time.Second}
	_, err := c.Submit(context.Background(), testLead())
	be, ok := err.(*buyer.Error)
	if !ok || be.Kind != buyer.KindProtocol {
		t.Fatalf("expected PROTOCOL error, got %v", err)
	}
}

func TestHTTPClientNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := &buyer.HTTPClient{Endpoint: srv.URL, Timeout: time.Second}
	_, err := c.Submit(context.Background(), testLead())
	be, ok := err.(*buyer.Error)
	if !ok || be.Kind != buyer.KindNetwork {
		t.Fatalf("expected NETWORK error, got %v", err)
	}
}

func TestFormatDate(t *testing.T) {
	cases := map[string]string{
		"2024-06-15": "06/15/2024",
		"06/15/2024": "06/15/2024",
		"":           "",
		"junk":       "junk",
	}
	for in, want := range cases {
		if got := buyer.FormatDate(in); got != want {
			t.Errorf("FormatDate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMockSubmit(t *testing.T) {
	m := &buyer.Mock{Delay: 10 * time.Millisecond}
	ack, err := m.Submit(context.Background(), testLead())
	if err != nil {
		t.Fatalf("mock submit: %v", err)
	}
	if !ack.Accepted() {
		t.Fatalf("mock should accept, got %+v", ack)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m = &buyer.Mock{Delay: time.Second}
	_, err = m.Submit(ctx, testLead())
	be, ok := err.(*buyer.Error)
	if !ok || be.Kind != buyer.KindNetwork {
		t.Fatalf("expected NETWORK error on cancellation, got %v", err)
	}
}

func TestNewSelectsMode(t *testing.T) {
	cfg := config.Default()
	if _, ok := buyer.New(cfg).(*buyer.Mock); !ok {
		t.Fatalf("default config should select the mock client")
	}
	cfg.Buyer.Mode = config.ModeLive
	if _, ok := buyer.New(cfg).(*buyer.HTTPClient); !ok {
		t.Fatalf("live mode should select the HTTP client")
	}
}

func TestIsTestFlag(t *testing.T) {
	lead := testLead()
	lead.IsTest = true
	if got := buyer.Params(lead).Get("isTest"); got != "1" {
		t.Fatalf("isTest = %q, want 1", got)
	}
}
