// Package server exposes the lead intake pipeline over HTTP for the form
// UI: draft editing, submission, history and CSV export.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"leadline/internal/domain"
	"leadline/internal/ledger"
	"leadline/internal/pipeline"
	"leadline/internal/validate"
)

// Config for the HTTP API handler.
type Config struct {
	Pipeline *pipeline.Pipeline
	Ledger   ledger.Ledger
	BasePath string
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"validation_failed"`
	Message string         `json:"message" example:"validation failed: caller_id"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Leadline API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}

	router := chi.NewRouter()
	hcfg := huma.DefaultConfig("Leadline API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group)
	registerDraft(group, cfg.Pipeline)
	registerSubmit(group, cfg.Pipeline)
	registerHistory(group, cfg.Ledger)
	registerExport(router, basePath, cfg.Pipeline, cfg.Ledger)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var ve validate.Errors
	if errors.As(err, &ve) {
		details := make(map[string]any, len(ve.Fields))
		for field, msg := range ve.Fields {
			details[field] = msg
		}
		return newAPIError(http.StatusUnprocessableEntity, "validation_failed", ve.Error(), details)
	}
	if errors.Is(err, pipeline.ErrBusy) {
		return newAPIError(http.StatusConflict, "submission_in_flight", err.Error(), nil)
	}
	if errors.Is(err, ledger.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	msg := err.Error()
	if strings.Contains(strings.ToLower(msg), "invalid") {
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

// DraftResponse is the draft plus UI hints.
type DraftResponse struct {
	Lead domain.Lead `json:"lead"`
	// EligibilityWarning is advisory: the incident date is older than the
	// eligibility window, so the lead will fail validation on submit.
	EligibilityWarning bool   `json:"eligibility_warning"`
	State              string `json:"state" enum:"idle,validating,submitting"`
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerDraft(api huma.API, p *pipeline.Pipeline) {
	huma.Register(api, huma.Operation{
		OperationID: "get-draft",
		Method:      http.MethodGet,
		Path:        "/draft",
		Summary:     "Current draft lead",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body DraftResponse `json:"body"`
	}, error) {
		lead, warn := p.Draft()
		return &struct {
			Body DraftResponse `json:"body"`
		}{Body: DraftResponse{Lead: lead, EligibilityWarning: warn, State: p.State()}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-draft",
		Method:      http.MethodPatch,
		Path:        "/draft",
		Summary:     "Edit the draft lead",
		Errors:      []int{http.StatusBadRequest, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		Body pipeline.DraftUpdate `json:"body"`
	}) (*struct {
		Body DraftResponse `json:"body"`
	}, error) {
		lead, warn, err := p.UpdateDraft(input.Body)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body DraftResponse `json:"body"`
		}{Body: DraftResponse{Lead: lead, EligibilityWarning: warn, State: p.State()}}, nil
	})
}

func registerSubmit(api huma.API, p *pipeline.Pipeline) {
	huma.Register(api, huma.Operation{
		OperationID: "submit-lead",
		Method:      http.MethodPost,
		Path:        "/submit",
		Summary:     "Submit the current draft to the buyer",
		Errors: []int{
			http.StatusConflict,
			http.StatusUnprocessableEntity,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body pipeline.Outcome `json:"body"`
	}, error) {
		out, err := p.Submit(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body pipeline.Outcome `json:"body"`
		}{Body: out}, nil
	})
}

func registerHistory(api huma.API, l ledger.Ledger) {
	huma.Register(api, huma.Operation{
		OperationID: "list-history",
		Method:      http.MethodGet,
		Path:        "/history",
		Summary:     "List submission history, newest first",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body struct {
			Items []domain.Submission `json:"items"`
		} `json:"body"`
	}, error) {
		items, err := l.ListRecentFirst(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		resp := &struct {
			Body struct {
				Items []domain.Submission `json:"items"`
			} `json:"body"`
		}{}
		resp.Body.Items = items
		return resp, nil
	})
}

// registerExport serves the CSV download on a raw chi route so the response
// stays plain text/csv with a dated attachment filename.
func registerExport(r chi.Router, basePath string, p *pipeline.Pipeline, l ledger.Ledger) {
	r.Get(basePath+"/history/export", func(w http.ResponseWriter, req *http.Request) {
		items, err := l.List(req.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		now := p.Now
		if now == nil {
			now = time.Now
		}
		name := ledger.ExportFilename(now())
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(ledger.ExportCSV(items)))
	})
}
