// Package webapi exposes the recommendation engine, policy presets and lens
// catalog over a small REST surface.
package webapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/lake-health/lakecalc-ai/internal/audit"
	"github.com/lake-health/lakecalc-ai/internal/biometry"
	"github.com/lake-health/lakecalc-ai/internal/catalog"
	"github.com/lake-health/lakecalc-ai/internal/formulas"
	"github.com/lake-health/lakecalc-ai/internal/policy"
	"github.com/lake-health/lakecalc-ai/internal/recommend"
	"github.com/lake-health/lakecalc-ai/internal/refine"
)

// Version is set at build time or defaults to dev.
var Version = "0.3.0"

const maxRequestBody = 1 << 20

// Handlers holds the HTTP handler methods for the web API.
type Handlers struct {
	store catalog.Service
	audit *audit.Writer
}

// NewHandlers creates a new Handlers over the given catalog. The audit
// writer may be a no-op writer.
func NewHandlers(store catalog.Service, auditWriter *audit.Writer) *Handlers {
	return &Handlers{store: store, audit: auditWriter}
}

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
	})
}

// HandlePolicies returns the named policy presets.
func (h *Handlers) HandlePolicies(w http.ResponseWriter, _ *http.Request) {
	names := policy.Names()
	out := make([]PolicySummary, 0, len(names))
	for _, name := range names {
		p, err := policy.Get(name)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		out = append(out, PolicySummary{
			Name:        name,
			Description: p.Description,
			Default:     name == policy.DefaultName,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleFamilies returns the IOL families in the catalog. With ?toric=1
// only toric-capable families are returned.
func (h *Handlers) HandleFamilies(w http.ResponseWriter, r *http.Request) {
	list := h.store.Families
	if q := r.URL.Query().Get("toric"); q != "" {
		toric, err := strconv.ParseBool(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid toric filter %q", q))
			return
		}
		if toric {
			list = h.store.ToricFamilies
		}
	}

	families, err := list(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, families)
}

// HandleFamilyPowers returns one family's toric options at the corneal
// plane.
func (h *Handlers) HandleFamilyPowers(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "family id is required")
		return
	}

	opts, err := h.store.ToricPowers(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrFamilyNotFound) {
			writeError(w, http.StatusNotFound, "family not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// HandleRecommend runs the full recommendation for an exam.
func (h *Handlers) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if len(req.Exam) == 0 {
		writeError(w, http.StatusBadRequest, "exam is required")
		return
	}
	if req.FamilyID == "" {
		writeError(w, http.StatusBadRequest, "family_id is required")
		return
	}

	exam, err := biometry.ParseExam(req.Exam)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	p, err := policy.Get(req.Policy)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	formula, err := formulas.ByName(req.Formula)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	options, err := h.store.ToricPowers(ctx, req.FamilyID)
	if err != nil {
		if errors.Is(err, catalog.ErrFamilyNotFound) {
			writeError(w, http.StatusNotFound, "family not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	consts, err := h.store.Constants(ctx, req.FamilyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	eng, err := recommend.NewEngine(p)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	src := refine.FormulaSource{Formula: formula, Constants: consts}

	result, err := eng.RecommendExam(ctx, exam, req.TargetRefraction, options, src)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	suggested, err := catalog.SuggestFamilies(ctx, h.store, result.RecommendsToric())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	suggestedIDs := make([]string, 0, len(suggested))
	for _, f := range suggested {
		suggestedIDs = append(suggestedIDs, f.ID)
	}

	if _, err := h.audit.Write(audit.Record{
		Patient:  exam.Patient,
		Policy:   p.Name,
		FamilyID: req.FamilyID,
		Result:   result,
	}); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, RecommendResponse{
		Policy:            p.Name,
		Formula:           formula.Name(),
		FamilyID:          req.FamilyID,
		SuggestedFamilies: suggestedIDs,
		Result:            result,
	})
}

// RegisterRoutes registers all web API routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, store catalog.Service, auditWriter *audit.Writer) {
	h := NewHandlers(store, auditWriter)
	mux.HandleFunc("GET /api/health", h.HandleHealth)
	mux.HandleFunc("GET /api/policies", h.HandlePolicies)
	mux.HandleFunc("GET /api/families", h.HandleFamilies)
	mux.HandleFunc("GET /api/families/{id}/powers", h.HandleFamilyPowers)
	mux.HandleFunc("POST /api/recommend", h.HandleRecommend)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg, Code: code})
}
