package webapi

import (
	"encoding/json"

	"github.com/lake-health/lakecalc-ai/internal/recommend"
)

// RecommendRequest is the POST /api/recommend body. Exam carries the same
// document the CLI accepts, embedded as JSON.
type RecommendRequest struct {
	Exam             json.RawMessage `json:"exam"`
	FamilyID         string          `json:"family_id"`
	Policy           string          `json:"policy,omitempty"`
	Formula          string          `json:"formula,omitempty"`
	TargetRefraction float64         `json:"target_refraction,omitempty"`
}

// RecommendResponse wraps the per-eye recommendations with the request
// context they were computed under. SuggestedFamilies lists the catalog
// families suitable for the decision: toric-capable only when any eye came
// back toric or borderline, every family otherwise.
type RecommendResponse struct {
	Policy            string                `json:"policy"`
	Formula           string                `json:"formula"`
	FamilyID          string                `json:"family_id"`
	SuggestedFamilies []string              `json:"suggested_families"`
	Result            *recommend.ExamResult `json:"result"`
}

// PolicySummary is one named policy in the GET /api/policies response.
type PolicySummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Default     bool   `json:"default"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is returned for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}
