package webapi

import (
	"github.com/chainbench/chainbench/internal/models"
	"github.com/chainbench/chainbench/internal/statistics"
)

// SummaryResponse describes the exported runs and the label shares of the
// latest one.
type SummaryResponse struct {
	TotalRuns       int                 `json:"totalRuns"`
	TotalResults    int                 `json:"totalResults"`
	LatestRunID     string              `json:"latestRunId,omitempty"`
	LatestTimestamp string              `json:"latestTimestamp,omitempty"`
	Ecosystems      []models.LabelCount `json:"ecosystems"`
	Networks        []models.LabelCount `json:"networks"`
	Behaviors       []models.LabelCount `json:"behaviors"`
}

// CompareResponse is the label shift between two exported runs.
type CompareResponse struct {
	Base   string             `json:"base"`
	Alt    string             `json:"alt"`
	Field  string             `json:"field"`
	Shifts []statistics.Shift `json:"shifts"`
}

// BreakdownResponse splits one exported run by model and by prompt category.
type BreakdownResponse struct {
	RunID        string                         `json:"runId"`
	Field        string                         `json:"field"`
	PerModel     []statistics.ModelBreakdown    `json:"perModel"`
	PerCategory  []statistics.CategoryBreakdown `json:"perCategory"`
	Defaults     []statistics.DefaultLabel      `json:"defaults"`
	Latency      []statistics.ModelLatency      `json:"latency"`
	Completeness []statistics.ModelScore        `json:"completeness"`
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
