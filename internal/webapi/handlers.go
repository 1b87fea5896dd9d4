package webapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/chainbench/chainbench/internal/statistics"
)

// Version is reported by the health endpoint.
var Version = "dev"

// Bootstrap settings of the compare endpoint.
const (
	DefaultConfidence = 0.95
	compareSeed       = 42
)

// Handlers holds the HTTP handler methods for the web API.
type Handlers struct {
	store RunStore
}

// NewHandlers creates a new Handlers with the given store.
func NewHandlers(store RunStore) *Handlers {
	return &Handlers{store: store}
}

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
	})
}

// HandleSummary returns run totals and the latest label shares.
func (h *Handlers) HandleSummary(w http.ResponseWriter, _ *http.Request) {
	summary, err := h.store.Summary()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// HandleRuns returns the run index, with optional sort/order query params.
func (h *Handlers) HandleRuns(w http.ResponseWriter, r *http.Request) {
	sortField := r.URL.Query().Get("sort")
	order := r.URL.Query().Get("order")

	runs, err := h.store.ListRuns(sortField, order)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// HandleRunDetail returns one exported run.
func (h *Handlers) HandleRunDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "run id is required")
		return
	}

	data, err := h.store.GetRun(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// HandleBreakdown returns per-model and per-category label counts, default
// labels, latencies and completeness of one exported run.
// Query parameters: field (default ecosystem) and confidence.
func (h *Handlers) HandleBreakdown(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "run id is required")
		return
	}
	field, confidence, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := h.store.GetRun(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	g := data.GridView()
	writeJSON(w, http.StatusOK, BreakdownResponse{
		RunID:        data.Meta.RunID,
		Field:        string(field),
		PerModel:     statistics.PerModel(g, field),
		PerCategory:  statistics.PerCategory(g, field),
		Defaults:     statistics.DefaultLabels(g, field),
		Latency:      statistics.LatencyPerModel(g),
		Completeness: statistics.CompletenessPerModel(g, confidence, compareSeed),
	})
}

// HandleCompare compares one label field between two exported runs.
// Query parameters: base, alt, field (default ecosystem) and confidence.
func (h *Handlers) HandleCompare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	baseID, altID := q.Get("base"), q.Get("alt")
	if baseID == "" || altID == "" {
		writeError(w, http.StatusBadRequest, "base and alt run ids are required")
		return
	}
	field, confidence, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	base, err := h.store.GetRun(baseID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	alt, err := h.store.GetRun(altID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, CompareResponse{
		Base:  baseID,
		Alt:   altID,
		Field: string(field),
		Shifts: statistics.CompareWithCI(
			base.Distribution(field), alt.Distribution(field), confidence, compareSeed),
	})
}

// RegisterRoutes registers all web API routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, store RunStore) {
	h := NewHandlers(store)
	mux.HandleFunc("GET /api/health", h.HandleHealth)
	mux.HandleFunc("GET /api/summary", h.HandleSummary)
	mux.HandleFunc("GET /api/runs", h.HandleRuns)
	mux.HandleFunc("GET /api/runs/{id}", h.HandleRunDetail)
	mux.HandleFunc("GET /api/runs/{id}/breakdown", h.HandleBreakdown)
	mux.HandleFunc("GET /api/compare", h.HandleCompare)
}

// CORSMiddleware wraps a handler with CORS headers.
// If allowedOrigins is empty, no CORS header is set (same-origin only).
// Otherwise, the request Origin is checked against the allowed list.
func CORSMiddleware(next http.Handler, allowedOrigins ...string) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// parseQuery reads the field (default ecosystem) and confidence parameters.
func parseQuery(r *http.Request) (statistics.Field, float64, error) {
	q := r.URL.Query()
	name := q.Get("field")
	if name == "" {
		name = string(statistics.FieldEcosystem)
	}
	field, err := statistics.ParseField(name)
	if err != nil {
		return "", 0, err
	}
	confidence := DefaultConfidence
	if s := q.Get("confidence"); s != "" {
		confidence, err = strconv.ParseFloat(s, 64)
		if err != nil || confidence <= 0 || confidence >= 1 {
			return "", 0, errors.New("confidence must be between 0 and 1")
		}
	}
	return field, confidence, nil
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg, Code: code})
}
