package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chainbench/chainbench/internal/models"
)

var csvColumns = []string{
	"prompt_id",
	"model_id",
	"model_name",
	"model_tier",
	"provider",
	"network",
	"ecosystem",
	"confidence",
	"evidence",
	"behavior",
	"questions_asked",
	"completeness_score",
	"has_contract",
	"has_deploy_script",
	"has_frontend",
	"has_tests",
	"todo_count",
	"latency_ms",
	"latency_s",
	"tokens_used",
	"timestamp",
	"run_id",
}

// WriteCSV writes one row per result.
func WriteCSV(w io.Writer, results []models.BenchmarkResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range results {
		a := r.Analysis
		row := []string{
			r.PromptID,
			r.Model.ID,
			r.Model.DisplayName,
			string(r.Model.Tier),
			r.Model.Provider,
			a.Detection.Network,
			a.Detection.Ecosystem,
			strconv.Itoa(a.Detection.Confidence),
			strings.Join(a.Detection.EvidenceStrings(), "; "),
			string(a.Behavior.Behavior),
			strconv.Itoa(a.Behavior.QuestionsAsked),
			strconv.Itoa(a.Completeness.Score),
			strconv.FormatBool(a.Completeness.HasContract),
			strconv.FormatBool(a.Completeness.HasDeployScript),
			strconv.FormatBool(a.Completeness.HasFrontend),
			strconv.FormatBool(a.Completeness.HasTests),
			strconv.Itoa(a.Completeness.TodoCount),
			strconv.Itoa(r.Response.LatencyMs),
			strconv.FormatFloat(float64(r.Response.LatencyMs)/1000, 'f', 1, 64),
			strconv.Itoa(r.Response.TokensUsed),
			r.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z"),
			r.RunID,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row for %s/%s: %w", r.PromptID, r.Model.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
