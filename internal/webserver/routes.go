package webserver

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/chainbench/chainbench/internal/export"
	"github.com/chainbench/chainbench/internal/webapi"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>chainbench dashboard</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem; }
table { border-collapse: collapse; }
th, td { padding: 0.3rem 0.8rem; border-bottom: 1px solid #ddd; text-align: left; }
</style>
</head>
<body>
<h1>chainbench</h1>
{{with .Summary}}<p>{{.TotalRuns}} run(s), {{.TotalResults}} result(s).{{if .LatestRunID}} Latest: <a href="/api/runs/latest">{{.LatestRunID}}</a>{{end}}</p>
{{if .Ecosystems}}<h2>Latest ecosystems</h2>
<ul>{{range .Ecosystems}}<li>{{.Label}}: {{.Count}}</li>{{end}}</ul>{{end}}{{end}}
<h2>Runs</h2>
{{if .Runs}}<table>
<tr><th>Run</th><th>Exported</th><th>Models</th><th>Prompts</th><th>Results</th><th>Web search</th><th>Data</th><th></th></tr>
{{range .Runs}}<tr><td><a href="/api/runs/{{.RunID}}">{{.RunID}}</a></td><td>{{.Timestamp}}</td><td>{{.ModelCount}}</td><td>{{.PromptCount}}</td><td>{{.ResultCount}}</td><td>{{if .WebSearch}}yes{{else}}no{{end}}</td><td><a href="/data/{{.Filename}}">{{.Filename}}</a></td><td><a href="/api/runs/{{.RunID}}/breakdown">breakdown</a></td></tr>
{{end}}</table>{{else}}<p>No exported runs in this directory yet. Run <code>chainbench classify</code> or <code>chainbench export</code> first.</p>{{end}}
</body>
</html>
`))

type indexPage struct {
	Summary *webapi.SummaryResponse
	Runs    []export.IndexEntry
}

// newHandler sets up the API, the data files and the index page.
func newHandler(cfg Config) http.Handler {
	store := webapi.NewFileStore(cfg.DataDir)
	mux := http.NewServeMux()

	webapi.RegisterRoutes(mux, store)
	mux.Handle("GET /data/", http.StripPrefix("/data/", http.FileServer(http.Dir(cfg.DataDir))))
	mux.Handle("GET /{$}", indexHandler(store))

	return webapi.CORSMiddleware(mux, cfg.AllowedOrigins...)
}

func indexHandler(store webapi.RunStore) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		summary, err := store.Summary()
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to read dashboard data: %v", err), http.StatusInternalServerError)
			return
		}
		runs, err := store.ListRuns("", "")
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to read run index: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		indexTemplate.Execute(w, indexPage{Summary: summary, Runs: runs}) //nolint:errcheck
	})
}
