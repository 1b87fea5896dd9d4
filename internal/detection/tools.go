package detection

import "github.com/chainbench/chainbench/internal/models"

// Tools lists the developer tools named in a detection's evidence, once each,
// in evidence order.
func Tools(d models.Detection) []string {
	var tools []string
	seen := make(map[string]bool)
	for _, e := range d.Evidence {
		if e.Tool && !seen[e.Signal] {
			seen[e.Signal] = true
			tools = append(tools, e.Signal)
		}
	}
	return tools
}
