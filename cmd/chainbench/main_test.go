package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chainbench/chainbench/internal/orchestration"
)

func TestExitCode(t *testing.T) {
	partial := &orchestration.PartialFailureError{Failed: 2, Total: 12}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, ExitSuccess},
		{"partial failure", partial, ExitPartial},
		{"wrapped partial failure", fmt.Errorf("classify: %w", partial), ExitPartial},
		{"joined partial failure", errors.Join(errors.New("metrics"), partial), ExitPartial},
		{"regular error", errors.New("no API key"), ExitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"run", "collect", "classify", "reclassify", "report", "export", "compare", "init", "serve"} {
		assert.Contains(t, names, want)
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("debug"))
}
