package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/chainbench/chainbench/internal/orchestration"
)

// Exit codes for different failure modes
const (
	ExitSuccess = 0 // Everything completed
	ExitPartial = 1 // Completed, but some classifications failed
	ExitError   = 2 // Configuration or runtime error
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var partial *orchestration.PartialFailureError
	if errors.As(err, &partial) {
		return ExitPartial
	}
	return ExitError
}
