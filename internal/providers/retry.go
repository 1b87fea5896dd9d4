package providers

import (
	"context"
	"log/slog"
	"regexp"
	"time"

	"github.com/chainbench/chainbench/internal/models"
	"github.com/chainbench/chainbench/internal/tokens"
)

// DefaultRetryDelays are the waits before each retry of a retryable error.
var DefaultRetryDelays = []time.Duration{5 * time.Second, 15 * time.Second, 30 * time.Second}

var estimator tokens.Counter = tokens.NewEstimatingCounter()

var retryable = regexp.MustCompile(`(?i)503|429|overloaded|high demand|rate limit`)

// IsRetryable reports whether err looks like a transient capacity error.
func IsRetryable(err error) bool {
	return err != nil && retryable.MatchString(err.Error())
}

// SendWithRetry sends req, retrying retryable errors once per entry in
// delays. Other errors and the last failure are returned as is. A response
// without usage gets an estimated token count.
func SendWithRetry(ctx context.Context, p Provider, req Request, delays []time.Duration) (models.ProviderResponse, error) {
	for attempt := 0; ; attempt++ {
		resp, err := p.Send(ctx, req)
		if err == nil {
			if resp.TokensUsed == 0 {
				resp.TokensUsed = tokens.Exchange(estimator, req.Prompt, resp.Content)
			}
			return resp, nil
		}
		if !IsRetryable(err) || attempt >= len(delays) {
			return models.ProviderResponse{}, err
		}

		wait := delays[attempt]
		slog.Info("Retrying provider call", "provider", p.Name(), "model", req.Model,
			"attempt", attempt+1, "of", len(delays), "wait", wait, "error", truncate(err.Error(), 80))

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return models.ProviderResponse{}, ctx.Err()
		case <-t.C:
		}
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
