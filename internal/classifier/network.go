package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/chainbench/chainbench/internal/detection"
	"github.com/chainbench/chainbench/internal/models"
	"golang.org/x/sync/errgroup"
)

// DefaultVotes is the number of independent calls the LLM detector makes per
// response.
const DefaultVotes = 3

// strongConfidence is the lowest averaged confidence reported as strong.
const strongConfidence = 80

var networkSchema = mustCompileSchema("network.schema.json", `{
  "type": "object",
  "properties": {
    "network": {"type": "string", "description": "The primary network the response favors"},
    "confidence": {"type": "number", "description": "0-100 confidence"},
    "reasoning": {"type": "string", "minLength": 1, "description": "1-2 sentence explanation"},
    "mentioned_chains": {
      "type": "array",
      "items": {"type": "string"},
      "description": "All blockchain networks mentioned or discussed in the response"
    }
  },
  "required": ["network", "confidence", "reasoning", "mentioned_chains"]
}`)

// verdict is one backend answer.
type verdict struct {
	Network         string   `json:"network"`
	Confidence      float64  `json:"confidence"`
	Reasoning       string   `json:"reasoning"`
	MentionedChains []string `json:"mentioned_chains"`
}

func networkInstructions(promptText string) string {
	return fmt.Sprintf(`Decide which blockchain network the AI response below favors. It was written for this request: %q

Apply the first rule that fits:
1. The response names a chain and recommends it. Return that chain.
2. The response surveys several chains and then commits to one with a concrete stack, snippet or walkthrough. Return the chain of the concrete example, since that shows what the model reaches for by default.
3. The response writes code aimed at one chain, such as deploy scripts, contract addresses, chain IDs or RPC URLs. Return that chain.
4. The response says "Ethereum" or "an Ethereum L2" without choosing an L2, or writes EVM/Solidity code with no network in it. Return "Unspecified".
5. The response presents several chains as equal options and never narrows down. Return "Unspecified".
6. The response mentions no blockchain, declines, or stays chain-agnostic. Return "Unknown".
7. "Mainnet" always means the Ethereum L1.

Allowed networks: %s`, promptText, strings.Join(detection.ValidNetworks, ", "))
}

// LLMDetector classifies a response by majority vote over several backend
// calls. It satisfies the same contract as the pattern detector.
type LLMDetector struct {
	backend Backend
	votes   int
}

var _ detection.Detector = (*LLMDetector)(nil)

// NewLLMDetector creates a detector making votes calls per response. Values
// below 1 select DefaultVotes.
func NewLLMDetector(backend Backend, votes int) *LLMDetector {
	if votes < 1 {
		votes = DefaultVotes
	}
	return &LLMDetector{backend: backend, votes: votes}
}

// Detect fans out the votes and reduces them. Failed calls are dropped from
// the vote; the call fails only when every vote failed.
func (d *LLMDetector) Detect(ctx context.Context, text, promptText string) (models.Detection, error) {
	req := Request{
		Instructions: networkInstructions(promptText),
		Input:        text,
		Schema:       networkSchema.raw,
	}

	verdicts := make([]*verdict, d.votes)
	errs := make([]error, d.votes)

	var g errgroup.Group
	for i := range d.votes {
		g.Go(func() error {
			raw, err := d.backend.Complete(ctx, req)
			if err != nil {
				errs[i] = err
				return nil
			}
			var v verdict
			if err := networkSchema.decode(raw, &v); err != nil {
				errs[i] = err
				return nil
			}
			v.Network = normalizeVerdictNetwork(v.Network)
			verdicts[i] = &v
			return nil
		})
	}
	_ = g.Wait()

	var ok []verdict
	for _, v := range verdicts {
		if v != nil {
			ok = append(ok, *v)
		}
	}
	if len(ok) == 0 {
		return models.Detection{}, fmt.Errorf("all %d classifier calls failed: %w", d.votes, errors.Join(errs...))
	}
	if len(ok) < d.votes {
		slog.Warn("Some classifier calls failed", "backend", d.backend.Name(), "ok", len(ok), "votes", d.votes, "error", errors.Join(errs...))
	}
	if d.votes == 1 {
		return single(ok[0]), nil
	}
	return majority(ok), nil
}

func normalizeVerdictNetwork(label string) string {
	if network, ok := detection.NormalizeNetwork(label); ok {
		return network
	}
	slog.Warn("Classifier returned unknown network, treating as Unknown", "network", label)
	return detection.NetworkUnknown
}

// single maps one verdict: the winner scores 100 and every other chain the
// response mentioned scores 1.
func single(v verdict) models.Detection {
	var all models.Tally
	all.Add(v.Network, 100)
	for _, chain := range v.MentionedChains {
		if !all.Has(chain) {
			all.Add(chain, 1)
		}
	}
	confidence := clampConfidence(v.Confidence)
	return models.Detection{
		Network:    v.Network,
		Ecosystem:  detection.Ecosystem(v.Network),
		Confidence: confidence,
		Strength:   verdictStrength(v.Network, confidence),
		Evidence:   []models.Evidence{{Signal: v.Reasoning}},
		All:        all,
		Reasoning:  v.Reasoning,
	}
}

// majority reduces several verdicts. The vote counts become All, ties go to
// the label voted first, and the reasoning comes from the first verdict that
// agrees with the winner. Confidence is the mean over agreeing verdicts.
func majority(verdicts []verdict) models.Detection {
	var votes models.Tally
	for _, v := range verdicts {
		votes.Inc(v.Network)
	}
	winner, _ := votes.Top()

	var reasoning string
	var confidences []float64
	for _, v := range verdicts {
		if v.Network != winner {
			continue
		}
		if reasoning == "" {
			reasoning = v.Reasoning
		}
		confidences = append(confidences, v.Confidence)
	}

	sum := 0.0
	for _, c := range confidences {
		sum += c
	}
	confidence := clampConfidence(sum / float64(len(confidences)))

	return models.Detection{
		Network:    winner,
		Ecosystem:  detection.Ecosystem(winner),
		Confidence: confidence,
		Strength:   verdictStrength(winner, confidence),
		Evidence:   []models.Evidence{{Signal: reasoning}},
		All:        models.NewTally(votes.Sorted()...),
		Reasoning:  reasoning,
	}
}

func clampConfidence(c float64) int {
	return int(math.Round(math.Max(0, math.Min(100, c))))
}

func verdictStrength(network string, confidence int) models.Strength {
	switch {
	case network == detection.NetworkUnspecified:
		return models.StrengthImplicit
	case confidence >= strongConfidence:
		return models.StrengthStrong
	}
	return models.StrengthWeak
}
