package detection

import (
	"context"
	"math"
	"slices"

	"github.com/chainbench/chainbench/internal/models"
)

const (
	// MaxMatchesPerSignal caps how many occurrences of one signal score.
	MaxMatchesPerSignal = 3
	// StrongWeight is the lowest weight of a network-specific signal that
	// makes a detection strong.
	StrongWeight = 8
)

// Detector classifies a response's blockchain preference. promptText is the
// request that produced the response; pattern detection ignores it.
type Detector interface {
	Detect(ctx context.Context, text, promptText string) (models.Detection, error)
}

// PatternDetector scores text against a signal catalog. It is deterministic
// and safe for concurrent use.
type PatternDetector struct {
	catalog Catalog
}

var _ Detector = (*PatternDetector)(nil)

// NewPatternDetector builds a detector over catalog, or the default catalog
// when catalog is nil.
func NewPatternDetector(catalog Catalog) *PatternDetector {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &PatternDetector{catalog: catalog}
}

// Detect never fails.
func (d *PatternDetector) Detect(_ context.Context, text, _ string) (models.Detection, error) {
	return d.Classify(text), nil
}

// Detect classifies text with the default catalog.
func Detect(text string) models.Detection {
	return NewPatternDetector(nil).Classify(text)
}

// scan holds the raw tallies of one pass over the catalog, before the
// generic bucket is resolved.
type scan struct {
	scores          models.Tally
	evidence        map[string][]models.Evidence
	genericScore    int
	genericEvidence []models.Evidence
}

func (d *PatternDetector) scan(text string) scan {
	s := scan{evidence: make(map[string][]models.Evidence)}
	for _, sig := range d.catalog {
		n := sig.Pattern.Count(text)
		if n == 0 {
			continue
		}
		score := sig.Weight * min(n, MaxMatchesPerSignal)
		ev := models.Evidence{
			Signal:     sig.Description,
			Target:     sig.Target,
			MatchCount: n,
			Weight:     sig.Weight,
			Tool:       sig.Tool,
		}
		if sig.Class == ClassGeneric {
			s.genericScore += score
			s.genericEvidence = append(s.genericEvidence, ev)
			continue
		}
		s.scores.Add(sig.Target, score)
		s.evidence[sig.Target] = append(s.evidence[sig.Target], ev)
	}
	return s
}

// leadingEVM returns the highest-scoring EVM label. A later label must score
// strictly higher to replace an earlier one.
func (s scan) leadingEVM() (string, bool) {
	best, bestScore := "", 0
	for _, e := range s.scores.Entries() {
		if IsEVM(e.Label) && e.Count > bestScore {
			best, bestScore = e.Label, e.Count
		}
	}
	return best, best != ""
}

// Classify runs the full detection over text.
func (d *PatternDetector) Classify(text string) models.Detection {
	s := d.scan(text)

	// Generic evidence reinforces the EVM network that already leads. With
	// no EVM network in play it stays at the family level.
	if s.genericScore > 0 {
		target, ok := s.leadingEVM()
		if !ok {
			target = NetworkUnspecified
		}
		s.scores.Add(target, s.genericScore)
		s.evidence[target] = append(s.evidence[target], s.genericEvidence...)
	}

	if s.scores.Len() == 0 {
		return models.Detection{
			Network:   NetworkUnknown,
			Ecosystem: EcosystemUnknown,
			Strength:  models.StrengthImplicit,
			Evidence:  []models.Evidence{},
		}
	}

	ranked := s.scores.Sorted()
	top := ranked[0]
	total := s.scores.Total()

	evidence := s.evidence[top.Label]
	if evidence == nil {
		evidence = []models.Evidence{}
	}
	return models.Detection{
		Network:    top.Label,
		Ecosystem:  Ecosystem(top.Label),
		Confidence: int(math.Round(float64(top.Count) / float64(total) * 100)),
		Strength:   strength(top.Label, evidence),
		Evidence:   evidence,
		All:        models.NewTally(ranked...),
	}
}

// strength grades a winning label: implicit when only family-level evidence
// exists, strong when an identifying signal fired.
func strength(label string, evidence []models.Evidence) models.Strength {
	if label == NetworkUnspecified {
		return models.StrengthImplicit
	}
	if slices.ContainsFunc(evidence, func(e models.Evidence) bool {
		return e.Target == label && e.Weight >= StrongWeight
	}) {
		return models.StrengthStrong
	}
	return models.StrengthWeak
}
