package models

import (
	"encoding/json"
	"fmt"
)

// Strength is the categorical alternative to a numeric confidence.
type Strength string

const (
	StrengthStrong   Strength = "strong"
	StrengthWeak     Strength = "weak"
	StrengthImplicit Strength = "implicit"
)

// Evidence records one signal that contributed to a detection. Target is the
// label the signal points at; generic family signals carry the family marker.
// Signal-derived evidence has a non-zero Weight. Evidence produced by an
// external classifier only carries the Signal text.
type Evidence struct {
	Signal     string `json:"signal"`
	Target     string `json:"target,omitempty"`
	MatchCount int    `json:"matchCount,omitempty"`
	Weight     int    `json:"weight,omitempty"`
	Tool       bool   `json:"tool,omitempty"`
}

// String renders the evidence the way reports display it.
func (e Evidence) String() string {
	if e.Weight == 0 {
		return e.Signal
	}
	return fmt.Sprintf("%s (×%d, weight %d)", e.Signal, e.MatchCount, e.Weight)
}

// UnmarshalJSON also accepts the older plain-string evidence format.
func (e *Evidence) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*e = Evidence{Signal: s}
		return nil
	}
	type plain Evidence
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decoding evidence: %w", err)
	}
	*e = Evidence(p)
	return nil
}

// Detection is the classification of a single response.
type Detection struct {
	Network    string     `json:"network"`
	Ecosystem  string     `json:"ecosystem"`
	Confidence int        `json:"confidence"`
	Strength   Strength   `json:"strength"`
	Evidence   []Evidence `json:"evidence"`
	All        Tally      `json:"all"`
	Reasoning  string     `json:"reasoning,omitempty"`
}

// EvidenceStrings renders every evidence record.
func (d Detection) EvidenceStrings() []string {
	out := make([]string, 0, len(d.Evidence))
	for _, e := range d.Evidence {
		out = append(out, e.String())
	}
	return out
}

// Behavior labels how a model approached an open-ended request.
type Behavior string

const (
	BehaviorAskedQuestions Behavior = "asked-questions"
	BehaviorJustBuilt      Behavior = "just-built"
	BehaviorMixed          Behavior = "mixed"
)

type BehaviorClassification struct {
	Behavior        Behavior `json:"behavior"`
	QuestionsAsked  int      `json:"questionsAsked"`
	DecisionsStated []string `json:"decisionsStated"`
}

type CompletenessScore struct {
	Score           int  `json:"score"`
	HasContract     bool `json:"hasContract"`
	HasDeployScript bool `json:"hasDeployScript"`
	HasFrontend     bool `json:"hasFrontend"`
	HasTests        bool `json:"hasTests"`
	TodoCount       int  `json:"todoCount"`
}

// AnalysisResult bundles every classification of one response. Reclassifying
// a response replaces the whole value.
type AnalysisResult struct {
	Detection    Detection              `json:"detection"`
	Behavior     BehaviorClassification `json:"behavior"`
	Completeness CompletenessScore      `json:"completeness"`
}

// ToolDetection lists the developer tools a response recommends or builds with.
type ToolDetection struct {
	Tools     []string `json:"tools"`
	Reasoning string   `json:"reasoning"`
}
