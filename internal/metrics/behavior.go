package metrics

import (
	"regexp"
	"strings"

	"github.com/chainbench/chainbench/internal/models"
)

const (
	// QuestionThreshold is how many questions make a response inquisitive.
	QuestionThreshold = 3
	// questionSlack bounds phrase matches above the count of "?" lines.
	questionSlack = 5

	maxDecisions      = 10
	reportedDecisions = 5
)

var (
	// trailingQuestion only matches a "?" that ends the whole text.
	trailingQuestion = regexp.MustCompile(`\?\s*$`)
	questionLine     = regexp.MustCompile(`(?m)\?\s*$`)
)

var questionPatterns = []*regexp.Regexp{
	trailingQuestion,
	regexp.MustCompile(`(?i)would you (like|prefer|want)`),
	regexp.MustCompile(`(?i)do you (want|need|have)`),
	regexp.MustCompile(`(?i)which (one|option|approach|framework)`),
	regexp.MustCompile(`(?i)should (I|we) (use|go|choose)`),
	regexp.MustCompile(`(?i)what (kind|type|sort) of`),
	regexp.MustCompile(`(?i)could you (clarify|specify|tell)`),
	regexp.MustCompile(`(?i)before (I|we) (proceed|start|begin|continue)`),
	regexp.MustCompile(`(?i)a few questions`),
	regexp.MustCompile(`(?i)let me (ask|clarify|know)`),
}

var decisionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)I'll use (\w[\w\s./-]*)`),
	regexp.MustCompile(`(?i)let's (use|go with|build with|choose|pick) (\w[\w\s./-]*)`),
	regexp.MustCompile(`(?i)I'?m going to use (\w[\w\s./-]*)`),
	regexp.MustCompile(`(?i)we'll use (\w[\w\s./-]*)`),
	regexp.MustCompile(`(?i)using (\w+) (framework|library|tool|SDK)`),
	regexp.MustCompile(`(?i)I'll (create|build|implement|set up|deploy)`),
	regexp.MustCompile(`(?i)here's (the|a|my) (complete|full|working)`),
}

// CodeFences counts literal triple-backtick markers. One fenced block is two.
func CodeFences(text string) int {
	return strings.Count(text, "```")
}

// ClassifyBehavior labels whether a response interrogated the user, built
// straight away, or did both.
func ClassifyBehavior(text string) models.BehaviorClassification {
	questions := 0
	for _, re := range questionPatterns {
		questions += len(re.FindAllStringIndex(text, -1))
	}
	questionLines := len(questionLine.FindAllStringIndex(text, -1))
	questions = min(questions, questionLines+questionSlack)

	decisions := make([]string, 0, reportedDecisions)
	collected := 0
collect:
	for _, re := range decisionPatterns {
		for _, m := range re.FindAllString(text, -1) {
			d := strings.TrimSpace(m)
			if len(d) <= 5 || len(d) >= 100 {
				continue
			}
			if len(decisions) < reportedDecisions {
				decisions = append(decisions, d)
			}
			if collected++; collected >= maxDecisions {
				break collect
			}
		}
	}

	hasQuestions := questions >= QuestionThreshold
	hasCode := CodeFences(text) >= 2

	behavior := models.BehaviorJustBuilt
	switch {
	case hasQuestions && !hasCode:
		behavior = models.BehaviorAskedQuestions
	case hasQuestions && hasCode:
		behavior = models.BehaviorMixed
	}

	return models.BehaviorClassification{
		Behavior:        behavior,
		QuestionsAsked:  questions,
		DecisionsStated: decisions,
	}
}
