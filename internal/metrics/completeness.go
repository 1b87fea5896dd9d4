package metrics

import (
	"regexp"

	"github.com/chainbench/chainbench/internal/models"
)

// Completeness point values.
const (
	ContractPoints       = 25
	FunctionPoints       = 2
	MaxFunctionBonus     = 10
	DeployPoints         = 20
	FrontendPoints       = 20
	TestPoints           = 15
	CodeBlockPoints      = 2
	MaxCodeBlockBonus    = 10
	PlaceholderPenalty   = 2
	MaxCompletenessScore = 100
)

func re(expr string) *regexp.Regexp { return regexp.MustCompile("(?i)" + expr) }

func anyMatch(text string, patterns ...*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

var (
	contractPatterns = []*regexp.Regexp{
		re(`pragma solidity`),
		re(`contract\s+\w+\s*\{`),
		re(`anchor_lang`),
		re(`program_id!`),
		re(`#\[program\]`),
		re(`module\s+\w+\s*\{`),
	}
	functionPattern = re(`function\s+\w+|pub\s+fn\s+\w+|entry\s+fun\s+\w+`)

	deployKeyword  = re(`deploy`)
	deployPatterns = []*regexp.Regexp{
		re(`script`),
		re(`npx\s+hardhat`),
		re(`forge\s+(script|create|deploy)`),
		re(`anchor\s+deploy`),
		re(`migration`),
	}

	uiFramework      = re(`react|next\.?js|vue|svelte`)
	importKeyword    = re(`import`)
	frontendPatterns = []*regexp.Regexp{
		re(`useState|useEffect|component`),
		re(`\.tsx|\.jsx`),
		re(`connect.*wallet`),
	}

	testPatterns = []*regexp.Regexp{
		re(`describe\s*\(`),
		re(`it\s*\(\s*["']`),
		re(`expect\s*\(`),
		re(`#\[test\]`),
		re(`test.*\.js|test.*\.ts|\.test\.`),
		re(`forge test`),
	}

	placeholderPattern = re(`TODO|FIXME|PLACEHOLDER|// \.\.\.|# \.\.\.`)
)

// ScoreCompleteness estimates how finished a response's deliverable is on a
// 0 to 100 scale. Each flag explains one component of the score.
func ScoreCompleteness(text string) models.CompletenessScore {
	c := models.CompletenessScore{
		HasContract:     anyMatch(text, contractPatterns...),
		HasDeployScript: deployKeyword.MatchString(text) && anyMatch(text, deployPatterns...),
		HasFrontend: (uiFramework.MatchString(text) && importKeyword.MatchString(text)) ||
			anyMatch(text, frontendPatterns...),
		HasTests:  anyMatch(text, testPatterns...),
		TodoCount: len(placeholderPattern.FindAllStringIndex(text, -1)),
	}

	score := 0
	if c.HasContract {
		functions := len(functionPattern.FindAllStringIndex(text, -1))
		score += ContractPoints + min(functions*FunctionPoints, MaxFunctionBonus)
	}
	if c.HasDeployScript {
		score += DeployPoints
	}
	if c.HasFrontend {
		score += FrontendPoints
	}
	if c.HasTests {
		score += TestPoints
	}
	score += min(CodeFences(text)/2*CodeBlockPoints, MaxCodeBlockBonus)

	score = max(0, score-c.TodoCount*PlaceholderPenalty)
	c.Score = min(score, MaxCompletenessScore)
	return c
}
