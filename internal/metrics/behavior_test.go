package metrics

import (
	"strings"
	"testing"

	"github.com/chainbench/chainbench/internal/models"
	"github.com/stretchr/testify/require"
)

func TestClassifyBehavior_AskedQuestions(t *testing.T) {
	text := `
Before I start building, I have a few questions:

1. Which blockchain would you prefer to deploy on?
2. Do you want a simple ERC20 token or something more custom?
3. Should I include a frontend, or just the smart contracts?
4. What kind of liquidity pool mechanism do you have in mind?
5. Would you like automated market maker (AMM) functionality?
`
	got := ClassifyBehavior(text)
	require.Equal(t, models.BehaviorAskedQuestions, got.Behavior)
	// 7 phrase matches plus the trailing "?" of the whole text.
	require.Equal(t, 8, got.QuestionsAsked)
}

func TestClassifyBehavior_JustBuilt(t *testing.T) {
	text := "I'll use Hardhat and Solidity for this. Let's build the token contract:\n\n" +
		"```solidity\npragma solidity ^0.8.20;\ncontract Token {}\n```\n\n" +
		"And here's the deploy script:\n\n" +
		"```javascript\nconst token = await Token.deploy();\n```\n"

	got := ClassifyBehavior(text)
	require.Equal(t, models.BehaviorJustBuilt, got.Behavior)
	require.Zero(t, got.QuestionsAsked)
	require.NotEmpty(t, got.DecisionsStated)
	require.True(t, strings.HasPrefix(got.DecisionsStated[0], "I'll use Hardhat"))
}

func TestClassifyBehavior_Mixed(t *testing.T) {
	text := "Great idea! I'll use Ethereum with Solidity. Let me build a basic version:\n\n" +
		"```solidity\ncontract Staking {\n    function stake() public payable {}\n}\n```\n\n" +
		"A few follow-ups:\n" +
		"- Which approach fits your token?\n" +
		"- Do you want a lockup period?\n" +
		"- Would you like rewards to compound?\n"

	got := ClassifyBehavior(text)
	require.Equal(t, models.BehaviorMixed, got.Behavior)
	require.GreaterOrEqual(t, got.QuestionsAsked, QuestionThreshold)
}

func TestClassifyBehavior_NoSignalIsJustBuilt(t *testing.T) {
	got := ClassifyBehavior("")
	require.Equal(t, models.BehaviorJustBuilt, got.Behavior)
	require.Zero(t, got.QuestionsAsked)
	require.NotNil(t, got.DecisionsStated)
	require.Empty(t, got.DecisionsStated)
}

func TestClassifyBehavior_QuestionPhrasesCappedByQuestionLines(t *testing.T) {
	// No line ends with "?", so phrase matches are capped at the slack.
	text := strings.Repeat("Would you like a DAO. ", 8)
	got := ClassifyBehavior(text)
	require.Equal(t, questionSlack, got.QuestionsAsked)
	require.Equal(t, models.BehaviorAskedQuestions, got.Behavior)
}

func TestClassifyBehavior_QuestionLinesAloneCountOnlyTrailingMark(t *testing.T) {
	// Only a "?" that ends the whole text counts. Here the text ends in
	// "Thanks." so the four question lines add nothing.
	text := "What's your budget?\nHow many users?\nMobile app too?\nAny deadline?\n\nThanks."
	got := ClassifyBehavior(text)
	require.Zero(t, got.QuestionsAsked)
	require.Equal(t, models.BehaviorJustBuilt, got.Behavior)

	got = ClassifyBehavior("What's your budget?\nHow many users?\nAny deadline?\n")
	require.Equal(t, 1, got.QuestionsAsked)
	require.Equal(t, models.BehaviorJustBuilt, got.Behavior)
}

func TestClassifyBehavior_DecisionsFilteredAndTruncated(t *testing.T) {
	var b strings.Builder
	for _, tool := range []string{"Hardhat", "Foundry", "Anchor", "Viem", "Wagmi", "Remix", "Truffle"} {
		b.WriteString("I'll use " + tool + ", ")
	}
	b.WriteString("I'll use " + strings.Repeat("x", 120) + ", ")

	got := ClassifyBehavior(b.String())
	require.Len(t, got.DecisionsStated, reportedDecisions)
	require.Equal(t, []string{
		"I'll use Hardhat",
		"I'll use Foundry",
		"I'll use Anchor",
		"I'll use Viem",
		"I'll use Wagmi",
	}, got.DecisionsStated)
	for _, d := range got.DecisionsStated {
		require.Greater(t, len(d), 5)
		require.Less(t, len(d), 100)
	}
}

func TestCodeFences(t *testing.T) {
	require.Equal(t, 0, CodeFences("no code"))
	require.Equal(t, 2, CodeFences("```go\nx\n```"))
	require.Equal(t, 3, CodeFences("``` ``` ```"))
}
