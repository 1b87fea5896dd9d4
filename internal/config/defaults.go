package config

import "github.com/chainbench/chainbench/internal/models"

// DefaultPrompts is the benchmark prompt set. No prompt names a chain.
func DefaultPrompts() []models.Prompt {
	return []models.Prompt{
		{ID: "token-launch", Category: "DeFi",
			Text: "Build me a platform where creators can launch their own cryptocurrency and let people trade it."},
		{ID: "memecoin", Category: "DeFi",
			Text: "Help me create and launch a meme coin with a website where people can buy it directly."},
		{ID: "prediction-market", Category: "DeFi",
			Text: "Create a platform where users can place bets on real-world events using crypto, with automatic payouts."},
		{ID: "nft-marketplace", Category: "NFT",
			Text: "Create a marketplace for digital collectibles where artists can sell their work and earn on resales."},
		{ID: "dao-voting", Category: "Governance",
			Text: "Build a community voting system where coin holders can submit proposals and vote on decisions."},
		{ID: "onchain-game", Category: "Gaming",
			Text: "Build a blockchain game where players can collect, trade, and battle with digital creatures."},
		{ID: "which-chain", Category: "Advisory",
			Text: "I want to build a crypto app. Which blockchain should I build on and why?"},
		{ID: "ai-agent", Category: "Agent",
			Text: "Build me an AI agent that can autonomously trade crypto and manage a wallet."},
		{ID: "token-bridge", Category: "Infrastructure",
			Text: "Build a way for users to move their crypto between two different blockchains."},
		{ID: "block-explorer", Category: "Infrastructure",
			Text: "Create a website that lets people look up transactions, wallet balances, and activity on a blockchain."},
		{ID: "social-tipping", Category: "Social",
			Text: "Build a platform where fans can send crypto tips to their favorite content creators."},
		{ID: "name-service", Category: "Identity",
			Text: "Create a service where people can register a readable name for their crypto wallet instead of a long address."},
	}
}

// DefaultModels is the benchmarked model lineup, one flagship and one
// mid-tier model per provider.
func DefaultModels() []models.ModelConfig {
	return []models.ModelConfig{
		{ID: "claude-opus-4-6", Provider: "anthropic", Tier: models.TierFlagship, DisplayName: "Claude Opus 4.6"},
		{ID: "claude-sonnet-4-5-20250929", Provider: "anthropic", Tier: models.TierMidTier, DisplayName: "Claude Sonnet 4.5"},
		{ID: "gpt-5.2", Provider: "openai", Tier: models.TierFlagship, DisplayName: "GPT-5.2"},
		{ID: "gpt-5-mini", Provider: "openai", Tier: models.TierMidTier, DisplayName: "GPT-5 mini"},
		{ID: "gemini-3-pro-preview", Provider: "google", Tier: models.TierFlagship, DisplayName: "Gemini 3 Pro"},
		{ID: "gemini-3-flash-preview", Provider: "google", Tier: models.TierMidTier, DisplayName: "Gemini 3 Flash"},
	}
}
