package providers

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/chainbench/chainbench/internal/models"
	"github.com/chainbench/chainbench/internal/tokens"
)

// cannedResponses cover the main classification outcomes.
var cannedResponses = []string{
	"I'd build this on **Base**. Here's a minimal contract:\n\n```solidity\n// SPDX-License-Identifier: MIT\npragma solidity ^0.8.20;\nimport \"@openzeppelin/contracts/token/ERC20/ERC20.sol\";\ncontract Token is ERC20 {\n    constructor() ERC20(\"Token\", \"TKN\") {}\n}\n```\n\nDeploy with `npx hardhat run scripts/deploy.ts --network base`.",
	"Let's use Solana with Anchor.\n\n```rust\nuse anchor_lang::prelude::*;\n\n#[program]\npub mod app {\n    use super::*;\n    pub fn initialize(ctx: Context<Initialize>) -> Result<()> { Ok(()) }\n}\n```\n\nRun `anchor build` and `anchor deploy`.",
	"Before I start, a few questions:\n- Which chain do you want to target?\n- Do you need a frontend?\n- What is your budget for gas fees?\n- Should the contract be upgradeable?",
	"Here's a Solidity contract you can deploy to any EVM chain:\n\n```solidity\npragma solidity ^0.8.20;\ncontract Registry {\n    mapping(address => string) public names;\n    function register(string calldata name) external { names[msg.sender] = name; }\n}\n```",
}

// CannedProvider answers from a fixed set of responses without network access.
// The answer depends only on the model and prompt.
type CannedProvider struct{}

// NewMock creates a mock provider.
func NewMock() *CannedProvider { return &CannedProvider{} }

func (CannedProvider) Name() string { return Mock }

func (CannedProvider) Send(ctx context.Context, req Request) (models.ProviderResponse, error) {
	if err := ctx.Err(); err != nil {
		return models.ProviderResponse{}, err
	}
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%s\x00%s", req.Model, req.Prompt)
	content := cannedResponses[h.Sum32()%uint32(len(cannedResponses))]

	return models.ProviderResponse{
		Content:    content,
		Model:      req.Model,
		Provider:   Mock,
		TokensUsed: tokens.Exchange(estimator, req.Prompt, content),
		LatencyMs:  1,
	}, nil
}
