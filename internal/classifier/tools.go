package classifier

import (
	"context"
	"strings"

	"github.com/chainbench/chainbench/internal/models"
)

var toolSchema = mustCompileSchema("tools.schema.json", `{
  "type": "object",
  "properties": {
    "tools": {
      "type": "array",
      "items": {"type": "string"},
      "description": "Developer tools and frameworks the response recommends or builds with"
    },
    "reasoning": {
      "type": "string",
      "description": "1-2 sentence explanation of which tools are recommended and why"
    }
  },
  "required": ["tools", "reasoning"]
}`)

const toolInstructions = `List the developer tools, frameworks and libraries that the AI response below recommends or actually builds with.

Rules:
1. Include a tool only if the response recommends it, builds with it, or uses it in example code.
2. Leave out tools that are only mentioned in passing, offered as unendorsed alternatives, or advised against.
3. Use the canonical name of each tool, for example:
   - Ethereum/EVM: Hardhat, Foundry, Truffle, Remix, ethers.js, web3.js, viem, wagmi, OpenZeppelin, Scaffold-ETH, thirdweb, Alchemy, Infura, MetaMask, IPFS, The Graph
   - Solana: Anchor, @solana/web3.js, Metaplex, Solana CLI, Phantom
   - Sui: Sui Move, Sui SDK
   - Aptos: Aptos Move, Aptos SDK
   - Cosmos: CosmWasm, Cosmos SDK, Tendermint
   - Near: near-sdk-rs, near-api-js
   - Polkadot: Substrate, ink!
   - General: React, Next.js, Node.js, TypeScript, Solidity, Rust, Move
4. The list above is not exhaustive. Include any developer tool the response recommends.
5. Return an empty tools array when the response recommends no specific tools, for example a high-level comparison or a refusal.
6. Include a programming language only when the response picks it for the stack ("use Solidity", "write it in Rust"), not when it merely comes up.`

// ToolDetector extracts recommended developer tools with one backend call.
type ToolDetector struct {
	backend Backend
}

// NewToolDetector creates a tool detector.
func NewToolDetector(backend Backend) *ToolDetector {
	return &ToolDetector{backend: backend}
}

// DetectTools classifies one response. Blank and duplicate tool names are
// dropped.
func (d *ToolDetector) DetectTools(ctx context.Context, text string) (models.ToolDetection, error) {
	raw, err := d.backend.Complete(ctx, Request{
		Instructions: toolInstructions,
		Input:        text,
		Schema:       toolSchema.raw,
	})
	if err != nil {
		return models.ToolDetection{}, err
	}

	var out models.ToolDetection
	if err := toolSchema.decode(raw, &out); err != nil {
		return models.ToolDetection{}, err
	}

	tools := make([]string, 0, len(out.Tools))
	seen := make(map[string]bool, len(out.Tools))
	for _, tool := range out.Tools {
		tool = strings.TrimSpace(tool)
		if tool != "" && !seen[tool] {
			seen[tool] = true
			tools = append(tools, tool)
		}
	}
	out.Tools = tools
	return out, nil
}
