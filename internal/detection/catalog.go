package detection

import (
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/dlclark/regexp2"
)

// Class separates signals that identify one network from signals shared by
// the whole EVM family.
type Class int

const (
	ClassSpecific Class = iota
	ClassGeneric
)

func (c Class) String() string {
	if c == ClassGeneric {
		return "generic"
	}
	return "specific"
}

// Matcher counts non-overlapping occurrences of a pattern.
type Matcher interface {
	Count(text string) int
	String() string
}

type rePattern struct {
	re *regexp.Regexp
}

func (p rePattern) Count(text string) int {
	return len(p.re.FindAllStringIndex(text, -1))
}

func (p rePattern) String() string { return p.re.String() }

// ecmaPattern backs the few expressions that need look-around, which RE2
// does not support.
type ecmaPattern struct {
	re *regexp2.Regexp
}

func (p ecmaPattern) Count(text string) int {
	n := 0
	m, err := p.re.FindStringMatch(text)
	for m != nil && err == nil {
		n++
		m, err = p.re.FindNextMatch(m)
	}
	return n
}

func (p ecmaPattern) String() string { return p.re.String() }

// Pattern compiles a case-insensitive RE2 expression.
func Pattern(expr string) Matcher {
	return rePattern{re: regexp.MustCompile("(?i)" + expr)}
}

// LookaroundPattern compiles a case-insensitive ECMAScript expression.
func LookaroundPattern(expr string) Matcher {
	return ecmaPattern{re: regexp2.MustCompile(expr, regexp2.IgnoreCase|regexp2.ECMAScript)}
}

// Signal is one scoring rule. Signals are plain data; the detector owns all
// scoring behavior.
type Signal struct {
	Pattern     Matcher
	Target      string
	Weight      int
	Description string
	Class       Class
	// Tool marks signals that name a developer tool rather than a chain.
	Tool bool
}

// Catalog is an ordered signal table. Order matters: evidence is listed in
// catalog order and equal scores keep the label scored first.
type Catalog []Signal

// Validate audits every rule and returns all problems found.
func (c Catalog) Validate() error {
	var errs []error
	for i, s := range c {
		switch {
		case s.Pattern == nil:
			errs = append(errs, fmt.Errorf("signal %d (%s): missing pattern", i, s.Description))
		case s.Description == "":
			errs = append(errs, fmt.Errorf("signal %d: missing description", i))
		}
		if s.Weight < 3 || s.Weight > 10 {
			errs = append(errs, fmt.Errorf("signal %d (%s): weight %d outside [3,10]", i, s.Description, s.Weight))
		}
		switch s.Class {
		case ClassGeneric:
			if s.Target != FamilyEVM {
				errs = append(errs, fmt.Errorf("signal %d (%s): generic signal targets %q", i, s.Description, s.Target))
			}
		case ClassSpecific:
			if Ecosystem(s.Target) == EcosystemUnknown {
				errs = append(errs, fmt.Errorf("signal %d (%s): target %q has no ecosystem", i, s.Description, s.Target))
			}
		}
	}
	return errors.Join(errs...)
}

func evm(expr string, weight int, desc string) Signal {
	return Signal{Pattern: Pattern(expr), Target: FamilyEVM, Weight: weight, Description: desc, Class: ClassGeneric}
}

func evmTool(expr string, weight int, desc string) Signal {
	s := evm(expr, weight, desc)
	s.Tool = true
	return s
}

func on(target, expr string, weight int, desc string) Signal {
	return Signal{Pattern: Pattern(expr), Target: target, Weight: weight, Description: desc, Class: ClassSpecific}
}

func tool(target, expr string, weight int, desc string) Signal {
	s := on(target, expr, weight, desc)
	s.Tool = true
	return s
}

var defaultCatalog = sync.OnceValue(func() Catalog {
	return Catalog{
		// Shared EVM tooling. Never attributed to a network directly.
		evm(`pragma solidity`, 10, "pragma solidity"),
		evm(`\.sol\b`, 5, ".sol file reference"),
		evmTool(`hardhat`, 7, "Hardhat"),
		evmTool(`foundry|forge`, 7, "Foundry/Forge"),
		evmTool(`truffle`, 6, "Truffle"),
		evmTool(`remix`, 4, "Remix"),
		evmTool(`ethers\.js|ethers\.`, 6, "ethers.js"),
		evmTool(`web3\.js|web3\.`, 5, "web3.js"),
		evm(`ERC-?20|ERC-?721|ERC-?1155`, 8, "ERC standard"),
		evmTool(`openzeppelin`, 7, "OpenZeppelin"),
		evm(`\babi\b.*encode|abi\.encode`, 6, "ABI encoding"),
		evm(`msg\.sender`, 8, "msg.sender"),
		evm(`require\s*\(.*,\s*["']`, 5, "Solidity require()"),
		evm(`mapping\s*\(`, 5, "Solidity mapping"),
		evm(`modifier\s+\w+`, 5, "Solidity modifier"),
		evm(`emit\s+\w+\s*\(`, 4, "Solidity emit"),
		evm(`payable`, 4, "payable keyword"),
		evmTool(`scaffold[- ]?eth`, 7, "Scaffold-ETH"),
		evmTool(`wagmi`, 6, "wagmi"),
		evmTool(`viem`, 6, "viem"),
		evmTool(`infura|alchemy`, 4, "Infura/Alchemy"),
		evmTool(`metamask`, 4, "MetaMask"),
		evm(`\bsolidity\b`, 6, "Solidity mention"),
		evm(`\bethereumj?\b`, 3, "Ethereum mention"),

		on("Mainnet", `ethereum\s+mainnet`, 10, "ethereum mainnet"),
		on("Mainnet", `\bchain\s*id\s*[:=]?\s*1\b`, 8, "chainId 1"),
		on("Mainnet", `mainnet\.infura`, 9, "mainnet.infura"),
		on("Mainnet", `etherscan\.io`, 6, "etherscan.io"),
		on("Mainnet", `\betherscan\b`, 4, "etherscan"),
		on("Mainnet", `ethereum\s+l1\b`, 7, "Ethereum L1"),
		on("Mainnet", `sepolia|goerli`, 5, "Ethereum testnet"),

		on("Base", `\bbase\s+(chain|network|l2)\b`, 10, "Base chain/network/l2"),
		on("Base", `base[- ]?sepolia`, 9, "base-sepolia"),
		on("Base", `\bchain\s*id\s*[:=]?\s*8453\b`, 10, "chainId 8453"),
		on("Base", `basescan\.org`, 9, "basescan.org"),
		on("Base", `\bbasescan\b`, 7, "basescan"),
		on("Base", `deploy\s+(to|on)\s+base\b`, 9, "deploy to base"),
		on("Base", `\bbase\s+mainnet\b`, 9, "Base mainnet"),
		on("Base", `\bon\s+base\b`, 6, "on Base"),

		on("Arbitrum", `\barbitrum\b`, 8, "arbitrum"),
		on("Arbitrum", `arbitrum\s+one`, 9, "Arbitrum One"),
		on("Arbitrum", `arbitrum\s+nova`, 9, "Arbitrum Nova"),
		on("Arbitrum", `arbitrum[- ]?sepolia`, 8, "Arbitrum Sepolia"),
		on("Arbitrum", `\bchain\s*id\s*[:=]?\s*42161\b`, 10, "chainId 42161"),
		on("Arbitrum", `arbiscan`, 8, "arbiscan"),
		tool("Arbitrum", `arbitrum\s+sdk`, 7, "Arbitrum SDK"),

		on("Optimism", `\boptimism\b`, 8, "optimism"),
		on("Optimism", `\bop\s+mainnet\b`, 9, "OP Mainnet"),
		on("Optimism", `\bop\s+stack\b`, 7, "OP Stack"),
		on("Optimism", `\bchain\s*id\s*[:=]?\s*10\b`, 8, "chainId 10"),
		on("Optimism", `optimistic\.etherscan`, 9, "optimistic.etherscan"),
		on("Optimism", `op[- ]?sepolia`, 8, "op-sepolia"),

		on("Polygon", `\bpolygon\b`, 7, "polygon"),
		on("Polygon", `\bmatic\b`, 6, "matic"),
		on("Polygon", `polygon\s+pos\b`, 8, "Polygon PoS"),
		on("Polygon", `polygon\s+zkevm`, 8, "Polygon zkEVM"),
		on("Polygon", `\bmumbai\b`, 6, "mumbai"),
		on("Polygon", `\bamoy\b`, 7, "amoy"),
		on("Polygon", `\bchain\s*id\s*[:=]?\s*137\b`, 10, "chainId 137"),
		on("Polygon", `polygonscan`, 8, "polygonscan"),
		on("Polygon", `mumbai\s*testnet`, 6, "Mumbai testnet"),

		on("zkSync", `\bzksync\b`, 9, "zkSync"),
		on("zkSync", `zksync\s+era`, 9, "zkSync Era"),
		on("zkSync", `zksync\s+lite`, 8, "zkSync Lite"),
		on("zkSync", `\bchain\s*id\s*[:=]?\s*324\b`, 10, "chainId 324"),

		// "scroll down", "scrollbar" and friends are UI vocabulary.
		{Pattern: LookaroundPattern(`\bscroll\b(?!\s*(down|up|bar|to\s+the|through|ing))`), Target: "Scroll", Weight: 6, Description: "scroll", Class: ClassSpecific},
		on("Scroll", `scroll\s+mainnet`, 9, "Scroll mainnet"),
		on("Scroll", `scroll[- ]?sepolia`, 8, "Scroll Sepolia"),
		on("Scroll", `scrollscan`, 8, "scrollscan"),
		on("Scroll", `\bchain\s*id\s*[:=]?\s*534352\b`, 10, "chainId 534352"),

		on("Linea", `\blinea\b`, 8, "linea"),
		on("Linea", `linea\s+mainnet`, 9, "Linea mainnet"),
		on("Linea", `linea[- ]?sepolia`, 8, "Linea Sepolia"),
		on("Linea", `\bchain\s*id\s*[:=]?\s*59144\b`, 10, "chainId 59144"),
		on("Linea", `lineascan`, 8, "lineascan"),

		on("Mantle", `\bmantle\b`, 8, "mantle"),
		on("Mantle", `mantle\s+mainnet`, 9, "Mantle mainnet"),
		on("Mantle", `mantle[- ]?sepolia`, 8, "Mantle Sepolia"),
		on("Mantle", `\bchain\s*id\s*[:=]?\s*5000\b`, 10, "chainId 5000"),
		on("Mantle", `mantlescan`, 8, "mantlescan"),

		on("BSC", `\bbsc\b|bnb\s+chain|binance\s+smart\s+chain`, 7, "BSC/BNB Chain"),
		on("BSC", `bscscan`, 8, "bscscan"),
		on("BSC", `\bchain\s*id\s*[:=]?\s*56\b`, 10, "chainId 56"),
		on("BSC", `pancakeswap`, 7, "PancakeSwap"),

		on("Avalanche", `avalanche|avax`, 6, "Avalanche/AVAX"),
		on("Avalanche", `c-chain`, 5, "C-Chain"),
		on("Avalanche", `snowtrace`, 8, "Snowtrace"),
		on("Avalanche", `\bchain\s*id\s*[:=]?\s*43114\b`, 10, "chainId 43114"),

		tool("Solana", `anchor_lang|use anchor`, 10, "anchor_lang"),
		on("Solana", `\bsolana[_-]?program\b`, 9, "solana_program"),
		on("Solana", `\bspl[_-]token\b`, 9, "SPL token"),
		on("Solana", `\bPubkey\b`, 6, "Pubkey type"),
		tool("Solana", `\b(solana|sol)\s+cli\b`, 7, "Solana CLI"),
		tool("Solana", `metaplex`, 8, "Metaplex"),
		on("Solana", `\bdevnet\b`, 3, "devnet"),
		tool("Solana", `@solana/web3`, 8, "@solana/web3.js"),
		on("Solana", `borsh`, 5, "Borsh serialization"),
		tool("Solana", `phantom\s*wallet`, 5, "Phantom wallet"),
		on("Solana", `\bAccountInfo\b`, 5, "AccountInfo"),
		on("Solana", `program_id`, 6, "program_id"),
		on("Solana", `\bsolana\b`, 5, "Solana mention"),
		on("Solana", `\brust\b.*\bcontract`, 3, "Rust contract"),

		on("Sui", `\bsui::`, 10, "sui:: module"),
		on("Sui", `move\.toml`, 8, "Move.toml"),
		on("Sui", `\bmove\s+language\b`, 6, "Move language"),
		tool("Sui", `sui\s+move`, 9, "Sui Move"),
		on("Sui", `\bobject::new\b`, 7, "object::new"),

		on("Aptos", `aptos::`, 10, "aptos:: module"),
		tool("Aptos", `aptos\s+move`, 9, "Aptos Move"),
		on("Aptos", `\baptos_framework\b`, 8, "aptos_framework"),

		tool("Cosmos", `cosmwasm`, 10, "CosmWasm"),
		tool("Cosmos", `cosmos[- ]?sdk`, 9, "Cosmos SDK"),
		tool("Cosmos", `tendermint`, 7, "Tendermint"),
		on("Cosmos", `\bibc\b`, 4, "IBC"),

		tool("Near", `near[_-]?sdk`, 10, "near-sdk"),
		on("Near", `#\[near_bindgen\]`, 10, "near_bindgen"),
		on("Near", `near\s+protocol`, 7, "NEAR Protocol"),

		tool("Polkadot", `substrate`, 8, "Substrate"),
		tool("Polkadot", `ink!`, 9, "ink!"),
		on("Polkadot", `polkadot`, 7, "Polkadot"),

		on("TON", `\bton\b.*\bblockchain\b|\bton\b.*\bcontract`, 7, "TON blockchain"),
		on("TON", `\bfunc\b.*\bton\b|\btact\b`, 8, "FunC/Tact"),
	}
})

// DefaultCatalog returns the built-in signal table. The slice is shared and
// must not be modified.
func DefaultCatalog() Catalog {
	return defaultCatalog()
}
