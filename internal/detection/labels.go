package detection

import (
	"slices"

	"golang.org/x/text/cases"
)

// Family and fallback labels.
const (
	FamilyEVM          = "EVM"
	NetworkUnspecified = "Unspecified"
	NetworkUnknown     = "Unknown"
	EcosystemUnknown   = "Unknown"
	EcosystemEthereum  = "Ethereum Ecosystem"
	ChainAgnostic      = "Chain-Agnostic"
)

// EVMNetworks are the labels that can absorb generic EVM evidence.
var EVMNetworks = []string{
	"Mainnet", "Base", "Arbitrum", "Optimism", "Polygon",
	"zkSync", "Scroll", "Linea", "Mantle", "BSC", "Avalanche",
}

// ValidNetworks is every label a detector may emit.
var ValidNetworks = []string{
	"Mainnet", "Base", "Arbitrum", "Optimism", "Polygon", "zkSync", "Scroll",
	"Linea", "Mantle", NetworkUnspecified, "BSC", "Avalanche", "Solana", "Sui",
	"Aptos", "Cosmos", "Near", "Polkadot", "TON", NetworkUnknown,
}

var networkToEcosystem = map[string]string{
	"Mainnet":          EcosystemEthereum,
	"Base":             EcosystemEthereum,
	"Arbitrum":         EcosystemEthereum,
	"Optimism":         EcosystemEthereum,
	"Polygon":          EcosystemEthereum,
	"zkSync":           EcosystemEthereum,
	"Scroll":           EcosystemEthereum,
	"Linea":            EcosystemEthereum,
	"Mantle":           EcosystemEthereum,
	NetworkUnspecified: EcosystemEthereum,
	"BSC":              "BSC",
	"Avalanche":        "Avalanche",
	"Solana":           "Solana",
	"Sui":              "Sui",
	"Aptos":            "Aptos",
	"Cosmos":           "Cosmos",
	"Near":             "Near",
	"Polkadot":         "Polkadot",
	"TON":              "TON",
	ChainAgnostic:      ChainAgnostic,
}

// Ecosystem maps a network to its coarse grouping. Unmapped labels are Unknown.
func Ecosystem(network string) string {
	if eco, ok := networkToEcosystem[network]; ok {
		return eco
	}
	return EcosystemUnknown
}

// IsEVM reports whether network belongs to the EVM family.
func IsEVM(network string) bool {
	return slices.Contains(EVMNetworks, network)
}

// NormalizeNetwork resolves label against ValidNetworks ignoring case. It
// returns false when nothing matches.
func NormalizeNetwork(label string) (string, bool) {
	if slices.Contains(ValidNetworks, label) {
		return label, true
	}
	// Casers are stateful, so each call gets its own.
	folder := cases.Fold()
	want := folder.String(label)
	for _, valid := range ValidNetworks {
		if folder.String(valid) == want {
			return valid, true
		}
	}
	return "", false
}

// DisplayName is the report-facing name of a label.
func DisplayName(label string) string {
	switch label {
	case NetworkUnspecified:
		return "Ethereum (No Specific L2)"
	case NetworkUnknown:
		return "Chain Agnostic"
	}
	return label
}
