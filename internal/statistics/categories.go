package statistics

// legacyCategories maps category names used by earlier prompt sets to the
// current ones so runs from different eras stay comparable.
var legacyCategories = map[string]string{
	"DeFi/Trading":     "DeFi",
	"Trading":          "DeFi",
	"NFT/Collectibles": "NFT",
	"Collectibles":     "NFT",
	"DAO":              "Governance",
	"Games":            "Gaming",
	"GameFi":           "Gaming",
	"Infra":            "Infrastructure",
	"Tooling":          "Infrastructure",
	"AI Agents":        "Agent",
	"AI":               "Agent",
	"Social/Creator":   "Social",
	"Naming":           "Identity",
	"Advice":           "Advisory",
}

// CanonicalCategory folds a legacy category name into the current set.
func CanonicalCategory(category string) string {
	if c, ok := legacyCategories[category]; ok {
		return c
	}
	return category
}
