package model

// TotalCategory is the sentinel row closing an allocation table.
const TotalCategory = "Total"

// WalletCategories is the fixed set of asset classes used in allocation
// tables, in presentation order.
var WalletCategories = []string{
	"RV USA",
	"RV Europa",
	"RV Emergentes",
	"RV Global",
	"RF IG",
	"RF HY",
	"RF Gobiernos",
	"RF Emergentes",
	"Liquidez",
	"Monetarios",
	"Alternativos",
	"Private Equity",
	"Inmobiliario",
	"REIT",
	"Materias Primas",
	"Estructurados",
}

// IsWalletCategory reports whether name is a known category or the total
// sentinel.
func IsWalletCategory(name string) bool {
	if name == TotalCategory {
		return true
	}
	for _, c := range WalletCategories {
		if c == name {
			return true
		}
	}
	return false
}
