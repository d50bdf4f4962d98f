package models

// Asset classes recognized by the catalog. Sources that omit the field
// default to equity.
const (
	AssetClassEquity      = "equity"
	AssetClassETF         = "etf"
	AssetClassCrypto      = "crypto"
	AssetClassForex       = "forex"
	AssetClassFund        = "fund"
	AssetClassIndex       = "index"
	AssetClassCommodity   = "commodity"
	AssetClassMoneyMarket = "money-market"
)

// MSymbol represents one row of the symbol master table.
// All attributes except the code itself are optional in source data.
type MSymbol struct {
	Symbol     string   `json:"symbol"`
	Name       string   `json:"name"`
	Sector     string   `json:"sector"`
	Industry   string   `json:"industry"`
	MarketCap  *float64 `json:"market_cap"`
	Country    string   `json:"country"`
	Exchange   string   `json:"exchange"`
	Currency   string   `json:"currency"`
	ISIN       string   `json:"isin"`
	AssetClass string   `json:"asset_class"`
}
