package portfolio

import (
	"github.com/wealthpath/planning-engine/internal/assumptions"
	"github.com/wealthpath/planning-engine/internal/domain"
)

// etfCatalog maps each asset class to its fund suggestions. Symbols and
// expense ratios are broad-market index funds typical for each sleeve.
func etfCatalog() map[string][]domain.ETFRecommendation {
	return map[string][]domain.ETFRecommendation{
		assumptions.AssetUSLargeCap: {
			{Symbol: "VOO", Name: "Vanguard S&P 500 ETF", AssetClass: assumptions.AssetUSLargeCap, ExpenseRatio: 0.0003, Description: "Tracks the S&P 500 index of large US companies"},
			{Symbol: "SCHX", Name: "Schwab US Large-Cap ETF", AssetClass: assumptions.AssetUSLargeCap, ExpenseRatio: 0.0003, Description: "Dow Jones US Large-Cap Total Stock Market Index"},
		},
		assumptions.AssetUSSmallCap: {
			{Symbol: "VB", Name: "Vanguard Small-Cap ETF", AssetClass: assumptions.AssetUSSmallCap, ExpenseRatio: 0.0005, Description: "CRSP US Small Cap Index exposure"},
		},
		assumptions.AssetInternational: {
			{Symbol: "VEA", Name: "Vanguard FTSE Developed Markets ETF", AssetClass: assumptions.AssetInternational, ExpenseRatio: 0.0005, Description: "Developed markets outside the US and Canada"},
			{Symbol: "IEFA", Name: "iShares Core MSCI EAFE ETF", AssetClass: assumptions.AssetInternational, ExpenseRatio: 0.0007, Description: "Large, mid and small-cap developed-market equities"},
		},
		assumptions.AssetEmergingMarkets: {
			{Symbol: "VWO", Name: "Vanguard FTSE Emerging Markets ETF", AssetClass: assumptions.AssetEmergingMarkets, ExpenseRatio: 0.0008, Description: "Broad emerging-markets equity exposure"},
		},
		assumptions.AssetBonds: {
			{Symbol: "BND", Name: "Vanguard Total Bond Market ETF", AssetClass: assumptions.AssetBonds, ExpenseRatio: 0.0003, Description: "US investment-grade aggregate bond index"},
			{Symbol: "AGG", Name: "iShares Core US Aggregate Bond ETF", AssetClass: assumptions.AssetBonds, ExpenseRatio: 0.0003, Description: "Bloomberg US Aggregate Bond Index"},
		},
		assumptions.AssetRealEstate: {
			{Symbol: "VNQ", Name: "Vanguard Real Estate ETF", AssetClass: assumptions.AssetRealEstate, ExpenseRatio: 0.0012, Description: "US equity REITs across property sectors"},
		},
		assumptions.AssetCash: {
			{Symbol: "BIL", Name: "SPDR Bloomberg 1-3 Month T-Bill ETF", AssetClass: assumptions.AssetCash, ExpenseRatio: 0.0014, Description: "Short-term Treasury bills as a cash proxy"},
		},
	}
}
