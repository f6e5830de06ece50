// Package assetclass classifies a symbol as stock or forex so the
// pattern scorer factory can select the right ConfidenceScorer.
package assetclass

import "github.com/jthadison/wyckvol/internal/wyckoff"

// Classify applies the heuristic: a 6-character alphabetic symbol (e.g.
// EURUSD) is forex, everything else is treated as stock.
func Classify(symbol string) wyckoff.AssetClass {
	if len(symbol) == 6 && isAllAlpha(symbol) {
		return wyckoff.AssetClassForex
	}
	return wyckoff.AssetClassStock
}

func isAllAlpha(s string) bool {
	for _, r := range s {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')) {
			return false
		}
	}
	return true
}
