// Package report computes read-only aggregations over the transaction log.
package report

import (
	"github.com/shopspring/decimal"

	"github.com/cryptoledger/ledger-engine/internal/model"
)

// MostTradedByCount returns the asset with the most transactions of kind.
// Reports false when no transaction of kind names an asset. Ties are broken
// arbitrarily.
func MostTradedByCount(log []model.Transaction, kind model.Kind) (string, bool) {
	counts := make(map[string]int64)
	for _, tx := range log {
		if tx.Kind == kind && tx.Asset != "" {
			counts[tx.Asset]++
		}
	}

	var best string
	var bestCount int64
	for asset, n := range counts {
		if n > bestCount {
			best, bestCount = asset, n
		}
	}
	return best, bestCount > 0
}

// MostTradedByVolume returns the asset with the largest traded volume for
// kind, valued at the price captured on each transaction. Reports false when
// no asset has positive volume.
func MostTradedByVolume(log []model.Transaction, kind model.Kind) (string, bool) {
	volumes := make(map[string]decimal.Decimal)
	for _, tx := range log {
		if tx.Kind == kind && tx.Asset != "" {
			volumes[tx.Asset] = volumes[tx.Asset].Add(Volume(tx))
		}
	}

	var best string
	bestVolume := decimal.Zero
	for asset, v := range volumes {
		if v.GreaterThan(bestVolume) {
			best, bestVolume = asset, v
		}
	}
	return best, bestVolume.IsPositive()
}

// Volume is the fiat value of one transaction. A buy's amount is already
// fiat; everything else is asset units times the captured price.
func Volume(tx model.Transaction) decimal.Decimal {
	switch tx.Kind {
	case model.KindBuy, model.KindDeposit, model.KindWithdraw:
		return tx.Amount
	default:
		return tx.Amount.Mul(tx.Price)
	}
}

// KindSummary aggregates one transaction kind.
type KindSummary struct {
	Kind   model.Kind      `json:"kind"`
	Count  int             `json:"count"`
	Volume decimal.Decimal `json:"volume"`
}

// Summary returns count and fiat volume per kind, in model.Kinds order.
// Kinds with no transactions are included with zero values.
func Summary(log []model.Transaction) []KindSummary {
	idx := make(map[model.Kind]int, len(model.Kinds))
	out := make([]KindSummary, len(model.Kinds))
	for i, k := range model.Kinds {
		idx[k] = i
		out[i] = KindSummary{Kind: k, Volume: decimal.Zero}
	}
	for _, tx := range log {
		i, ok := idx[tx.Kind]
		if !ok {
			continue
		}
		out[i].Count++
		out[i].Volume = out[i].Volume.Add(Volume(tx))
	}
	return out
}
