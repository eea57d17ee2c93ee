package report

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/cryptoledger/ledger-engine/internal/model"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func buy(asset, fiat, price string) model.Transaction {
	return model.Transaction{Kind: model.KindBuy, Asset: asset, Amount: d(fiat), Price: d(price)}
}

func sell(asset, units, price string) model.Transaction {
	return model.Transaction{Kind: model.KindSell, Asset: asset, Amount: d(units), Price: d(price)}
}

func TestMostTraded_EmptyLog(t *testing.T) {
	if _, ok := MostTradedByVolume(nil, model.KindSell); ok {
		t.Error("expected no result for empty log")
	}
	if _, ok := MostTradedByCount(nil, model.KindBuy); ok {
		t.Error("expected no result for empty log")
	}
}

func TestMostTraded_NoQualifyingKind(t *testing.T) {
	log := []model.Transaction{
		{Kind: model.KindDeposit, Amount: d("1000")},
		buy("BNB", "609.40", "609.40"),
	}
	if _, ok := MostTradedByVolume(log, model.KindSell); ok {
		t.Error("expected no sell result when only buys exist")
	}
	if _, ok := MostTradedByCount(log, model.KindSell); ok {
		t.Error("expected no sell result when only buys exist")
	}
}

func TestMostTradedByCount(t *testing.T) {
	log := []model.Transaction{
		sell("Bitcoin", "1", "69960.95"),
		sell("USDT", "10", "1"),
		sell("USDT", "20", "1"),
		buy("Bitcoin", "100", "69960.95"),
		buy("Bitcoin", "100", "69960.95"),
		buy("Bitcoin", "100", "69960.95"),
	}
	got, ok := MostTradedByCount(log, model.KindSell)
	if !ok || got != "USDT" {
		t.Errorf("expected USDT, got %q (%v)", got, ok)
	}
	got, ok = MostTradedByCount(log, model.KindBuy)
	if !ok || got != "Bitcoin" {
		t.Errorf("expected Bitcoin, got %q (%v)", got, ok)
	}
}

func TestMostTradedByVolume_SellUsesCapturedPrice(t *testing.T) {
	log := []model.Transaction{
		sell("Bitcoin", "1", "69960.95"),
		sell("USDT", "25000", "1"),
		sell("USDT", "25000", "1"),
		sell("Ethereum", "5", "3926.5"),
	}
	// Bitcoin: 69960.95, USDT: 50000, Ethereum: 19632.5.
	got, ok := MostTradedByVolume(log, model.KindSell)
	if !ok || got != "Bitcoin" {
		t.Errorf("expected Bitcoin, got %q (%v)", got, ok)
	}
}

func TestMostTradedByVolume_BuyUsesFiatAmount(t *testing.T) {
	log := []model.Transaction{
		buy("Bitcoin", "34980.475", "69960.95"),
		buy("Ethereum", "39265", "3926.5"),
		buy("USDT", "30000", "1"),
	}
	got, ok := MostTradedByVolume(log, model.KindBuy)
	if !ok || got != "Ethereum" {
		t.Errorf("expected Ethereum, got %q (%v)", got, ok)
	}
}

func TestMostTradedByVolume_NetworkKinds(t *testing.T) {
	log := []model.Transaction{
		{Kind: model.KindNetworkDeposit, Asset: "BNB", Amount: d("2"), Price: d("609.40"), Network: "Ripple"},
		{Kind: model.KindNetworkDeposit, Asset: "USDT", Amount: d("1000"), Price: d("1"), Network: "Tezos"},
	}
	got, ok := MostTradedByVolume(log, model.KindNetworkDeposit)
	if !ok || got != "USDT" {
		t.Errorf("expected USDT, got %q (%v)", got, ok)
	}
}

func TestSummary(t *testing.T) {
	log := []model.Transaction{
		{Kind: model.KindDeposit, Amount: d("1000")},
		buy("BNB", "609.40", "609.40"),
		sell("BNB", "0.5", "609.40"),
	}
	sum := Summary(log)
	if len(sum) != len(model.Kinds) {
		t.Fatalf("expected one row per kind, got %d", len(sum))
	}
	byKind := make(map[model.Kind]KindSummary)
	for _, s := range sum {
		byKind[s.Kind] = s
	}
	if byKind[model.KindDeposit].Count != 1 || !byKind[model.KindDeposit].Volume.Equal(d("1000")) {
		t.Errorf("unexpected deposit row %+v", byKind[model.KindDeposit])
	}
	if !byKind[model.KindSell].Volume.Equal(d("304.7")) {
		t.Errorf("expected sell volume 304.7, got %s", byKind[model.KindSell].Volume)
	}
	if byKind[model.KindNetworkWithdraw].Count != 0 {
		t.Errorf("expected empty network withdraw row")
	}
}
