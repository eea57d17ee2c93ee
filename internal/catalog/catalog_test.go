package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestReference_Contents(t *testing.T) {
	c := Reference()

	if got := c.Symbols(); len(got) != 4 {
		t.Fatalf("expected 4 assets, got %v", got)
	}
	bnb, ok := c.Lookup("BNB")
	if !ok {
		t.Fatal("expected BNB in reference catalog")
	}
	if !bnb.Price.Equal(decimal.RequireFromString("609.4")) {
		t.Errorf("expected BNB price 609.4, got %s", bnb.Price)
	}
	if bnb.Prefix != "BNB" {
		t.Errorf("expected prefix BNB, got %s", bnb.Prefix)
	}
	btc, _ := c.Lookup("Bitcoin")
	if btc.Prefix != "Bit" {
		t.Errorf("expected prefix Bit, got %s", btc.Prefix)
	}
	if len(c.Networks()) != 6 {
		t.Errorf("expected 6 networks, got %d", len(c.Networks()))
	}
}

func TestLookup_Missing(t *testing.T) {
	c := Reference()
	if _, ok := c.Lookup("Dogecoin"); ok {
		t.Error("expected miss for unknown asset")
	}
	if _, ok := c.Network("Avalanche"); ok {
		t.Error("expected miss for unknown network")
	}
}

func TestSupports(t *testing.T) {
	c := Reference()
	eth, _ := c.Lookup("Ethereum")
	if !eth.Supports(Solana) {
		t.Error("Ethereum should move over Solana")
	}
	if eth.Supports(Cardano) {
		t.Error("Ethereum should not move over Cardano")
	}
	usdt, _ := c.Lookup("USDT")
	for _, n := range c.Networks() {
		if !usdt.Supports(n) {
			t.Errorf("USDT should support %s", n.Symbol)
		}
	}
}

func TestPriceOf(t *testing.T) {
	c := Reference()
	usdt, _ := c.Lookup("USDT")
	if !c.PriceOf(usdt).Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected USDT price 1, got %s", c.PriceOf(usdt))
	}
}

func TestPriceOf_PanicsOnForeignAsset(t *testing.T) {
	c := Reference()
	defer func() {
		if recover() == nil {
			t.Error("expected panic for asset outside the catalog")
		}
	}()
	c.PriceOf(Asset{Symbol: "Dogecoin"})
}

func TestNew_AlternatePriceTable(t *testing.T) {
	c := New(Entry{Symbol: "XT", Price: decimal.NewFromInt(2), Networks: []Network{Tezos}})
	a, ok := c.Lookup("XT")
	if !ok || !a.Supports(Tezos) {
		t.Fatalf("unexpected asset %+v", a)
	}
	if a.Prefix != "XT" {
		t.Errorf("short symbols keep the whole symbol as prefix, got %s", a.Prefix)
	}
}
