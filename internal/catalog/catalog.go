// Package catalog holds the static registry of supported cryptocurrencies,
// their quoted prices and the transfer networks each one can move over.
//
// A Catalog is built once at startup and never mutated afterwards. All
// prices use shopspring/decimal, never float64 for money.
package catalog

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Network is a transfer channel (blockchain). It carries no balance; it is
// only checked for membership in an asset's compatible set.
type Network struct {
	Symbol string `json:"symbol"`
	Prefix string `json:"prefix"`
}

// Asset is a tradable cryptocurrency with a fixed quoted price.
type Asset struct {
	Symbol   string          `json:"symbol"`
	Prefix   string          `json:"prefix"`
	Price    decimal.Decimal `json:"price"`
	Networks []string        `json:"networks"` // compatible network symbols
}

// Supports reports whether the asset can move over network n.
func (a Asset) Supports(n Network) bool {
	for _, s := range a.Networks {
		if s == n.Symbol {
			return true
		}
	}
	return false
}

// Entry describes one asset when building a catalog.
type Entry struct {
	Symbol   string
	Price    decimal.Decimal
	Networks []Network
}

// Catalog is the immutable asset/network registry.
type Catalog struct {
	assets   map[string]Asset
	networks map[string]Network
}

// New builds a catalog from entries. Networks are registered as they appear.
func New(entries ...Entry) *Catalog {
	c := &Catalog{
		assets:   make(map[string]Asset, len(entries)),
		networks: make(map[string]Network),
	}
	for _, e := range entries {
		symbols := make([]string, 0, len(e.Networks))
		for _, n := range e.Networks {
			c.networks[n.Symbol] = n
			symbols = append(symbols, n.Symbol)
		}
		c.assets[e.Symbol] = Asset{
			Symbol:   e.Symbol,
			Prefix:   prefixOf(e.Symbol),
			Price:    e.Price,
			Networks: symbols,
		}
	}
	return c
}

// Lookup returns the asset registered under symbol.
func (c *Catalog) Lookup(symbol string) (Asset, bool) {
	a, ok := c.assets[symbol]
	return a, ok
}

// Network returns the network registered under symbol.
func (c *Catalog) Network(symbol string) (Network, bool) {
	n, ok := c.networks[symbol]
	return n, ok
}

// PriceOf returns the quoted price of a. Every Asset handed around the
// ledger is drawn from the catalog, so a miss is a programming error and
// panics.
func (c *Catalog) PriceOf(a Asset) decimal.Decimal {
	got, ok := c.assets[a.Symbol]
	if !ok {
		panic(fmt.Sprintf("catalog: asset %q is not registered", a.Symbol))
	}
	return got.Price
}

// Symbols returns every asset symbol, sorted.
func (c *Catalog) Symbols() []string {
	out := make([]string, 0, len(c.assets))
	for s := range c.assets {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Assets returns every asset sorted by symbol.
func (c *Catalog) Assets() []Asset {
	out := make([]Asset, 0, len(c.assets))
	for _, s := range c.Symbols() {
		out = append(out, c.assets[s])
	}
	return out
}

// Networks returns every known network sorted by symbol.
func (c *Catalog) Networks() []Network {
	out := make([]Network, 0, len(c.networks))
	for _, n := range c.networks {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func prefixOf(symbol string) string {
	r := []rune(symbol)
	if len(r) <= 3 {
		return symbol
	}
	return string(r[:3])
}
