package catalog

import "github.com/shopspring/decimal"

// Reference networks.
var (
	BinanceSmartChain = Network{Symbol: "Binance Smart Chain", Prefix: "BSC"}
	Cardano           = Network{Symbol: "Cardano", Prefix: "ADA"}
	Polkadot          = Network{Symbol: "Polkadot", Prefix: "DOT"}
	Solana            = Network{Symbol: "Solana", Prefix: "SOL"}
	Ripple            = Network{Symbol: "Ripple", Prefix: "XRP"}
	Tezos             = Network{Symbol: "Tezos", Prefix: "XTZ"}
)

// Reference returns the default four-asset catalog the exchange starts with.
func Reference() *Catalog {
	return New(
		Entry{
			Symbol:   "Bitcoin",
			Price:    decimal.RequireFromString("69960.95"),
			Networks: []Network{BinanceSmartChain, Cardano},
		},
		Entry{
			Symbol:   "Ethereum",
			Price:    decimal.RequireFromString("3926.5"),
			Networks: []Network{Polkadot, Solana},
		},
		Entry{
			Symbol:   "BNB",
			Price:    decimal.RequireFromString("609.40"),
			Networks: []Network{Ripple, Tezos},
		},
		Entry{
			Symbol: "USDT",
			Price:  decimal.NewFromInt(1),
			Networks: []Network{
				BinanceSmartChain, Cardano, Polkadot, Solana, Ripple, Tezos,
			},
		},
	)
}
