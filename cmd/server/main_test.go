package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/cryptoledger/ledger-engine/internal/model"
	"github.com/cryptoledger/ledger-engine/internal/store"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out.String()
}

func seedLog(t *testing.T, dir string) {
	t.Helper()
	d := decimal.RequireFromString
	log := []model.Transaction{
		{ID: "1", Kind: model.KindDeposit, AccountID: "30111222", Amount: d("100000")},
		{ID: "2", Kind: model.KindSell, AccountID: "30111222", Asset: "USDT", Amount: d("500"), Price: d("1")},
		{ID: "3", Kind: model.KindSell, AccountID: "30111222", Asset: "USDT", Amount: d("500"), Price: d("1")},
		{ID: "4", Kind: model.KindSell, AccountID: "30111222", Asset: "Bitcoin", Amount: d("1"), Price: d("69960.95")},
	}
	if err := store.NewDirStore(dir).SaveTransactions(context.Background(), log); err != nil {
		t.Fatal(err)
	}
}

func TestAssetsCommand(t *testing.T) {
	out := run(t, "assets")
	for _, sym := range []string{"BNB", "Bitcoin", "Ethereum", "USDT"} {
		if !strings.Contains(out, sym) {
			t.Errorf("expected %s in output:\n%s", sym, out)
		}
	}
}

func TestReportCommand_MostTraded(t *testing.T) {
	dir := t.TempDir()
	seedLog(t, dir)

	if got := strings.TrimSpace(run(t, "report", "sell", "--data-dir", dir)); got != "Bitcoin" {
		t.Errorf("by volume: expected Bitcoin, got %q", got)
	}
	if got := strings.TrimSpace(run(t, "report", "sell", "--by", "count", "--data-dir", dir)); got != "USDT" {
		t.Errorf("by count: expected USDT, got %q", got)
	}
	if got := strings.TrimSpace(run(t, "report", "buy", "--data-dir", dir)); got != "no buy transactions" {
		t.Errorf("expected no buys, got %q", got)
	}
}

func TestReportCommand_Summary(t *testing.T) {
	dir := t.TempDir()
	seedLog(t, dir)

	out := run(t, "report", "--data-dir", dir)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != len(model.Kinds) {
		t.Fatalf("expected %d lines, got %d:\n%s", len(model.Kinds), len(lines), out)
	}
	if !strings.Contains(lines[3], "70960.95") {
		t.Errorf("expected sell volume 70960.95, got %q", lines[3])
	}
}
