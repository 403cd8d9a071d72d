package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("rpc", "", "")
	flags.String("pg-dsn", "", "")
	flags.StringSlice("address", nil, "")
	flags.Duration("poll-timeout", time.Second, "")
	flags.String("prices", "", "")
	return flags
}

func TestLoadFromFlags(t *testing.T) {
	flags := testFlags()
	flags.Set("rpc", "wss://node.example")
	flags.Set("address", "0x1111111111111111111111111111111111111111, 0x2222222222222222222222222222222222222222")
	flags.Set("poll-timeout", "250ms")

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCURL != "wss://node.example" {
		t.Fatalf("rpc = %q", cfg.RPCURL)
	}
	if len(cfg.Addresses) != 2 {
		t.Fatalf("addresses = %v", cfg.Addresses)
	}
	if cfg.PollTimeout != 250*time.Millisecond {
		t.Fatalf("poll timeout = %v", cfg.PollTimeout)
	}
	// defaults survive
	if cfg.QueueSize != 100 {
		t.Fatalf("queue size = %d", cfg.QueueSize)
	}
	if cfg.BatchSize != 2000 {
		t.Fatalf("batch size = %d", cfg.BatchSize)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("log level = %q", cfg.LogLevel)
	}
}

func TestLoadPricesFlag(t *testing.T) {
	flags := testFlags()
	flags.Set("prices", "0xA0246c9032bC3A600820415aE600c6388619A14D=42.5, 0xdead=0.1")

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Prices) != 2 {
		t.Fatalf("prices = %v", cfg.Prices)
	}
	if cfg.Prices["0xa0246c9032bc3a600820415ae600c6388619a14d"] != 42.5 {
		t.Fatalf("prices = %v", cfg.Prices)
	}
	if cfg.Prices["0xdead"] != 0.1 {
		t.Fatalf("prices = %v", cfg.Prices)
	}
}
