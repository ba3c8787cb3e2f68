package config

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gethCrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const (
	// DefaultSettlementTimeout bounds how long a settlement wait runs before
	// giving up without an error.
	DefaultSettlementTimeout = 30 * time.Second
	// DefaultPollInterval is the pause between settlement log scans.
	DefaultPollInterval = 5 * time.Second
	// DefaultSettlementLookback is how many blocks behind the head each
	// settlement scan covers.
	DefaultSettlementLookback = 100
)

type Config struct {
	// DatabaseDir is the path to the directory for the operation index.
	DatabaseDir string
	// RPCEndpoint is the execution node JSON-RPC endpoint.
	RPCEndpoint string
	// EntryPointAddress is the entry point contract the SDK talks to.
	EntryPointAddress common.Address
	// AccountFactoryAddress is the contract that deploys smart accounts.
	AccountFactoryAddress common.Address
	// PaymasterAddress sponsors operations, zero when accounts self-pay.
	PaymasterAddress common.Address
	// ChainID of the target network, part of every operation hash.
	ChainID *big.Int
	// WalletKey signs operations on behalf of the account owner.
	WalletKey *ecdsa.PrivateKey
	// MetricsPort for the Prometheus scrape endpoint.
	MetricsPort int
	// SettlementTimeout bounds each settlement wait.
	SettlementTimeout time.Duration
	// PollInterval between settlement log scans.
	PollInterval time.Duration
	// SettlementLookback is the block range behind head scanned per poll.
	SettlementLookback uint64
	// TrackerInterval between background sweeps of the pending index.
	TrackerInterval time.Duration
	// LogLevel defines verbosity of the logging output.
	LogLevel zerolog.Level
}

// FromFlags binds the configuration flags on the command and returns a parser
// that produces a validated Config after cobra has populated them.
func FromFlags(cmd *cobra.Command) func() (*Config, error) {
	var (
		entryPoint, factory, paymaster string
		chainID                        uint64
		key, logLevel                  string
	)

	cfg := &Config{}

	cmd.Flags().StringVar(&cfg.DatabaseDir, "database-dir", "./db", "path to the directory for the operation index")
	cmd.Flags().StringVar(&cfg.RPCEndpoint, "rpc-endpoint", "http://localhost:8545", "execution node JSON-RPC endpoint")
	cmd.Flags().StringVar(&entryPoint, "entrypoint", "", "entry point contract address")
	cmd.Flags().StringVar(&factory, "factory", "", "account factory contract address")
	cmd.Flags().StringVar(&paymaster, "paymaster", "", "paymaster address, empty for self-paying accounts")
	cmd.Flags().Uint64Var(&chainID, "chain-id", 1, "chain ID of the target network")
	cmd.Flags().StringVar(&key, "wallet-key", "", "hex-encoded private key of the account owner")
	cmd.Flags().IntVar(&cfg.MetricsPort, "metrics-port", 9091, "port for the metrics server")
	cmd.Flags().DurationVar(&cfg.SettlementTimeout, "settlement-timeout", DefaultSettlementTimeout, "how long to wait for an operation to settle")
	cmd.Flags().DurationVar(&cfg.PollInterval, "poll-interval", DefaultPollInterval, "pause between settlement scans")
	cmd.Flags().Uint64Var(&cfg.SettlementLookback, "settlement-lookback", DefaultSettlementLookback, "blocks behind head covered by each settlement scan")
	cmd.Flags().DurationVar(&cfg.TrackerInterval, "tracker-interval", 10*time.Second, "pause between pending index sweeps")
	cmd.Flags().StringVar(&logLevel, "log-level", "debug", "log verbosity (debug, info, warn, error, fatal, panic)")

	return func() (*Config, error) {
		if entryPoint == "" {
			return nil, fmt.Errorf("entrypoint address must be provided")
		}
		if factory == "" {
			return nil, fmt.Errorf("factory address must be provided")
		}
		cfg.EntryPointAddress = common.HexToAddress(entryPoint)
		cfg.AccountFactoryAddress = common.HexToAddress(factory)
		if paymaster != "" {
			cfg.PaymasterAddress = common.HexToAddress(paymaster)
		}

		cfg.ChainID = new(big.Int).SetUint64(chainID)

		if key != "" {
			pkey, err := gethCrypto.HexToECDSA(key)
			if err != nil {
				return nil, fmt.Errorf("invalid wallet key: %w", err)
			}
			cfg.WalletKey = pkey
		}

		level, err := zerolog.ParseLevel(logLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		cfg.LogLevel = level

		if cfg.PollInterval <= 0 {
			return nil, fmt.Errorf("poll interval must be positive")
		}
		if cfg.SettlementLookback == 0 {
			return nil, fmt.Errorf("settlement lookback must be positive")
		}

		return cfg, nil
	}
}
