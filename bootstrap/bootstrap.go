package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/doublespending/mev-boost-aa-account-sdk/config"
	"github.com/doublespending/mev-boost-aa-account-sdk/metrics"
	"github.com/doublespending/mev-boost-aa-account-sdk/models"
	"github.com/doublespending/mev-boost-aa-account-sdk/services/builder"
	"github.com/doublespending/mev-boost-aa-account-sdk/services/requester"
	"github.com/doublespending/mev-boost-aa-account-sdk/services/resolver"
	"github.com/doublespending/mev-boost-aa-account-sdk/services/settlement"
	"github.com/doublespending/mev-boost-aa-account-sdk/services/signer"
	"github.com/doublespending/mev-boost-aa-account-sdk/services/tracker"
	"github.com/doublespending/mev-boost-aa-account-sdk/storage"
	"github.com/doublespending/mev-boost-aa-account-sdk/storage/pebble"
)

type Bootstrap struct {
	logger     zerolog.Logger
	config     *config.Config
	client     requester.Backend
	store      *pebble.Storage
	index      storage.OperationIndexer
	collector  metrics.Collector
	entryPoint *requester.EntryPoint
	accounts   *resolver.Resolver
	signer     signer.Signer
	waiter     *settlement.Waiter
	tracker    *tracker.Engine
	metrics    *metrics.Server
}

func New(ctx context.Context, cfg *config.Config) (*Bootstrap, error) {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	logger = logger.Level(cfg.LogLevel)
	logger.Info().Msg("starting up the account SDK")

	// create pebble storage from the provided database root directory
	store, err := pebble.New(cfg.DatabaseDir, logger)
	if err != nil {
		return nil, err
	}

	client, err := requester.Dial(ctx, cfg.RPCEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create client connection for host: %s, with error: %w", cfg.RPCEndpoint, err)
	}

	collector := metrics.NewCollector(logger)

	entryPoint := requester.NewEntryPoint(cfg.EntryPointAddress, client, logger)
	factory := requester.NewFactory(cfg.AccountFactoryAddress, cfg.PaymasterAddress)
	accounts := resolver.New(entryPoint, factory, logger)

	keySigner, err := signer.NewKeySigner(cfg.WalletKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create an owner signer: %w", err)
	}

	waiter := settlement.NewWaiter(
		entryPoint,
		client,
		settlement.Config{
			Timeout:      cfg.SettlementTimeout,
			PollInterval: cfg.PollInterval,
			Lookback:     cfg.SettlementLookback,
		},
		collector,
		logger,
	)

	return &Bootstrap{
		logger:     logger,
		config:     cfg,
		client:     client,
		store:      store,
		index:      pebble.NewOperations(store),
		collector:  collector,
		entryPoint: entryPoint,
		accounts:   accounts,
		signer:     keySigner,
		waiter:     waiter,
	}, nil
}

func (b *Bootstrap) Logger() zerolog.Logger {
	return b.logger
}

func (b *Bootstrap) Index() storage.OperationIndexer {
	return b.index
}

func (b *Bootstrap) Waiter() *settlement.Waiter {
	return b.waiter
}

// AccountBuilder creates an operation builder for the configured owner,
// resolving the smart account address in the process. Options are passed
// through, WithGasEstimator being the usual one for paymaster-aware sizing.
func (b *Bootstrap) AccountBuilder(ctx context.Context, opts ...builder.Option) (*builder.Builder, error) {
	return builder.New(
		ctx,
		b.client,
		b.entryPoint,
		b.accounts,
		b.signer,
		b.config.ChainID,
		b.collector,
		b.logger,
		opts...,
	)
}

func (b *Bootstrap) StartTracker(ctx context.Context) error {
	b.logger.Info().Msg("bootstrap starting settlement tracker")

	b.tracker = tracker.NewEngine(
		b.entryPoint,
		b.client,
		b.index,
		b.config.TrackerInterval,
		b.config.SettlementLookback,
		b.collector,
		b.logger,
	)

	b.startEngine(ctx, b.tracker, "settlement-tracker")
	return nil
}

func (b *Bootstrap) StopTracker() {
	if b.tracker == nil {
		return
	}
	b.logger.Warn().Msg("stopping settlement tracker engine")
	b.tracker.Stop()
}

func (b *Bootstrap) StartMetricsServer(_ context.Context) error {
	b.logger.Info().Msg("bootstrap starting metrics server")

	b.metrics = metrics.NewServer(b.logger, b.config.MetricsPort)
	<-b.metrics.Ready()

	return nil
}

func (b *Bootstrap) StopMetricsServer() {
	if b.metrics == nil {
		return
	}
	b.logger.Warn().Msg("shutting down metrics server")
	<-b.metrics.Done()
}

func (b *Bootstrap) Close() {
	if err := b.store.Close(); err != nil {
		b.logger.Err(err).Msg("failed to close the operation index")
	}
}

func (b *Bootstrap) startEngine(
	ctx context.Context,
	engine models.Engine,
	name string,
) {
	go func() {
		err := engine.Run(ctx)
		if err != nil {
			b.logger.Error().Err(err).Msgf("%s engine failed to run", name)
			panic(err)
		}
	}()

	<-engine.Ready()
	b.logger.Info().Msgf("%s engine started successfully", name)
}

// Run will run a complete bootstrap of the SDK daemon with all the engines.
// Run is a blocking call, but it does signal readiness of the service
// through a callback provided as an argument.
func Run(ctx context.Context, cfg *config.Config, ready func()) error {
	boot, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer boot.Close()

	if err := boot.StartTracker(ctx); err != nil {
		return err
	}

	if err := boot.StartMetricsServer(ctx); err != nil {
		return err
	}

	// mark ready
	ready()

	// if context is canceled start shutdown
	<-ctx.Done()
	boot.logger.Warn().Msg("bootstrap received context cancellation, stopping services")

	boot.StopTracker()
	boot.StopMetricsServer()

	return nil
}
