package tracker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/doublespending/mev-boost-aa-account-sdk/metrics"
	"github.com/doublespending/mev-boost-aa-account-sdk/models"
	"github.com/doublespending/mev-boost-aa-account-sdk/services/requester"
	"github.com/doublespending/mev-boost-aa-account-sdk/storage"
)

const (
	// sweepConcurrency caps parallel log scans per sweep.
	sweepConcurrency = 4
	// settledCacheSize bounds the recently-settled cache.
	settledCacheSize = 1024
	// settledCacheTTL is how long a hash stays in the cache after its
	// settlement was recorded.
	settledCacheTTL = 10 * time.Minute
)

var _ models.Engine = &Engine{}

// Engine sweeps the pending operation index in the background, marking
// records settled once their events appear on chain. It complements the
// synchronous settlement waiter: operations whose wait timed out still get
// their outcome recorded eventually.
type Engine struct {
	*models.EngineStatus

	entryPoint *requester.EntryPoint
	client     requester.Backend
	index      storage.OperationIndexer
	interval   time.Duration
	lookback   uint64
	settled    *expirable.LRU[common.Hash, struct{}]
	collector  metrics.Collector
	log        zerolog.Logger
}

func NewEngine(
	entryPoint *requester.EntryPoint,
	client requester.Backend,
	index storage.OperationIndexer,
	interval time.Duration,
	lookback uint64,
	collector metrics.Collector,
	log zerolog.Logger,
) *Engine {
	return &Engine{
		EngineStatus: models.NewEngineStatus(),

		entryPoint: entryPoint,
		client:     client,
		index:      index,
		interval:   interval,
		lookback:   lookback,
		settled:    expirable.NewLRU[common.Hash, struct{}](settledCacheSize, nil, settledCacheTTL),
		collector:  collector,
		log:        log.With().Str("component", "tracker").Logger(),
	}
}

// Stop the engine.
func (e *Engine) Stop() {
	e.MarkDone()
	<-e.Stopped()
}

// Run sweeps the pending index on the configured interval until the context
// is cancelled or the engine is stopped. Sweep failures are logged and
// retried on the next tick, the chain state they read from does not go away.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info().Dur("interval", e.interval).Msg("starting settlement tracker")

	e.MarkReady()
	defer e.MarkStopped()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.Done():
			return nil
		case <-ticker.C:
			if err := e.sweep(ctx); err != nil {
				e.log.Warn().Err(err).Msg("pending sweep failed")
			}
		}
	}
}

func (e *Engine) sweep(ctx context.Context) error {
	pending, err := e.index.Pending()
	if err != nil {
		return fmt.Errorf("failed to list pending operations: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	head, err := e.client.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("failed to read head height: %w", err)
	}
	from := uint64(0)
	if head > e.lookback {
		from = head - e.lookback
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)

	var settledCount atomic.Int64
	for _, record := range pending {
		record := record
		if _, ok := e.settled.Get(record.Hash); ok {
			continue
		}

		g.Go(func() error {
			events, err := e.entryPoint.SettlementEvents(gCtx, record.Hash, from, head)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				return nil
			}

			if err := e.index.MarkSettled(record.Hash, events[0]); err != nil {
				return err
			}
			e.settled.Add(record.Hash, struct{}{})
			settledCount.Add(1)

			e.log.Info().
				Str("hash", record.Hash.Hex()).
				Uint64("block", events[0].BlockNumber).
				Bool("success", events[0].Success).
				Msg("pending operation settled")

			return nil
		})
	}

	err = g.Wait()
	if count := settledCount.Load(); count > 0 {
		e.collector.OperationsSettledByTracker(int(count))
	}
	return err
}
