package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/doublespending/mev-boost-aa-account-sdk/metrics"
	"github.com/doublespending/mev-boost-aa-account-sdk/models"
	"github.com/doublespending/mev-boost-aa-account-sdk/services/requester"
)

const (
	// DefaultTimeout bounds how long a wait runs before concluding the
	// operation has not settled.
	DefaultTimeout = 30 * time.Second
	// DefaultPollInterval is the pause between log scans.
	DefaultPollInterval = 5 * time.Second
	// DefaultLookback is how many blocks behind the head the scan starts,
	// covering operations that settled shortly before the wait began.
	DefaultLookback = 100
)

// Config tunes a Waiter. Zero values fall back to the defaults.
type Config struct {
	Timeout      time.Duration
	PollInterval time.Duration
	Lookback     uint64
}

// Waiter polls the entry point's settlement logs until an operation settles
// or the deadline passes. A missed deadline is a normal outcome, not an
// error: the operation may still settle later.
type Waiter struct {
	entryPoint *requester.EntryPoint
	client     requester.Backend
	collector  metrics.Collector
	logger     zerolog.Logger

	timeout      time.Duration
	pollInterval time.Duration
	lookback     uint64

	// Injectable clock, overridden in tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewWaiter(
	entryPoint *requester.EntryPoint,
	client requester.Backend,
	cfg Config,
	collector metrics.Collector,
	logger zerolog.Logger,
) *Waiter {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Lookback == 0 {
		cfg.Lookback = DefaultLookback
	}

	return &Waiter{
		entryPoint:   entryPoint,
		client:       client,
		collector:    collector,
		logger:       logger.With().Str("component", "settlement").Logger(),
		timeout:      cfg.Timeout,
		pollInterval: cfg.PollInterval,
		lookback:     cfg.Lookback,
		now:          time.Now,
		sleep:        sleepContext,
	}
}

// Wait blocks until the operation's settlement event appears on chain or the
// deadline passes. It returns (nil, nil) on deadline, the operation simply
// has not settled yet. Scanning starts a fixed number of blocks behind the
// head observed when the wait begins and follows the chain forward from
// there.
func (w *Waiter) Wait(ctx context.Context, opHash common.Hash) (*models.SettlementEvent, error) {
	start := w.now()
	deadline := start.Add(w.timeout)

	if !start.Before(deadline) {
		w.collector.SettlementTimedOut()
		return nil, nil
	}

	startHead, err := w.client.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read head height: %w", err)
	}

	from := uint64(0)
	if startHead > w.lookback {
		from = startHead - w.lookback
	}

	for {
		head, err := w.client.BlockNumber(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read head height: %w", err)
		}

		events, err := w.entryPoint.SettlementEvents(ctx, opHash, from, head)
		if err != nil {
			return nil, err
		}
		w.collector.SettlementPollExecuted()

		if len(events) > 0 {
			event := events[0]
			waited := w.now().Sub(start)
			w.collector.OperationSettled(waited)
			w.logger.Info().
				Str("hash", opHash.Hex()).
				Uint64("block", event.BlockNumber).
				Bool("success", event.Success).
				Dur("waited", waited).
				Msg("operation settled")
			return event, nil
		}

		if !w.now().Before(deadline) {
			w.collector.SettlementTimedOut()
			w.logger.Debug().
				Str("hash", opHash.Hex()).
				Dur("timeout", w.timeout).
				Msg("settlement wait expired")
			return nil, nil
		}

		if err := w.sleep(ctx, w.pollInterval); err != nil {
			return nil, err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
