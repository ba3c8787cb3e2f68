package builder

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	gethCrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"

	"github.com/doublespending/mev-boost-aa-account-sdk/metrics"
	"github.com/doublespending/mev-boost-aa-account-sdk/models"
	"github.com/doublespending/mev-boost-aa-account-sdk/services/requester"
	"github.com/doublespending/mev-boost-aa-account-sdk/services/resolver"
	"github.com/doublespending/mev-boost-aa-account-sdk/services/signer"
)

// placeholderDigest seeds the placeholder signature. Signing a fixed digest
// gives the seed operation a signature of realistic length, which matters for
// gas estimation, without it ever verifying on chain.
var placeholderDigest = gethCrypto.Keccak256Hash([]byte("placeholder signature"))

// Option tweaks builder construction.
type Option func(*Builder)

// WithGasEstimator replaces the default gas estimation middleware, letting a
// paymaster-aware estimator size the operation instead. The choice is made
// once at construction.
func WithGasEstimator(fn models.MiddlewareFunc) Option {
	return func(b *Builder) {
		b.estimator = fn
	}
}

// Builder assembles user operations for a single smart account. Construction
// resolves the account's counterfactual address; each Finalize call then runs
// the middleware pipeline to refresh the nonce, fees, gas limits and
// signature of the operation being built.
type Builder struct {
	seed       *models.UserOperation
	initCode   []byte
	pipeline   []models.Middleware
	entryPoint *requester.EntryPoint
	client     requester.Backend
	signer     signer.Signer
	chainID    *big.Int
	estimator  models.MiddlewareFunc
	collector  metrics.Collector
	logger     zerolog.Logger
}

func New(
	ctx context.Context,
	client requester.Backend,
	entryPoint *requester.EntryPoint,
	accounts *resolver.Resolver,
	sign signer.Signer,
	chainID *big.Int,
	collector metrics.Collector,
	logger zerolog.Logger,
	opts ...Option,
) (*Builder, error) {
	if chainID == nil {
		return nil, fmt.Errorf("builder requires a chain ID")
	}

	resolution, err := accounts.Resolve(ctx, sign.Address())
	if err != nil {
		return nil, err
	}
	collector.AccountResolved()

	placeholderSig, err := sign.Sign(placeholderDigest)
	if err != nil {
		return nil, fmt.Errorf("failed to create placeholder signature: %w", err)
	}

	b := &Builder{
		seed: &models.UserOperation{
			Sender:    resolution.Address,
			Signature: placeholderSig,
		},
		initCode:   resolution.InitCode,
		entryPoint: entryPoint,
		client:     client,
		signer:     sign,
		chainID:    chainID,
		collector:  collector,
		logger:     logger.With().Str("component", "builder").Logger(),
	}

	for _, opt := range opts {
		opt(b)
	}
	if b.estimator == nil {
		b.estimator = b.estimateGas
	}

	// Registration order is the execution order: the account state must be
	// read before gas is estimated, and the signature always comes last so
	// it covers every field the earlier steps set.
	b.pipeline = []models.Middleware{
		{Name: "account", Fn: b.resolveAccountState},
		{Name: "gas-price", Fn: b.priceGas},
		{Name: "gas-estimate", Fn: b.estimator},
		{Name: "signature", Fn: b.signOperation},
	}

	return b, nil
}

// Sender returns the smart account address operations are built for.
func (b *Builder) Sender() common.Address {
	return b.seed.Sender
}

// Execute points the next operation at a single call.
func (b *Builder) Execute(to common.Address, value *big.Int, data []byte) error {
	callData, err := requester.PackExecute(to, value, data)
	if err != nil {
		return err
	}
	b.seed.CallData = callData
	return nil
}

// ExecuteBatch points the next operation at a batch of calls. The slices are
// parallel, one element per call.
func (b *Builder) ExecuteBatch(dests []common.Address, values []*big.Int, payloads [][]byte) error {
	callData, err := requester.PackExecuteBatch(dests, values, payloads)
	if err != nil {
		return err
	}
	b.seed.CallData = callData
	return nil
}

// BoostExecute points the next operation at a single call carrying builder
// refund instructions.
func (b *Builder) BoostExecute(boost requester.BoostConfig, to common.Address, value *big.Int, data []byte) error {
	callData, err := requester.PackBoostExecute(boost, to, value, data)
	if err != nil {
		return err
	}
	b.seed.CallData = callData
	return nil
}

// BoostExecuteBatch points the next operation at a batch of calls carrying
// builder refund instructions.
func (b *Builder) BoostExecuteBatch(
	boost requester.BoostConfig,
	dests []common.Address,
	values []*big.Int,
	payloads [][]byte,
) error {
	callData, err := requester.PackBoostExecuteBatch(boost, dests, values, payloads)
	if err != nil {
		return err
	}
	b.seed.CallData = callData
	return nil
}

// Finalize runs the middleware pipeline over a copy of the seed operation and
// returns the signed result together with its hash. Calling it again rebuilds
// the operation from current chain state, with a fresh nonce and signature.
func (b *Builder) Finalize(ctx context.Context) (*models.UserOperation, common.Hash, error) {
	op := b.seed.Copy()

	if err := models.RunPipeline(ctx, op, b.pipeline); err != nil {
		var mwErr *models.MiddlewareError
		if errors.As(err, &mwErr) {
			b.collector.MiddlewareFailed(mwErr.Name)
		}
		return nil, common.Hash{}, err
	}

	hash, err := op.Hash(b.entryPoint.Address(), b.chainID)
	if err != nil {
		return nil, common.Hash{}, err
	}

	b.collector.OperationBuilt()
	b.logger.Debug().
		Str("sender", op.Sender.Hex()).
		Str("hash", hash.Hex()).
		Str("nonce", op.Nonce.String()).
		Msg("operation finalized")

	return op, hash, nil
}
