package resolver

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	errs "github.com/doublespending/mev-boost-aa-account-sdk/models/errors"
	"github.com/doublespending/mev-boost-aa-account-sdk/services/requester"
)

// Resolution is the counterfactual identity of an owner's smart account: the
// address the factory deploys to and the init code that deploys it.
type Resolution struct {
	Address  common.Address
	InitCode []byte
}

// Resolver derives smart account addresses before deployment by asking the
// entry point to simulate the factory's create call.
type Resolver struct {
	entryPoint *requester.EntryPoint
	factory    *requester.Factory
	logger     zerolog.Logger
}

func New(
	entryPoint *requester.EntryPoint,
	factory *requester.Factory,
	logger zerolog.Logger,
) *Resolver {
	return &Resolver{
		entryPoint: entryPoint,
		factory:    factory,
		logger:     logger.With().Str("component", "resolver").Logger(),
	}
}

// Resolve returns the owner's account address and the init code able to
// deploy it. The address comes back from the entry point's deliberately
// reverting simulation, so it matches what an on-chain deployment would
// produce even when the account does not exist yet.
func (r *Resolver) Resolve(ctx context.Context, owner common.Address) (*Resolution, error) {
	initCode, err := r.factory.InitCode(owner)
	if err != nil {
		return nil, fmt.Errorf("failed to build init code for %s: %w", owner, err)
	}

	address, err := r.entryPoint.SimulateSenderAddress(ctx, initCode)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve account for %s: %w", owner, err)
	}
	if address == (common.Address{}) {
		return nil, fmt.Errorf(
			"%w: entry point resolved the zero address for owner %s",
			errs.ErrMissingSenderAddress,
			owner,
		)
	}

	r.logger.Debug().
		Str("owner", owner.Hex()).
		Str("account", address.Hex()).
		Msg("resolved counterfactual account")

	return &Resolution{
		Address:  address,
		InitCode: initCode,
	}, nil
}
