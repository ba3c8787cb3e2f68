package requester

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// accountSalt pins every owner to a single deterministic account. Multiple
// accounts per owner would need distinct salts, which the factory does not
// expose today.
var accountSalt = big.NewInt(0)

// Factory builds the deployment payloads for the account factory contract.
type Factory struct {
	address   common.Address
	paymaster common.Address
}

// NewFactory creates a factory binding. The paymaster is baked into every
// deployed account; the zero address makes accounts self-paying.
func NewFactory(address, paymaster common.Address) *Factory {
	return &Factory{
		address:   address,
		paymaster: paymaster,
	}
}

func (f *Factory) Address() common.Address {
	return f.address
}

// InitCode returns the operation init code deploying the owner's account:
// the factory address followed by the packed create call.
func (f *Factory) InitCode(owner common.Address) ([]byte, error) {
	call, err := accountFactoryABIParsed.Pack("createAccount", owner, f.paymaster, accountSalt)
	if err != nil {
		return nil, fmt.Errorf("failed to encode createAccount: %w", err)
	}

	initCode := make([]byte, 0, common.AddressLength+len(call))
	initCode = append(initCode, f.address.Bytes()...)
	initCode = append(initCode, call...)

	return initCode, nil
}
