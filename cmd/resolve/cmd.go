package resolve

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/doublespending/mev-boost-aa-account-sdk/services/requester"
	"github.com/doublespending/mev-boost-aa-account-sdk/services/resolver"
)

var (
	rpcEndpoint string
	entryPoint  string
	factory     string
	paymaster   string
	owner       string
)

// output is the JSON document printed on success.
type output struct {
	Owner    common.Address `json:"owner"`
	Account  common.Address `json:"account"`
	InitCode hexutil.Bytes  `json:"initCode"`
}

var Cmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolves the counterfactual smart account address for an owner",
	RunE: func(command *cobra.Command, _ []string) error {
		if entryPoint == "" || factory == "" || owner == "" {
			return fmt.Errorf("entrypoint, factory and owner addresses must be provided")
		}

		logger := zerolog.New(os.Stderr).Level(zerolog.WarnLevel)

		client, err := requester.Dial(command.Context(), rpcEndpoint)
		if err != nil {
			return fmt.Errorf("failed to connect to %s: %w", rpcEndpoint, err)
		}
		defer client.Close()

		accounts := resolver.New(
			requester.NewEntryPoint(common.HexToAddress(entryPoint), client, logger),
			requester.NewFactory(common.HexToAddress(factory), common.HexToAddress(paymaster)),
			logger,
		)

		ownerAddr := common.HexToAddress(owner)
		resolution, err := accounts.Resolve(command.Context(), ownerAddr)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(output{
			Owner:    ownerAddr,
			Account:  resolution.Address,
			InitCode: resolution.InitCode,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))

		return nil
	},
}

func init() {
	Cmd.Flags().StringVar(&rpcEndpoint, "rpc-endpoint", "http://localhost:8545", "execution node JSON-RPC endpoint")
	Cmd.Flags().StringVar(&entryPoint, "entrypoint", "", "entry point contract address")
	Cmd.Flags().StringVar(&factory, "factory", "", "account factory contract address")
	Cmd.Flags().StringVar(&paymaster, "paymaster", "", "paymaster address, empty for self-paying accounts")
	Cmd.Flags().StringVar(&owner, "owner", "", "owner address to resolve the account for")
}
