// Package authz checks pre-paid entitlements against the AgentNFT contract.
// A wallet that hired an agent on-chain may call it without a per-request
// payment; the gateway consults this oracle before falling through to the
// payment rails.
package authz

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog/log"
)

// Oracle reports whether a wallet is pre-authorized for an agent's NFT.
// Implementations must treat every failure as "not authorized".
type Oracle interface {
	IsAuthorized(ctx context.Context, tokenID int64, wallet string) bool
}

const agentNFTABI = `[{"name":"isAuthorized","type":"function","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"},{"name":"user","type":"address"}],"outputs":[{"name":"","type":"bool"}]}]`

// NFTOracle queries AgentNFT.isAuthorized via an EVM read call.
type NFTOracle struct {
	client   *ethclient.Client
	contract common.Address
	abi      abi.ABI
	timeout  time.Duration
}

// NewNFTOracle dials the EVM RPC endpoint hosting the AgentNFT contract.
func NewNFTOracle(ctx context.Context, rpcURL, contractHex string) (*NFTOracle, error) {
	if rpcURL == "" || contractHex == "" {
		return nil, fmt.Errorf("authz: rpc url and contract address required")
	}

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("authz: dial rpc: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(agentNFTABI))
	if err != nil {
		return nil, fmt.Errorf("authz: parse abi: %w", err)
	}

	return &NFTOracle{
		client:   client,
		contract: common.HexToAddress(contractHex),
		abi:      parsed,
		timeout:  10 * time.Second,
	}, nil
}

// IsAuthorized returns true iff the contract reports the wallet authorized
// for the token. RPC errors and malformed results count as not authorized.
func (o *NFTOracle) IsAuthorized(ctx context.Context, tokenID int64, wallet string) bool {
	if !common.IsHexAddress(wallet) {
		return false
	}

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	data, err := o.abi.Pack("isAuthorized", big.NewInt(tokenID), common.HexToAddress(wallet))
	if err != nil {
		log.Warn().Err(err).Msg("authz: pack call data")
		return false
	}

	out, err := o.client.CallContract(callCtx, ethereum.CallMsg{
		To:   &o.contract,
		Data: data,
	}, nil)
	if err != nil {
		log.Warn().Err(err).Int64("token_id", tokenID).Msg("authz: contract call failed")
		return false
	}

	results, err := o.abi.Unpack("isAuthorized", out)
	if err != nil || len(results) == 0 {
		log.Warn().Err(err).Msg("authz: unpack result")
		return false
	}

	authorized, _ := results[0].(bool)
	return authorized
}

// Close releases the RPC connection.
func (o *NFTOracle) Close() {
	o.client.Close()
}

// Disabled is the no-op oracle used when no contract is configured.
type Disabled struct{}

func (Disabled) IsAuthorized(ctx context.Context, tokenID int64, wallet string) bool { return false }
