package synapse

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// PaymentService covers the escrow operations the pipeline performs before
// an upload: funding the payment contract and authorizing the storage
// service to draw from the deposit.
type PaymentService interface {
	// Deposit transfers USDFC into the payment contract and waits for
	// confirmation. Returns the transaction hash.
	Deposit(ctx context.Context, amount *big.Int) (string, error)
	// ApproveService grants a storage service a spending allowance bounded
	// by a per-epoch rate and a lockup amount.
	ApproveService(ctx context.Context, service string, rateAllowance, lockupAllowance, maxLockupPeriod *big.Int) (string, error)
}

const paymentsABI = `[
	{"type":"function","name":"deposit","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"approveService","stateMutability":"nonpayable","inputs":[{"name":"service","type":"address"},{"name":"rateAllowance","type":"uint256"},{"name":"lockupAllowance","type":"uint256"},{"name":"maxLockupPeriod","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"accountFunds","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

// Payments talks to the on-chain USDFC escrow contract with a server-held
// key, the way the storage layer runs when no browser wallet is present.
type Payments struct {
	contract *bind.BoundContract
	client   *ethclient.Client
	key      *ecdsa.PrivateKey
	chainID  *big.Int
	from     common.Address
}

func NewPayments(ctx context.Context, rpcURL, contractAddress, privateKeyHex string) (*Payments, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc: %w", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(paymentsABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse payments abi: %w", err)
	}

	contract := bind.NewBoundContract(common.HexToAddress(contractAddress), parsed, client, client, client)

	return &Payments{
		contract: contract,
		client:   client,
		key:      key,
		chainID:  chainID,
		from:     crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

func (p *Payments) Deposit(ctx context.Context, amount *big.Int) (string, error) {
	return p.transact(ctx, "deposit", amount)
}

func (p *Payments) ApproveService(ctx context.Context, service string, rateAllowance, lockupAllowance, maxLockupPeriod *big.Int) (string, error) {
	return p.transact(ctx, "approveService", common.HexToAddress(service), rateAllowance, lockupAllowance, maxLockupPeriod)
}

// AccountFunds returns the escrowed balance for the signing account.
func (p *Payments) AccountFunds(ctx context.Context) (*big.Int, error) {
	var out []interface{}
	err := p.contract.Call(&bind.CallOpts{Context: ctx, From: p.from}, &out, "accountFunds", p.from)
	if err != nil {
		return nil, fmt.Errorf("failed to read account funds: %w", err)
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

func (p *Payments) transact(ctx context.Context, method string, args ...interface{}) (string, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(p.key, p.chainID)
	if err != nil {
		return "", fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx

	tx, err := p.contract.Transact(opts, method, args...)
	if err != nil {
		return "", fmt.Errorf("failed to send %s: %w", method, err)
	}

	receipt, err := bind.WaitMined(ctx, p.client, tx)
	if err != nil {
		return "", fmt.Errorf("failed to confirm %s: %w", method, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", fmt.Errorf("%s transaction reverted: %s", method, tx.Hash().Hex())
	}

	return tx.Hash().Hex(), nil
}
