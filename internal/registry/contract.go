package registry

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

	"base0-backend/internal/models"
)

const cidStoreABI = `[
	{"type":"function","name":"storeContent","stateMutability":"nonpayable","inputs":[{"name":"pieceCid","type":"bytes"},{"name":"dataCid","type":"string"},{"name":"price","type":"uint256"},{"name":"title","type":"string"},{"name":"description","type":"string"},{"name":"pieceSize","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"purchaseAccess","stateMutability":"payable","inputs":[{"name":"contentId","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"getCID","stateMutability":"view","inputs":[{"name":"contentId","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"getContentInfo","stateMutability":"view","inputs":[{"name":"contentId","type":"uint256"}],"outputs":[{"name":"title","type":"string"},{"name":"description","type":"string"},{"name":"price","type":"uint256"},{"name":"owner","type":"address"},{"name":"isActive","type":"bool"},{"name":"createdAt","type":"uint256"},{"name":"dealId","type":"uint256"},{"name":"pieceSize","type":"uint256"},{"name":"userHasAccess","type":"bool"}]},
	{"type":"function","name":"getAllActiveContent","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256[]"}]},
	{"type":"function","name":"getUserOwnedContent","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"uint256[]"}]},
	{"type":"function","name":"getUserPurchasedContent","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"uint256[]"}]},
	{"type":"function","name":"hasAccess","stateMutability":"view","inputs":[{"name":"contentId","type":"uint256"},{"name":"user","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"checkDealActivation","stateMutability":"view","inputs":[{"name":"contentId","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"platform_fee_percentage","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"event","name":"ContentStored","inputs":[{"name":"contentId","type":"uint256","indexed":true},{"name":"owner","type":"address","indexed":true},{"name":"price","type":"uint256","indexed":false}],"anonymous":false},
	{"type":"event","name":"AccessPurchased","inputs":[{"name":"contentId","type":"uint256","indexed":true},{"name":"buyer","type":"address","indexed":true},{"name":"price","type":"uint256","indexed":false}],"anonymous":false}
]`

// Contract wraps the FilecoinCIDStore pay-to-unlock registry. Purchasers
// get a 365-day access window; the contract retains a 5% platform fee on
// each purchase.
type Contract struct {
	bound   *bind.BoundContract
	client  *ethclient.Client
	parsed  abi.ABI
	address common.Address

	// key is nil for read-only instances.
	key     *ecdsa.PrivateKey
	chainID *big.Int
	from    common.Address
}

// NewContract connects a read-only registry instance. View calls that
// depend on the caller take an explicit address.
func NewContract(ctx context.Context, rpcURL, contractAddress string) (*Contract, error) {
	return connect(ctx, rpcURL, contractAddress, "")
}

// NewContractWithKey connects a registry instance that can send
// transactions signed by the given key.
func NewContractWithKey(ctx context.Context, rpcURL, contractAddress, privateKeyHex string) (*Contract, error) {
	if privateKeyHex == "" {
		return nil, fmt.Errorf("private key is required")
	}
	return connect(ctx, rpcURL, contractAddress, privateKeyHex)
}

func connect(ctx context.Context, rpcURL, contractAddress, privateKeyHex string) (*Contract, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(cidStoreABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse cid store abi: %w", err)
	}

	address := common.HexToAddress(contractAddress)
	c := &Contract{
		bound:   bind.NewBoundContract(address, parsed, client, client, client),
		client:  client,
		parsed:  parsed,
		address: address,
	}

	if privateKeyHex != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		chainID, err := client.ChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get chain id: %w", err)
		}
		c.key = key
		c.chainID = chainID
		c.from = crypto.PubkeyToAddress(key.PublicKey)
	}

	return c, nil
}

// Signer returns the transacting address, or the zero address when
// read-only.
func (c *Contract) Signer() string {
	return c.from.Hex()
}

// StoreContent registers a new content entry and returns its ID, read from
// the ContentStored event.
func (c *Contract) StoreContent(ctx context.Context, pieceCid, dataCid string, price *big.Int, title, description string, pieceSize int64) (uint64, string, error) {
	cidBytes, err := PieceCIDToBytes(pieceCid)
	if err != nil {
		return 0, "", fmt.Errorf("invalid piece cid: %w", err)
	}

	receipt, txHash, err := c.transact(ctx, nil, "storeContent",
		cidBytes, dataCid, price, title, description, big.NewInt(pieceSize))
	if err != nil {
		return 0, "", err
	}

	contentStoredID := c.parsed.Events["ContentStored"].ID
	for _, logEntry := range receipt.Logs {
		if len(logEntry.Topics) >= 2 && logEntry.Topics[0] == contentStoredID {
			return logEntry.Topics[1].Big().Uint64(), txHash, nil
		}
	}

	return 0, "", fmt.Errorf("content id not found in transaction receipt")
}

// PurchaseAccess buys access for the signer, sending exactly the listed
// price as the transaction value.
func (c *Contract) PurchaseAccess(ctx context.Context, contentID uint64) (string, error) {
	price, err := c.priceWei(ctx, contentID)
	if err != nil {
		return "", err
	}

	_, txHash, err := c.transact(ctx, price, "purchaseAccess", new(big.Int).SetUint64(contentID))
	return txHash, err
}

// priceWei reads the listed price in attoFIL, undistorted by display
// formatting.
func (c *Contract) priceWei(ctx context.Context, contentID uint64) (*big.Int, error) {
	var out []interface{}
	opts := &bind.CallOpts{Context: ctx, From: c.from}
	if err := c.bound.Call(opts, &out, "getContentInfo", new(big.Int).SetUint64(contentID)); err != nil {
		return nil, fmt.Errorf("failed to get content info: %w", err)
	}
	return abi.ConvertType(out[2], new(big.Int)).(*big.Int), nil
}

// GetCID returns the stored data CID. The contract reverts when the caller
// lacks access, which surfaces here as an error.
func (c *Contract) GetCID(ctx context.Context, contentID uint64, caller string) (string, error) {
	var out []interface{}
	opts := &bind.CallOpts{Context: ctx, From: common.HexToAddress(caller)}
	if err := c.bound.Call(opts, &out, "getCID", new(big.Int).SetUint64(contentID)); err != nil {
		return "", fmt.Errorf("failed to get cid: %w", err)
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

// GetContentInfo reads the content record; UserHasAccess is evaluated for
// the given caller address.
func (c *Contract) GetContentInfo(ctx context.Context, contentID uint64, caller string) (*models.StoredContent, error) {
	var out []interface{}
	opts := &bind.CallOpts{Context: ctx, From: common.HexToAddress(caller)}
	if err := c.bound.Call(opts, &out, "getContentInfo", new(big.Int).SetUint64(contentID)); err != nil {
		return nil, fmt.Errorf("failed to get content info: %w", err)
	}

	return &models.StoredContent{
		ID:            contentID,
		Title:         *abi.ConvertType(out[0], new(string)).(*string),
		Description:   *abi.ConvertType(out[1], new(string)).(*string),
		Price:         FormatFIL(abi.ConvertType(out[2], new(big.Int)).(*big.Int)),
		Owner:         abi.ConvertType(out[3], new(common.Address)).(*common.Address).Hex(),
		IsActive:      *abi.ConvertType(out[4], new(bool)).(*bool),
		CreatedAt:     abi.ConvertType(out[5], new(big.Int)).(*big.Int).Int64(),
		DealID:        abi.ConvertType(out[6], new(big.Int)).(*big.Int).Uint64(),
		PieceSize:     abi.ConvertType(out[7], new(big.Int)).(*big.Int).Uint64(),
		UserHasAccess: *abi.ConvertType(out[8], new(bool)).(*bool),
	}, nil
}

// GetAllActiveContent lists every content entry open for purchase.
func (c *Contract) GetAllActiveContent(ctx context.Context, caller string) ([]models.StoredContent, error) {
	ids, err := c.contentIDs(ctx, "getAllActiveContent")
	if err != nil {
		return nil, err
	}
	return c.resolveContent(ctx, ids, caller)
}

func (c *Contract) GetUserOwnedContent(ctx context.Context, user string) ([]models.StoredContent, error) {
	ids, err := c.contentIDs(ctx, "getUserOwnedContent", common.HexToAddress(user))
	if err != nil {
		return nil, err
	}
	return c.resolveContent(ctx, ids, user)
}

func (c *Contract) GetUserPurchasedContent(ctx context.Context, user string) ([]models.StoredContent, error) {
	ids, err := c.contentIDs(ctx, "getUserPurchasedContent", common.HexToAddress(user))
	if err != nil {
		return nil, err
	}
	return c.resolveContent(ctx, ids, user)
}

func (c *Contract) HasAccess(ctx context.Context, contentID uint64, user string) (bool, error) {
	var out []interface{}
	opts := &bind.CallOpts{Context: ctx}
	if err := c.bound.Call(opts, &out, "hasAccess", new(big.Int).SetUint64(contentID), common.HexToAddress(user)); err != nil {
		return false, fmt.Errorf("failed to check access: %w", err)
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// CheckDealActivation reports whether the Filecoin storage deal backing
// this content has been confirmed active on-chain.
func (c *Contract) CheckDealActivation(ctx context.Context, contentID uint64) (bool, error) {
	var out []interface{}
	opts := &bind.CallOpts{Context: ctx}
	if err := c.bound.Call(opts, &out, "checkDealActivation", new(big.Int).SetUint64(contentID)); err != nil {
		return false, fmt.Errorf("failed to check deal activation: %w", err)
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// PlatformFeePercentage returns the fee the contract retains on each
// purchase, in whole percent.
func (c *Contract) PlatformFeePercentage(ctx context.Context) (*big.Int, error) {
	var out []interface{}
	opts := &bind.CallOpts{Context: ctx}
	if err := c.bound.Call(opts, &out, "platform_fee_percentage"); err != nil {
		return nil, fmt.Errorf("failed to read platform fee: %w", err)
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

func (c *Contract) contentIDs(ctx context.Context, method string, args ...interface{}) ([]*big.Int, error) {
	var out []interface{}
	opts := &bind.CallOpts{Context: ctx}
	if err := c.bound.Call(opts, &out, method, args...); err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}
	return *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int), nil
}

func (c *Contract) resolveContent(ctx context.Context, ids []*big.Int, caller string) ([]models.StoredContent, error) {
	result := make([]models.StoredContent, 0, len(ids))
	for _, id := range ids {
		info, err := c.GetContentInfo(ctx, id.Uint64(), caller)
		if err != nil {
			return nil, err
		}
		result = append(result, *info)
	}
	return result, nil
}

func (c *Contract) transact(ctx context.Context, value *big.Int, method string, args ...interface{}) (*types.Receipt, string, error) {
	if c.key == nil {
		return nil, "", fmt.Errorf("contract is read-only: no signing key configured")
	}

	opts, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx
	opts.Value = value

	tx, err := c.bound.Transact(opts, method, args...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to send %s: %w", method, err)
	}

	receipt, err := bind.WaitMined(ctx, c.client, tx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to confirm %s: %w", method, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, "", fmt.Errorf("%s transaction reverted: %s", method, tx.Hash().Hex())
	}

	return receipt, tx.Hash().Hex(), nil
}
