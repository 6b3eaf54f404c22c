package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"proof_of_existence/pkg/logger"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

var (
	ErrNoSigner        = errors.New("chain client has no signing key")
	ErrNoContract      = errors.New("contract address is not configured")
	ErrTxFailed        = errors.New("transaction reverted")
	ErrUnexpectedValue = errors.New("unexpected contract return value")
)

type Config struct {
	RPCURL             string        `json:"rpcURL"`
	ChainID            int64         `json:"chainID"`
	PrivateKey         string        `json:"privateKey"`
	DistributorAddress string        `json:"distributorAddress"`
	TokenAddress       string        `json:"tokenAddress"`
	RecorderAddress    string        `json:"recorderAddress"`
	NFTAddress         string        `json:"nftAddress"`
	ReceiptTimeout     time.Duration `json:"receiptTimeout"`
}

type Pricing struct {
	BaseFee        *big.Int
	PricePerSecond *big.Int
}

type backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

type Client struct {
	eth            *ethclient.Client
	backend        backend
	key            *ecdsa.PrivateKey
	chainID        *big.Int
	receiptTimeout time.Duration

	distributor *bind.BoundContract
	token       *bind.BoundContract
	recorder    *bind.BoundContract
	nft         *bind.BoundContract
}

func Dial(ctx context.Context, cfg Config) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc: %w", err)
	}

	chainID := big.NewInt(cfg.ChainID)
	if cfg.ChainID == 0 {
		chainID, err = eth.ChainID(ctx)
		if err != nil {
			eth.Close()
			return nil, fmt.Errorf("failed to get chain id: %w", err)
		}
	}

	c, err := newClient(eth, cfg, chainID)
	if err != nil {
		eth.Close()
		return nil, err
	}
	c.eth = eth

	return c, nil
}

func newClient(b backend, cfg Config, chainID *big.Int) (*Client, error) {
	c := &Client{
		backend:        b,
		chainID:        chainID,
		receiptTimeout: cfg.ReceiptTimeout,
	}
	if c.receiptTimeout <= 0 {
		c.receiptTimeout = 2 * time.Minute
	}

	if cfg.PrivateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
		c.key = key
	}

	var err error
	if c.distributor, err = bindContract(cfg.DistributorAddress, distributorABI, b); err != nil {
		return nil, err
	}
	if c.token, err = bindContract(cfg.TokenAddress, erc20ABI, b); err != nil {
		return nil, err
	}
	if c.recorder, err = bindContract(cfg.RecorderAddress, recorderABI, b); err != nil {
		return nil, err
	}
	if c.nft, err = bindContract(cfg.NFTAddress, erc721ABI, b); err != nil {
		return nil, err
	}

	return c, nil
}

func bindContract(address, definition string, b backend) (*bind.BoundContract, error) {
	if address == "" {
		return nil, nil
	}
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid contract address %q", address)
	}

	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		return nil, fmt.Errorf("failed to parse abi: %w", err)
	}

	return bind.NewBoundContract(common.HexToAddress(address), parsed, b, b, b), nil
}

func (c *Client) Close() {
	if c.eth != nil {
		c.eth.Close()
	}
}

// PublishRoot sends setMerkleRoot to the distributor and waits for the
// receipt.
func (c *Client) PublishRoot(ctx context.Context, root common.Hash) (common.Hash, error) {
	log := logger.Logger()

	if c.key == nil {
		return common.Hash{}, ErrNoSigner
	}
	if c.distributor == nil {
		return common.Hash{}, ErrNoContract
	}

	opts, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx

	tx, err := c.distributor.Transact(opts, "setMerkleRoot", [32]byte(root))
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to send setMerkleRoot: %w", err)
	}
	log.Info("merkle root transaction sent",
		zap.String("root", root.Hex()),
		zap.String("tx", tx.Hash().Hex()))

	waitCtx, cancel := context.WithTimeout(ctx, c.receiptTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, c.backend, tx)
	if err != nil {
		return tx.Hash(), fmt.Errorf("failed to wait for receipt: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return tx.Hash(), ErrTxFailed
	}

	return tx.Hash(), nil
}

func (c *Client) callUint(ctx context.Context, contract *bind.BoundContract, method string, params ...interface{}) (*big.Int, error) {
	if contract == nil {
		return nil, ErrNoContract
	}

	var out []interface{}
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, method, params...); err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}
	if len(out) != 1 {
		return nil, ErrUnexpectedValue
	}

	value, ok := out[0].(*big.Int)
	if !ok {
		return nil, ErrUnexpectedValue
	}

	return value, nil
}

func (c *Client) TokenBalance(ctx context.Context, owner common.Address) (*big.Int, error) {
	return c.callUint(ctx, c.token, "balanceOf", owner)
}

func (c *Client) NFTBalance(ctx context.Context, owner common.Address) (*big.Int, error) {
	return c.callUint(ctx, c.nft, "balanceOf", owner)
}

func (c *Client) RecorderPricing(ctx context.Context) (*Pricing, error) {
	baseFee, err := c.callUint(ctx, c.recorder, "baseFee")
	if err != nil {
		return nil, err
	}

	perSecond, err := c.callUint(ctx, c.recorder, "pricePerSecond")
	if err != nil {
		return nil, err
	}

	return &Pricing{BaseFee: baseFee, PricePerSecond: perSecond}, nil
}
