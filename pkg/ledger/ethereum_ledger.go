package ledger

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gofiber/fiber/v2/log"
)

type Config struct {
	RPCURL          string
	PrivateKey      string
	ContractAddress string
	ChainID         int64
	ReceiptTimeout  time.Duration
}

type ethereumLedger struct {
	cfg Config

	mu       sync.Mutex
	client   *ethclient.Client
	contract *bind.BoundContract
	key      *ecdsa.PrivateKey
	chainID  *big.Int
}

// NewEthereumLedger returns a ledger backed by a JSON-RPC node. Nothing is
// dialed here; the connection is made on first use so the API can start
// without a node.
func NewEthereumLedger(cfg Config) Ledger {
	if cfg.ReceiptTimeout <= 0 {
		cfg.ReceiptTimeout = 2 * time.Minute
	}
	return &ethereumLedger{cfg: cfg}
}

func (l *ethereumLedger) connect(ctx context.Context, op string) (*bind.BoundContract, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.contract != nil {
		return l.contract, nil
	}

	if l.cfg.RPCURL == "" || l.cfg.PrivateKey == "" || l.cfg.ContractAddress == "" {
		return nil, &Error{Kind: KindUnconfigured, Op: op, Reason: "rpc url, private key and contract address are required"}
	}
	if !common.IsHexAddress(l.cfg.ContractAddress) {
		return nil, &Error{Kind: KindUnconfigured, Op: op, Reason: "invalid contract address"}
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(l.cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, &Error{Kind: KindUnconfigured, Op: op, Reason: "invalid private key", Err: err}
	}

	parsed, err := abi.JSON(strings.NewReader(traceabilityABI))
	if err != nil {
		return nil, &Error{Kind: KindUnconfigured, Op: op, Reason: "invalid contract abi", Err: err}
	}

	client, err := ethclient.DialContext(ctx, l.cfg.RPCURL)
	if err != nil {
		return nil, classify(op, err)
	}

	chainID := big.NewInt(l.cfg.ChainID)
	if l.cfg.ChainID <= 0 {
		chainID, err = client.ChainID(ctx)
		if err != nil {
			client.Close()
			return nil, classify(op, err)
		}
	}

	address := common.HexToAddress(l.cfg.ContractAddress)
	l.client = client
	l.key = key
	l.chainID = chainID
	l.contract = bind.NewBoundContract(address, parsed, client, client, client)

	log.Infof("ledger connected to chain %s, contract %s", chainID.String(), address.Hex())
	return l.contract, nil
}

func (l *ethereumLedger) transact(ctx context.Context, method string, params ...interface{}) (TxResult, error) {
	contract, err := l.connect(ctx, method)
	if err != nil {
		return TxResult{}, err
	}

	opts, err := bind.NewKeyedTransactorWithChainID(l.key, l.chainID)
	if err != nil {
		return TxResult{}, &Error{Kind: KindUnconfigured, Op: method, Err: err}
	}
	opts.Context = ctx

	tx, err := contract.Transact(opts, method, params...)
	if err != nil {
		return TxResult{}, classify(method, err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, l.cfg.ReceiptTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, l.client, tx)
	if err != nil {
		return TxResult{}, classify(method, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return TxResult{}, &Error{Kind: KindReverted, Op: method, Reason: "transaction " + tx.Hash().Hex() + " failed"}
	}

	return TxResult{
		TransactionHash: tx.Hash().Hex(),
		BlockNumber:     receipt.BlockNumber.Uint64(),
	}, nil
}

func (l *ethereumLedger) call(ctx context.Context, method string, params ...interface{}) ([]interface{}, error) {
	contract, err := l.connect(ctx, method)
	if err != nil {
		return nil, err
	}

	var out []interface{}
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, method, params...); err != nil {
		return nil, classify(method, err)
	}
	return out, nil
}

func (l *ethereumLedger) CreateBatch(ctx context.Context, batchID, growerID, productName string, harvestEpochSeconds int64) (TxResult, error) {
	return l.transact(ctx, "createBatch", batchID, growerID, productName, big.NewInt(harvestEpochSeconds))
}

func (l *ethereumLedger) AddProduct(ctx context.Context, productID, name, farm string) (TxResult, error) {
	return l.transact(ctx, "addProduct", productID, name, farm)
}

func (l *ethereumLedger) AddTrace(ctx context.Context, productID, action, location string) (TxResult, error) {
	return l.transact(ctx, "addTrace", productID, action, location)
}

func (l *ethereumLedger) GetProduct(ctx context.Context, productID string) (*OnChainProduct, error) {
	out, err := l.call(ctx, "getProduct", productID)
	if err != nil {
		return nil, err
	}
	if len(out) != 5 {
		return nil, &Error{Kind: KindUnknown, Op: "getProduct", Err: fmt.Errorf("unexpected %d return values", len(out))}
	}

	id, _ := out[0].(string)
	if id == "" {
		return nil, &Error{Kind: KindNotFound, Op: "getProduct", Reason: productID}
	}
	name, _ := out[1].(string)
	farm, _ := out[2].(string)
	createdAt, ok1 := out[3].(*big.Int)
	traceCount, ok2 := out[4].(*big.Int)
	if !ok1 || !ok2 {
		return nil, &Error{Kind: KindUnknown, Op: "getProduct", Err: errors.New("unexpected return types")}
	}

	return &OnChainProduct{
		ProductID:  id,
		Name:       name,
		Farm:       farm,
		CreatedAt:  time.Unix(createdAt.Int64(), 0).UTC(),
		TraceCount: traceCount.Uint64(),
	}, nil
}

func (l *ethereumLedger) GetTrace(ctx context.Context, productID string, index uint64) (*OnChainTrace, error) {
	out, err := l.call(ctx, "getTrace", productID, new(big.Int).SetUint64(index))
	if err != nil {
		return nil, err
	}
	if len(out) != 4 {
		return nil, &Error{Kind: KindUnknown, Op: "getTrace", Err: fmt.Errorf("unexpected %d return values", len(out))}
	}

	action, _ := out[0].(string)
	location, _ := out[1].(string)
	timestamp, ok := out[2].(*big.Int)
	if !ok {
		return nil, &Error{Kind: KindUnknown, Op: "getTrace", Err: errors.New("unexpected timestamp type")}
	}
	actor, _ := out[3].(common.Address)

	return &OnChainTrace{
		Action:    action,
		Location:  location,
		Timestamp: timestamp.Int64(),
		Actor:     actor.Hex(),
	}, nil
}

func (l *ethereumLedger) GetAllTraces(ctx context.Context, productID string) ([]OnChainTrace, error) {
	return getAllTraces(ctx, l, productID)
}

func (l *ethereumLedger) Exists(ctx context.Context, productID string) bool {
	return exists(ctx, l, productID)
}
