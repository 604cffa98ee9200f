package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

type memoryProduct struct {
	product OnChainProduct
	traces  []OnChainTrace
}

// MemoryLedger keeps contract state in process. It backs local development
// (LEDGER_DRIVER=memory) and tests. FailWith, when set, is consulted before
// every operation and lets callers inject ledger faults.
type MemoryLedger struct {
	mu       sync.RWMutex
	products map[string]*memoryProduct
	block    uint64
	actor    common.Address
	now      func() time.Time

	FailWith func(op string) error
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		products: make(map[string]*memoryProduct),
		actor:    common.HexToAddress("0x00000000000000000000000000000000000000a1"),
		now:      time.Now,
	}
}

func (m *MemoryLedger) fail(op string) error {
	if m.FailWith == nil {
		return nil
	}
	return m.FailWith(op)
}

func (m *MemoryLedger) receipt(op string, args ...interface{}) TxResult {
	m.block++
	hash := crypto.Keccak256Hash([]byte(fmt.Sprint(op, m.block, args)))
	return TxResult{TransactionHash: hash.Hex(), BlockNumber: m.block}
}

func (m *MemoryLedger) register(op, productID, name, farm string, createdAt time.Time) (TxResult, error) {
	if _, ok := m.products[productID]; ok {
		return TxResult{}, &Error{Kind: KindReverted, Op: op, Reason: "product already exists"}
	}
	m.products[productID] = &memoryProduct{
		product: OnChainProduct{ProductID: productID, Name: name, Farm: farm, CreatedAt: createdAt.UTC()},
	}
	return m.receipt(op, productID, name, farm), nil
}

func (m *MemoryLedger) CreateBatch(ctx context.Context, batchID, growerID, productName string, harvestEpochSeconds int64) (TxResult, error) {
	if err := m.fail("createBatch"); err != nil {
		return TxResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.register("createBatch", batchID, productName, growerID, time.Unix(harvestEpochSeconds, 0))
}

func (m *MemoryLedger) AddProduct(ctx context.Context, productID, name, farm string) (TxResult, error) {
	if err := m.fail("addProduct"); err != nil {
		return TxResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.register("addProduct", productID, name, farm, m.now())
}

func (m *MemoryLedger) AddTrace(ctx context.Context, productID, action, location string) (TxResult, error) {
	if err := m.fail("addTrace"); err != nil {
		return TxResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[productID]
	if !ok {
		return TxResult{}, &Error{Kind: KindReverted, Op: "addTrace", Reason: "product does not exist"}
	}
	p.traces = append(p.traces, OnChainTrace{
		Action:    action,
		Location:  location,
		Timestamp: m.now().Unix(),
		Actor:     m.actor.Hex(),
	})
	p.product.TraceCount = uint64(len(p.traces))
	return m.receipt("addTrace", productID, action, location), nil
}

func (m *MemoryLedger) GetProduct(ctx context.Context, productID string) (*OnChainProduct, error) {
	if err := m.fail("getProduct"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[productID]
	if !ok {
		return nil, &Error{Kind: KindNotFound, Op: "getProduct", Reason: productID}
	}
	product := p.product
	return &product, nil
}

func (m *MemoryLedger) GetTrace(ctx context.Context, productID string, index uint64) (*OnChainTrace, error) {
	if err := m.fail("getTrace"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[productID]
	if !ok {
		return nil, &Error{Kind: KindNotFound, Op: "getTrace", Reason: productID}
	}
	if index >= uint64(len(p.traces)) {
		return nil, &Error{Kind: KindReverted, Op: "getTrace", Reason: "trace index out of range"}
	}
	trace := p.traces[index]
	return &trace, nil
}

func (m *MemoryLedger) GetAllTraces(ctx context.Context, productID string) ([]OnChainTrace, error) {
	return getAllTraces(ctx, m, productID)
}

func (m *MemoryLedger) Exists(ctx context.Context, productID string) bool {
	return exists(ctx, m, productID)
}
