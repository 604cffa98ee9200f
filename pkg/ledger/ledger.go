// Package ledger talks to the traceability smart contract. The contract is
// treated as a slow, append-only remote store reachable through a fixed
// method set: createBatch, addProduct, addTrace, getProduct and getTrace.
package ledger

import (
	"context"
	"time"
)

type (
	Ledger interface {
		CreateBatch(ctx context.Context, batchID, growerID, productName string, harvestEpochSeconds int64) (TxResult, error)
		AddProduct(ctx context.Context, productID, name, farm string) (TxResult, error)
		AddTrace(ctx context.Context, productID, action, location string) (TxResult, error)
		GetProduct(ctx context.Context, productID string) (*OnChainProduct, error)
		GetTrace(ctx context.Context, productID string, index uint64) (*OnChainTrace, error)
		GetAllTraces(ctx context.Context, productID string) ([]OnChainTrace, error)
		Exists(ctx context.Context, productID string) bool
	}

	TxResult struct {
		TransactionHash string `json:"transactionHash"`
		BlockNumber     uint64 `json:"blockNumber"`
	}

	OnChainProduct struct {
		ProductID  string    `json:"productId"`
		Name       string    `json:"name"`
		Farm       string    `json:"farm"`
		CreatedAt  time.Time `json:"createdAt"`
		TraceCount uint64    `json:"traceCount"`
	}

	// OnChainTrace.Timestamp is unix seconds as stored by the contract.
	OnChainTrace struct {
		Action    string `json:"action"`
		Location  string `json:"location"`
		Timestamp int64  `json:"timestamp"`
		Actor     string `json:"actor"`
	}
)

// getAllTraces reads traces one by one; the contract has no bulk getter.
func getAllTraces(ctx context.Context, l Ledger, productID string) ([]OnChainTrace, error) {
	product, err := l.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	traces := make([]OnChainTrace, 0, product.TraceCount)
	for i := uint64(0); i < product.TraceCount; i++ {
		trace, err := l.GetTrace(ctx, productID, i)
		if err != nil {
			return nil, err
		}
		traces = append(traces, *trace)
	}
	return traces, nil
}

// exists treats any read failure as absence.
func exists(ctx context.Context, l Ledger, productID string) bool {
	product, err := l.GetProduct(ctx, productID)
	if err != nil {
		return false
	}
	return product != nil && product.ProductID != ""
}
