package domain

import (
	"errors"
	"time"

	"GreenOrigin-Backend/entities"
	"GreenOrigin-Backend/pkg/ledger"
)

var (
	MessageSuccessCreateBatch      = "batch created on blockchain"
	MessageSuccessAddProductLedger = "product added to blockchain"
	MessageSuccessAddTrace         = "trace added to blockchain"
	MessageSuccessGetBatch         = "product retrieved successfully"
	MessageSuccessGetBatches       = "batches retrieved successfully"
	MessageSuccessGetTraces        = "traces retrieved successfully"
	MessageSuccessGetStats         = "statistics retrieved successfully"
	MessageSuccessSyncStatus       = "sync status retrieved successfully"
	MessageNoTraces                = "no traces found for this product on blockchain"

	MessageFailedCreateBatch      = "failed to create batch on blockchain"
	MessageFailedAddProductLedger = "failed to add product to blockchain"
	MessageFailedAddTrace         = "failed to add trace to blockchain"
	MessageFailedGetBatch         = "failed to retrieve product"
	MessageFailedGetBatches       = "failed to retrieve batches"
	MessageFailedGetStats         = "failed to retrieve statistics"

	ErrProductAlreadyOnLedger = errors.New("product already exists on blockchain")
	ErrProductNotOnLedger     = errors.New("product is not on blockchain, add product to blockchain first")
)

const (
	SourceBlockchainAndDatabase = "blockchain+database"
	SourceDatabase              = "database"
	SourceBlockchain            = "blockchain"
)

type (
	CreateBatchRequest struct {
		BatchID     string `json:"batchId" validate:"required"`
		GrowerID    string `json:"growerId" validate:"required"`
		ProductName string `json:"productName" validate:"required"`
		HarvestDate string `json:"harvestDate"`
	}

	AddProductToLedgerRequest struct {
		ProductID string `json:"productId" validate:"required"`
		Name      string `json:"name" validate:"required"`
		Farm      string `json:"farm" validate:"required"`
	}

	AddTraceRequest struct {
		Action   string `json:"action" validate:"required,max=200"`
		Location string `json:"location" validate:"required,max=200"`
	}

	TxResponse struct {
		ProductID       string `json:"productId"`
		TransactionHash string `json:"transactionHash"`
		BlockNumber     uint64 `json:"blockNumber"`
		Provisioned     bool   `json:"provisioned,omitempty"`
	}

	// MergedProductResponse is the database record enriched with what the
	// ledger currently reports.
	MergedProductResponse struct {
		*entities.Product
		IsOnBlockchain bool                   `json:"isOnBlockchain"`
		TraceCount     uint64                 `json:"traceCount"`
		Source         string                 `json:"source"`
		Blockchain     *ledger.OnChainProduct `json:"blockchainData,omitempty"`
	}

	TracesResponse struct {
		ProductID string                `json:"productId"`
		Traces    []ledger.OnChainTrace `json:"traces"`
		Message   string                `json:"message,omitempty"`
	}

	BatchListItem struct {
		entities.BatchMetadata
		IsOnBlockchain bool `json:"isOnBlockchain"`
	}

	SyncStatusResponse struct {
		ProductID      string     `json:"productId"`
		InDatabase     bool       `json:"inDatabase"`
		IsOnBlockchain bool       `json:"isOnBlockchain"`
		TraceCount     uint64     `json:"traceCount"`
		LastSyncedAt   *time.Time `json:"lastSyncedAt,omitempty"`
		Source         string     `json:"source"`
	}

	StatsResponse struct {
		TotalBatches int    `json:"totalBatches"`
		OnBlockchain int    `json:"onBlockchain"`
		TotalTraces  uint64 `json:"totalTraces"`
	}
)

// LedgerErrorMessage turns a ledger failure into text for the client.
func LedgerErrorMessage(err error) string {
	switch ledger.KindOf(err) {
	case ledger.KindUnconfigured:
		return "blockchain is not configured on the server"
	case ledger.KindInsufficientFunds:
		return "insufficient funds in the server wallet to pay for gas"
	case ledger.KindNonceConflict:
		return "transaction nonce conflict, please retry"
	case ledger.KindReverted:
		var lerr *ledger.Error
		if errors.As(err, &lerr) && lerr.Reason != "" {
			return "transaction reverted: " + lerr.Reason
		}
		return "transaction reverted by the contract"
	case ledger.KindUnreachable:
		return "blockchain node is unreachable"
	case ledger.KindNotFound:
		return "product not found on blockchain"
	default:
		return "blockchain request failed"
	}
}
