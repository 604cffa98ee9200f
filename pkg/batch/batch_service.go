package batch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"GreenOrigin-Backend/domain"
	"GreenOrigin-Backend/entities"
	"GreenOrigin-Backend/internal/utils"
	"GreenOrigin-Backend/pkg/ledger"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

type (
	// ProductReader is the part of the product store the ledger flows need.
	ProductReader interface {
		GetProductByProductID(ctx context.Context, productID string) (*entities.Product, error)
	}

	BatchService interface {
		CreateBatch(ctx context.Context, req domain.CreateBatchRequest) (domain.TxResponse, error)
		AddProductToLedger(ctx context.Context, req domain.AddProductToLedgerRequest) (domain.TxResponse, error)
		AddTrace(ctx context.Context, productID string, req domain.AddTraceRequest) (domain.TxResponse, error)
		GetProduct(ctx context.Context, productID string) (domain.MergedProductResponse, error)
		GetTraces(ctx context.Context, productID string) domain.TracesResponse
		GetBatches(ctx context.Context) ([]domain.BatchListItem, error)
		GetStats(ctx context.Context) (domain.StatsResponse, error)
		GetSyncStatus(ctx context.Context, productID string) (domain.SyncStatusResponse, error)
	}

	batchService struct {
		batchRepository BatchRepository
		products        ProductReader
		ledger          ledger.Ledger
		now             func() time.Time
	}
)

func NewBatchService(batchRepository BatchRepository, products ProductReader, l ledger.Ledger) BatchService {
	return &batchService{
		batchRepository: batchRepository,
		products:        products,
		ledger:          l,
		now:             time.Now,
	}
}

func (s *batchService) findProduct(ctx context.Context, productID string) (*entities.Product, error) {
	product, err := s.products.GetProductByProductID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *batchService) CreateBatch(ctx context.Context, req domain.CreateBatchRequest) (domain.TxResponse, error) {
	harvest := s.now()
	if req.HarvestDate != "" {
		t, err := domain.ParseDate(req.HarvestDate)
		if err != nil {
			return domain.TxResponse{}, err
		}
		harvest = t
	}

	tx, err := s.ledger.CreateBatch(ctx, req.BatchID, req.GrowerID, req.ProductName, harvest.Unix())
	if err != nil {
		return domain.TxResponse{}, err
	}

	if err := s.batchRepository.UpsertBatch(ctx, &entities.BatchMetadata{
		BatchID:               req.BatchID,
		ProductName:           req.ProductName,
		LatestTransactionHash: tx.TransactionHash,
		QRCodeURL:             TraceURL(req.BatchID),
	}); err != nil {
		log.Warnf("failed to upsert batch metadata for %s: %v", req.BatchID, err)
	}

	return domain.TxResponse{
		ProductID:       req.BatchID,
		TransactionHash: tx.TransactionHash,
		BlockNumber:     tx.BlockNumber,
	}, nil
}

func (s *batchService) AddProductToLedger(ctx context.Context, req domain.AddProductToLedgerRequest) (domain.TxResponse, error) {
	if s.ledger.Exists(ctx, req.ProductID) {
		return domain.TxResponse{}, domain.ErrProductAlreadyOnLedger
	}

	tx, err := s.ledger.AddProduct(ctx, req.ProductID, req.Name, req.Farm)
	if err != nil {
		return domain.TxResponse{}, err
	}

	product, err := s.products.GetProductByProductID(ctx, req.ProductID)
	if err == nil {
		s.upsertFromProduct(ctx, product, tx.TransactionHash)
	}

	return domain.TxResponse{
		ProductID:       req.ProductID,
		TransactionHash: tx.TransactionHash,
		BlockNumber:     tx.BlockNumber,
	}, nil
}

// AddTrace requires the product on the ledger. A product known only to the
// database is registered on the ledger first; one known to neither is
// rejected before any ledger write.
func (s *batchService) AddTrace(ctx context.Context, productID string, req domain.AddTraceRequest) (domain.TxResponse, error) {
	provisioned := false

	if !s.ledger.Exists(ctx, productID) {
		product, err := s.findProduct(ctx, productID)
		if err != nil {
			return domain.TxResponse{}, err
		}

		tx, err := s.ledger.AddProduct(ctx, productID, product.Name, farmOf(product))
		if err != nil {
			log.Errorf("failed to register %s on ledger before trace (%s): %v", productID, ledger.KindOf(err), err)
			return domain.TxResponse{}, fmt.Errorf("%w: %w", domain.ErrProductNotOnLedger, err)
		}
		provisioned = true
		s.upsertFromProduct(ctx, product, tx.TransactionHash)
	}

	tx, err := s.ledger.AddTrace(ctx, productID, req.Action, req.Location)
	if err != nil {
		return domain.TxResponse{}, err
	}

	if err := s.batchRepository.UpdateTransactionHash(ctx, productID, tx.TransactionHash); err != nil && !IsNotFound(err) {
		log.Warnf("failed to record trace transaction for %s: %v", productID, err)
	}

	return domain.TxResponse{
		ProductID:       productID,
		TransactionHash: tx.TransactionHash,
		BlockNumber:     tx.BlockNumber,
		Provisioned:     provisioned,
	}, nil
}

// TraceURL is the public page a product's QR code points at. It is relative
// when APP_URL is unset.
func TraceURL(productID string) string {
	return strings.TrimRight(utils.GetConfig("APP_URL"), "/") + "/trace/" + url.PathEscape(productID)
}

func farmOf(p *entities.Product) string {
	switch {
	case p.Location != "":
		return p.Location
	case p.FarmerName != "":
		return p.FarmerName
	default:
		return p.FarmerID
	}
}

func (s *batchService) upsertFromProduct(ctx context.Context, p *entities.Product, txHash string) {
	err := s.batchRepository.UpsertBatch(ctx, &entities.BatchMetadata{
		BatchID:               p.ProductID,
		ProductName:           p.Name,
		LatestTransactionHash: txHash,
		OwnerID:               &p.ID,
		ImageURL:              p.ImageURL,
		Description:           p.Description,
		QRCodeURL:             TraceURL(p.ProductID),
	})
	if err != nil {
		log.Warnf("failed to upsert batch metadata for %s: %v", p.ProductID, err)
	}
}

func (s *batchService) GetProduct(ctx context.Context, productID string) (domain.MergedProductResponse, error) {
	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return domain.MergedProductResponse{}, err
	}

	res := domain.MergedProductResponse{Product: product, Source: domain.SourceDatabase}

	onChain, err := s.ledger.GetProduct(ctx, productID)
	if err != nil {
		if !ledger.IsKind(err, ledger.KindNotFound) {
			log.Warnf("ledger read for %s degraded to database only (%s): %v", productID, ledger.KindOf(err), err)
		}
		return res, nil
	}

	res.IsOnBlockchain = true
	res.TraceCount = onChain.TraceCount
	res.Source = domain.SourceBlockchainAndDatabase
	res.Blockchain = onChain
	return res, nil
}

func (s *batchService) GetTraces(ctx context.Context, productID string) domain.TracesResponse {
	res := domain.TracesResponse{ProductID: productID, Traces: []ledger.OnChainTrace{}}

	traces, err := s.ledger.GetAllTraces(ctx, productID)
	if err != nil {
		if !ledger.IsKind(err, ledger.KindNotFound) {
			log.Warnf("failed to read traces for %s (%s): %v", productID, ledger.KindOf(err), err)
		}
		res.Message = domain.MessageNoTraces
		return res
	}
	if len(traces) == 0 {
		res.Message = domain.MessageNoTraces
		return res
	}

	res.Traces = traces
	return res
}

func (s *batchService) GetBatches(ctx context.Context) ([]domain.BatchListItem, error) {
	batches, err := s.batchRepository.GetBatches(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]domain.BatchListItem, 0, len(batches))
	for _, b := range batches {
		items = append(items, domain.BatchListItem{
			BatchMetadata:  b,
			IsOnBlockchain: s.ledger.Exists(ctx, b.BatchID),
		})
	}
	return items, nil
}

// GetStats costs one ledger read per batch row.
func (s *batchService) GetStats(ctx context.Context) (domain.StatsResponse, error) {
	batches, err := s.batchRepository.GetBatches(ctx)
	if err != nil {
		return domain.StatsResponse{}, err
	}

	stats := domain.StatsResponse{TotalBatches: len(batches)}
	for _, b := range batches {
		onChain, err := s.ledger.GetProduct(ctx, b.BatchID)
		if err != nil {
			continue
		}
		stats.OnBlockchain++
		stats.TotalTraces += onChain.TraceCount
	}
	return stats, nil
}

// GetSyncStatus reports where productID currently lives and backfills the
// metadata row when the product is on both sides but was never indexed.
func (s *batchService) GetSyncStatus(ctx context.Context, productID string) (domain.SyncStatusResponse, error) {
	res := domain.SyncStatusResponse{ProductID: productID, Source: domain.SourceDatabase}

	product, err := s.findProduct(ctx, productID)
	switch {
	case err == nil:
		res.InDatabase = true
	case !errors.Is(err, domain.ErrProductNotFound):
		return res, err
	}

	onChain, ledgerErr := s.ledger.GetProduct(ctx, productID)
	if ledgerErr == nil {
		res.IsOnBlockchain = true
		res.TraceCount = onChain.TraceCount
		res.Source = domain.SourceBlockchainAndDatabase
	}

	if !res.InDatabase && !res.IsOnBlockchain {
		return res, domain.ErrProductNotFound
	}
	if !res.InDatabase {
		res.Source = domain.SourceBlockchain
	}

	metadata, err := s.batchRepository.GetBatchByID(ctx, productID)
	switch {
	case err == nil:
		updated := metadata.UpdatedAt
		res.LastSyncedAt = &updated
	case IsNotFound(err) && res.InDatabase && res.IsOnBlockchain:
		s.upsertFromProduct(ctx, product, "")
	case !IsNotFound(err):
		log.Warnf("failed to read batch metadata for %s: %v", productID, err)
	}

	return res, nil
}
