package trace

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"GreenOrigin-Backend/domain"
	"GreenOrigin-Backend/entities"
	"GreenOrigin-Backend/internal/utils/mailing"
	"GreenOrigin-Backend/pkg/ledger"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type (
	ProductReader interface {
		GetProductByProductID(ctx context.Context, productID string) (*entities.Product, error)
	}

	// LedgerTracer writes a trace to the ledger, registering the product
	// there first when needed.
	LedgerTracer interface {
		AddTrace(ctx context.Context, productID string, req domain.AddTraceRequest) (domain.TxResponse, error)
	}

	TraceService interface {
		AddRecord(ctx context.Context, req domain.CreateTraceRecordRequest, actor string) (domain.CreateTraceRecordResponse, error)
		GetRecords(ctx context.Context, productID string) (domain.TraceRecordsResponse, error)
		GetRecordByID(ctx context.Context, id string) (domain.TraceRecordDetailResponse, error)
		UpdateRecord(ctx context.Context, id string, req domain.UpdateTraceRecordRequest, actor string) (*entities.TraceabilityRecord, error)
		DeleteRecord(ctx context.Context, id string, actor string) error
		GetTimeline(ctx context.Context, productID string) (domain.TimelineResponse, error)
	}

	traceService struct {
		traceRepository TraceRepository
		products        ProductReader
		ledger          LedgerTracer
		alerter         mailing.Alerter
		admins          []string
		now             func() time.Time
	}
)

// NewTraceService takes the admin wallets allowed to edit or delete any
// record.
func NewTraceService(
	traceRepository TraceRepository,
	products ProductReader,
	ledger LedgerTracer,
	alerter mailing.Alerter,
	admins []string,
) TraceService {
	normalized := make([]string, 0, len(admins))
	for _, a := range admins {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			normalized = append(normalized, a)
		}
	}
	return &traceService{
		traceRepository: traceRepository,
		products:        products,
		ledger:          ledger,
		alerter:         alerter,
		admins:          normalized,
		now:             time.Now,
	}
}

func (s *traceService) isAdmin(wallet string) bool {
	return wallet != "" && slices.Contains(s.admins, strings.ToLower(wallet))
}

func (s *traceService) findProduct(ctx context.Context, productID string) (*entities.Product, error) {
	product, err := s.products.GetProductByProductID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *traceService) findRecord(ctx context.Context, id string) (*entities.TraceabilityRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrTraceRecordNotFound
	}
	record, err := s.traceRepository.GetRecordByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTraceRecordNotFound
		}
		return nil, err
	}
	return record, nil
}

func ledgerLocation(loc entities.TraceLocation) string {
	if loc.Address != "" {
		return loc.Address
	}
	return loc.Province
}

// AddRecord saves the record, then mirrors it to the ledger. A ledger
// failure is reported on the response and never undoes the saved record.
func (s *traceService) AddRecord(ctx context.Context, req domain.CreateTraceRecordRequest, actor string) (domain.CreateTraceRecordResponse, error) {
	product, err := s.findProduct(ctx, req.ProductID)
	if err != nil {
		return domain.CreateTraceRecordResponse{}, err
	}

	record := &entities.TraceabilityRecord{
		ProductRef:      product.ID,
		ProductID:       product.ProductID,
		Stage:           req.Stage,
		Title:           strings.TrimSpace(req.Title),
		Description:     strings.TrimSpace(req.Description),
		Location:        datatypes.NewJSONType(req.Location),
		PerformerWallet: strings.ToLower(actor),
		Images:          datatypes.JSONSlice[string](req.Images),
		Documents:       datatypes.JSONSlice[entities.TraceDocument](req.Documents),
		Metadata:        datatypes.NewJSONType(req.Metadata),
		RecordedAt:      s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.traceRepository.CreateRecord(ctx, record); err != nil {
		return domain.CreateTraceRecordResponse{}, err
	}

	res := domain.CreateTraceRecordResponse{TraceabilityRecord: record}

	tx, err := s.ledger.AddTrace(ctx, record.ProductID, domain.AddTraceRequest{
		Action:   record.Stage,
		Location: ledgerLocation(req.Location),
	})
	if err != nil {
		log.Warnf("trace record %s for %s saved but ledger write failed (%s): %v", record.ID, record.ProductID, ledger.KindOf(err), err)
		if s.alerter != nil {
			s.alerter.LedgerDivergence(record.ProductID, "addTrace", err)
		}
		res.LedgerError = domain.LedgerErrorMessage(err)
		return res, nil
	}

	record.BlockchainTxHash = tx.TransactionHash
	res.IsOnBlockchain = true
	if err := s.traceRepository.UpdateTransactionHash(ctx, record.ID.String(), tx.TransactionHash); err != nil {
		log.Warnf("failed to store trace transaction for record %s: %v", record.ID, err)
	}
	return res, nil
}

func (s *traceService) GetRecords(ctx context.Context, productID string) (domain.TraceRecordsResponse, error) {
	if _, err := s.findProduct(ctx, productID); err != nil {
		return domain.TraceRecordsResponse{}, err
	}

	records, err := s.traceRepository.GetRecordsByProductID(ctx, productID)
	if err != nil {
		return domain.TraceRecordsResponse{}, err
	}
	return domain.TraceRecordsResponse{
		ProductID: productID,
		Count:     len(records),
		Records:   records,
	}, nil
}

func (s *traceService) GetRecordByID(ctx context.Context, id string) (domain.TraceRecordDetailResponse, error) {
	record, err := s.findRecord(ctx, id)
	if err != nil {
		return domain.TraceRecordDetailResponse{}, err
	}

	res := domain.TraceRecordDetailResponse{TraceabilityRecord: record}
	if product, err := s.products.GetProductByProductID(ctx, record.ProductID); err == nil {
		res.Product = &domain.TraceProductSummary{
			ProductID: product.ProductID,
			Name:      product.Name,
			Category:  product.Category,
		}
	}
	return res, nil
}

// UpdateRecord is allowed for the wallet that created the record and for
// admins. The ledger copy is append-only and is not touched.
func (s *traceService) UpdateRecord(ctx context.Context, id string, req domain.UpdateTraceRecordRequest, actor string) (*entities.TraceabilityRecord, error) {
	record, err := s.findRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(record.PerformerWallet, actor) && !s.isAdmin(actor) {
		return nil, domain.ErrUserNotAllowed
	}

	changed := false
	if req.Stage != nil {
		record.Stage = *req.Stage
		changed = true
	}
	if req.Title != nil {
		record.Title = strings.TrimSpace(*req.Title)
		changed = true
	}
	if req.Description != nil {
		record.Description = strings.TrimSpace(*req.Description)
		changed = true
	}
	if req.Location != nil {
		record.Location = datatypes.NewJSONType(*req.Location)
		changed = true
	}
	if req.Images != nil {
		record.Images = datatypes.JSONSlice[string](req.Images)
		changed = true
	}
	if req.Documents != nil {
		record.Documents = datatypes.JSONSlice[entities.TraceDocument](req.Documents)
		changed = true
	}
	if req.Metadata != nil {
		record.Metadata = datatypes.NewJSONType(*req.Metadata)
		changed = true
	}
	if !changed {
		return nil, domain.ErrNoFieldsToUpdate
	}

	if err := s.traceRepository.UpdateRecord(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// DeleteRecord is admin only.
func (s *traceService) DeleteRecord(ctx context.Context, id string, actor string) error {
	record, err := s.findRecord(ctx, id)
	if err != nil {
		return err
	}
	if !s.isAdmin(actor) {
		return domain.ErrUserNotAllowed
	}

	if err := s.traceRepository.DeleteRecord(ctx, record.ID.String()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrTraceRecordNotFound
		}
		return err
	}
	return nil
}

func (s *traceService) GetTimeline(ctx context.Context, productID string) (domain.TimelineResponse, error) {
	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return domain.TimelineResponse{}, err
	}

	records, err := s.traceRepository.GetRecordsByProductID(ctx, productID)
	if err != nil {
		return domain.TimelineResponse{}, err
	}
	return domain.TimelineResponse{Product: product, Timeline: records}, nil
}
