package product

import (
	"context"
	"errors"
	"sort"
	"time"

	"GreenOrigin-Backend/domain"
	"GreenOrigin-Backend/entities"
	"GreenOrigin-Backend/internal/utils/mailing"
	"GreenOrigin-Backend/internal/utils/storage"
	"GreenOrigin-Backend/pkg/batch"
	"GreenOrigin-Backend/pkg/ledger"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const imageDir = "products"

type (
	ProductService interface {
		CreateProduct(ctx context.Context, req domain.CreateProductRequest, actor string) (domain.CreateProductResponse, error)
		GetProducts(ctx context.Context, filter domain.ProductListFilter) ([]entities.Product, int64, error)
		GetProductByID(ctx context.Context, id string) (*entities.Product, error)
		UpdateProduct(ctx context.Context, id string, req domain.UpdateProductRequest) (*entities.Product, error)
		AppendUpdate(ctx context.Context, productID string, req domain.AppendUpdateRequest, actor string) (domain.AppendUpdateResponse, error)
		GetHistory(ctx context.Context, productID string) ([]domain.HistoryEntryResponse, error)
		DeleteProduct(ctx context.Context, id string) error
	}

	productService struct {
		productRepository ProductRepository
		batchRepository   batch.BatchRepository
		ledger            ledger.Ledger
		storage           storage.Storage
		alerter           mailing.Alerter
		now               func() time.Time
	}
)

func NewProductService(
	productRepository ProductRepository,
	batchRepository batch.BatchRepository,
	ledger ledger.Ledger,
	storage storage.Storage,
	alerter mailing.Alerter,
) ProductService {
	return &productService{
		productRepository: productRepository,
		batchRepository:   batchRepository,
		ledger:            ledger,
		storage:           storage,
		alerter:           alerter,
		now:               time.Now,
	}
}

func (s *productService) CreateProduct(ctx context.Context, req domain.CreateProductRequest, actor string) (domain.CreateProductResponse, error) {
	exists, err := s.productRepository.ExistsByProductID(ctx, req.ProductID)
	if err != nil {
		return domain.CreateProductResponse{}, err
	}
	if exists {
		return domain.CreateProductResponse{}, domain.ErrProductExists
	}

	if req.Quantity.IsNegative() {
		return domain.CreateProductResponse{}, domain.ErrInvalidQuantity
	}

	product := &entities.Product{
		ID:              uuid.New(),
		ProductID:       req.ProductID,
		Name:            req.Name,
		Category:        req.Category,
		Description:     req.Description,
		FarmerID:        req.FarmerID,
		FarmerName:      req.FarmerName,
		Supplier:        req.Supplier,
		Location:        req.Location,
		PackingLocation: req.PackingLocation,
		LotNumber:       req.LotNumber,
		Certifications:  req.Certifications,
		Quantity:        req.Quantity,
		Unit:            req.Unit,
		Status:          req.Status,
		CreatedBy:       actor,
		HarvestDate:     s.now(),
	}
	if product.Category == "" {
		product.Category = "other"
	}
	if product.Status == "" {
		product.Status = "harvested"
	}
	if product.Certifications == nil {
		product.Certifications = datatypes.JSONSlice[entities.Certification]{}
	}
	if err := setDates(product, req.HarvestDate, req.PackingDate, req.DeliveryDate); err != nil {
		return domain.CreateProductResponse{}, err
	}

	if req.Image != nil {
		key, err := s.storage.UploadFile(ctx, product.ProductID, req.Image, imageDir, storage.AllowImage...)
		if err != nil {
			return domain.CreateProductResponse{}, err
		}
		product.ImageURL = s.storage.GetPublicLinkKey(key)
	}

	if err := s.productRepository.CreateProduct(ctx, product); err != nil {
		s.removeImage(ctx, product.ImageURL)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.CreateProductResponse{}, domain.ErrProductExists
		}
		return domain.CreateProductResponse{}, err
	}

	res := domain.CreateProductResponse{Product: product}

	tx, err := s.ledger.CreateBatch(ctx, product.ProductID, product.FarmerID, product.Name, product.HarvestDate.Unix())
	if err != nil {
		log.Warnf("product %s saved without ledger record (%s): %v", product.ProductID, ledger.KindOf(err), err)
		res.LedgerError = domain.LedgerErrorMessage(err)
		if s.alerter != nil {
			s.alerter.LedgerDivergence(product.ProductID, "createBatch", err)
		}
		return res, nil
	}

	res.TransactionHash = tx.TransactionHash
	res.IsOnBlockchain = true

	metadata := &entities.BatchMetadata{
		BatchID:               product.ProductID,
		ProductName:           product.Name,
		LatestTransactionHash: tx.TransactionHash,
		OwnerID:               &product.ID,
		ImageURL:              product.ImageURL,
		Description:           product.Description,
		QRCodeURL:             batch.TraceURL(product.ProductID),
	}
	if err := s.batchRepository.UpsertBatch(ctx, metadata); err != nil {
		log.Warnf("failed to upsert batch metadata for %s: %v", product.ProductID, err)
	}

	return res, nil
}

func setDates(p *entities.Product, harvest, packing, delivery string) error {
	if harvest != "" {
		t, err := domain.ParseDate(harvest)
		if err != nil {
			return err
		}
		p.HarvestDate = t
	}
	if packing != "" {
		t, err := domain.ParseDate(packing)
		if err != nil {
			return err
		}
		p.PackingDate = &t
	}
	if delivery != "" {
		t, err := domain.ParseDate(delivery)
		if err != nil {
			return err
		}
		p.DeliveryDate = &t
	}
	return nil
}

func (s *productService) GetProducts(ctx context.Context, filter domain.ProductListFilter) ([]entities.Product, int64, error) {
	return s.productRepository.GetProducts(ctx, filter)
}

func (s *productService) GetProductByID(ctx context.Context, id string) (*entities.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrProductNotFound
	}
	product, err := s.productRepository.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id string, req domain.UpdateProductRequest) (*entities.Product, error) {
	product, err := s.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		product.Name = req.Name
	}
	if req.Category != "" {
		product.Category = req.Category
	}
	if req.Description != "" {
		product.Description = req.Description
	}
	if req.FarmerName != "" {
		product.FarmerName = req.FarmerName
	}
	if req.Supplier != "" {
		product.Supplier = req.Supplier
	}
	if req.Location != "" {
		product.Location = req.Location
	}
	if req.PackingLocation != "" {
		product.PackingLocation = req.PackingLocation
	}
	if req.LotNumber != "" {
		product.LotNumber = req.LotNumber
	}
	if req.Certifications != nil {
		product.Certifications = req.Certifications
	}
	if req.Quantity != nil {
		if req.Quantity.IsNegative() {
			return nil, domain.ErrInvalidQuantity
		}
		product.Quantity = *req.Quantity
	}
	if req.Unit != "" {
		product.Unit = req.Unit
	}
	if req.Status != "" {
		product.Status = req.Status
	}
	if err := setDates(product, req.HarvestDate, req.PackingDate, req.DeliveryDate); err != nil {
		return nil, err
	}

	oldImage := ""
	if req.Image != nil {
		key, err := s.storage.UploadFile(ctx, product.ProductID, req.Image, imageDir, storage.AllowImage...)
		if err != nil {
			return nil, err
		}
		oldImage = product.ImageURL
		product.ImageURL = s.storage.GetPublicLinkKey(key)
	}

	if err := s.productRepository.UpdateProduct(ctx, product); err != nil {
		if req.Image != nil {
			s.removeImage(ctx, product.ImageURL)
		}
		return nil, err
	}
	s.removeImage(ctx, oldImage)
	s.refreshMetadata(ctx, product)

	return product, nil
}

func (s *productService) AppendUpdate(ctx context.Context, productID string, req domain.AppendUpdateRequest, actor string) (domain.AppendUpdateResponse, error) {
	product, err := s.productRepository.GetProductByProductID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.AppendUpdateResponse{}, domain.ErrProductNotFound
		}
		return domain.AppendUpdateResponse{}, err
	}

	changed := changedFields(req.Fields)
	if len(changed) == 0 {
		return domain.AppendUpdateResponse{}, domain.ErrNoFieldsToUpdate
	}

	recorded, err := applyChanges(product, changed)
	if err != nil {
		return domain.AppendUpdateResponse{}, err
	}

	if err := s.productRepository.UpdateProduct(ctx, product); err != nil {
		return domain.AppendUpdateResponse{}, err
	}

	timestamp := time.UnixMilli(s.now().UnixMilli())
	snapshot := snapshotOf(product)
	hash, err := HashUpdate(product.ProductID, snapshot, timestamp)
	if err != nil {
		return domain.AppendUpdateResponse{}, err
	}

	if actor == "" {
		actor = domain.SystemActor
	}
	reason := req.Reason
	if reason == "" {
		reason = domain.DefaultUpdateReason
	}

	record := &entities.ProductUpdate{
		ID:             uuid.New(),
		ProductID:      product.ProductID,
		UpdateType:     classifyUpdate(changed),
		UpdatedFields:  recorded,
		Snapshot:       datatypes.NewJSONType(snapshot),
		BlockchainHash: hash,
		UpdatedBy:      actor,
		Reason:         reason,
		Timestamp:      timestamp,
	}
	if err := s.productRepository.CreateProductUpdate(ctx, record); err != nil {
		return domain.AppendUpdateResponse{}, err
	}

	s.refreshMetadata(ctx, product)

	fields := make([]string, 0, len(recorded))
	for name := range recorded {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	return domain.AppendUpdateResponse{
		Product: product,
		UpdateRecord: domain.UpdateRecordResponse{
			ID:             record.ID.String(),
			BlockchainHash: record.BlockchainHash,
			Timestamp:      record.Timestamp,
			UpdatedFields:  fields,
		},
	}, nil
}

func (s *productService) GetHistory(ctx context.Context, productID string) ([]domain.HistoryEntryResponse, error) {
	updates, err := s.productRepository.GetProductUpdates(ctx, productID, domain.DefaultHistoryLimit)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.HistoryEntryResponse, 0, len(updates))
	for _, u := range updates {
		entries = append(entries, domain.HistoryEntryResponse{
			ProductUpdate: u,
			HashValid:     VerifyUpdate(u),
		})
	}
	return entries, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id string) error {
	product, err := s.GetProductByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.productRepository.DeleteProduct(ctx, product.ID.String()); err != nil {
		return err
	}
	s.removeImage(ctx, product.ImageURL)
	return nil
}

// refreshMetadata keeps the list-view projection in step. Failures are
// logged only; readers tolerate stale metadata.
func (s *productService) refreshMetadata(ctx context.Context, p *entities.Product) {
	err := s.batchRepository.UpdateDisplayFields(ctx, p.ProductID, p.Name, p.Description, p.ImageURL)
	if err != nil && !batch.IsNotFound(err) {
		log.Warnf("failed to refresh batch metadata for %s: %v", p.ProductID, err)
	}
}

func (s *productService) removeImage(ctx context.Context, link string) {
	if link == "" {
		return
	}
	key := s.storage.GetObjectKeyFromLink(link)
	if key == "" {
		return
	}
	if err := s.storage.DeleteFile(ctx, key); err != nil {
		log.Warnf("failed to delete image %s: %v", key, err)
	}
}
