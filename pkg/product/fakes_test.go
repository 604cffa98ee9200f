package product

import (
	"context"
	"mime/multipart"
	"sort"
	"sync"

	"GreenOrigin-Backend/domain"
	"GreenOrigin-Backend/entities"

	"gorm.io/gorm"
)

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[string]entities.Product
	updates  []entities.ProductUpdate
	writes   int
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[string]entities.Product)}
}

func (f *fakeProductRepo) CreateProduct(ctx context.Context, p *entities.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[p.ProductID]; ok {
		return gorm.ErrDuplicatedKey
	}
	f.products[p.ProductID] = *p
	f.writes++
	return nil
}

func (f *fakeProductRepo) GetProductByID(ctx context.Context, id string) (*entities.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.ID.String() == id {
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProductRepo) GetProductByProductID(ctx context.Context, productID string) (*entities.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[productID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (f *fakeProductRepo) ExistsByProductID(ctx context.Context, productID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.products[productID]
	return ok, nil
}

func (f *fakeProductRepo) GetProducts(ctx context.Context, filter domain.ProductListFilter) ([]entities.Product, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entities.Product
	for _, p := range f.products {
		if filter.FarmerID != "" && p.FarmerID != filter.FarmerID {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (f *fakeProductRepo) UpdateProduct(ctx context.Context, p *entities.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[p.ProductID] = *p
	f.writes++
	return nil
}

func (f *fakeProductRepo) DeleteProduct(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, p := range f.products {
		if p.ID.String() == id {
			delete(f.products, k)
		}
	}
	return nil
}

func (f *fakeProductRepo) CreateProductUpdate(ctx context.Context, u *entities.ProductUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, *u)
	return nil
}

func (f *fakeProductRepo) GetProductUpdates(ctx context.Context, productID string, limit int) ([]entities.ProductUpdate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entities.ProductUpdate
	for _, u := range f.updates {
		if u.ProductID == productID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeBatchRepo struct {
	mu    sync.Mutex
	items map[string]entities.BatchMetadata
}

func newFakeBatchRepo() *fakeBatchRepo {
	return &fakeBatchRepo{items: make(map[string]entities.BatchMetadata)}
}

func (f *fakeBatchRepo) UpsertBatch(ctx context.Context, m *entities.BatchMetadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[m.BatchID] = *m
	return nil
}

func (f *fakeBatchRepo) GetBatchByID(ctx context.Context, batchID string) (*entities.BatchMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.items[batchID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &m, nil
}

func (f *fakeBatchRepo) GetBatches(ctx context.Context) ([]entities.BatchMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entities.BatchMetadata
	for _, m := range f.items {
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeBatchRepo) UpdateDisplayFields(ctx context.Context, batchID, name, description, imageURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.items[batchID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m.ProductName, m.Description, m.ImageURL = name, description, imageURL
	f.items[batchID] = m
	return nil
}

func (f *fakeBatchRepo) UpdateTransactionHash(ctx context.Context, batchID, txHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.items[batchID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m.LatestTransactionHash = txHash
	f.items[batchID] = m
	return nil
}

type fakeStorage struct {
	deleted []string
}

func (f *fakeStorage) UploadFile(ctx context.Context, name string, file *multipart.FileHeader, dir string, allowed ...string) (string, error) {
	return dir + "/" + name + ".png", nil
}

func (f *fakeStorage) DeleteFile(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeStorage) GetPublicLinkKey(key string) string { return "/uploads/" + key }

func (f *fakeStorage) GetObjectKeyFromLink(link string) string {
	if len(link) > len("/uploads/") {
		return link[len("/uploads/"):]
	}
	return ""
}

func formFile() *multipart.FileHeader {
	return &multipart.FileHeader{Filename: "photo.png", Size: 10}
}
