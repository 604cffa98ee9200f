package batch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"GreenOrigin-Backend/domain"
	"GreenOrigin-Backend/entities"
	"GreenOrigin-Backend/pkg/ledger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeProducts map[string]*entities.Product

func (f fakeProducts) GetProductByProductID(ctx context.Context, productID string) (*entities.Product, error) {
	p, ok := f[productID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
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
	if old, ok := f.items[m.BatchID]; ok && m.LatestTransactionHash == "" {
		m.LatestTransactionHash = old.LatestTransactionHash
	}
	m.UpdatedAt = time.Now()
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

type opRecorder struct {
	mu  sync.Mutex
	ops []string
}

func (r *opRecorder) hook(fail map[string]error) func(string) error {
	return func(op string) error {
		r.mu.Lock()
		r.ops = append(r.ops, op)
		r.mu.Unlock()
		return fail[op]
	}
}

func (r *opRecorder) writes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, op := range r.ops {
		switch op {
		case "createBatch", "addProduct", "addTrace":
			out = append(out, op)
		}
	}
	return out
}

func rice() *entities.Product {
	return &entities.Product{ID: uuid.New(), ProductID: "SP100", Name: "Rice", FarmerID: "F1", Location: "Delta"}
}

func TestAddTraceProvisionsProductFirst(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemoryLedger()
	rec := &opRecorder{}
	l.FailWith = rec.hook(nil)
	repo := newFakeBatchRepo()
	svc := NewBatchService(repo, fakeProducts{"SP100": rice()}, l)

	res, err := svc.AddTrace(ctx, "SP100", domain.AddTraceRequest{Action: "Harvested", Location: "Delta"})
	require.NoError(t, err)
	assert.True(t, res.Provisioned)
	assert.NotEmpty(t, res.TransactionHash)
	assert.Equal(t, []string{"addProduct", "addTrace"}, rec.writes())

	onChain, err := l.GetProduct(ctx, "SP100")
	require.NoError(t, err)
	assert.Equal(t, "Delta", onChain.Farm)
	assert.EqualValues(t, 1, onChain.TraceCount)
	assert.Equal(t, res.TransactionHash, repo.items["SP100"].LatestTransactionHash)
	assert.True(t, strings.HasSuffix(repo.items["SP100"].QRCodeURL, "/trace/SP100"))

	res, err = svc.AddTrace(ctx, "SP100", domain.AddTraceRequest{Action: "Packed", Location: "Shed"})
	require.NoError(t, err)
	assert.False(t, res.Provisioned)
	assert.Equal(t, []string{"addProduct", "addTrace", "addTrace"}, rec.writes())
}

func TestAddTraceUnknownProductWritesNothing(t *testing.T) {
	l := ledger.NewMemoryLedger()
	rec := &opRecorder{}
	l.FailWith = rec.hook(nil)
	svc := NewBatchService(newFakeBatchRepo(), fakeProducts{}, l)

	_, err := svc.AddTrace(context.Background(), "ghost", domain.AddTraceRequest{Action: "Harvested", Location: "Delta"})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.Empty(t, rec.writes())
}

func TestAddTraceFailsWhenProvisioningFails(t *testing.T) {
	l := ledger.NewMemoryLedger()
	rec := &opRecorder{}
	funds := &ledger.Error{Kind: ledger.KindInsufficientFunds, Op: "addProduct"}
	l.FailWith = rec.hook(map[string]error{"addProduct": funds})
	svc := NewBatchService(newFakeBatchRepo(), fakeProducts{"SP100": rice()}, l)

	_, err := svc.AddTrace(context.Background(), "SP100", domain.AddTraceRequest{Action: "Harvested", Location: "Delta"})
	assert.ErrorIs(t, err, domain.ErrProductNotOnLedger)
	assert.True(t, ledger.IsKind(err, ledger.KindInsufficientFunds))
	assert.Equal(t, []string{"addProduct"}, rec.writes())
}

func TestGetProductMergesLedgerView(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemoryLedger()
	svc := NewBatchService(newFakeBatchRepo(), fakeProducts{"SP100": rice()}, l)

	res, err := svc.GetProduct(ctx, "SP100")
	require.NoError(t, err)
	assert.False(t, res.IsOnBlockchain)
	assert.Equal(t, domain.SourceDatabase, res.Source)

	_, err = svc.AddTrace(ctx, "SP100", domain.AddTraceRequest{Action: "Harvested", Location: "Delta"})
	require.NoError(t, err)

	res, err = svc.GetProduct(ctx, "SP100")
	require.NoError(t, err)
	assert.True(t, res.IsOnBlockchain)
	assert.EqualValues(t, 1, res.TraceCount)
	assert.Equal(t, domain.SourceBlockchainAndDatabase, res.Source)
	assert.Equal(t, "Rice", res.Name)

	_, err = svc.GetProduct(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestGetProductDegradesWhenLedgerDown(t *testing.T) {
	l := ledger.NewMemoryLedger()
	_, err := l.AddProduct(context.Background(), "SP100", "Rice", "Delta")
	require.NoError(t, err)
	l.FailWith = func(op string) error {
		return &ledger.Error{Kind: ledger.KindUnreachable, Op: op, Err: errors.New("connection refused")}
	}
	svc := NewBatchService(newFakeBatchRepo(), fakeProducts{"SP100": rice()}, l)

	res, err := svc.GetProduct(context.Background(), "SP100")
	require.NoError(t, err)
	assert.False(t, res.IsOnBlockchain)
	assert.Equal(t, domain.SourceDatabase, res.Source)

	traces := svc.GetTraces(context.Background(), "SP100")
	assert.Empty(t, traces.Traces)
	assert.NotNil(t, traces.Traces)
	assert.Equal(t, domain.MessageNoTraces, traces.Message)
}

func TestGetTraces(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemoryLedger()
	svc := NewBatchService(newFakeBatchRepo(), fakeProducts{"SP100": rice()}, l)

	res := svc.GetTraces(ctx, "SP100")
	assert.Empty(t, res.Traces)
	assert.Equal(t, domain.MessageNoTraces, res.Message)

	_, err := svc.AddTrace(ctx, "SP100", domain.AddTraceRequest{Action: "Harvested", Location: "Delta"})
	require.NoError(t, err)

	res = svc.GetTraces(ctx, "SP100")
	require.Len(t, res.Traces, 1)
	assert.Equal(t, "Harvested", res.Traces[0].Action)
	assert.Empty(t, res.Message)
}

func TestAddProductToLedgerRejectsExisting(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemoryLedger()
	repo := newFakeBatchRepo()
	svc := NewBatchService(repo, fakeProducts{"SP100": rice()}, l)

	req := domain.AddProductToLedgerRequest{ProductID: "SP100", Name: "Rice", Farm: "Delta"}
	res, err := svc.AddProductToLedger(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, res.TransactionHash, repo.items["SP100"].LatestTransactionHash)

	_, err = svc.AddProductToLedger(ctx, req)
	assert.ErrorIs(t, err, domain.ErrProductAlreadyOnLedger)
}

func TestStatsSkipUnresolvedRows(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemoryLedger()
	repo := newFakeBatchRepo()
	svc := NewBatchService(repo, fakeProducts{"SP100": rice()}, l)

	_, err := svc.CreateBatch(ctx, domain.CreateBatchRequest{BatchID: "B1", GrowerID: "G1", ProductName: "Corn"})
	require.NoError(t, err)
	_, err = svc.AddTrace(ctx, "B1", domain.AddTraceRequest{Action: "Harvested", Location: "Field"})
	require.NoError(t, err)
	_, err = svc.AddTrace(ctx, "B1", domain.AddTraceRequest{Action: "Packed", Location: "Shed"})
	require.NoError(t, err)
	require.NoError(t, repo.UpsertBatch(ctx, &entities.BatchMetadata{BatchID: "stale", ProductName: "Old"}))

	stats, err := svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StatsResponse{TotalBatches: 2, OnBlockchain: 1, TotalTraces: 2}, stats)

	items, err := svc.GetBatches(ctx)
	require.NoError(t, err)
	onChain := map[string]bool{}
	for _, item := range items {
		onChain[item.BatchID] = item.IsOnBlockchain
	}
	assert.Equal(t, map[string]bool{"B1": true, "stale": false}, onChain)
}

func TestCreateBatchDefaultsHarvestToNow(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemoryLedger()
	svc := NewBatchService(newFakeBatchRepo(), fakeProducts{}, l).(*batchService)
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.CreateBatch(ctx, domain.CreateBatchRequest{BatchID: "B1", GrowerID: "G1", ProductName: "Corn"})
	require.NoError(t, err)

	onChain, err := l.GetProduct(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, now.Unix(), onChain.CreatedAt.Unix())

	_, err = svc.CreateBatch(ctx, domain.CreateBatchRequest{BatchID: "B1", GrowerID: "G1", ProductName: "Corn"})
	assert.True(t, ledger.IsKind(err, ledger.KindReverted))
}

func TestTraceURL(t *testing.T) {
	assert.True(t, strings.HasSuffix(TraceURL("SP 100"), "/trace/SP%20100"))
}

func TestSyncStatus(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemoryLedger()
	repo := newFakeBatchRepo()
	svc := NewBatchService(repo, fakeProducts{"SP100": rice()}, l)

	res, err := svc.GetSyncStatus(ctx, "SP100")
	require.NoError(t, err)
	assert.True(t, res.InDatabase)
	assert.False(t, res.IsOnBlockchain)

	_, err = l.AddProduct(ctx, "SP100", "Rice", "Delta")
	require.NoError(t, err)

	res, err = svc.GetSyncStatus(ctx, "SP100")
	require.NoError(t, err)
	assert.True(t, res.IsOnBlockchain)
	assert.Equal(t, domain.SourceBlockchainAndDatabase, res.Source)
	_, indexed := repo.items["SP100"]
	assert.True(t, indexed)

	_, err = svc.GetSyncStatus(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}
