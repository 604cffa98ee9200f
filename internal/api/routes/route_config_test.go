package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"GreenOrigin-Backend/domain"
	"GreenOrigin-Backend/entities"
	"GreenOrigin-Backend/internal/api/handlers"
	"GreenOrigin-Backend/internal/api/presenters"
	"GreenOrigin-Backend/internal/middleware"
	"GreenOrigin-Backend/internal/utils"
	"GreenOrigin-Backend/pkg/jwt"
	"GreenOrigin-Backend/pkg/ledger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProducts struct {
	createErr error
	appendErr error
	lastActor string
	lastBody  domain.AppendUpdateRequest
}

func (s *stubProducts) CreateProduct(ctx context.Context, req domain.CreateProductRequest, actor string) (domain.CreateProductResponse, error) {
	s.lastActor = actor
	if s.createErr != nil {
		return domain.CreateProductResponse{}, s.createErr
	}
	return domain.CreateProductResponse{Product: &entities.Product{ID: uuid.New(), ProductID: req.ProductID, Name: req.Name}}, nil
}

func (s *stubProducts) GetProducts(ctx context.Context, filter domain.ProductListFilter) ([]entities.Product, int64, error) {
	return []entities.Product{{ProductID: "SP100", FarmerID: filter.FarmerID}}, 1, nil
}

func (s *stubProducts) GetProductByID(ctx context.Context, id string) (*entities.Product, error) {
	return nil, domain.ErrProductNotFound
}

func (s *stubProducts) UpdateProduct(ctx context.Context, id string, req domain.UpdateProductRequest) (*entities.Product, error) {
	return &entities.Product{Name: req.Name}, nil
}

func (s *stubProducts) AppendUpdate(ctx context.Context, productID string, req domain.AppendUpdateRequest, actor string) (domain.AppendUpdateResponse, error) {
	s.lastActor = actor
	s.lastBody = req
	if s.appendErr != nil {
		return domain.AppendUpdateResponse{}, s.appendErr
	}
	return domain.AppendUpdateResponse{UpdateRecord: domain.UpdateRecordResponse{UpdatedFields: []string{"location"}}}, nil
}

func (s *stubProducts) GetHistory(ctx context.Context, productID string) ([]domain.HistoryEntryResponse, error) {
	return []domain.HistoryEntryResponse{}, nil
}

func (s *stubProducts) DeleteProduct(ctx context.Context, id string) error {
	return nil
}

type stubBatches struct {
	traceErr error
}

func (s *stubBatches) CreateBatch(ctx context.Context, req domain.CreateBatchRequest) (domain.TxResponse, error) {
	return domain.TxResponse{ProductID: req.BatchID, TransactionHash: "0x1"}, nil
}

func (s *stubBatches) AddProductToLedger(ctx context.Context, req domain.AddProductToLedgerRequest) (domain.TxResponse, error) {
	return domain.TxResponse{}, domain.ErrProductAlreadyOnLedger
}

func (s *stubBatches) AddTrace(ctx context.Context, productID string, req domain.AddTraceRequest) (domain.TxResponse, error) {
	if s.traceErr != nil {
		return domain.TxResponse{}, s.traceErr
	}
	return domain.TxResponse{ProductID: productID, TransactionHash: "0xabc", Provisioned: true}, nil
}

func (s *stubBatches) GetProduct(ctx context.Context, productID string) (domain.MergedProductResponse, error) {
	return domain.MergedProductResponse{Product: &entities.Product{ProductID: productID}, Source: domain.SourceDatabase}, nil
}

func (s *stubBatches) GetTraces(ctx context.Context, productID string) domain.TracesResponse {
	return domain.TracesResponse{ProductID: productID, Traces: []ledger.OnChainTrace{}, Message: domain.MessageNoTraces}
}

func (s *stubBatches) GetBatches(ctx context.Context) ([]domain.BatchListItem, error) {
	return nil, nil
}

func (s *stubBatches) GetStats(ctx context.Context) (domain.StatsResponse, error) {
	return domain.StatsResponse{TotalBatches: 3, OnBlockchain: 2, TotalTraces: 7}, nil
}

func (s *stubBatches) GetSyncStatus(ctx context.Context, productID string) (domain.SyncStatusResponse, error) {
	return domain.SyncStatusResponse{}, domain.ErrProductNotFound
}

type stubAuth struct{}

func (stubAuth) RequestNonce(ctx context.Context, req domain.RequestNonceRequest) (domain.RequestNonceResponse, error) {
	return domain.RequestNonceResponse{Nonce: "n"}, nil
}

func (stubAuth) Verify(ctx context.Context, req domain.VerifySignatureRequest, meta domain.LoginMeta) (domain.VerifySignatureResponse, error) {
	return domain.VerifySignatureResponse{}, domain.ErrNonceNotFound
}

func (stubAuth) GetLoginHistory(ctx context.Context, walletAddress string) ([]entities.LoginHistory, error) {
	return nil, nil
}

type stubTraces struct {
	lastActor string
	updateErr error
	deleteErr error
}

func (s *stubTraces) AddRecord(ctx context.Context, req domain.CreateTraceRecordRequest, actor string) (domain.CreateTraceRecordResponse, error) {
	s.lastActor = actor
	return domain.CreateTraceRecordResponse{
		TraceabilityRecord: &entities.TraceabilityRecord{ID: uuid.New(), ProductID: req.ProductID, Stage: req.Stage},
		IsOnBlockchain:     true,
	}, nil
}

func (s *stubTraces) GetRecords(ctx context.Context, productID string) (domain.TraceRecordsResponse, error) {
	if productID == "ghost" {
		return domain.TraceRecordsResponse{}, domain.ErrProductNotFound
	}
	return domain.TraceRecordsResponse{ProductID: productID, Records: []entities.TraceabilityRecord{}}, nil
}

func (s *stubTraces) GetRecordByID(ctx context.Context, id string) (domain.TraceRecordDetailResponse, error) {
	return domain.TraceRecordDetailResponse{}, domain.ErrTraceRecordNotFound
}

func (s *stubTraces) UpdateRecord(ctx context.Context, id string, req domain.UpdateTraceRecordRequest, actor string) (*entities.TraceabilityRecord, error) {
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return &entities.TraceabilityRecord{Title: *req.Title}, nil
}

func (s *stubTraces) DeleteRecord(ctx context.Context, id string, actor string) error {
	return s.deleteErr
}

func (s *stubTraces) GetTimeline(ctx context.Context, productID string) (domain.TimelineResponse, error) {
	return domain.TimelineResponse{Product: &entities.Product{ProductID: productID}, Timeline: []entities.TraceabilityRecord{}}, nil
}

const wallet = "0x00000000000000000000000000000000000000a1"

type testServer struct {
	app      *fiber.App
	token    string
	products *stubProducts
	batches  *stubBatches
	traces   *stubTraces
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	utils.InitValidator()

	jwtService := jwt.NewJWTService("test-secret", time.Hour)
	token, _, err := jwtService.GenerateWalletToken(wallet)
	require.NoError(t, err)

	s := &testServer{
		app:      fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler}),
		token:    token,
		products: &stubProducts{},
		batches:  &stubBatches{},
		traces:   &stubTraces{},
	}

	cfg := Config{
		App:             s.app,
		ProductHandler:  handlers.NewProductHandler(s.products, utils.Validate),
		BatchHandler:    handlers.NewBatchHandler(s.batches, utils.Validate),
		Web3AuthHandler: handlers.NewWeb3AuthHandler(stubAuth{}, utils.Validate),
		TraceHandler:    handlers.NewTraceHandler(s.traces, utils.Validate),
		Middleware:      middleware.NewMiddleware(),
		JWTService:      jwtService,
	}
	cfg.Setup()
	return s
}

func (s *testServer) do(t *testing.T, method, path, body string, auth bool) (int, presenters.Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out presenters.Response
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp.StatusCode, out
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	status, res := s.do(t, "POST", "/api/products", `{"productId":"SP100","name":"Rice","farmerId":"F1"}`, false)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.False(t, res.Success)

	req := httptest.NewRequest("GET", "/api/products", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestCreateProduct(t *testing.T) {
	s := newTestServer(t)

	status, res := s.do(t, "POST", "/api/products", `{"productId":"SP100","name":"Rice","farmerId":"F1"}`, true)
	assert.Equal(t, fiber.StatusCreated, status)
	assert.True(t, res.Success)
	assert.Equal(t, wallet, s.products.lastActor)

	status, _ = s.do(t, "POST", "/api/products", `{"name":"Rice"}`, true)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = s.do(t, "POST", "/api/products", `{"productId":"SP1","name":"Rice","farmerId":"F1","category":"meat"}`, true)
	assert.Equal(t, fiber.StatusBadRequest, status)

	s.products.createErr = domain.ErrProductExists
	status, res = s.do(t, "POST", "/api/products", `{"productId":"SP100","name":"Rice","farmerId":"F1"}`, true)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, domain.ErrProductExists.Error(), res.Error)
}

func TestListProductsCarriesPagination(t *testing.T) {
	s := newTestServer(t)

	status, res := s.do(t, "GET", "/api/products?farmerId=F1&page=1&limit=5", "", true)
	assert.Equal(t, fiber.StatusOK, status)
	meta, ok := res.Meta.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 5, meta["limit"])
	assert.EqualValues(t, 1, meta["total"])
}

func TestGetProductNotFound(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, "GET", "/api/products/"+uuid.NewString(), "", true)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestAppendUpdate(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, "PUT", "/api/products/by-product-id/SP100", `{"location":"Delta","reason":"moved"}`, true)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "moved", s.products.lastBody.Reason)
	assert.Contains(t, s.products.lastBody.Fields, "location")

	s.products.appendErr = domain.ErrNoFieldsToUpdate
	status, res := s.do(t, "PUT", "/api/products/by-product-id/SP100", `{}`, true)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "no fields to update", res.Error)

	status, _ = s.do(t, "PUT", "/api/products/by-product-id/SP100", `not json`, true)
	assert.Equal(t, fiber.StatusBadRequest, status)

	s.products.appendErr = nil
	status, res = s.do(t, "PUT", "/api/products/by-product-id/SP100", `{"location":"Delta","reason":5}`, true)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, domain.ErrInvalidField.Error(), res.Error)
}

func TestHistoryIsPublic(t *testing.T) {
	s := newTestServer(t)

	status, res := s.do(t, "GET", "/api/products/history/SP100", "", false)
	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, res.Success)
}

func TestAddTraceStatusMapping(t *testing.T) {
	s := newTestServer(t)
	body := `{"action":"Harvested","location":"Delta"}`

	status, _ := s.do(t, "POST", "/api/batches/SP100/traces", body, true)
	assert.Equal(t, fiber.StatusCreated, status)

	status, _ = s.do(t, "POST", "/api/batches/SP100/traces", `{"action":"Harvested"}`, true)
	assert.Equal(t, fiber.StatusBadRequest, status)

	s.batches.traceErr = domain.ErrProductNotFound
	status, _ = s.do(t, "POST", "/api/batches/SP100/traces", body, true)
	assert.Equal(t, fiber.StatusNotFound, status)

	s.batches.traceErr = &ledger.Error{Kind: ledger.KindNonceConflict, Op: "addTrace"}
	status, res := s.do(t, "POST", "/api/batches/SP100/traces", body, true)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "transaction nonce conflict, please retry", res.Message)
}

func TestBatchReadRoutes(t *testing.T) {
	s := newTestServer(t)

	status, res := s.do(t, "GET", "/api/batches/SP100/traces", "", false)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, domain.MessageNoTraces, res.Message)

	status, res = s.do(t, "GET", "/api/batches/stats", "", false)
	assert.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 7, res.Data.(map[string]interface{})["totalTraces"])

	status, res = s.do(t, "GET", "/api/batches/SP100", "", false)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, domain.SourceDatabase, res.Data.(map[string]interface{})["source"])

	status, _ = s.do(t, "GET", "/api/batches/sync/ghost", "", false)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = s.do(t, "POST", "/api/batches/products", `{"productId":"SP100","name":"Rice","farm":"Delta"}`, true)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestWeb3AuthRoutes(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, "POST", "/api/web3auth/request-nonce", `{"walletAddress":"nope"}`, false)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = s.do(t, "POST", "/api/web3auth/request-nonce", `{"walletAddress":"`+wallet+`"}`, false)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = s.do(t, "POST", "/api/web3auth/verify", `{"walletAddress":"`+wallet+`","message":"m","signature":"0x00"}`, false)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, res := s.do(t, "GET", "/api/web3auth/me", "", true)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, wallet, res.Data.(map[string]interface{})["walletAddress"])
}

func TestTraceabilityRoutes(t *testing.T) {
	s := newTestServer(t)
	body := `{"productId":"SP100","stage":"harvesting","title":"Harvest","description":"Field 3","location":{"province":"Delta"}}`

	status, _ := s.do(t, "POST", "/api/traceability", body, false)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, res := s.do(t, "POST", "/api/traceability", body, true)
	assert.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, true, res.Data.(map[string]interface{})["isOnBlockchain"])
	assert.Equal(t, wallet, s.traces.lastActor)

	status, _ = s.do(t, "POST", "/api/traceability", `{"productId":"SP100","stage":"eating","title":"x","description":"y"}`, true)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, res = s.do(t, "GET", "/api/traceability/SP100", "", false)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "SP100", res.Data.(map[string]interface{})["productId"])

	status, _ = s.do(t, "GET", "/api/traceability/ghost", "", false)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, res = s.do(t, "GET", "/api/traceability/SP100/timeline", "", false)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, domain.MessageSuccessGetTimeline, res.Message)

	status, res = s.do(t, "GET", "/api/traceability/record/"+uuid.NewString(), "", false)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, domain.MessageFailedGetTraceRecord, res.Message)

	status, _ = s.do(t, "PUT", "/api/traceability/record/"+uuid.NewString(), `{"title":"New"}`, true)
	assert.Equal(t, fiber.StatusOK, status)

	s.traces.updateErr = domain.ErrUserNotAllowed
	status, _ = s.do(t, "PUT", "/api/traceability/record/"+uuid.NewString(), `{"title":"New"}`, true)
	assert.Equal(t, fiber.StatusForbidden, status)

	s.traces.deleteErr = domain.ErrUserNotAllowed
	status, _ = s.do(t, "DELETE", "/api/traceability/record/"+uuid.NewString(), "", true)
	assert.Equal(t, fiber.StatusForbidden, status)

	s.traces.deleteErr = nil
	status, _ = s.do(t, "DELETE", "/api/traceability/record/"+uuid.NewString(), "", true)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	s := newTestServer(t)

	status, res := s.do(t, "GET", "/api/nothing-here", "", false)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.False(t, res.Success)
}
