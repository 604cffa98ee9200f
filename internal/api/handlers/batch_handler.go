package handlers

import (
	"errors"

	"GreenOrigin-Backend/domain"
	"GreenOrigin-Backend/internal/api/presenters"
	"GreenOrigin-Backend/pkg/batch"
	"GreenOrigin-Backend/pkg/ledger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	BatchHandler interface {
		CreateBatch(c *fiber.Ctx) error
		AddProductToLedger(c *fiber.Ctx) error
		AddTrace(c *fiber.Ctx) error
		GetProduct(c *fiber.Ctx) error
		GetTraces(c *fiber.Ctx) error
		GetBatches(c *fiber.Ctx) error
		GetStats(c *fiber.Ctx) error
		GetSyncStatus(c *fiber.Ctx) error
	}

	batchHandler struct {
		batchService batch.BatchService
		validator    *validator.Validate
	}
)

func NewBatchHandler(batchService batch.BatchService, validator *validator.Validate) BatchHandler {
	return &batchHandler{
		batchService: batchService,
		validator:    validator,
	}
}

// ledgerFailure maps a reconciliation error to a status and client message,
// falling back to fallback for anything that is not a ledger error.
func ledgerFailure(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		return presenters.ErrorResponse(c, fiber.StatusNotFound, fallback, err)
	case errors.Is(err, domain.ErrProductAlreadyOnLedger), errors.Is(err, domain.ErrInvalidDate):
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, fallback, err)
	case errors.Is(err, domain.ErrProductNotOnLedger):
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.ErrProductNotOnLedger.Error(), err)
	}

	var lerr *ledger.Error
	if errors.As(err, &lerr) {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.LedgerErrorMessage(err), err)
	}
	return presenters.ErrorResponse(c, fiber.StatusInternalServerError, fallback, err)
}

func (h *batchHandler) CreateBatch(c *fiber.Ctx) error {
	req := new(domain.CreateBatchRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCreateBatch, err)
	}

	res, err := h.batchService.CreateBatch(c.Context(), *req)
	if err != nil {
		return ledgerFailure(c, err, domain.MessageFailedCreateBatch)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessCreateBatch)
}

func (h *batchHandler) AddProductToLedger(c *fiber.Ctx) error {
	req := new(domain.AddProductToLedgerRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedAddProductLedger, err)
	}

	res, err := h.batchService.AddProductToLedger(c.Context(), *req)
	if err != nil {
		return ledgerFailure(c, err, domain.MessageFailedAddProductLedger)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessAddProductLedger)
}

func (h *batchHandler) AddTrace(c *fiber.Ctx) error {
	req := new(domain.AddTraceRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedAddTrace, err)
	}

	res, err := h.batchService.AddTrace(c.Context(), c.Params("productId"), *req)
	if err != nil {
		return ledgerFailure(c, err, domain.MessageFailedAddTrace)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessAddTrace)
}

func (h *batchHandler) GetProduct(c *fiber.Ctx) error {
	res, err := h.batchService.GetProduct(c.Context(), c.Params("productId"))
	if err != nil {
		return ledgerFailure(c, err, domain.MessageFailedGetBatch)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetBatch)
}

func (h *batchHandler) GetTraces(c *fiber.Ctx) error {
	res := h.batchService.GetTraces(c.Context(), c.Params("productId"))

	message := domain.MessageSuccessGetTraces
	if res.Message != "" {
		message = res.Message
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, message)
}

func (h *batchHandler) GetBatches(c *fiber.Ctx) error {
	res, err := h.batchService.GetBatches(c.Context())
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedGetBatches, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetBatches)
}

func (h *batchHandler) GetStats(c *fiber.Ctx) error {
	res, err := h.batchService.GetStats(c.Context())
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedGetStats, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetStats)
}

func (h *batchHandler) GetSyncStatus(c *fiber.Ctx) error {
	res, err := h.batchService.GetSyncStatus(c.Context(), c.Params("productId"))
	if err != nil {
		return ledgerFailure(c, err, domain.MessageFailedGetBatch)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessSyncStatus)
}
