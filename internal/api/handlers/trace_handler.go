package handlers

import (
	"errors"

	"GreenOrigin-Backend/domain"
	"GreenOrigin-Backend/internal/api/presenters"
	"GreenOrigin-Backend/internal/middleware"
	"GreenOrigin-Backend/pkg/trace"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	TraceHandler interface {
		CreateRecord(c *fiber.Ctx) error
		GetRecords(c *fiber.Ctx) error
		GetRecord(c *fiber.Ctx) error
		UpdateRecord(c *fiber.Ctx) error
		DeleteRecord(c *fiber.Ctx) error
		GetTimeline(c *fiber.Ctx) error
	}

	traceHandler struct {
		traceService trace.TraceService
		validator    *validator.Validate
	}
)

func NewTraceHandler(traceService trace.TraceService, validator *validator.Validate) TraceHandler {
	return &traceHandler{
		traceService: traceService,
		validator:    validator,
	}
}

func traceErrorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrTraceRecordNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrUserNotAllowed):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrNoFieldsToUpdate):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *traceHandler) CreateRecord(c *fiber.Ctx) error {
	req := new(domain.CreateTraceRecordRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCreateTraceRecord, err)
	}

	res, err := h.traceService.AddRecord(c.Context(), *req, middleware.Wallet(c))
	if err != nil {
		return presenters.ErrorResponse(c, traceErrorStatus(err), domain.MessageFailedCreateTraceRecord, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessCreateTraceRecord)
}

func (h *traceHandler) GetRecords(c *fiber.Ctx) error {
	res, err := h.traceService.GetRecords(c.Context(), c.Params("productId"))
	if err != nil {
		return presenters.ErrorResponse(c, traceErrorStatus(err), domain.MessageFailedGetTraceRecords, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetTraceRecords)
}

func (h *traceHandler) GetRecord(c *fiber.Ctx) error {
	res, err := h.traceService.GetRecordByID(c.Context(), c.Params("id"))
	if err != nil {
		return presenters.ErrorResponse(c, traceErrorStatus(err), domain.MessageFailedGetTraceRecord, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetTraceRecord)
}

func (h *traceHandler) UpdateRecord(c *fiber.Ctx) error {
	req := new(domain.UpdateTraceRecordRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateTraceRecord, err)
	}

	res, err := h.traceService.UpdateRecord(c.Context(), c.Params("id"), *req, middleware.Wallet(c))
	if err != nil {
		return presenters.ErrorResponse(c, traceErrorStatus(err), domain.MessageFailedUpdateTraceRecord, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdateTraceRecord)
}

func (h *traceHandler) DeleteRecord(c *fiber.Ctx) error {
	if err := h.traceService.DeleteRecord(c.Context(), c.Params("id"), middleware.Wallet(c)); err != nil {
		return presenters.ErrorResponse(c, traceErrorStatus(err), domain.MessageFailedDeleteTraceRecord, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessDeleteTraceRecord)
}

func (h *traceHandler) GetTimeline(c *fiber.Ctx) error {
	res, err := h.traceService.GetTimeline(c.Context(), c.Params("productId"))
	if err != nil {
		return presenters.ErrorResponse(c, traceErrorStatus(err), domain.MessageFailedGetTimeline, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetTimeline)
}
