package handlers

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"GreenOrigin-Backend/domain"
	"GreenOrigin-Backend/entities"
	"GreenOrigin-Backend/internal/api/presenters"
	"GreenOrigin-Backend/internal/middleware"
	"GreenOrigin-Backend/internal/utils/storage"
	"GreenOrigin-Backend/pkg/product"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type (
	ProductHandler interface {
		CreateProduct(c *fiber.Ctx) error
		GetProducts(c *fiber.Ctx) error
		GetProduct(c *fiber.Ctx) error
		UpdateProduct(c *fiber.Ctx) error
		AppendUpdate(c *fiber.Ctx) error
		GetHistory(c *fiber.Ctx) error
		DeleteProduct(c *fiber.Ctx) error
	}

	productHandler struct {
		productService product.ProductService
		validator      *validator.Validate
	}
)

func NewProductHandler(productService product.ProductService, validator *validator.Validate) ProductHandler {
	return &productHandler{
		productService: productService,
		validator:      validator,
	}
}

func productErrorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrProductExists),
		errors.Is(err, domain.ErrNoFieldsToUpdate),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidField),
		errors.Is(err, storage.ErrInvalidFileType),
		errors.Is(err, storage.ErrFileTooLarge):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm)
}

// parseMultipartExtras fills the fields a form cannot bind directly.
func parseMultipartExtras(c *fiber.Ctx, certs *[]entities.Certification, quantity **decimal.Decimal) error {
	if raw := c.FormValue("certifications"); raw != "" {
		if err := json.Unmarshal([]byte(raw), certs); err != nil {
			return domain.ErrInvalidField
		}
	}
	if raw := c.FormValue("quantity"); raw != "" {
		q, err := decimal.NewFromString(raw)
		if err != nil {
			return domain.ErrInvalidQuantity
		}
		*quantity = &q
	}
	return nil
}

func (h *productHandler) CreateProduct(c *fiber.Ctx) error {
	req := new(domain.CreateProductRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if isMultipart(c) {
		var quantity *decimal.Decimal
		if err := parseMultipartExtras(c, &req.Certifications, &quantity); err != nil {
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
		}
		if quantity != nil {
			req.Quantity = *quantity
		}
		if file, err := c.FormFile("image"); err == nil {
			req.Image = file
		}
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCreateProduct, err)
	}

	res, err := h.productService.CreateProduct(c.Context(), *req, middleware.Wallet(c))
	if err != nil {
		return presenters.ErrorResponse(c, productErrorStatus(err), domain.MessageFailedCreateProduct, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessCreateProduct)
}

func (h *productHandler) GetProducts(c *fiber.Ctx) error {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.Query("limit", "10"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 10
	}

	filter := domain.ProductListFilter{
		Category: c.Query("category"),
		FarmerID: c.Query("farmerId"),
		Page:     page,
		Limit:    limit,
	}

	products, count, err := h.productService.GetProducts(c.Context(), filter)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedGetProducts, err)
	}

	return presenters.SuccessResponseWithMeta(c, products, domain.NewPaginationMeta(page, limit, count), fiber.StatusOK, domain.MessageSuccessGetProducts)
}

func (h *productHandler) GetProduct(c *fiber.Ctx) error {
	res, err := h.productService.GetProductByID(c.Context(), c.Params("id"))
	if err != nil {
		return presenters.ErrorResponse(c, productErrorStatus(err), domain.MessageFailedGetProduct, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetProduct)
}

func (h *productHandler) UpdateProduct(c *fiber.Ctx) error {
	req := new(domain.UpdateProductRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if isMultipart(c) {
		if err := parseMultipartExtras(c, &req.Certifications, &req.Quantity); err != nil {
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
		}
		if file, err := c.FormFile("image"); err == nil {
			req.Image = file
		}
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateProduct, err)
	}

	res, err := h.productService.UpdateProduct(c.Context(), c.Params("id"), *req)
	if err != nil {
		return presenters.ErrorResponse(c, productErrorStatus(err), domain.MessageFailedUpdateProduct, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdateProduct)
}

func (h *productHandler) AppendUpdate(c *fiber.Ctx) error {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(c.Body(), &fields); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	req := domain.AppendUpdateRequest{Fields: fields}
	if raw, ok := fields["reason"]; ok {
		if err := json.Unmarshal(raw, &req.Reason); err != nil {
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, domain.ErrInvalidField)
		}
	}

	res, err := h.productService.AppendUpdate(c.Context(), c.Params("productId"), req, middleware.Wallet(c))
	if err != nil {
		return presenters.ErrorResponse(c, productErrorStatus(err), domain.MessageFailedUpdateProduct, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdateProduct)
}

func (h *productHandler) GetHistory(c *fiber.Ctx) error {
	res, err := h.productService.GetHistory(c.Context(), c.Params("productId"))
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedGetProductHistory, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetProductHistory)
}

func (h *productHandler) DeleteProduct(c *fiber.Ctx) error {
	if err := h.productService.DeleteProduct(c.Context(), c.Params("id")); err != nil {
		return presenters.ErrorResponse(c, productErrorStatus(err), domain.MessageFailedDeleteProduct, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessDeleteProduct)
}
