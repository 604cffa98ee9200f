package handlers

import (
	"errors"

	"GreenOrigin-Backend/domain"
	"GreenOrigin-Backend/internal/api/presenters"
	"GreenOrigin-Backend/internal/middleware"
	"GreenOrigin-Backend/pkg/web3auth"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

type (
	Web3AuthHandler interface {
		RequestNonce(c *fiber.Ctx) error
		Verify(c *fiber.Ctx) error
		Me(c *fiber.Ctx) error
	}

	web3AuthHandler struct {
		web3AuthService web3auth.Web3AuthService
		validator       *validator.Validate
	}
)

func NewWeb3AuthHandler(web3AuthService web3auth.Web3AuthService, validator *validator.Validate) Web3AuthHandler {
	return &web3AuthHandler{
		web3AuthService: web3AuthService,
		validator:       validator,
	}
}

func (h *web3AuthHandler) RequestNonce(c *fiber.Ctx) error {
	req := new(domain.RequestNonceRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedRequestNonce, err)
	}

	res, err := h.web3AuthService.RequestNonce(c.Context(), *req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidWalletAddress) {
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedRequestNonce, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedRequestNonce, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessRequestNonce)
}

func (h *web3AuthHandler) Verify(c *fiber.Ctx) error {
	req := new(domain.VerifySignatureRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedVerify, err)
	}

	meta := domain.LoginMeta{
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}

	res, err := h.web3AuthService.Verify(c.Context(), *req, meta)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidWalletAddress):
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedVerify, err)
		case errors.Is(err, domain.ErrNonceNotFound),
			errors.Is(err, domain.ErrMessageMismatch),
			errors.Is(err, domain.ErrInvalidSignature),
			errors.Is(err, domain.ErrSignatureMismatch):
			return presenters.ErrorResponse(c, fiber.StatusUnauthorized, domain.MessageFailedVerify, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedVerify, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessVerify)
}

func (h *web3AuthHandler) Me(c *fiber.Ctx) error {
	wallet := middleware.Wallet(c)

	history, err := h.web3AuthService.GetLoginHistory(c.Context(), wallet)
	if err != nil {
		log.Warnf("failed to load login history for %s: %v", wallet, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{
		"walletAddress": wallet,
		"loginHistory":  history,
	}, fiber.StatusOK, domain.MessageSuccessMe)
}
