package middleware

import (
	"errors"
	"strings"

	"GreenOrigin-Backend/domain"
	"GreenOrigin-Backend/internal/api/presenters"
	"GreenOrigin-Backend/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

const LocalsWallet = "wallet_address"

type (
	Middleware interface {
		CORSMiddleware() fiber.Handler
		SecurityMiddleware() fiber.Handler
		RequestIDMiddleware() fiber.Handler
		RecoverMiddleware() fiber.Handler
		AuthMiddleware(jwtService jwt.JWTService) fiber.Handler
	}

	middleware struct{}
)

func NewMiddleware() Middleware {
	return &middleware{}
}

func (m *middleware) CORSMiddleware() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:  "Origin,Content-Type,Accept,Authorization",
		ExposeHeaders: "X-Request-ID",
		MaxAge:        86400,
	})
}

func (m *middleware) SecurityMiddleware() fiber.Handler {
	return helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "DENY",
		CrossOriginResourcePolicy: "cross-origin",
	})
}

func (m *middleware) RequestIDMiddleware() fiber.Handler {
	return requestid.New()
}

func (m *middleware) RecoverMiddleware() fiber.Handler {
	return recover.New(recover.Config{EnableStackTrace: true})
}

// AuthMiddleware requires "Authorization: Bearer <token>" and stores the
// wallet address from the token in Locals.
func (m *middleware) AuthMiddleware(jwtService jwt.JWTService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			return presenters.ErrorResponse(c, fiber.StatusUnauthorized, domain.MessageFailedGetToken, domain.ErrTokenNotFound)
		}

		wallet, err := jwtService.GetWalletByToken(strings.TrimSpace(token))
		if err != nil {
			if errors.Is(err, domain.ErrTokenExpired) {
				return presenters.ErrorResponse(c, fiber.StatusUnauthorized, domain.MessageFailedTokenExpired, err)
			}
			return presenters.ErrorResponse(c, fiber.StatusUnauthorized, domain.MessageFailedTokenInvalid, err)
		}

		c.Locals(LocalsWallet, wallet)
		return c.Next()
	}
}

// ErrorHandler answers errors no handler turned into a response.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		if fe.Code == fiber.StatusNotFound {
			return presenters.ErrorResponse(c, fe.Code, domain.MessageNotFound, err)
		}
		return presenters.ErrorResponse(c, fe.Code, fe.Message, err)
	}
	log.Errorf("unhandled error on %s %s: %v", c.Method(), c.Path(), err)
	return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageInternalError, err)
}

// Wallet returns the authenticated wallet, or "" on public routes.
func Wallet(c *fiber.Ctx) string {
	wallet, _ := c.Locals(LocalsWallet).(string)
	return wallet
}
