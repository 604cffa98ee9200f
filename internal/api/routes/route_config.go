package routes

import (
	"GreenOrigin-Backend/internal/api/handlers"
	"GreenOrigin-Backend/internal/middleware"
	"GreenOrigin-Backend/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

type Config struct {
	App             *fiber.App
	ProductHandler  handlers.ProductHandler
	BatchHandler    handlers.BatchHandler
	Web3AuthHandler handlers.Web3AuthHandler
	TraceHandler    handlers.TraceHandler
	Middleware      middleware.Middleware
	JWTService      jwt.JWTService
	UploadDir       string
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	if c.UploadDir != "" {
		c.App.Static("/uploads", c.UploadDir)
	}
	c.GuestRoute()
	c.Products()
	c.Batches()
	c.Traceability()
	c.Web3Auth()
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "message": "pong"})
	})
}

func (c *Config) Products() {
	auth := c.Middleware.AuthMiddleware(c.JWTService)
	products := c.App.Group("/api/products")

	products.Get("/history/:productId", c.ProductHandler.GetHistory)
	products.Put("/by-product-id/:productId", auth, c.ProductHandler.AppendUpdate)

	products.Post("", auth, c.ProductHandler.CreateProduct)
	products.Get("", auth, c.ProductHandler.GetProducts)
	products.Get("/:id", auth, c.ProductHandler.GetProduct)
	products.Put("/:id", auth, c.ProductHandler.UpdateProduct)
	products.Delete("/:id", auth, c.ProductHandler.DeleteProduct)
}

func (c *Config) Batches() {
	auth := c.Middleware.AuthMiddleware(c.JWTService)
	batches := c.App.Group("/api/batches")

	batches.Get("/stats", c.BatchHandler.GetStats)
	batches.Get("/sync/:productId", c.BatchHandler.GetSyncStatus)
	batches.Post("/products", auth, c.BatchHandler.AddProductToLedger)

	batches.Post("", auth, c.BatchHandler.CreateBatch)
	batches.Get("", c.BatchHandler.GetBatches)
	batches.Get("/:productId", c.BatchHandler.GetProduct)
	batches.Post("/:productId/traces", auth, c.BatchHandler.AddTrace)
	batches.Get("/:productId/traces", c.BatchHandler.GetTraces)
}

func (c *Config) Traceability() {
	auth := c.Middleware.AuthMiddleware(c.JWTService)
	traces := c.App.Group("/api/traceability")

	traces.Get("/record/:id", c.TraceHandler.GetRecord)
	traces.Put("/record/:id", auth, c.TraceHandler.UpdateRecord)
	traces.Delete("/record/:id", auth, c.TraceHandler.DeleteRecord)

	traces.Post("", auth, c.TraceHandler.CreateRecord)
	traces.Get("/:productId/timeline", c.TraceHandler.GetTimeline)
	traces.Get("/:productId", c.TraceHandler.GetRecords)
}

func (c *Config) Web3Auth() {
	web3auth := c.App.Group("/api/web3auth")

	web3auth.Post("/request-nonce", c.Web3AuthHandler.RequestNonce)
	web3auth.Post("/verify", c.Web3AuthHandler.Verify)
	web3auth.Get("/me", c.Middleware.AuthMiddleware(c.JWTService), c.Web3AuthHandler.Me)
}
