package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"GreenOrigin-Backend/internal/api/handlers"
	"GreenOrigin-Backend/internal/api/routes"
	"GreenOrigin-Backend/internal/middleware"
	"GreenOrigin-Backend/internal/utils"
	"GreenOrigin-Backend/internal/utils/mailing"
	"GreenOrigin-Backend/internal/utils/storage"
	"GreenOrigin-Backend/pkg/batch"
	"GreenOrigin-Backend/pkg/jwt"
	"GreenOrigin-Backend/pkg/ledger"
	"GreenOrigin-Backend/pkg/product"
	"GreenOrigin-Backend/pkg/trace"
	"GreenOrigin-Backend/pkg/web3auth"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"
)

// App is the HTTP application plus the background pieces that must be
// stopped on shutdown.
type App struct {
	*fiber.App
	Nonces *web3auth.NonceStore
}

func NewLedger() (ledger.Ledger, error) {
	switch driver := utils.GetConfig("LEDGER_DRIVER"); driver {
	case "memory":
		log.Warn("using in-memory ledger; traces are lost on restart")
		return ledger.NewMemoryLedger(), nil
	case "ethereum", "":
		var chainID int64
		if raw := utils.GetConfig("BLOCKCHAIN_CHAIN_ID"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid BLOCKCHAIN_CHAIN_ID: %w", err)
			}
			chainID = id
		}
		if utils.GetConfig("BLOCKCHAIN_PRIVATE_KEY") == "" || utils.GetConfig("CONTRACT_ADDRESS") == "" {
			log.Warn("BLOCKCHAIN_PRIVATE_KEY or CONTRACT_ADDRESS unset; ledger calls will fail until configured")
		}
		return ledger.NewEthereumLedger(ledger.Config{
			RPCURL:          utils.GetConfig("BLOCKCHAIN_RPC_URL"),
			PrivateKey:      utils.GetConfig("BLOCKCHAIN_PRIVATE_KEY"),
			ContractAddress: utils.GetConfig("CONTRACT_ADDRESS"),
			ChainID:         chainID,
		}), nil
	default:
		return nil, fmt.Errorf("unknown ledger driver %q", driver)
	}
}

func NewApp(db *gorm.DB) (*App, error) {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		AppName:      "GreenOrigin",
		BodyLimit:    storage.MaxUploadSize + 1<<20,
		ErrorHandler: middleware.ErrorHandler,
	})
	middlewares := middleware.NewMiddleware()
	validator := utils.Validate

	app.Use(middlewares.RequestIDMiddleware())
	app.Use(middlewares.RecoverMiddleware())
	app.Use(middlewares.SecurityMiddleware())

	// setting up logging and limiter
	err := os.MkdirAll("./logs", os.ModePerm)
	if err != nil {
		return nil, fmt.Errorf("error creating logs directory: %w", err)
	}
	file, err := os.OpenFile(
		"./logs/app.log",
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0666,
	)
	if err != nil {
		return nil, fmt.Errorf("error opening log file: %w", err)
	}
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${locals:requestid} ${status} - ${method} ${path} - ${ip} - ${latency}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
		Output:     file,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Second,
	}))

	// utils
	store, err := storage.NewStorage()
	if err != nil {
		return nil, err
	}
	chain, err := NewLedger()
	if err != nil {
		return nil, err
	}
	alerter := mailing.NewAlerter()
	nonces := web3auth.NewNonceStore()
	nonces.StartSweeper(web3auth.SweepInterval)

	ttlHours, err := strconv.Atoi(utils.GetConfig("JWT_TTL_HOURS"))
	if err != nil {
		ttlHours = 168
	}

	// Repository
	productRepository := product.NewProductRepository(db)
	batchRepository := batch.NewBatchRepository(db)
	web3AuthRepository := web3auth.NewWeb3AuthRepository(db)
	traceRepository := trace.NewTraceRepository(db)

	// Service
	jwtSecret := utils.GetConfig("JWT_SECRET")
	if jwtSecret == "" {
		return nil, jwt.ErrMissingSecret
	}
	jwtService := jwt.NewJWTService(jwtSecret, time.Duration(ttlHours)*time.Hour)
	productService := product.NewProductService(productRepository, batchRepository, chain, store, alerter)
	batchService := batch.NewBatchService(batchRepository, productRepository, chain)
	web3AuthService := web3auth.NewWeb3AuthService(web3AuthRepository, nonces, jwtService)
	traceService := trace.NewTraceService(traceRepository, productRepository, batchService, alerter, strings.Split(utils.GetConfig("ADMIN_WALLETS"), ","))

	// Handler
	productHandler := handlers.NewProductHandler(productService, validator)
	batchHandler := handlers.NewBatchHandler(batchService, validator)
	web3AuthHandler := handlers.NewWeb3AuthHandler(web3AuthService, validator)
	traceHandler := handlers.NewTraceHandler(traceService, validator)

	uploadDir := ""
	if local, ok := store.(*storage.LocalStorage); ok {
		uploadDir = local.Root()
	}

	// routes
	routesConfig := routes.Config{
		App:             app,
		ProductHandler:  productHandler,
		BatchHandler:    batchHandler,
		Web3AuthHandler: web3AuthHandler,
		TraceHandler:    traceHandler,
		Middleware:      middlewares,
		JWTService:      jwtService,
		UploadDir:       uploadDir,
	}
	routesConfig.Setup()
	return &App{App: app, Nonces: nonces}, nil
}
