package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"GreenOrigin-Backend/cmd/config"
	migration "GreenOrigin-Backend/cmd/database/migrate"
	"GreenOrigin-Backend/internal/utils"

	"github.com/gofiber/fiber/v2/log"
)

func main() {
	migrate := flag.Bool("migrate", false, "run database migrations before serving")
	flag.Parse()

	utils.LoadConfig()

	db, err := config.ConnectDB()
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if *migrate {
		if err := migration.Migrate(db); err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}
	}

	app, err := config.NewApp(db)
	if err != nil {
		log.Fatalf("failed to build app: %v", err)
	}

	go func() {
		addr := ":" + utils.GetConfig("APP_PORT")
		log.Infof("GreenOrigin API listening on %s", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt

	log.Info("shutting down")
	app.Nonces.Stop()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Errorf("server shutdown: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
