package migration

import (
	"GreenOrigin-Backend/entities"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\";")

	if err := db.AutoMigrate(&entities.Product{}); err != nil {
		log.Errorf("Error migrating product database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.BatchMetadata{}); err != nil {
		log.Errorf("Error migrating batch metadata database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.ProductUpdate{}); err != nil {
		log.Errorf("Error migrating product update database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.TraceabilityRecord{}); err != nil {
		log.Errorf("Error migrating traceability record database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.LoginHistory{}); err != nil {
		log.Errorf("Error migrating login history database: %v", err)
		return err
	}

	log.Info("Database migration complete")
	return nil
}
