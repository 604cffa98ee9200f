package utils

import (
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	AppPort string `yaml:"APP_PORT"`
	AppURL  string `yaml:"APP_URL"`

	// Database configuration
	DBUser     string `yaml:"DB_USER"`
	DBName     string `yaml:"DB_NAME"`
	DBPassword string `yaml:"DB_PASSWORD"`
	DBPort     string `yaml:"DB_PORT"`
	DBHost     string `yaml:"DB_HOST"`

	JWTSecret    string `yaml:"JWT_SECRET"`
	JWTTTLHours  string `yaml:"JWT_TTL_HOURS"`
	AdminWallets string `yaml:"ADMIN_WALLETS"`

	// Ledger configuration
	LedgerDriver         string `yaml:"LEDGER_DRIVER"`
	BlockchainRPCURL     string `yaml:"BLOCKCHAIN_RPC_URL"`
	BlockchainPrivateKey string `yaml:"BLOCKCHAIN_PRIVATE_KEY"`
	ContractAddress      string `yaml:"CONTRACT_ADDRESS"`
	BlockchainChainID    string `yaml:"BLOCKCHAIN_CHAIN_ID"`

	// Mailing configuration
	SMTPHost         string `yaml:"SMTP_HOST"`
	SMTPPort         string `yaml:"SMTP_PORT"`
	SMTPSenderName   string `yaml:"SMTP_SENDER_NAME"`
	SMTPAuthEmail    string `yaml:"SMTP_AUTH_EMAIL"`
	SMTPAuthPassword string `yaml:"SMTP_AUTH_PASSWORD"`
	AlertEmail       string `yaml:"ALERT_EMAIL"`

	// Storage configuration
	StorageDriver string `yaml:"STORAGE_DRIVER"`
	UploadDir     string `yaml:"UPLOAD_DIR"`
	AWSS3Bucket   string `yaml:"AWS_S3_BUCKET"`
	AWSS3Region   string `yaml:"AWS_S3_REGION"`
	AWSAccessKey  string `yaml:"AWS_ACCESS_KEY"`
	AWSSecretKey  string `yaml:"AWS_SECRET_KEY"`
}

var (
	config   Config
	loadOnce sync.Once
)

var defaults = map[string]string{
	"APP_PORT":       "8080",
	"JWT_TTL_HOURS":  "168",
	"LEDGER_DRIVER":  "ethereum",
	"STORAGE_DRIVER": "local",
	"UPLOAD_DIR":     "./uploads",
}

// LoadConfig reads .env and config.yaml once. Non-empty environment
// variables win over the YAML file.
func LoadConfig() {
	loadOnce.Do(func() {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warnf("error loading .env file: %v", err)
		}

		path := os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "config.yaml"
		}

		file, err := os.ReadFile(path)
		if err != nil {
			log.Warnf("error reading YAML file: %s", err)
		} else if err := yaml.Unmarshal(file, &config); err != nil {
			log.Errorf("error parsing YAML file: %s", err)
		}

		for key, field := range config.fields() {
			if v := os.Getenv(key); v != "" {
				*field = v
			}
			if *field == "" {
				*field = defaults[key]
			}
		}
	})
}

func (c *Config) fields() map[string]*string {
	return map[string]*string{
		"APP_PORT":               &c.AppPort,
		"APP_URL":                &c.AppURL,
		"DB_USER":                &c.DBUser,
		"DB_NAME":                &c.DBName,
		"DB_PASSWORD":            &c.DBPassword,
		"DB_PORT":                &c.DBPort,
		"DB_HOST":                &c.DBHost,
		"JWT_SECRET":             &c.JWTSecret,
		"JWT_TTL_HOURS":          &c.JWTTTLHours,
		"ADMIN_WALLETS":          &c.AdminWallets,
		"LEDGER_DRIVER":          &c.LedgerDriver,
		"BLOCKCHAIN_RPC_URL":     &c.BlockchainRPCURL,
		"BLOCKCHAIN_PRIVATE_KEY": &c.BlockchainPrivateKey,
		"CONTRACT_ADDRESS":       &c.ContractAddress,
		"BLOCKCHAIN_CHAIN_ID":    &c.BlockchainChainID,
		"SMTP_HOST":              &c.SMTPHost,
		"SMTP_PORT":              &c.SMTPPort,
		"SMTP_SENDER_NAME":       &c.SMTPSenderName,
		"SMTP_AUTH_EMAIL":        &c.SMTPAuthEmail,
		"SMTP_AUTH_PASSWORD":     &c.SMTPAuthPassword,
		"ALERT_EMAIL":            &c.AlertEmail,
		"STORAGE_DRIVER":         &c.StorageDriver,
		"UPLOAD_DIR":             &c.UploadDir,
		"AWS_S3_BUCKET":          &c.AWSS3Bucket,
		"AWS_S3_REGION":          &c.AWSS3Region,
		"AWS_ACCESS_KEY":         &c.AWSAccessKey,
		"AWS_SECRET_KEY":         &c.AWSSecretKey,
	}
}

func GetConfig(key string) string {
	LoadConfig()
	if field, ok := config.fields()[key]; ok {
		return *field
	}
	return ""
}
