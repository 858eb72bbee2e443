package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	// AWS-specific configuration
	AWSRegion         string
	DynamoDBTableName string

	// Environment and region info
	Environment string
	Region      string
	LogLevel    string

	// Staging session served by this process
	SessionID  string
	SaveWindow time.Duration

	// Posting
	LedgerCurrency  string
	VoucherType     string
	LedgerTimeout   time.Duration
	BreakerFailures uint32
	BreakerCooldown time.Duration

	// Lambda detection flag (cached)
	isLambda bool
}

// LoadFromEnv loads the configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{}

	// Required environment variables
	cfg.DynamoDBTableName = os.Getenv("DYNAMODB_TABLE_NAME")
	if cfg.DynamoDBTableName == "" {
		return nil, errors.New("DYNAMODB_TABLE_NAME environment variable is required")
	}

	cfg.Environment = getEnv("ENVIRONMENT", "dev")
	cfg.Region = getEnv("REGION", "jp")
	cfg.LogLevel = os.Getenv("LOG_LEVEL")

	// AWS Region
	cfg.AWSRegion = os.Getenv("AWS_REGION")
	if cfg.AWSRegion == "" {
		// Default AWS regions based on our region code
		switch cfg.Region {
		case "us":
			cfg.AWSRegion = "us-west-2"
		case "eu":
			cfg.AWSRegion = "eu-west-1"
		case "vn":
			cfg.AWSRegion = "ap-southeast-1"
		default:
			cfg.AWSRegion = "ap-northeast-1"
		}
	}

	cfg.SessionID = getEnv("STAGING_SESSION_ID", "default")
	cfg.LedgerCurrency = getEnv("LEDGER_CURRENCY", "VND")
	cfg.VoucherType = getEnv("VOUCHER_TYPE", "GENERAL")

	var err error
	if cfg.SaveWindow, err = getMillis("SAVE_DEBOUNCE_MS", 500); err != nil {
		return nil, err
	}
	if cfg.LedgerTimeout, err = getMillis("LEDGER_TIMEOUT_MS", 10000); err != nil {
		return nil, err
	}
	if cfg.BreakerCooldown, err = getMillis("LEDGER_BREAKER_COOLDOWN_MS", 30000); err != nil {
		return nil, err
	}

	failures, err := getInt("LEDGER_BREAKER_FAILURES", 5)
	if err != nil {
		return nil, err
	}
	cfg.BreakerFailures = uint32(failures)

	// Check if running in Lambda
	cfg.isLambda = os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""

	return cfg, nil
}

func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}

// IsLambda returns true if the application is running in AWS Lambda
func (c *Config) IsLambda() bool {
	return c.isLambda
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return v, nil
}

func getMillis(key string, fallback int) (time.Duration, error) {
	v, err := getInt(key, fallback)
	if err != nil {
		return 0, err
	}
	return time.Duration(v) * time.Millisecond, nil
}
