package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Security   SecurityConfig   `yaml:"security" envconfig:"SECURITY"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Extraction ExtractionConfig `yaml:"extraction" envconfig:"EXTRACTION"`
	Upload     UploadConfig     `yaml:"upload" envconfig:"UPLOAD"`
	Sheets     SheetsConfig     `yaml:"sheets" envconfig:"SHEETS"`
	WebSocket  WebSocketConfig  `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" validate:"gt=0"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=stdout file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// ExtractionConfig bounds the engine: forecast horizon, detection scan
// limits, the seed product list, and per-unit consumption rates for the
// requirement plan.
type ExtractionConfig struct {
	Horizon          int                `yaml:"horizon" envconfig:"HORIZON" validate:"min=1,max=24"`
	SeedProducts     []string           `yaml:"seed_products" envconfig:"SEED_PRODUCTS"`
	HeaderScanRows   int                `yaml:"header_scan_rows" envconfig:"HEADER_SCAN_ROWS" validate:"min=1"`
	HeaderScanCols   int                `yaml:"header_scan_cols" envconfig:"HEADER_SCAN_COLS" validate:"min=1"`
	ProductScanCols  int                `yaml:"product_scan_cols" envconfig:"PRODUCT_SCAN_COLS" validate:"min=1"`
	MinMonthHeaders  int                `yaml:"min_month_headers" envconfig:"MIN_MONTH_HEADERS" validate:"min=1"`
	BlockDepth       int                `yaml:"block_depth" envconfig:"BLOCK_DEPTH" validate:"min=1"`
	ConsumptionRates map[string]float64 `yaml:"consumption_rates" envconfig:"CONSUMPTION_RATES"`
}

// UploadConfig bounds workbook uploads
type UploadConfig struct {
	MaxSizeBytes int64 `yaml:"max_size_bytes" envconfig:"MAX_SIZE_BYTES" validate:"min=1"`
}

// SheetsConfig configures the Google Sheets loader. An empty API key
// disables the /api/extraction/sheet endpoint.
type SheetsConfig struct {
	APIKey string `yaml:"api_key" envconfig:"API_KEY"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" validate:"min=1"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" validate:"min=1"`
	WriteWait       time.Duration `yaml:"write_wait" envconfig:"WRITE_WAIT" validate:"gt=0"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" validate:"gt=0"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" validate:"gt=0"`
}

// Load loads configuration: defaults, then the YAML file (when present),
// then DP_* environment variables, then validation. filePath may be empty
// to use only defaults and environment.
func Load(filePath string) (*Config, error) {
	cfg := Default()

	if filePath != "" {
		if err := loadFromFile(filePath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process("DP", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays YAML file contents onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks the configuration against its struct tags
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			RequestTimeout:  60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "stdout",
			FilePath: "logs/app.log",
		},
		Extraction: ExtractionConfig{
			Horizon:         6,
			SeedProducts:    []string{"MCT360", "MCT165", "MCTSTICK10", "MCTSTICK30", "MCTSTICK16", "MCTITTO_C"},
			HeaderScanRows:  20,
			HeaderScanCols:  30,
			ProductScanCols: 3,
			MinMonthHeaders: 3,
			BlockDepth:      30,
		},
		Upload: UploadConfig{
			MaxSizeBytes: 16 << 20, // 16MB
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			WriteWait:       10 * time.Second,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
	}
}
