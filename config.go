package pathcodec

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// EnvPrefix is the environment variable prefix read by LoadConfig.
const EnvPrefix = "PATHCODEC"

// Config configures a Bridge.
type Config struct {
	// Precision is the number of fractional digits kept by floating-point operations
	// that do not take an explicit precision.
	Precision int `envconfig:"PRECISION" default:"2"`
	// PoolBaseline is the bucket capacity pools shrink back to on Close.
	PoolBaseline int `envconfig:"POOL_BASELINE" default:"0"`
	// CheckRecycle enables double-recycle detection in every pool. It is always on
	// in builds tagged pathdebug.
	CheckRecycle bool `envconfig:"CHECK_RECYCLE" default:"false"`
	// LogLevel and LogFormat configure the logger LoadConfig builds.
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	// Logger receives diagnostics. Nil discards them.
	Logger *zap.Logger `ignored:"true"`
	// Allocator provides flat buffer regions. Nil defers to the engine's
	// RegionAllocator, then to memory.DefaultAllocator.
	Allocator memory.Allocator `ignored:"true"`
	// Registerer receives the bridge's metrics. Nil leaves them unregistered.
	Registerer prometheus.Registerer `ignored:"true"`
}

// DefaultConfig returns the configuration used when NewBridge gets a nil Config.
func DefaultConfig() *Config {
	return &Config{
		Precision: DefaultPrecision,
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// LoadConfig reads the configuration from PATHCODEC_* environment variables,
// after loading the given dotenv files (existing variables win), and builds the logger.
func LoadConfig(envFiles ...string) (*Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, fmt.Errorf("pathcodec: load env files: %w", err)
		}
	}
	cfg := &Config{}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("pathcodec: process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("pathcodec: build logger: %w", err)
	}
	cfg.Logger = logger
	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Precision < 0 || c.Precision > MaxPrecision {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidPrecision, c.Precision, MaxPrecision)
	}
	if c.PoolBaseline < 0 {
		return fmt.Errorf("pathcodec: pool baseline must not be negative, got %d", c.PoolBaseline)
	}
	return nil
}
