package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

// ErrInvalidConfig indicates a deployment configuration mistake. Unlike
// runtime retrieval failures, this class is fatal at process startup.
var ErrInvalidConfig = errors.New("invalid configuration")

// weightSumTolerance allows for float rounding when validating that the
// budget signal weights sum to 1.
const weightSumTolerance = 1e-9

// Config is the root configuration for recalld.
type Config struct {
	Logging   LoggingConfig   `koanf:"logging"`
	Session   SessionConfig   `koanf:"session"`
	Qdrant    QdrantConfig    `koanf:"qdrant"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Injection InjectionConfig `koanf:"injection"`
	Audit     AuditConfig     `koanf:"audit"`
}

// EmbeddingConfig points at the external embedding service.
type EmbeddingConfig struct {
	// Endpoint is a text-embeddings-inference /embed URL.
	Endpoint string `koanf:"endpoint"`
}

// LoggingConfig controls the zap logger. Hook processes always write logs
// to stderr; stdout is reserved for the injection block.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// SessionConfig controls session state persistence.
type SessionConfig struct {
	// StateDir is the directory holding per-session state files.
	StateDir string `koanf:"state_dir"`
}

// QdrantConfig holds connection settings for the Qdrant gRPC endpoint.
type QdrantConfig struct {
	Host string `koanf:"host"`
	// Port is the Qdrant gRPC port (6334), not the HTTP REST port.
	Port   int  `koanf:"port"`
	UseTLS bool `koanf:"use_tls"`
	// MaxMessageSize is the maximum gRPC message size in bytes.
	MaxMessageSize int `koanf:"max_message_size"`
}

// InjectionConfig controls the progressive context injection engine.
type InjectionConfig struct {
	// Tier1Budget is the fixed token budget for conversation bootstrap.
	// Tier 1 is deliberately not adaptive so startup stays deterministic.
	Tier1Budget int `koanf:"tier1_budget"`

	// BudgetFloor and BudgetCeiling bound the adaptive Tier 2 budget.
	BudgetFloor   int `koanf:"budget_floor"`
	BudgetCeiling int `koanf:"budget_ceiling"`

	// ConfidenceThreshold is the score above which a candidate counts
	// toward result density.
	ConfidenceThreshold float64 `koanf:"confidence_threshold"`

	// MinConfidence gates injection entirely: when the best candidate
	// scores below it, nothing is injected this turn.
	MinConfidence float64 `koanf:"min_confidence"`

	// WeightQuality, WeightDensity and WeightDrift combine the budget
	// signals. They must sum to 1.
	WeightQuality float64 `koanf:"weight_quality"`
	WeightDensity float64 `koanf:"weight_density"`
	WeightDrift   float64 `koanf:"weight_drift"`

	// SearchTimeout bounds each outbound search call. A timed-out
	// partition contributes an empty result set.
	SearchTimeout Duration `koanf:"search_timeout"`
}

// AuditConfig controls the append-only decision log.
type AuditConfig struct {
	Path string `koanf:"path"`
}

// NewDefaultConfig returns config with production-ready defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Session: SessionConfig{
			StateDir: filepath.Join(os.TempDir(), "recalld"),
		},
		Qdrant: QdrantConfig{
			Host:           "localhost",
			Port:           6334,
			MaxMessageSize: 50 * 1024 * 1024,
		},
		Embedding: EmbeddingConfig{
			Endpoint: "http://localhost:8080/embed",
		},
		Injection: InjectionConfig{
			Tier1Budget:         1000,
			BudgetFloor:         256,
			BudgetCeiling:       2048,
			ConfidenceThreshold: 0.55,
			MinConfidence:       0.35,
			WeightQuality:       0.50,
			WeightDensity:       0.30,
			WeightDrift:         0.20,
			SearchTimeout:       Duration(3 * time.Second),
		},
		Audit: AuditConfig{
			Path: filepath.Join(os.TempDir(), "recalld", "audit.jsonl"),
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Injection.Validate(); err != nil {
		return err
	}
	if c.Qdrant.Port <= 0 || c.Qdrant.Port > 65535 {
		return fmt.Errorf("%w: invalid qdrant port: %d", ErrInvalidConfig, c.Qdrant.Port)
	}
	if c.Session.StateDir == "" {
		return fmt.Errorf("%w: session state_dir required", ErrInvalidConfig)
	}
	return nil
}

// Validate checks the injection engine configuration. A floor above the
// ceiling or weights that cannot produce a combined score in [0,1] are
// deployment mistakes, so they fail startup instead of degrading.
func (c *InjectionConfig) Validate() error {
	if c.BudgetFloor < 0 {
		return fmt.Errorf("%w: budget_floor must be non-negative, got %d", ErrInvalidConfig, c.BudgetFloor)
	}
	if c.BudgetFloor > c.BudgetCeiling {
		return fmt.Errorf("%w: budget_floor %d exceeds budget_ceiling %d", ErrInvalidConfig, c.BudgetFloor, c.BudgetCeiling)
	}
	if c.Tier1Budget <= 0 {
		return fmt.Errorf("%w: tier1_budget must be positive, got %d", ErrInvalidConfig, c.Tier1Budget)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("%w: confidence_threshold must be in [0,1], got %g", ErrInvalidConfig, c.ConfidenceThreshold)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("%w: min_confidence must be in [0,1], got %g", ErrInvalidConfig, c.MinConfidence)
	}
	for _, w := range []float64{c.WeightQuality, c.WeightDensity, c.WeightDrift} {
		if w < 0 || w > 1 {
			return fmt.Errorf("%w: weights must be in [0,1], got %g", ErrInvalidConfig, w)
		}
	}
	sum := c.WeightQuality + c.WeightDensity + c.WeightDrift
	if math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("%w: weights must sum to 1, got %g", ErrInvalidConfig, sum)
	}
	if c.SearchTimeout.Duration() <= 0 {
		return fmt.Errorf("%w: search_timeout must be positive", ErrInvalidConfig)
	}
	return nil
}
