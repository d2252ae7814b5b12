package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration struct.  All fields have safe
// defaults so callers can start with Config{} and override only what they
// need.  It can also be loaded from YAML for deployments that keep codec
// tuning outside the binary.
type Config struct {
	// Native engine thread pool.  0 resolves to the engine's default worker
	// count at session creation.
	Threads int `yaml:"threads"`

	// Default encoder settings applied when Options does not override.
	// Distance 0 is mathematically lossless; 1 is visually lossless.
	DefaultDistance float32 `yaml:"default_distance"`
	// DefaultSpeed names an effort tier: lightning, thunder, falcon,
	// cheetah, hare, wombat, squirrel, kitten, tortoise.
	DefaultSpeed string `yaml:"default_speed"`

	// InitBufferSize seeds the encoder's growable output buffer in bytes.
	InitBufferSize int `yaml:"init_buffer_size"`

	// Streaming / memory limits.
	MaxImageBytes int64 `yaml:"max_image_bytes"` // 0 = no limit
	ChunkSize     int   `yaml:"chunk_size"`      // streaming chunk size; default 32 KiB

	// Worker pool controls (pool package).
	WorkerCount int           `yaml:"worker_count"` // default: runtime.NumCPU()
	QueueSize   int           `yaml:"queue_size"`   // default: 64
	JobTimeout  time.Duration `yaml:"job_timeout"`

	// Logging.
	LogLevel string `yaml:"log_level"` // "debug", "info", "warn", "error"
}

// Default returns a Config populated with sensible production defaults.
func Default() Config {
	return Config{
		Threads:         0, // resolved to the engine default
		DefaultDistance: 1.0,
		DefaultSpeed:    "squirrel",
		InitBufferSize:  512 * 1024,
		ChunkSize:       32 * 1024,
		QueueSize:       64,
		JobTimeout:      30 * time.Second,
		LogLevel:        "info",
	}
}

var speedNames = map[string]struct{}{
	"lightning": {}, "thunder": {}, "falcon": {}, "cheetah": {}, "hare": {},
	"wombat": {}, "squirrel": {}, "kitten": {}, "tortoise": {},
}

// Validate returns an error if the configuration is inconsistent.
func Validate(c Config) error {
	if c.Threads < 0 {
		return errors.New("config: Threads must not be negative")
	}
	if c.DefaultDistance < 0 || c.DefaultDistance > 25 {
		return errors.New("config: DefaultDistance must be between 0 and 25")
	}
	if c.DefaultSpeed != "" {
		if _, ok := speedNames[c.DefaultSpeed]; !ok {
			return fmt.Errorf("config: unknown DefaultSpeed %q", c.DefaultSpeed)
		}
	}
	if c.ChunkSize <= 0 {
		return errors.New("config: ChunkSize must be positive")
	}
	if c.InitBufferSize < 0 {
		return errors.New("config: InitBufferSize must not be negative")
	}
	return nil
}

// FromYAML parses a Config from YAML bytes.  Unset fields keep their
// defaults.
func FromYAML(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadYAML reads and parses a Config from a YAML file.
func LoadYAML(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return FromYAML(data)
}
