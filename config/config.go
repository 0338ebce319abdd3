// Package config loads the nim-memory configuration from defaults, an
// optional YAML file and environment variables.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"

	"github.com/becomeliminal/nim-memory/memory"
)

// Environment variables read by Load.
const (
	EnvDataDir   = "NIM_MEMORY_DATA_DIR"
	EnvConfig    = "NIM_MEMORY_CONFIG"
	EnvLogLevel  = "NIM_MEMORY_LOG_LEVEL"
	EnvEmbedder  = "NIM_MEMORY_EMBEDDER"
	EnvGenerator = "NIM_MEMORY_GENERATOR"
	EnvOllama    = "OLLAMA_HOST"
	EnvAnthropic = "ANTHROPIC_API_KEY"
)

// FileName is the config file looked up in the data directory.
const FileName = "config.yaml"

// Embedder providers.
const (
	EmbedderMock   = "mock"
	EmbedderOllama = "ollama"
	EmbedderONNX   = "onnx"
)

// Generator providers.
const (
	GeneratorNone      = "none"
	GeneratorAnthropic = "anthropic"
	GeneratorOllama    = "ollama"
)

var ErrInvalid = goerr.New("invalid configuration")

// Config is the full application configuration.
type Config struct {
	DataDir   string          `yaml:"data_dir"`
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
	Memory    MemoryConfig    `yaml:"memory"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Generator GeneratorConfig `yaml:"generator"`
}

type LogConfig struct {
	Level string `yaml:"level"`

	// Format is "console" or "json".
	Format string `yaml:"format"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type MemoryConfig struct {
	Enabled        bool          `yaml:"enabled"`
	HalfLife       time.Duration `yaml:"half_life"`
	DefaultResults int           `yaml:"default_results"`
	TimeWeight     float64       `yaml:"time_weight"`
	AgentName      string        `yaml:"agent_name"`
}

type EmbedderConfig struct {
	// Provider is mock, ollama or onnx.
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	Host       string `yaml:"host"`
	Dimensions int    `yaml:"dimensions"`

	// CacheBytes bounds the embedding cache. Zero disables it.
	CacheBytes int64 `yaml:"cache_bytes"`

	ONNX ONNXConfig `yaml:"onnx"`
}

type ONNXConfig struct {
	ModelPath     string `yaml:"model_path"`
	TokenizerPath string `yaml:"tokenizer_path"`
	LibraryPath   string `yaml:"library_path"`
}

type GeneratorConfig struct {
	// Provider is none, anthropic or ollama.
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	Host      string `yaml:"host"`
	MaxTokens int64  `yaml:"max_tokens"`

	// APIKey is read from the environment only.
	APIKey string `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir: DataDir(),
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8420",
			ShutdownTimeout: 5 * time.Second,
		},
		Memory: MemoryConfig{
			Enabled:        true,
			HalfLife:       memory.DefaultHalfLife,
			DefaultResults: memory.DefaultResults,
			TimeWeight:     memory.DefaultTimeWeight,
			AgentName:      memory.DefaultAgentName,
		},
		Embedder: EmbedderConfig{
			Provider:   EmbedderMock,
			CacheBytes: 64 << 20,
		},
		Generator: GeneratorConfig{
			Provider: GeneratorNone,
		},
	}
}

// DataDir returns the default data directory for nim-memory.
// Windows: %LOCALAPPDATA%\nim-memory
// Linux/Mac: ~/.local/share/nim-memory
func DataDir() string {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return dir
	}
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "nim-memory")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "nim-memory")
}

// Load builds the configuration. path names a YAML file; when empty,
// $NIM_MEMORY_CONFIG and then <data dir>/config.yaml are tried, and a
// missing default file is not an error. Environment variables override
// the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if env := os.Getenv(EnvConfig); env != "" {
			path, explicit = env, true
		} else {
			path = filepath.Join(cfg.DataDir, FileName)
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, goerr.Wrap(err, "failed to parse config file", goerr.V("path", path))
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V("path", path))
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		c.DataDir = dir
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Log.Level = level
	}
	if p := os.Getenv(EnvEmbedder); p != "" {
		c.Embedder.Provider = p
	}
	if p := os.Getenv(EnvGenerator); p != "" {
		c.Generator.Provider = p
	}
	if host := os.Getenv(EnvOllama); host != "" {
		if c.Embedder.Host == "" {
			c.Embedder.Host = host
		}
		if c.Generator.Host == "" {
			c.Generator.Host = host
		}
	}
	c.Generator.APIKey = os.Getenv(EnvAnthropic)
}

// Validate checks provider names and numeric ranges.
func (c *Config) Validate() error {
	c.Embedder.Provider = strings.ToLower(c.Embedder.Provider)
	c.Generator.Provider = strings.ToLower(c.Generator.Provider)
	if c.Generator.Provider == "" {
		c.Generator.Provider = GeneratorNone
	}

	switch c.Embedder.Provider {
	case EmbedderMock, EmbedderOllama, EmbedderONNX:
	default:
		return goerr.Wrap(ErrInvalid, "unknown embedder provider", goerr.V("provider", c.Embedder.Provider))
	}
	if c.Embedder.Provider == EmbedderONNX && c.Embedder.ONNX.ModelPath == "" {
		return goerr.Wrap(ErrInvalid, "embedder.onnx.model_path is required for the onnx embedder")
	}

	switch c.Generator.Provider {
	case GeneratorNone, GeneratorAnthropic, GeneratorOllama:
	default:
		return goerr.Wrap(ErrInvalid, "unknown generator provider", goerr.V("provider", c.Generator.Provider))
	}

	if c.Memory.TimeWeight < 0 || c.Memory.TimeWeight > 1 {
		return goerr.Wrap(ErrInvalid, "memory.time_weight must be within [0, 1]", goerr.V("time_weight", c.Memory.TimeWeight))
	}
	if c.Memory.HalfLife < 0 {
		return goerr.Wrap(ErrInvalid, "memory.half_life must not be negative", goerr.V("half_life", c.Memory.HalfLife))
	}
	if c.DataDir == "" {
		return goerr.Wrap(ErrInvalid, "data_dir is empty")
	}
	return nil
}

// MemoryDir returns the directory holding the vector collections' parent.
func (c *Config) MemoryDir() string {
	return filepath.Join(c.DataDir, "memory")
}

// EnsureDirs creates the data directories if they don't exist.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, c.MemoryDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return goerr.Wrap(err, "failed to create directory", goerr.V("dir", dir))
		}
	}
	return nil
}

// StoreConfig converts the memory section to a memory.Config.
func (c *Config) StoreConfig() memory.Config {
	mc := memory.DefaultConfig()
	mc.Enabled = c.Memory.Enabled
	if c.Memory.HalfLife > 0 {
		mc.HalfLife = c.Memory.HalfLife
	}
	if c.Memory.DefaultResults > 0 {
		mc.DefaultResults = c.Memory.DefaultResults
	}
	mc.TimeWeight = c.Memory.TimeWeight
	if c.Memory.AgentName != "" {
		mc.AgentName = c.Memory.AgentName
	}
	return mc
}
