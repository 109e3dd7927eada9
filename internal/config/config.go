package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Modes for the buyer submission client.
const (
	ModeMock = "mock"
	ModeLive = "live"
)

// Duration wraps time.Duration so yaml values like "10s" parse.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config models leadline.yml.
type Config struct {
	Buyer struct {
		Endpoint  string   `yaml:"endpoint"`
		Mode      string   `yaml:"mode"`
		Timeout   Duration `yaml:"timeout"`
		MockDelay Duration `yaml:"mock_delay"`
	} `yaml:"buyer"`
	Lead struct {
		SourcePrefix string `yaml:"source_prefix"`
		PubID        string `yaml:"pub_id"`
		IsTest       bool   `yaml:"is_test"`
	} `yaml:"lead"`
	Transfer struct {
		DID string `yaml:"did"`
	} `yaml:"transfer"`
}

// Load reads and validates config from the workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create it with leadline config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns the default config if the file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	switch c.Buyer.Mode {
	case ModeMock, ModeLive:
	default:
		return fmt.Errorf("buyer.mode must be %q or %q", ModeMock, ModeLive)
	}
	if c.Buyer.Mode == ModeLive {
		if c.Buyer.Endpoint == "" {
			return fmt.Errorf("buyer.endpoint is required in live mode")
		}
		if _, err := url.ParseRequestURI(c.Buyer.Endpoint); err != nil {
			return fmt.Errorf("buyer.endpoint is not a valid URL: %w", err)
		}
	}
	if c.Buyer.Timeout <= 0 {
		return fmt.Errorf("buyer.timeout must be positive")
	}
	if c.Lead.SourcePrefix == "" {
		return fmt.Errorf("lead.source_prefix is required")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "leadline.yml")
}

// Default returns the built-in config.
func Default() *Config {
	var cfg Config
	_ = yaml.Unmarshal([]byte(defaultTemplate), &cfg)
	return &cfg
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `buyer:
  endpoint: https://display.ringba.com/enrich/263344012027051643
  mode: mock
  timeout: 10s
  mock_delay: 300ms

lead:
  source_prefix: CC
  pub_id: CCBFTX
  is_test: false

transfer:
  did: 833-715-6010
`
