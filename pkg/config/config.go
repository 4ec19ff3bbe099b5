// Package config handles configuration for the local server mode. Lambda
// deployments configure themselves from the environment instead (see
// pkg/aws).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
)

const DefaultServicePort = 3000

// CoreConfig contains the core settings for the local server
type CoreConfig struct {
	ServerPort int    `toml:"port" json:"port" mapstructure:"port"`
	PublicURL  string `toml:"public_url" json:"public_url" mapstructure:"public_url"`
}

// DirectoriesConfig contains file system paths for the local server
type DirectoriesConfig struct {
	DataDir string `toml:"data_dir" json:"data_dir" mapstructure:"data_dir"`
	TempDir string `toml:"temp_dir" json:"temp_dir" mapstructure:"temp_dir"`
}

// AuthConfig contains the shared secrets of the local server
type AuthConfig struct {
	// ExpectedToken is the bearer token callers must present. Required -
	// there is no default fallback, a missing value fails validation.
	ExpectedToken string `toml:"expected_token" json:"expected_token" mapstructure:"expected_token"`
	// SigningSecret is the secret key presigned URLs are signed with.
	SigningSecret string `toml:"signing_secret" json:"signing_secret" mapstructure:"signing_secret"`
}

// Node represents the full configuration for a local server
type Node struct {
	Core        CoreConfig        `toml:"core" json:"core" mapstructure:"core"`
	Directories DirectoriesConfig `toml:"directories" json:"directories" mapstructure:"directories"`
	Auth        AuthConfig        `toml:"auth" json:"auth" mapstructure:"auth"`
}

// LoadConfig handles the entire configuration loading process:
// flags > config file > defaults. The final configuration is validated.
func LoadConfig(cCtx *cli.Context) (*Node, error) {
	cfg := newDefault()

	configPath := cCtx.String("config")
	if configPath != "" {
		loadedCfg, err := load(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration from file: %w", err)
		}
		cfg = loadedCfg
	}

	if err := setupDefaultDirectories(cfg); err != nil {
		return nil, fmt.Errorf("failed to set up default directories: %w", err)
	}

	fromCLI(cCtx, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate performs validation on the configuration values and returns any
// errors. This can be called before using the configuration to ensure all
// required values are set.
func (cfg *Node) Validate() error {
	var errs error
	if cfg.Core.ServerPort <= 0 || cfg.Core.ServerPort > 65535 {
		errs = multierror.Append(errs, fmt.Errorf("invalid server port: %d, must be between 1 and 65535", cfg.Core.ServerPort))
	}

	if cfg.Directories.DataDir == "" {
		errs = multierror.Append(errs, fmt.Errorf("data directory path is required"))
	}
	if cfg.Directories.TempDir == "" {
		errs = multierror.Append(errs, fmt.Errorf("temporary directory path is required"))
	}

	if cfg.Auth.ExpectedToken == "" {
		errs = multierror.Append(errs, fmt.Errorf("expected token is required"))
	}
	if cfg.Auth.SigningSecret == "" {
		errs = multierror.Append(errs, fmt.Errorf("signing secret is required"))
	}

	return errs
}

// load reads the configuration from the given path, preserving default
// values for fields the file does not specify.
func load(path string) (*Node, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("config file path cannot be empty")
	}
	if stat, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file path does not exist: %s", path)
		}
		return nil, fmt.Errorf("failed to read config file at path %s: %w", path, err)
	} else if stat.IsDir() {
		return nil, fmt.Errorf("config file path points to a directory: %s", path)
	}

	v := viper.New()
	v.SetDefault("core.port", DefaultServicePort)
	v.SetDefault("core.public_url", fmt.Sprintf("http://localhost:%d", DefaultServicePort))

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := new(Node)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
	}

	return cfg, nil
}

func newDefault() *Node {
	return &Node{
		Core: CoreConfig{
			ServerPort: DefaultServicePort,
			PublicURL:  fmt.Sprintf("http://localhost:%d", DefaultServicePort),
		},
	}
}

// setupDefaultDirectories fills in platform defaults for unset directory
// paths and creates them.
func setupDefaultDirectories(cfg *Node) error {
	if cfg.Directories.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("determining home directory: %w", err)
		}
		cfg.Directories.DataDir = filepath.Join(home, ".video-delivery")
	}
	if cfg.Directories.TempDir == "" {
		cfg.Directories.TempDir = filepath.Join(os.TempDir(), "video-delivery")
	}

	for _, dir := range []string{cfg.Directories.DataDir, cfg.Directories.TempDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return nil
}

// fromCLI applies flag overrides to the configuration.
func fromCLI(cCtx *cli.Context, cfg *Node) {
	if cCtx.IsSet("port") {
		cfg.Core.ServerPort = cCtx.Int("port")
	}
	if cCtx.IsSet("public-url") {
		cfg.Core.PublicURL = cCtx.String("public-url")
	}
	if cCtx.IsSet("data-dir") {
		cfg.Directories.DataDir = cCtx.String("data-dir")
	}
	if cCtx.IsSet("tmp-dir") {
		cfg.Directories.TempDir = cCtx.String("tmp-dir")
	}
	if cCtx.IsSet("expected-token") {
		cfg.Auth.ExpectedToken = cCtx.String("expected-token")
	}
	if cCtx.IsSet("signing-secret") {
		cfg.Auth.SigningSecret = cCtx.String("signing-secret")
	}
}
