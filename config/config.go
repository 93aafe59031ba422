package config

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the daemon configuration persisted as TOML. Amounts are decimal
// strings so they survive any token denomination without integer overflow.
type Config struct {
	DataDir        string `toml:"DataDir"`
	MetricsAddress string `toml:"MetricsAddress"`
	Environment    string `toml:"Environment"`

	Admin         string `toml:"Admin"`
	Token         string `toml:"Token"`
	RewardRateBps uint64 `toml:"RewardRateBps"`
	MinStake      string `toml:"MinStake"`
}

// Load loads the configuration from the given path, creating a default file
// on first run.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the loaded values without touching the filesystem.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("DataDir must not be empty")
	}
	if _, err := c.AdminAddress(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Token) == "" {
		return fmt.Errorf("Token must not be empty")
	}
	if c.RewardRateBps > 10_000 {
		return fmt.Errorf("RewardRateBps must not exceed 10000, got %d", c.RewardRateBps)
	}
	if _, err := c.MinStakeAmount(); err != nil {
		return err
	}
	return nil
}

// AdminAddress decodes the configured admin as a twenty-byte hex address. A
// 0x prefix is accepted.
func (c *Config) AdminAddress() ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(c.Admin), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("Admin is not valid hex: %w", err)
	}
	if len(raw) != len(addr) {
		return addr, fmt.Errorf("Admin must be %d bytes, got %d", len(addr), len(raw))
	}
	copy(addr[:], raw)
	return addr, nil
}

// MinStakeAmount parses the configured minimum stake as a non-negative
// integer amount.
func (c *Config) MinStakeAmount() (*big.Int, error) {
	trimmed := strings.TrimSpace(c.MinStake)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("MinStake is not a decimal integer: %q", c.MinStake)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("MinStake must not be negative: %q", c.MinStake)
	}
	return amount, nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		DataDir:        "./stakevault-data",
		MetricsAddress: ":9090",
		Environment:    "local",
		Admin:          "0x" + strings.Repeat("00", 20),
		Token:          "SVT",
		RewardRateBps:  1200,
		MinStake:       "100",
	}
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
