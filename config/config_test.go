package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.FileExists(t, path)
	require.Equal(t, "SVT", cfg.Token)
	require.Equal(t, uint64(1200), cfg.RewardRateBps)
	require.NoError(t, cfg.Validate())

	// A second load reads the file back rather than regenerating it.
	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, reloaded)
}

func TestLoadExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `
DataDir = "/var/lib/stakevault"
MetricsAddress = ":9191"
Environment = "production"
Admin = "0x0102030405060708090a0b0c0d0e0f1011121314"
Token = "SVT"
RewardRateBps = 800
MinStake = "1000000"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/stakevault", cfg.DataDir)
	require.Equal(t, uint64(800), cfg.RewardRateBps)

	admin, err := cfg.AdminAddress()
	require.NoError(t, err)
	require.Equal(t, byte(0x01), admin[0])
	require.Equal(t, byte(0x14), admin[19])

	min, err := cfg.MinStakeAmount()
	require.NoError(t, err)
	require.Equal(t, "1000000", min.String())
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := Config{
		DataDir:        "./data",
		MetricsAddress: ":9090",
		Admin:          "0x" + strings.Repeat("00", 20),
		Token:          "SVT",
		RewardRateBps:  1200,
		MinStake:       "100",
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty data dir", func(c *Config) { c.DataDir = " " }},
		{"short admin", func(c *Config) { c.Admin = "0x0102" }},
		{"non-hex admin", func(c *Config) { c.Admin = "0xzz" + strings.Repeat("00", 19) }},
		{"empty token", func(c *Config) { c.Token = "" }},
		{"rate above 100 percent", func(c *Config) { c.RewardRateBps = 10_001 }},
		{"non-numeric min stake", func(c *Config) { c.MinStake = "lots" }},
		{"negative min stake", func(c *Config) { c.MinStake = "-5" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestMinStakeDefaultsToZero(t *testing.T) {
	cfg := Config{MinStake: ""}
	min, err := cfg.MinStakeAmount()
	require.NoError(t, err)
	require.Zero(t, min.Sign())
}
