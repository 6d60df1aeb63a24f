package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Malformed(t *testing.T) {
	reader := strings.NewReader(`{ "provider_urls": [`)
	_, err := LoadConfig(reader)
	if err == nil {
		t.Error("Expected error loading malformed config, got nil")
	}
}

func TestLoadConfigFromFile_Missing(t *testing.T) {
	cfg, err := LoadConfigFromFile(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveConfig(t *testing.T) {
	tmpPath := filepath.Join(t.TempDir(), "config.json")

	cfg := Default()
	cfg.ProviderURLs = []string{"http://localhost:9545"}
	cfg.ContractName = "Tap"
	cfg.ConfirmTransactions = false
	cfg.ChainID = 1337

	if err := SaveConfig(cfg, tmpPath); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfigFromFile(tmpPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	assert.Equal(t, cfg, loaded)

	info, err := os.Stat(tmpPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestSaveConfig_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faucet.yaml")

	cfg := Default()
	cfg.WithdrawAmount = "0.25"
	require.NoError(t, SaveConfig(cfg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "withdraw_amount: \"0.25\"")

	loaded, err := LoadConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSaveConfig_BackupAndRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	first := Default()
	first.ContractName = "First"
	require.NoError(t, SaveConfig(first, path))

	second := Default()
	second.ContractName = "Second"
	require.NoError(t, SaveConfig(second, path))

	backups, err := filepath.Glob(path + ".*.bak")
	require.NoError(t, err)
	require.Len(t, backups, 1)

	require.NoError(t, RestoreLastBackup(path))
	restored, err := LoadConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "First", restored.ContractName)
}

func TestRestoreLastBackup_None(t *testing.T) {
	err := RestoreLastBackup(filepath.Join(t.TempDir(), "config.json"))
	assert.Error(t, err)
}

func TestLoadConfig_TableDriven(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		jsonContent string
		expectError bool
		validate    func(*testing.T, Config)
	}{
		{
			name: "Valid Full Config",
			jsonContent: `{
				"provider_urls": ["http://a", "http://b"],
				"contract_name": "Tap",
				"deposit_amount": "2",
				"confirm_transactions": false,
				"rpc_rate_limit": 2.5
			}`,
			validate: func(t *testing.T, cfg Config) {
				assert.Equal(t, []string{"http://a", "http://b"}, cfg.ProviderURLs)
				assert.Equal(t, "Tap", cfg.ContractName)
				assert.Equal(t, "2", cfg.DepositAmount)
				assert.False(t, cfg.ConfirmTransactions)
				assert.Equal(t, 2.5, cfg.RPCRateLimit)
			},
		},
		{
			name:        "Legacy Single RPC URL",
			jsonContent: `{"rpc_url": "http://legacy-rpc"}`,
			validate: func(t *testing.T, cfg Config) {
				assert.Equal(t, []string{"http://legacy-rpc"}, cfg.ProviderURLs)
			},
		},
		{
			name:        "Malformed JSON",
			jsonContent: `{ "provider_urls": [ unclosed_array`,
			expectError: true,
		},
		{
			name:        "Partial Config (Defaults)",
			jsonContent: `{"contract_name": "Faucet"}`,
			validate: func(t *testing.T, cfg Config) {
				assert.Equal(t, "1", cfg.DepositAmount)
				assert.Equal(t, "0.1", cfg.WithdrawAmount)
				assert.True(t, cfg.ConfirmTransactions)
				assert.Equal(t, Default().ProviderURLs, cfg.ProviderURLs)
			},
		},
		{
			name:        "Explicit Zero Keeps Zero",
			jsonContent: `{"rpc_rate_limit": 0, "history_size": 0}`,
			validate: func(t *testing.T, cfg Config) {
				assert.Zero(t, cfg.RPCRateLimit)
				assert.Zero(t, cfg.HistorySize)
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg, err := LoadConfig(strings.NewReader(tt.jsonContent))

			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func TestLoadYAML_Empty(t *testing.T) {
	cfg, err := LoadYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvProviderURL: "http://127.0.0.1:8545",
		EnvPrivateKey:  "0xabc",
		EnvLogLevel:    "debug",
	}
	cfg := ApplyEnv(Default(), func(k string) string { return env[k] })

	assert.Equal(t, []string{"http://127.0.0.1:8545", "http://127.0.0.1:7545"}, cfg.ProviderURLs)
	assert.Equal(t, "0xabc", cfg.PrivateKey)
	assert.Equal(t, "debug", cfg.LogLevel)

	unchanged := ApplyEnv(Default(), func(string) string { return "" })
	assert.Equal(t, Default(), unchanged)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.NoError(t, Validate(cfg))

	cfg.ProviderURLs = nil
	assert.Error(t, Validate(cfg))

	cfg = Default()
	cfg.ProviderURLs = []string{" "}
	assert.Error(t, Validate(cfg))

	cfg = Default()
	cfg.ContractName = ""
	assert.Error(t, Validate(cfg))

	cfg = Default()
	cfg.PrivateKey = "nothex"
	assert.ErrorContains(t, Validate(cfg), "private key")

	cfg.PrivateKey = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	assert.NoError(t, Validate(cfg))
}

func TestSession(t *testing.T) {
	cfg := Default()
	cfg.PrivateKey = "0xabc"
	cfg.ReceiptPollSeconds = 3

	sc, err := cfg.Session()
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", sc.DepositAmount.String())
	assert.Equal(t, "100000000000000000", sc.WithdrawAmount.String())
	assert.Equal(t, 3*time.Second, sc.ReceiptPollInterval)
	assert.Equal(t, "0xabc", sc.Discovery.PrivateKey)
	assert.Equal(t, 10*time.Second, sc.Discovery.Options.CallTimeout)
	assert.Equal(t, "addFunds", sc.Methods.Deposit)
	assert.NotNil(t, sc.Resolver)

	cfg.WithdrawAmount = "-1"
	_, err = cfg.Session()
	assert.Error(t, err)
}

func TestSaveConfig_PermissionError(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	tmpDir := t.TempDir()
	if err := os.Chmod(tmpDir, 0500); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chmod(tmpDir, 0700) }()

	err := SaveConfig(Default(), filepath.Join(tmpDir, "config.json"))
	if err == nil {
		t.Error("Expected permission error, got nil")
	}
}
