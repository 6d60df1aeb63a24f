package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"gopkg.in/yaml.v3"
)

const ConfigFileName = ".ethfaucet.json"

// Environment overrides applied on top of the file.
const (
	EnvProviderURL = "ETH_PROVIDER_URL"
	EnvPrivateKey  = "FAUCET_PRIVATE_KEY"
	EnvLogLevel    = "FAUCET_LOG_LEVEL"
)

// Config holds every setting of the client.
type Config struct {
	// ProviderURLs are the wallet endpoints tried by discovery, in order.
	ProviderURLs []string `json:"provider_urls" yaml:"provider_urls"`
	// PrivateKey, when set, turns the client into its own wallet.
	PrivateKey string `json:"private_key,omitempty" yaml:"private_key,omitempty"`
	// ChainID is the last chain id observed by the check command.
	ChainID int64 `json:"chain_id,omitempty" yaml:"chain_id,omitempty"`

	ContractName         string `json:"contract_name" yaml:"contract_name"`
	ArtifactsDir         string `json:"artifacts_dir" yaml:"artifacts_dir"`
	ArtifactCacheSeconds int    `json:"artifact_cache_seconds" yaml:"artifact_cache_seconds"`
	DepositMethod        string `json:"deposit_method" yaml:"deposit_method"`
	WithdrawMethod       string `json:"withdraw_method" yaml:"withdraw_method"`

	// Amounts are decimal ether strings.
	DepositAmount  string `json:"deposit_amount" yaml:"deposit_amount"`
	WithdrawAmount string `json:"withdraw_amount" yaml:"withdraw_amount"`

	ConfirmTransactions bool `json:"confirm_transactions" yaml:"confirm_transactions"`
	ReceiptPollSeconds  int  `json:"receipt_poll_seconds" yaml:"receipt_poll_seconds"`
	EventPollSeconds    int  `json:"event_poll_seconds" yaml:"event_poll_seconds"`

	RPCTimeoutSeconds int     `json:"rpc_timeout_seconds" yaml:"rpc_timeout_seconds"`
	RPCRateLimit      float64 `json:"rpc_rate_limit" yaml:"rpc_rate_limit"`
	RPCBurst          int     `json:"rpc_burst" yaml:"rpc_burst"`

	LogLevel    string `json:"log_level" yaml:"log_level"`
	LogFile     string `json:"log_file" yaml:"log_file"`
	ListenAddr  string `json:"listen_addr" yaml:"listen_addr"`
	HistorySize int    `json:"history_size" yaml:"history_size"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		ProviderURLs:         []string{"http://127.0.0.1:7545", "http://127.0.0.1:8545"},
		ContractName:         "Faucet",
		ArtifactsDir:         "build/contracts",
		ArtifactCacheSeconds: 300,
		DepositMethod:        "addFunds",
		WithdrawMethod:       "withdraw",
		DepositAmount:        "1",
		WithdrawAmount:       "0.1",
		ConfirmTransactions:  true,
		ReceiptPollSeconds:   1,
		EventPollSeconds:     2,
		RPCTimeoutSeconds:    10,
		RPCRateLimit:         20,
		RPCBurst:             5,
		LogLevel:             "info",
		LogFile:              "~/.ethfaucet.log",
		ListenAddr:           ":8080",
		HistorySize:          60,
	}
}

func GetConfigPath(customPath string) (string, error) {
	if customPath != "" {
		return customPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigFileName), nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func LoadConfigFromFile(path string) (Config, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, err
	}
	defer func() { _ = f.Close() }()
	if isYAML(path) {
		return LoadYAML(f)
	}
	return LoadConfig(f)
}

// fileConfig mirrors Config with pointers so absent keys keep their defaults.
type fileConfig struct {
	ProviderURLs         []string `json:"provider_urls" yaml:"provider_urls"`
	RPCURL               string   `json:"rpc_url" yaml:"rpc_url"` // Legacy single endpoint
	PrivateKey           *string  `json:"private_key" yaml:"private_key"`
	ChainID              *int64   `json:"chain_id" yaml:"chain_id"`
	ContractName         *string  `json:"contract_name" yaml:"contract_name"`
	ArtifactsDir         *string  `json:"artifacts_dir" yaml:"artifacts_dir"`
	ArtifactCacheSeconds *int     `json:"artifact_cache_seconds" yaml:"artifact_cache_seconds"`
	DepositMethod        *string  `json:"deposit_method" yaml:"deposit_method"`
	WithdrawMethod       *string  `json:"withdraw_method" yaml:"withdraw_method"`
	DepositAmount        *string  `json:"deposit_amount" yaml:"deposit_amount"`
	WithdrawAmount       *string  `json:"withdraw_amount" yaml:"withdraw_amount"`
	ConfirmTransactions  *bool    `json:"confirm_transactions" yaml:"confirm_transactions"`
	ReceiptPollSeconds   *int     `json:"receipt_poll_seconds" yaml:"receipt_poll_seconds"`
	EventPollSeconds     *int     `json:"event_poll_seconds" yaml:"event_poll_seconds"`
	RPCTimeoutSeconds    *int     `json:"rpc_timeout_seconds" yaml:"rpc_timeout_seconds"`
	RPCRateLimit         *float64 `json:"rpc_rate_limit" yaml:"rpc_rate_limit"`
	RPCBurst             *int     `json:"rpc_burst" yaml:"rpc_burst"`
	LogLevel             *string  `json:"log_level" yaml:"log_level"`
	LogFile              *string  `json:"log_file" yaml:"log_file"`
	ListenAddr           *string  `json:"listen_addr" yaml:"listen_addr"`
	HistorySize          *int     `json:"history_size" yaml:"history_size"`
}

func LoadConfig(r io.Reader) (Config, error) {
	var fc fileConfig
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return Config{}, err
	}
	return fc.resolve(), nil
}

func LoadYAML(r io.Reader) (Config, error) {
	var fc fileConfig
	if err := yaml.NewDecoder(r).Decode(&fc); err != nil && err != io.EOF {
		return Config{}, err
	}
	return fc.resolve(), nil
}

func (fc fileConfig) resolve() Config {
	cfg := Default()

	// Migration for legacy config
	if len(fc.ProviderURLs) == 0 && fc.RPCURL != "" {
		fc.ProviderURLs = []string{fc.RPCURL}
	}
	if len(fc.ProviderURLs) > 0 {
		cfg.ProviderURLs = fc.ProviderURLs
	}

	setString(&cfg.PrivateKey, fc.PrivateKey)
	setString(&cfg.ContractName, fc.ContractName)
	setString(&cfg.ArtifactsDir, fc.ArtifactsDir)
	setString(&cfg.DepositMethod, fc.DepositMethod)
	setString(&cfg.WithdrawMethod, fc.WithdrawMethod)
	setString(&cfg.DepositAmount, fc.DepositAmount)
	setString(&cfg.WithdrawAmount, fc.WithdrawAmount)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.LogFile, fc.LogFile)
	setString(&cfg.ListenAddr, fc.ListenAddr)
	setInt(&cfg.ArtifactCacheSeconds, fc.ArtifactCacheSeconds)
	setInt(&cfg.ReceiptPollSeconds, fc.ReceiptPollSeconds)
	setInt(&cfg.EventPollSeconds, fc.EventPollSeconds)
	setInt(&cfg.RPCTimeoutSeconds, fc.RPCTimeoutSeconds)
	setInt(&cfg.RPCBurst, fc.RPCBurst)
	setInt(&cfg.HistorySize, fc.HistorySize)
	if fc.ChainID != nil {
		cfg.ChainID = *fc.ChainID
	}
	if fc.RPCRateLimit != nil {
		cfg.RPCRateLimit = *fc.RPCRateLimit
	}
	if fc.ConfirmTransactions != nil {
		cfg.ConfirmTransactions = *fc.ConfirmTransactions
	}
	return cfg
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// ApplyEnv overlays the environment on cfg. The provider URL from the
// environment is tried before the configured ones.
func ApplyEnv(cfg Config, getenv func(string) string) Config {
	if url := strings.TrimSpace(getenv(EnvProviderURL)); url != "" {
		urls := []string{url}
		for _, u := range cfg.ProviderURLs {
			if u != url {
				urls = append(urls, u)
			}
		}
		cfg.ProviderURLs = urls
	}
	if key := strings.TrimSpace(getenv(EnvPrivateKey)); key != "" {
		cfg.PrivateKey = key
	}
	if level := strings.TrimSpace(getenv(EnvLogLevel)); level != "" {
		cfg.LogLevel = level
	}
	return cfg
}

// Validate reports the first structural problem in cfg.
func Validate(cfg Config) error {
	if len(cfg.ProviderURLs) == 0 {
		return fmt.Errorf("validation failed: configuration must have at least one provider URL")
	}
	for i, u := range cfg.ProviderURLs {
		if strings.TrimSpace(u) == "" {
			return fmt.Errorf("validation failed: provider URL at index %d is empty", i)
		}
	}
	if strings.TrimSpace(cfg.ContractName) == "" {
		return fmt.Errorf("validation failed: contract name is empty")
	}
	if strings.TrimSpace(cfg.ArtifactsDir) == "" {
		return fmt.Errorf("validation failed: artifacts directory is empty")
	}
	if key := strings.TrimSpace(cfg.PrivateKey); key != "" {
		if _, err := crypto.HexToECDSA(strings.TrimPrefix(key, "0x")); err != nil {
			return fmt.Errorf("validation failed: private key: %w", err)
		}
	}
	return nil
}

func SaveConfig(cfg Config, path string) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err = enc.Encode(cfg); err == nil {
			err = enc.Close()
		}
		data = buf.Bytes()
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}

	if len(data) == 0 {
		return fmt.Errorf("validation failed: encoded configuration is empty")
	}

	// Create a backup of the existing file
	if _, err := os.Stat(path); err == nil {
		backupPath := fmt.Sprintf("%s.%s.bak", path, time.Now().Format("20060102-150405"))
		input, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read existing config for backup: %w", err)
		}
		if err := os.WriteFile(backupPath, input, 0600); err != nil {
			return fmt.Errorf("failed to write backup config: %w", err)
		}
	}

	// The file may hold a private key.
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func RestoreLastBackup(configPath string) error {
	matches, err := filepath.Glob(configPath + ".*.bak")
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return fmt.Errorf("no backup files found")
	}
	sort.Strings(matches)
	lastBackup := matches[len(matches)-1]

	data, err := os.ReadFile(lastBackup)
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0600)
}
