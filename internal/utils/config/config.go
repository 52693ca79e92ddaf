package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/dwarvesf/alph-swap-backend/internal/types/environments"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverEmbedded = "embedded"
	StoreDriverMemory   = "memory"
)

type AppConfig struct {
	Environment    environments.Environment
	ApiServer      ApiServerConfig
	Postgres       DBConnection
	Store          StoreConfig
	Alephium       AlephiumConfig
	Swap           SwapConfig
	Jobs           JobsConfig
	Vault          VaultConfig
	UptimeWebhooks UptimeWebhooksConfig
}

type ApiServerConfig struct {
	Port           string
	AllowedOrigins string
}

type DBConnection struct {
	Host string
	Port string
	User string
	Name string
	Pass string

	SSLMode string
}

type StoreConfig struct {
	Driver      string
	AutoMigrate bool
}

type AlephiumConfig struct {
	NodeURL        string
	NodeAPIKey     string
	WalletName     string
	WalletPassword string
	FaucetAddress  string
	RequestTimeout time.Duration
}

type SwapConfig struct {
	DepositAddress              string
	Tokens                      []TokenConfig
	DepositMinConfirmations     int
	FulfillmentMinConfirmations int
	DepositTimeout              time.Duration
	FulfillmentTimeout          time.Duration
	ClaimTimeout                time.Duration
	// attoALPH attached to every token output to satisfy the dust rule
	DustAmountAtto  string
	BalanceCacheTTL time.Duration
	JobBatchSize    int
}

// TokenConfig describes one target token a user may swap ALPH for.
type TokenConfig struct {
	Symbol   string
	TokenID  string
	Rate     decimal.Decimal
	Decimals int32
}

type JobsConfig struct {
	DepositWatchInterval time.Duration
	FulfillmentInterval  time.Duration
	MetricsInterval      time.Duration
}

type VaultConfig struct {
	Addr              string
	KVSecretPath      string
	Role              string
	WalletPasswordKey string
}

type UptimeWebhooksConfig struct {
	WatchDepositsURL       string
	ProcessFulfillmentsURL string
}

func New() *AppConfig {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// this will not override env variables if they already exist
	godotenv.Load(".env." + env)

	tokens, err := ParseTokens(os.Getenv("SWAP_TOKENS"))
	if err != nil {
		panic(err)
	}

	return &AppConfig{
		Environment: environments.Parse(env),
		ApiServer: ApiServerConfig{
			Port:           envOrDefault("PORT", "8080"),
			AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
		},
		Postgres: DBConnection{
			Host:    os.Getenv("DB_HOST"),
			Port:    os.Getenv("DB_PORT"),
			User:    os.Getenv("DB_USER"),
			Name:    os.Getenv("DB_NAME"),
			Pass:    os.Getenv("DB_PASS"),
			SSLMode: envOrDefault("DB_SSL_MODE", "disable"),
		},
		Store: StoreConfig{
			Driver:      envOrDefault("STORE_DRIVER", StoreDriverPostgres),
			AutoMigrate: envVarAsBool("DB_AUTO_MIGRATE"),
		},
		Alephium: AlephiumConfig{
			NodeURL:        envOrDefault("ALEPHIUM_NODE_URL", "http://127.0.0.1:22973"),
			NodeAPIKey:     os.Getenv("ALEPHIUM_NODE_API_KEY"),
			WalletName:     os.Getenv("ALEPHIUM_WALLET_NAME"),
			WalletPassword: os.Getenv("ALEPHIUM_WALLET_PASSWORD"),
			FaucetAddress:  os.Getenv("ALEPHIUM_FAUCET_ADDRESS"),
			RequestTimeout: envVarAsDuration("ALEPHIUM_REQUEST_TIMEOUT", 15*time.Second),
		},
		Swap: SwapConfig{
			DepositAddress:              os.Getenv("SWAP_DEPOSIT_ADDRESS"),
			Tokens:                      tokens,
			DepositMinConfirmations:     envVarAtoiOrDefault("SWAP_DEPOSIT_MIN_CONFIRMATIONS", 1),
			FulfillmentMinConfirmations: envVarAtoiOrDefault("SWAP_FULFILLMENT_MIN_CONFIRMATIONS", 1),
			DepositTimeout:              envVarAsDuration("SWAP_DEPOSIT_TIMEOUT", time.Hour),
			FulfillmentTimeout:          envVarAsDuration("SWAP_FULFILLMENT_TIMEOUT", 30*time.Minute),
			ClaimTimeout:                envVarAsDuration("SWAP_CLAIM_TIMEOUT", 10*time.Minute),
			DustAmountAtto:              envOrDefault("SWAP_DUST_AMOUNT_ATTO", "1000000000000000"),
			BalanceCacheTTL:             envVarAsDuration("SWAP_BALANCE_CACHE_TTL", 30*time.Second),
			JobBatchSize:                envVarAtoiOrDefault("SWAP_JOB_BATCH_SIZE", 100),
		},
		Jobs: JobsConfig{
			DepositWatchInterval: envVarAsDuration("JOB_DEPOSIT_WATCH_INTERVAL", time.Minute),
			FulfillmentInterval:  envVarAsDuration("JOB_FULFILLMENT_INTERVAL", time.Minute),
			MetricsInterval:      envVarAsDuration("JOB_METRICS_INTERVAL", 30*time.Second),
		},
		Vault: VaultConfig{
			Addr:              os.Getenv("VAULT_ADDR"),
			KVSecretPath:      os.Getenv("VAULT_KV_SECRET_PATH"),
			Role:              os.Getenv("VAULT_ROLE"),
			WalletPasswordKey: envOrDefault("VAULT_WALLET_PASSWORD_KEY", "alephium_wallet_password"),
		},
		UptimeWebhooks: UptimeWebhooksConfig{
			WatchDepositsURL:       os.Getenv("UPTIME_WEBHOOK_WATCH_DEPOSITS_URL"),
			ProcessFulfillmentsURL: os.Getenv("UPTIME_WEBHOOK_PROCESS_FULFILLMENTS_URL"),
		},
	}
}

// MaxTokenDecimals is the scale of amount_target_token NUMERIC(78, 18). Tokens
// with more decimals would be stored rounded.
const MaxTokenDecimals = 18

// ParseTokens reads SYMBOL:tokenId:rate:decimals entries separated by ";".
func ParseTokens(raw string) ([]TokenConfig, error) {
	tokens := []TokenConfig{}
	seen := map[string]bool{}
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.Split(entry, ":")
		if len(parts) != 4 {
			return nil, fmt.Errorf("invalid SWAP_TOKENS entry %q: want SYMBOL:tokenId:rate:decimals", entry)
		}

		symbol := strings.TrimSpace(parts[0])
		if symbol == "" || seen[symbol] {
			return nil, fmt.Errorf("invalid SWAP_TOKENS entry %q: empty or duplicated symbol", entry)
		}

		rate, err := decimal.NewFromString(strings.TrimSpace(parts[2]))
		if err != nil || !rate.IsPositive() {
			return nil, fmt.Errorf("invalid SWAP_TOKENS entry %q: rate must be a positive decimal", entry)
		}

		decimals, err := strconv.Atoi(strings.TrimSpace(parts[3]))
		if err != nil || decimals < 0 || decimals > MaxTokenDecimals {
			return nil, fmt.Errorf("invalid SWAP_TOKENS entry %q: decimals must be between 0 and %d", entry, MaxTokenDecimals)
		}

		seen[symbol] = true
		tokens = append(tokens, TokenConfig{
			Symbol:   symbol,
			TokenID:  strings.TrimSpace(parts[1]),
			Rate:     rate,
			Decimals: int32(decimals),
		})
	}

	return tokens, nil
}

func envOrDefault(envName, fallback string) string {
	if value := os.Getenv(envName); value != "" {
		return value
	}
	return fallback
}

func envVarAtoiOrDefault(envName string, fallback int) int {
	valueStr := os.Getenv(envName)
	if valueStr == "" {
		return fallback
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		panic(err)
	}

	return value
}

func envVarAsDuration(envName string, fallback time.Duration) time.Duration {
	valueStr := os.Getenv(envName)
	if valueStr == "" {
		return fallback
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		panic(err)
	}

	return value
}

func envVarAsBool(envName string) bool {
	valueStr := os.Getenv(envName)
	return valueStr == "true"
}
