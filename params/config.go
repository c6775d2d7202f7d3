package params

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Gateway struct {
	Addr string
	// MaxConns bounds in-flight connection handlers. 0 disables the limit.
	MaxConns int64
	// ReadTimeout applies to the single read of each connection. 0 means no deadline.
	ReadTimeout   time.Duration
	DefaultSymbol string // symbol served by a bare "GET /orderbook"
}

type API struct {
	Addr        string // empty disables the HTTP API
	CORSOrigins []string
}

type Audit struct {
	File     string
	Truncate bool // truncate File at startup
	Buffer   int  // capacity of the audit actor's inbox

	MatchDBPath string // pebble directory for matched records; empty disables

	KafkaBrokers []string // empty disables the kafka sink
	KafkaTopic   string
}

type LoadBot struct {
	Addr        string
	Symbol      string
	Bots        int
	Concurrency int
	Seed        int64 // 0 seeds from the wall clock

	// Optional pacing: pause Interval after every BatchSize orders.
	Interval  time.Duration
	BatchSize int
}

type Config struct {
	Gateway Gateway
	API     API
	Audit   Audit
	LoadBot LoadBot

	LogFile string
	Verbose bool
}

func Default() Config {
	return Config{
		Gateway: Gateway{
			Addr:          ":8080",
			MaxConns:      1024,
			DefaultSymbol: "AAPL",
		},
		API: API{
			Addr:        ":8081",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Audit: Audit{
			File:        "order_log.txt",
			Truncate:    true,
			Buffer:      4096,
			MatchDBPath: "data/matches",
			KafkaTopic:  "ome.audit",
		},
		LoadBot: LoadBot{
			Addr:        "127.0.0.1:8080",
			Symbol:      "AAPL",
			Bots:        10000,
			Concurrency: 256,
		},
		LogFile: "data/omed.log",
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment variables
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg.Gateway.Addr = getEnv("GATEWAY_ADDR", cfg.Gateway.Addr)
	cfg.Gateway.MaxConns = getInt64("GATEWAY_MAX_CONNS", cfg.Gateway.MaxConns)
	cfg.Gateway.ReadTimeout = getMillis("GATEWAY_READ_TIMEOUT_MS", cfg.Gateway.ReadTimeout)
	cfg.Gateway.DefaultSymbol = getEnv("QUERY_DEFAULT_SYMBOL", cfg.Gateway.DefaultSymbol)

	// API_ADDR may be set to an empty value on purpose to disable the HTTP API.
	if v, ok := os.LookupEnv("API_ADDR"); ok {
		cfg.API.Addr = v
	}
	cfg.API.CORSOrigins = getList("API_CORS_ORIGINS", cfg.API.CORSOrigins)

	cfg.Audit.File = getEnv("AUDIT_LOG_FILE", cfg.Audit.File)
	cfg.Audit.Truncate = getBool("AUDIT_TRUNCATE", cfg.Audit.Truncate)
	cfg.Audit.Buffer = int(getInt64("AUDIT_BUFFER", int64(cfg.Audit.Buffer)))
	if v, ok := os.LookupEnv("MATCH_DB_PATH"); ok {
		cfg.Audit.MatchDBPath = v
	}
	cfg.Audit.KafkaBrokers = getList("KAFKA_BROKERS", cfg.Audit.KafkaBrokers)
	cfg.Audit.KafkaTopic = getEnv("KAFKA_TOPIC", cfg.Audit.KafkaTopic)

	cfg.LoadBot.Addr = getEnv("LOADBOT_ADDR", cfg.LoadBot.Addr)
	cfg.LoadBot.Symbol = getEnv("LOADBOT_SYMBOL", cfg.LoadBot.Symbol)
	cfg.LoadBot.Bots = int(getInt64("LOADBOT_BOTS", int64(cfg.LoadBot.Bots)))
	cfg.LoadBot.Concurrency = int(getInt64("LOADBOT_CONCURRENCY", int64(cfg.LoadBot.Concurrency)))
	cfg.LoadBot.Seed = getInt64("LOADBOT_SEED", cfg.LoadBot.Seed)
	cfg.LoadBot.Interval = getMillis("LOADBOT_INTERVAL_MS", cfg.LoadBot.Interval)
	cfg.LoadBot.BatchSize = int(getInt64("LOADBOT_BATCH", int64(cfg.LoadBot.BatchSize)))

	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)
	cfg.Verbose = getBool("VERBOSE", cfg.Verbose)

	return cfg
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt64(key string, defaultValue int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getMillis(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

// getList splits a comma-separated variable, dropping blanks.
func getList(key string, defaultValue []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
