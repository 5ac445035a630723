// Package config loads server configuration from flags, environment
// variables, a .env file, and a TOML collection-schema file. Grounded on
// cmd/server/main.go's getEnv/atoiDefault/atoi64Default helpers and its
// godotenv.Load-then-flag.Parse bootstrap sequence.
package config

import (
	"flag"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every flag/env-derived server setting.
type Config struct {
	HTTPAddr        string
	TCPAddr         string
	DataDir         string
	DefaultShards   int
	GracefulTimeout time.Duration
	SnapshotEvery   time.Duration
	PostgresDSN     string
	SchemaPath      string
}

// Load reads a .env file if present, then flags (which default from
// environment variables), and returns the resolved Config.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] no .env file found, relying on process environment")
	} else {
		log.Println("[config] loaded .env")
	}

	var (
		httpPort   = getEnv("HTTP_PORT", "8080")
		tcpPort    = getEnv("TCP_PORT", "9090")
		dataDir    = getEnv("DATA_DIR", "./data")
		shards     = getEnv("DEFAULT_SHARDS", "16")
		graceful   = getEnv("GRACEFUL_SHUTDOWN_SEC", "15")
		snapshot   = getEnv("SNAPSHOT_INTERVAL", "5m")
		postgres   = getEnv("POSTGRES_DSN", "postgres://localhost:5432/assoctable?sslmode=disable")
		schemaPath = getEnv("COLLECTIONS_SCHEMA", "./collections.toml")

		httpFlag     = flag.String("http-addr", ":"+httpPort, "admin HTTP listen address")
		tcpFlag      = flag.String("tcp-addr", ":"+tcpPort, "document-store TCP listen address")
		dataDirFlag  = flag.String("data-dir", dataDir, "on-disk data directory")
		shardsFlag   = flag.Int("default-shards", atoiDefault(shards, 16), "default shard count (not read by the server; schema entries without shards get 16)")
		gracefulFlag = flag.Int("graceful-shutdown-sec", atoiDefault(graceful, 15), "graceful shutdown timeout in seconds")
		snapshotFlag = flag.String("snapshot-interval", snapshot, "periodic slot-index snapshot interval")
		postgresFlag = flag.String("postgres-dsn", postgres, "catalog PostgreSQL DSN")
		schemaFlag   = flag.String("collections-schema", schemaPath, "path to the TOML collection-schema file")
	)

	flag.Parse()

	snapshotEvery, err := time.ParseDuration(*snapshotFlag)
	if err != nil {
		log.Printf("[config] invalid snapshot-interval %q, defaulting to 5m: %v", *snapshotFlag, err)
		snapshotEvery = 5 * time.Minute
	}

	return &Config{
		HTTPAddr:        *httpFlag,
		TCPAddr:         *tcpFlag,
		DataDir:         *dataDirFlag,
		DefaultShards:   *shardsFlag,
		GracefulTimeout: time.Duration(*gracefulFlag) * time.Second,
		SnapshotEvery:   snapshotEvery,
		PostgresDSN:     *postgresFlag,
		SchemaPath:      *schemaFlag,
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func atoiDefault(s string, defaultValue int) int {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return defaultValue
}
