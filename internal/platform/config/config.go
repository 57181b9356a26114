package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	liststr "siret-api/pkg/platform/strings"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Config is the full runtime configuration of the registry service and tools.
type Config struct {
	Server        Server
	Store         StoreConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Ingest        IngestConfig
	S3            S3Config
	Log           LogConfig
	AccessLogFile string
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
	// TrustedProxies are the only peers whose forwarding headers name the client.
	TrustedProxies  []netip.Prefix
}

// StoreConfig selects and locates the record store.
type StoreConfig struct {
	Driver          string
	DatabaseURL     string
	MongoURL        string
	MongoDatabase   string
	MongoCollection string
}

// RedisConfig configures the optional lookup cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// KafkaConfig configures change-event publishing. No brokers disables it.
type KafkaConfig struct {
	Brokers           []string
	Topic             string
	Partitions        int32
	ReplicationFactor int16
	PublishTimeout    time.Duration
}

// Enabled reports whether a broker list was configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// IngestConfig holds bulk load defaults.
type IngestConfig struct {
	Source         string
	ChunkSize      int
	ExpectedChunks int
	UniqueIndex    bool
}

// S3Config tunes the object storage client used for s3:// ingestion sources.
type S3Config struct {
	Region       string
	Endpoint     string
	UsePathStyle bool
}

// LogConfig selects the application log level and output format.
type LogConfig struct {
	Level  string
	Format string
}

// Defaults.
const (
	DefaultAddr            = ":8000"
	DefaultMongoURL        = "mongodb://localhost:27017/"
	DefaultMongoDatabase   = "companydb"
	DefaultMongoCollection = "corporate"
	DefaultAccessLogFile   = "siret_api_logs.log"
	DefaultChunkSize       = 1_000_000
	DefaultExpectedChunks  = 34
	DefaultKafkaTopic      = "company.changes"
)

// FromEnv builds a Config from environment variables, loading an optional .env
// file first. Malformed numeric or duration values are reported as errors.
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	p := &parser{}
	cfg := Config{
		Server: Server{
			Addr:            getEnv("SIRET_API_ADDR", DefaultAddr),
			ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
			RequestTimeout:  p.duration("REQUEST_TIMEOUT", 30*time.Second),
			TrustedProxies:  p.prefixes("TRUSTED_PROXIES"),
		},
		Store: StoreConfig{
			Driver:          strings.ToLower(getEnv("STORE_DRIVER", DriverMongo)),
			DatabaseURL:     os.Getenv("DATABASE_URL"),
			MongoURL:        getEnv("MONGO_URL", DefaultMongoURL),
			MongoDatabase:   getEnv("MONGO_DB", DefaultMongoDatabase),
			MongoCollection: getEnv("MONGO_COLLECTION", DefaultMongoCollection),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     p.int("REDIS_POOL_SIZE", 10),
			MinIdleConns: p.int("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  p.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  p.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: p.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			CacheTTL:     p.duration("CACHE_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:           liststr.SplitList(os.Getenv("KAFKA_BROKERS")),
			Topic:             getEnv("KAFKA_TOPIC", DefaultKafkaTopic),
			Partitions:        int32(p.int("KAFKA_TOPIC_PARTITIONS", 1)),
			ReplicationFactor: int16(p.int("KAFKA_TOPIC_REPLICATION", 1)),
			PublishTimeout:    p.duration("KAFKA_PUBLISH_TIMEOUT", 5*time.Second),
		},
		Ingest: IngestConfig{
			Source:         os.Getenv("INGEST_SOURCE"),
			ChunkSize:      p.int("INGEST_CHUNK_SIZE", DefaultChunkSize),
			ExpectedChunks: p.int("INGEST_EXPECTED_CHUNKS", DefaultExpectedChunks),
			UniqueIndex:    p.bool("INGEST_UNIQUE_INDEX", true),
		},
		S3: S3Config{
			Region:       os.Getenv("S3_REGION"),
			Endpoint:     os.Getenv("S3_ENDPOINT"),
			UsePathStyle: p.bool("S3_USE_PATH_STYLE", false),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		AccessLogFile: getEnv("ACCESS_LOG_FILE", DefaultAccessLogFile),
	}
	if p.err != nil {
		return Config{}, p.err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverMongo:
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s store", DriverPostgres)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Ingest.ChunkSize <= 0 {
		return fmt.Errorf("INGEST_CHUNK_SIZE must be positive, got %d", c.Ingest.ChunkSize)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parser keeps the first conversion error so FromEnv reads linearly.
type parser struct {
	err error
}

func (p *parser) int(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw, err)
		return fallback
	}
	return v
}

func (p *parser) bool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, raw, err)
		return fallback
	}
	return v
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, raw, err)
		return fallback
	}
	return v
}

// prefixes parses a comma separated list of CIDRs or bare addresses.
func (p *parser) prefixes(key string) []netip.Prefix {
	raw := os.Getenv(key)
	var out []netip.Prefix
	for _, item := range liststr.SplitList(raw) {
		if prefix, err := netip.ParsePrefix(item); err == nil {
			out = append(out, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(item)
		if err != nil {
			p.fail(key, raw, err)
			return nil
		}
		out = append(out, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
	}
	return out
}

func (p *parser) fail(key, raw string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s=%q: %w", key, raw, err)
	}
}
