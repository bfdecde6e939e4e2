package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Storage backends.
const (
	StorageBackendMinIO = "minio"
	StorageBackendLocal = "local"
)

type Config struct {
	Server   ServerConfig
	Media    MediaConfig
	Redis    RedisConfig
	MinIO    MinIOConfig
	Database DatabaseConfig
	RabbitMQ RabbitMQConfig
	Worker   WorkerConfig
}

type ServerConfig struct {
	Port            int           `envconfig:"API_PORT" default:"3001"`
	ReadTimeout     time.Duration `envconfig:"API_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"5m"`
	ShutdownTimeout time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"15s"`
	MaxUploadSize   int64         `envconfig:"API_MAX_UPLOAD_SIZE" default:"10485760"`
	CORSOrigins     []string      `envconfig:"API_CORS_ORIGINS" default:"*"`
}

type MediaConfig struct {
	CacheTTL          time.Duration `envconfig:"MEDIA_CACHE_TTL" default:"60s"`
	MaxCacheableSize  int64         `envconfig:"MEDIA_MAX_CACHEABLE_SIZE" default:"10485760"`
	BackgroundTimeout time.Duration `envconfig:"MEDIA_BACKGROUND_TIMEOUT" default:"30s"`
	ValidationWorkers int           `envconfig:"MEDIA_VALIDATION_WORKERS" default:"0"`
	ValidationQueue   int           `envconfig:"MEDIA_VALIDATION_QUEUE" default:"64"`
	StorageBackend    string        `envconfig:"MEDIA_STORAGE_BACKEND" default:"minio"`
	LocalDir          string        `envconfig:"MEDIA_LOCAL_DIR" default:"uploads"`
	EventsEnabled     bool          `envconfig:"EVENTS_ENABLED" default:"false"`
	CatalogEnabled    bool          `envconfig:"CATALOG_ENABLED" default:"false"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type MinIOConfig struct {
	Endpoint     string `envconfig:"MINIO_ENDPOINT" default:"localhost:9000"`
	AccessKey    string `envconfig:"MINIO_ACCESS_KEY" default:"minioadmin"`
	SecretKey    string `envconfig:"MINIO_SECRET_KEY" default:"minioadmin"`
	Bucket       string `envconfig:"MINIO_BUCKET" default:"videos"`
	UseSSL       bool   `envconfig:"MINIO_USE_SSL" default:"false"`
	CreateBucket bool   `envconfig:"MINIO_CREATE_BUCKET" default:"true"`
}

type DatabaseConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"mediacache"`
	Password string `envconfig:"POSTGRES_PASSWORD" default:"mediacache"`
	DBName   string `envconfig:"POSTGRES_DB" default:"mediacache"`
	SSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

type RabbitMQConfig struct {
	Host     string `envconfig:"RABBITMQ_HOST" default:"localhost"`
	Port     int    `envconfig:"RABBITMQ_PORT" default:"5672"`
	User     string `envconfig:"RABBITMQ_USER" default:"mediacache"`
	Password string `envconfig:"RABBITMQ_PASSWORD" default:"mediacache"`
	VHost    string `envconfig:"RABBITMQ_VHOST" default:"/"`
}

func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%d%s",
		c.User, c.Password, c.Host, c.Port, c.VHost,
	)
}

type WorkerConfig struct {
	MetricsPort     int           `envconfig:"WORKER_METRICS_PORT" default:"9091"`
	ShutdownTimeout time.Duration `envconfig:"WORKER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// Load reads an optional .env file, then the environment. Variables already
// set in the environment win over the file.
func Load() (*Config, error) {
	return LoadFrom(".env")
}

// LoadFrom is Load with an explicit dotenv path.
func LoadFrom(envFile string) (*Config, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Media.StorageBackend {
	case StorageBackendMinIO, StorageBackendLocal:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Media.StorageBackend)
	}
	if c.Server.MaxUploadSize <= 0 {
		return errors.New("max upload size must be positive")
	}
	if c.Media.CacheTTL <= 0 {
		return errors.New("cache TTL must be positive")
	}
	return nil
}
