package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"k8s.io/apimachinery/pkg/api/resource"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Model    ModelConfig
	Detector DetectorConfig
	ONNX     ONNXConfig
	Upstream UpstreamConfig
	Upload   UploadConfig
	Render   RenderConfig
	CORS     CORSConfig
	History  HistoryConfig
	Database DatabaseConfig
}

type ServerConfig struct {
	Host string
	Port int
	// Zero timeouts leave the server unbounded.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LoggerConfig struct {
	Level  string
	Format string
}

type ModelConfig struct {
	DefaultPath string
	TempDir     string
	ClassNames  []string
}

type DetectorConfig struct {
	Backend        string
	InputSize      int
	MaxConcurrency int
}

type ONNXConfig struct {
	LibraryPath    string
	IntraOpThreads int
}

type UpstreamConfig struct {
	URL     string
	Timeout time.Duration
}

type UploadConfig struct {
	MaxSize int64
}

type RenderConfig struct {
	JPEGQuality int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type HistoryConfig struct {
	MemoryCapacity int
}

type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

const (
	BackendONNX   = "onnx"
	BackendOpenCV = "opencv"
	BackendRemote = "remote"
)

func Load() (*Config, error) {
	// A missing .env is fine; the environment alone is enough.
	_ = godotenv.Load()

	v := viper.New()

	// Defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 5001)
	v.SetDefault("SERVER_READ_TIMEOUT", "0s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "0s")
	v.SetDefault("LOGGER_LEVEL", "info")
	v.SetDefault("LOGGER_FORMAT", "json")
	v.SetDefault("MODEL_DEFAULT_PATH", "./models/best.onnx")
	v.SetDefault("MODEL_TEMP_DIR", "")
	v.SetDefault("MODEL_CLASS_NAMES", "")
	v.SetDefault("DETECTOR_BACKEND", BackendONNX)
	v.SetDefault("DETECTOR_INPUT_SIZE", 640)
	v.SetDefault("DETECTOR_MAX_CONCURRENCY", 0)
	v.SetDefault("ONNX_LIBRARY_PATH", "")
	v.SetDefault("ONNX_INTRA_OP_THREADS", 0)
	v.SetDefault("UPSTREAM_URL", "http://localhost:5000")
	v.SetDefault("UPSTREAM_TIMEOUT", "2m")
	v.SetDefault("UPLOAD_MAX_SIZE", "64Mi")
	v.SetDefault("RENDER_JPEG_QUALITY", 90)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("HISTORY_MEMORY_CAPACITY", 1000)
	v.SetDefault("DATABASE_ENABLED", false)
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", 5432)
	v.SetDefault("DATABASE_USER", "postgres")
	v.SetDefault("DATABASE_PASSWORD", "")
	v.SetDefault("DATABASE_NAME", "detection")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 10)
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 2)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", "30m")

	// Env
	v.AutomaticEnv()

	backend := strings.ToLower(strings.TrimSpace(v.GetString("DETECTOR_BACKEND")))
	switch backend {
	case BackendONNX, BackendOpenCV, BackendRemote:
	default:
		return nil, fmt.Errorf("unknown DETECTOR_BACKEND %q", backend)
	}

	origins := splitList(v.GetString("CORS_ALLOWED_ORIGINS"))
	for _, o := range origins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return nil, fmt.Errorf("CORS_ALLOWED_ORIGINS: origin %q needs an http or https scheme", o)
		}
	}

	maxSize, err := parseSize(v.GetString("UPLOAD_MAX_SIZE"))
	if err != nil {
		return nil, fmt.Errorf("UPLOAD_MAX_SIZE: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:         v.GetString("SERVER_HOST"),
			Port:         v.GetInt("SERVER_PORT"),
			ReadTimeout:  parseDuration(v.GetString("SERVER_READ_TIMEOUT"), 0),
			WriteTimeout: parseDuration(v.GetString("SERVER_WRITE_TIMEOUT"), 0),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOGGER_LEVEL"),
			Format: v.GetString("LOGGER_FORMAT"),
		},
		Model: ModelConfig{
			DefaultPath: v.GetString("MODEL_DEFAULT_PATH"),
			TempDir:     v.GetString("MODEL_TEMP_DIR"),
			ClassNames:  splitNames(v.GetString("MODEL_CLASS_NAMES")),
		},
		Detector: DetectorConfig{
			Backend:        backend,
			InputSize:      v.GetInt("DETECTOR_INPUT_SIZE"),
			MaxConcurrency: v.GetInt("DETECTOR_MAX_CONCURRENCY"),
		},
		ONNX: ONNXConfig{
			LibraryPath:    v.GetString("ONNX_LIBRARY_PATH"),
			IntraOpThreads: v.GetInt("ONNX_INTRA_OP_THREADS"),
		},
		Upstream: UpstreamConfig{
			URL:     v.GetString("UPSTREAM_URL"),
			Timeout: parseDuration(v.GetString("UPSTREAM_TIMEOUT"), 2*time.Minute),
		},
		Upload: UploadConfig{
			MaxSize: maxSize,
		},
		Render: RenderConfig{
			JPEGQuality: v.GetInt("RENDER_JPEG_QUALITY"),
		},
		CORS: CORSConfig{
			AllowedOrigins: origins,
		},
		History: HistoryConfig{
			MemoryCapacity: v.GetInt("HISTORY_MEMORY_CAPACITY"),
		},
		Database: DatabaseConfig{
			Enabled:         v.GetBool("DATABASE_ENABLED"),
			Host:            v.GetString("DATABASE_HOST"),
			Port:            v.GetInt("DATABASE_PORT"),
			User:            v.GetString("DATABASE_USER"),
			Password:        v.GetString("DATABASE_PASSWORD"),
			Name:            v.GetString("DATABASE_NAME"),
			SSLMode:         v.GetString("DATABASE_SSLMODE"),
			MaxOpenConns:    v.GetInt("DATABASE_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DATABASE_MAX_IDLE_CONNS"),
			ConnMaxLifetime: parseDuration(v.GetString("DATABASE_CONN_MAX_LIFETIME"), 30*time.Minute),
		},
	}

	return cfg, nil
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// parseSize accepts Kubernetes quantity syntax such as "64Mi" or "100M".
func parseSize(s string) (int64, error) {
	q, err := resource.ParseQuantity(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	size, ok := q.AsInt64()
	if !ok || size <= 0 {
		return 0, fmt.Errorf("size %q must be a positive integer number of bytes", s)
	}
	return size, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitNames keeps empty entries so each name stays at its class index.
func splitNames(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
