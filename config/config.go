package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingStorageConfig is returned by Load when the selected storage
// backend has no usable credentials or destination.
var ErrMissingStorageConfig = errors.New("storage backend not configured")

// Storage backend names accepted in STORAGE_BACKEND.
const (
	BackendS3    = "s3"
	BackendGCS   = "gcs"
	BackendSFTP  = "sftp"
	BackendLocal = "local"
)

type S3Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	Endpoint        string // optional, for S3-compatible stores
}

type GCSConfig struct {
	Bucket          string
	CredentialsFile string // optional, application default credentials otherwise
}

type SFTPConfig struct {
	Host       string
	Port       string
	User       string
	Password   string
	PrivateKey string // base64 or raw PEM
	RemoteDir  string
}

// Config is the process-wide configuration. It is loaded once in main and
// passed by value afterwards; nothing mutates it at runtime.
type Config struct {
	Port string

	StorageBackend string
	S3             S3Config
	GCS            GCSConfig
	SFTP           SFTPConfig
	PublicBaseURL  string // prefix for URLs of sftp/local uploads
	ServeDir       string

	WebhookSecret  string
	WebhookTimeout time.Duration

	ManimBin      string
	FFmpegBin     string
	FFprobeBin    string
	RenderTimeout time.Duration

	MaxConcurrentRenders int
	RenderQueueSize      int

	DataDir  string
	LogLevel string
	LogFile  string
}

// Load reads an optional .env file and then the process environment.
// A missing .env file is not an error.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// LoadWithoutStorage is Load for commands that never upload, such as a
// local render. Storage settings are read but not required.
func LoadWithoutStorage() (Config, error) {
	_ = godotenv.Load()
	return fromEnv(false)
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (Config, error) {
	return fromEnv(true)
}

func fromEnv(requireStorage bool) (Config, error) {
	cfg := Config{
		Port:           env("PORT", "8000"),
		StorageBackend: strings.ToLower(env("STORAGE_BACKEND", BackendS3)),
		S3: S3Config{
			AccessKeyID:     env("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: env("AWS_SECRET_ACCESS_KEY", ""),
			Region:          env("AWS_REGION", "us-east-1"),
			Bucket:          env("AWS_S3_BUCKET_NAME", ""),
			Endpoint:        strings.TrimRight(env("AWS_S3_ENDPOINT", ""), "/"),
		},
		GCS: GCSConfig{
			Bucket:          env("GCS_BUCKET", ""),
			CredentialsFile: env("GCS_CREDENTIALS_FILE", ""),
		},
		SFTP: SFTPConfig{
			Host:       env("SFTP_HOST", ""),
			Port:       env("SFTP_PORT", "22"),
			User:       env("SFTP_USER", ""),
			Password:   env("SFTP_PASSWORD", ""),
			PrivateKey: env("SFTP_PRIVATE_KEY", ""),
			RemoteDir:  env("SFTP_REMOTE_DIR", ""),
		},
		PublicBaseURL: strings.TrimRight(env("PUBLIC_BASE_URL", ""), "/"),
		ServeDir:      GetServeDir(),
		WebhookSecret: env("WEBHOOK_SECRET", ""),
		ManimBin:      env("MANIM_BIN", "manim"),
		FFmpegBin:     env("FFMPEG_BIN", "ffmpeg"),
		FFprobeBin:    env("FFPROBE_BIN", "ffprobe"),
		DataDir:       GetDataDir(),
		LogLevel:      env("LOG_LEVEL", "info"),
		LogFile:       env("LOG_FILE", ""),
	}

	var err error
	if cfg.RenderTimeout, err = envDuration("RENDER_TIMEOUT", 60*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.WebhookTimeout, err = envDuration("WEBHOOK_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.MaxConcurrentRenders, err = envInt("MAX_CONCURRENT_RENDERS", 2); err != nil {
		return Config{}, err
	}
	if cfg.RenderQueueSize, err = envInt("RENDER_QUEUE_SIZE", 16); err != nil {
		return Config{}, err
	}

	if requireStorage {
		if err := cfg.validateStorage(); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

func (c Config) validateStorage() error {
	switch c.StorageBackend {
	case BackendS3:
		if c.S3.AccessKeyID == "" || c.S3.SecretAccessKey == "" || c.S3.Bucket == "" {
			return fmt.Errorf("%w: AWS credentials or bucket name not configured", ErrMissingStorageConfig)
		}
	case BackendGCS:
		if c.GCS.Bucket == "" {
			return fmt.Errorf("%w: GCS_BUCKET is required", ErrMissingStorageConfig)
		}
	case BackendSFTP:
		if c.SFTP.Host == "" || c.SFTP.User == "" || c.SFTP.RemoteDir == "" {
			return fmt.Errorf("%w: SFTP_HOST, SFTP_USER and SFTP_REMOTE_DIR are required", ErrMissingStorageConfig)
		}
		if c.SFTP.Password == "" && c.SFTP.PrivateKey == "" {
			return fmt.Errorf("%w: set SFTP_PASSWORD or SFTP_PRIVATE_KEY", ErrMissingStorageConfig)
		}
		if c.PublicBaseURL == "" {
			return fmt.Errorf("%w: PUBLIC_BASE_URL is required for sftp", ErrMissingStorageConfig)
		}
	case BackendLocal:
		if c.ServeDir == "" {
			return fmt.Errorf("%w: MANIMSERVE_SERVE_DIR is empty", ErrMissingStorageConfig)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrMissingStorageConfig, c.StorageBackend)
	}
	return nil
}

// env returns the trimmed value of key, or def when unset or blank.
func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	raw := env(key, "")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s=%q: want a positive integer", key, raw)
	}
	return n, nil
}

// envDuration accepts Go durations ("90s") or a bare number of seconds.
func envDuration(key string, def time.Duration) (time.Duration, error) {
	raw := env(key, "")
	if raw == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s=%q: want a positive duration", key, raw)
	}
	return d, nil
}
