package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	S3      S3Config
	Minio   MinioConfig
	Upload  UploadConfig
	Poll    PollConfig
	Kafka   KafkaConfig
	CORS    CORSConfig
	Metrics MetricsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Environment     string        `mapstructure:"environment"`
}

// StorageConfig selects the object store backend.
type StorageConfig struct {
	Provider string `mapstructure:"provider"`
}

// Supported storage providers.
const (
	StorageProviderS3    = "s3"
	StorageProviderMinio = "minio"
)

// S3Config holds bucket names, region and credentials for the object store.
// The minio backend reuses the bucket names and credentials.
type S3Config struct {
	Region           string `mapstructure:"region"`
	UploadBucket     string `mapstructure:"upload_bucket"`
	ConvertedBucket  string `mapstructure:"converted_bucket"`
	Endpoint         string `mapstructure:"endpoint"`
	AccessKey        string `mapstructure:"access_key"`
	SecretKey        string `mapstructure:"secret_key"`
	ConvertedBaseURL string `mapstructure:"converted_base_url"`
}

// ConvertedURLBase returns the base URL under which converted objects are
// published. An explicit override wins; otherwise it is derived from the
// converted bucket, the region and the optional custom endpoint.
func (s *S3Config) ConvertedURLBase() string {
	if s.ConvertedBaseURL != "" {
		return strings.TrimRight(s.ConvertedBaseURL, "/")
	}
	if s.Endpoint != "" {
		return strings.TrimRight(s.Endpoint, "/") + "/" + s.ConvertedBucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", s.ConvertedBucket, s.Region)
}

// ConvertedURLBase returns the base URL of converted objects for the
// selected storage provider. The s3.converted_base_url override applies to
// both providers.
func (c *Config) ConvertedURLBase() string {
	if c.Storage.Provider != StorageProviderMinio || c.S3.ConvertedBaseURL != "" {
		return c.S3.ConvertedURLBase()
	}
	return c.Minio.URL() + "/" + c.S3.ConvertedBucket
}

// MinioConfig holds settings for S3-compatible stores reached through minio-go.
type MinioConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	UseSSL   bool   `mapstructure:"use_ssl"`
}

// URL returns the server URL minio-go derives from Endpoint and UseSSL.
func (m *MinioConfig) URL() string {
	scheme := "http"
	if m.UseSSL {
		scheme = "https"
	}
	return scheme + "://" + strings.TrimRight(m.Endpoint, "/")
}

// UploadConfig holds ingestion endpoint limits and policies.
type UploadConfig struct {
	MaxFileSizeMB    int64 `mapstructure:"max_file_size_mb"`
	MemoryLimitMB    int64 `mapstructure:"memory_limit_mb"`
	EnforceImageType bool  `mapstructure:"enforce_image_type"`
}

// MaxBytes returns the upload size limit in bytes.
func (u *UploadConfig) MaxBytes() int64 {
	return u.MaxFileSizeMB * 1024 * 1024
}

// MemoryLimitBytes returns the multipart in-memory threshold in bytes.
func (u *UploadConfig) MemoryLimitBytes() int64 {
	return u.MemoryLimitMB * 1024 * 1024
}

// PollConfig holds the conversion poller retry budget.
type PollConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
}

// WorstCase returns the longest a full polling loop can take: every probe
// runs to its timeout with an interval between consecutive probes.
func (p *PollConfig) WorstCase() time.Duration {
	if p.MaxAttempts <= 0 {
		return 0
	}
	n := time.Duration(p.MaxAttempts)
	return n*p.ProbeTimeout + (n-1)*p.Interval
}

// writeTimeoutMargin is the headroom added to the worst-case poll when the
// write timeout is derived.
const writeTimeoutMargin = 15 * time.Second

// KafkaConfig holds upload event publishing settings. Publishing is
// disabled when no brokers are configured.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// Enabled reports whether at least one broker is configured.
func (k *KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// MetricsConfig holds prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from environment variables with the PHOTOPASS_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PHOTOPASS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "0s") // derived from the poll budget
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.environment", "development")

	v.SetDefault("storage.provider", StorageProviderS3)

	// S3 defaults
	v.SetDefault("s3.region", "ap-south-1")
	v.SetDefault("s3.upload_bucket", "photopass-uploads")
	v.SetDefault("s3.converted_bucket", "photopass-converted")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.converted_base_url", "")

	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.use_ssl", false)

	// Upload defaults
	v.SetDefault("upload.max_file_size_mb", 20)
	v.SetDefault("upload.memory_limit_mb", 8)
	v.SetDefault("upload.enforce_image_type", true)

	// Poll defaults
	v.SetDefault("poll.interval", "3s")
	v.SetDefault("poll.max_attempts", 20)
	v.SetDefault("poll.probe_timeout", "5s")

	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic", "photopass.uploads")

	v.SetDefault("cors.allowed_origins", "*")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":               "PHOTOPASS_SERVER_PORT",
		"server.read_timeout":       "PHOTOPASS_SERVER_READ_TIMEOUT",
		"server.write_timeout":      "PHOTOPASS_SERVER_WRITE_TIMEOUT",
		"server.shutdown_timeout":   "PHOTOPASS_SERVER_SHUTDOWN_TIMEOUT",
		"server.environment":        "PHOTOPASS_SERVER_ENVIRONMENT",
		"storage.provider":          "PHOTOPASS_STORAGE_PROVIDER",
		"s3.region":                 "PHOTOPASS_S3_REGION",
		"s3.upload_bucket":          "PHOTOPASS_S3_UPLOAD_BUCKET",
		"s3.converted_bucket":       "PHOTOPASS_S3_CONVERTED_BUCKET",
		"s3.endpoint":               "PHOTOPASS_S3_ENDPOINT",
		"s3.access_key":             "PHOTOPASS_S3_ACCESS_KEY",
		"s3.secret_key":             "PHOTOPASS_S3_SECRET_KEY",
		"s3.converted_base_url":     "PHOTOPASS_S3_CONVERTED_BASE_URL",
		"minio.endpoint":            "PHOTOPASS_MINIO_ENDPOINT",
		"minio.use_ssl":             "PHOTOPASS_MINIO_USE_SSL",
		"upload.max_file_size_mb":   "PHOTOPASS_UPLOAD_MAX_FILE_SIZE_MB",
		"upload.memory_limit_mb":    "PHOTOPASS_UPLOAD_MEMORY_LIMIT_MB",
		"upload.enforce_image_type": "PHOTOPASS_UPLOAD_ENFORCE_IMAGE_TYPE",
		"poll.interval":             "PHOTOPASS_POLL_INTERVAL",
		"poll.max_attempts":         "PHOTOPASS_POLL_MAX_ATTEMPTS",
		"poll.probe_timeout":        "PHOTOPASS_POLL_PROBE_TIMEOUT",
		"kafka.brokers":             "PHOTOPASS_KAFKA_BROKERS",
		"kafka.topic":               "PHOTOPASS_KAFKA_TOPIC",
		"cors.allowed_origins":      "PHOTOPASS_CORS_ALLOWED_ORIGINS",
		"metrics.enabled":           "PHOTOPASS_METRICS_ENABLED",
		"metrics.path":              "PHOTOPASS_METRICS_PATH",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if PHOTOPASS_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("PHOTOPASS_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:            serverPort,
		ReadTimeout:     v.GetDuration("server.read_timeout"),
		WriteTimeout:    v.GetDuration("server.write_timeout"),
		ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		Environment:     v.GetString("server.environment"),
	}
	cfg.Storage = StorageConfig{
		Provider: strings.ToLower(strings.TrimSpace(v.GetString("storage.provider"))),
	}
	cfg.S3 = S3Config{
		Region:           v.GetString("s3.region"),
		UploadBucket:     v.GetString("s3.upload_bucket"),
		ConvertedBucket:  v.GetString("s3.converted_bucket"),
		Endpoint:         v.GetString("s3.endpoint"),
		AccessKey:        v.GetString("s3.access_key"),
		SecretKey:        v.GetString("s3.secret_key"),
		ConvertedBaseURL: v.GetString("s3.converted_base_url"),
	}
	cfg.Minio = MinioConfig{
		Endpoint: v.GetString("minio.endpoint"),
		UseSSL:   v.GetBool("minio.use_ssl"),
	}
	cfg.Upload = UploadConfig{
		MaxFileSizeMB:    v.GetInt64("upload.max_file_size_mb"),
		MemoryLimitMB:    v.GetInt64("upload.memory_limit_mb"),
		EnforceImageType: v.GetBool("upload.enforce_image_type"),
	}
	cfg.Poll = PollConfig{
		Interval:     v.GetDuration("poll.interval"),
		MaxAttempts:  v.GetInt("poll.max_attempts"),
		ProbeTimeout: v.GetDuration("poll.probe_timeout"),
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = cfg.Poll.WorstCase() + writeTimeoutMargin
	}
	cfg.Kafka = KafkaConfig{
		Brokers: splitList(v.GetString("kafka.brokers")),
		Topic:   v.GetString("kafka.topic"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}
	cfg.Metrics = MetricsConfig{
		Enabled: v.GetBool("metrics.enabled"),
		Path:    v.GetString("metrics.path"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail at first use.
func (c *Config) Validate() error {
	switch c.Storage.Provider {
	case StorageProviderS3, StorageProviderMinio:
	default:
		return fmt.Errorf("unsupported storage provider %q", c.Storage.Provider)
	}
	if c.S3.UploadBucket == "" || c.S3.ConvertedBucket == "" {
		return fmt.Errorf("both upload and converted buckets must be set")
	}
	if c.Upload.MaxFileSizeMB <= 0 {
		return fmt.Errorf("upload.max_file_size_mb must be positive, got %d", c.Upload.MaxFileSizeMB)
	}
	if c.Poll.MaxAttempts <= 0 {
		return fmt.Errorf("poll.max_attempts must be positive, got %d", c.Poll.MaxAttempts)
	}
	if c.Poll.Interval < 0 {
		return fmt.Errorf("poll.interval must not be negative")
	}
	if worst := c.Poll.WorstCase(); c.Server.WriteTimeout > 0 && c.Server.WriteTimeout <= worst {
		return fmt.Errorf("server.write_timeout %s must exceed the worst-case poll of %s", c.Server.WriteTimeout, worst)
	}
	return nil
}

// splitList parses a comma-separated string, dropping empty entries.
func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
