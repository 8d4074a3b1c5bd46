package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photopass/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, config.StorageProviderS3, cfg.Storage.Provider)
	assert.Equal(t, "photopass-uploads", cfg.S3.UploadBucket)
	assert.Equal(t, "photopass-converted", cfg.S3.ConvertedBucket)
	assert.Equal(t, int64(20), cfg.Upload.MaxFileSizeMB)
	assert.Equal(t, int64(20*1024*1024), cfg.Upload.MaxBytes())
	assert.True(t, cfg.Upload.EnforceImageType)
	assert.Equal(t, 3*time.Second, cfg.Poll.Interval)
	assert.Equal(t, 20, cfg.Poll.MaxAttempts)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PHOTOPASS_STORAGE_PROVIDER", "MinIO")
	t.Setenv("PHOTOPASS_S3_CONVERTED_BUCKET", "passports")
	t.Setenv("PHOTOPASS_UPLOAD_MAX_FILE_SIZE_MB", "5")
	t.Setenv("PHOTOPASS_UPLOAD_ENFORCE_IMAGE_TYPE", "false")
	t.Setenv("PHOTOPASS_POLL_INTERVAL", "250ms")
	t.Setenv("PHOTOPASS_POLL_MAX_ATTEMPTS", "7")
	t.Setenv("PHOTOPASS_KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("PHOTOPASS_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.StorageProviderMinio, cfg.Storage.Provider)
	assert.Equal(t, "passports", cfg.S3.ConvertedBucket)
	assert.Equal(t, int64(5), cfg.Upload.MaxFileSizeMB)
	assert.False(t, cfg.Upload.EnforceImageType)
	assert.Equal(t, 250*time.Millisecond, cfg.Poll.Interval)
	assert.Equal(t, 7, cfg.Poll.MaxAttempts)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_PortFallback(t *testing.T) {
	t.Setenv("PORT", "9000")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Port)

	t.Setenv("PHOTOPASS_SERVER_PORT", ":7000")
	cfg, err = config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Port)
}

func TestLoad_RejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown provider", env: map[string]string{"PHOTOPASS_STORAGE_PROVIDER": "gcs"}},
		{name: "zero size limit", env: map[string]string{"PHOTOPASS_UPLOAD_MAX_FILE_SIZE_MB": "0"}},
		{name: "zero attempts", env: map[string]string{"PHOTOPASS_POLL_MAX_ATTEMPTS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestS3Config_ConvertedURLBase(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.S3Config
		want string
	}{
		{
			name: "virtual host",
			cfg:  config.S3Config{Region: "ap-south-1", ConvertedBucket: "photopass-converted"},
			want: "https://photopass-converted.s3.ap-south-1.amazonaws.com",
		},
		{
			name: "custom endpoint",
			cfg:  config.S3Config{Region: "us-east-1", ConvertedBucket: "converted", Endpoint: "http://localhost:9000/"},
			want: "http://localhost:9000/converted",
		},
		{
			name: "explicit override",
			cfg: config.S3Config{
				Region:           "us-east-1",
				ConvertedBucket:  "converted",
				Endpoint:         "http://localhost:9000",
				ConvertedBaseURL: "https://cdn.example.com/passports/",
			},
			want: "https://cdn.example.com/passports",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.ConvertedURLBase())
		})
	}
}

func TestLoad_WriteTimeoutCoversPollBudget(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	// 20 probes x 5s + 19 intervals x 3s
	assert.Equal(t, 157*time.Second, cfg.Poll.WorstCase())
	assert.Greater(t, cfg.Server.WriteTimeout, cfg.Poll.WorstCase())

	t.Setenv("PHOTOPASS_POLL_MAX_ATTEMPTS", "40")
	cfg, err = config.Load()
	require.NoError(t, err)
	assert.Greater(t, cfg.Server.WriteTimeout, cfg.Poll.WorstCase())
}

func TestLoad_RejectsWriteTimeoutShorterThanPoll(t *testing.T) {
	t.Setenv("PHOTOPASS_SERVER_WRITE_TIMEOUT", "90s")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.write_timeout")

	t.Setenv("PHOTOPASS_POLL_PROBE_TIMEOUT", "1s")
	t.Setenv("PHOTOPASS_POLL_MAX_ATTEMPTS", "10")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.Server.WriteTimeout)
}

func TestConfig_ConvertedURLBase_FollowsProvider(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "s3",
			want: "https://photopass-converted.s3.ap-south-1.amazonaws.com",
		},
		{
			name: "minio",
			env: map[string]string{
				"PHOTOPASS_STORAGE_PROVIDER": "minio",
				"PHOTOPASS_MINIO_ENDPOINT":   "minio.internal:9000",
			},
			want: "http://minio.internal:9000/photopass-converted",
		},
		{
			name: "minio with tls",
			env: map[string]string{
				"PHOTOPASS_STORAGE_PROVIDER": "minio",
				"PHOTOPASS_MINIO_ENDPOINT":   "objects.example.com",
				"PHOTOPASS_MINIO_USE_SSL":    "true",
			},
			want: "https://objects.example.com/photopass-converted",
		},
		{
			name: "minio with override",
			env: map[string]string{
				"PHOTOPASS_STORAGE_PROVIDER":      "minio",
				"PHOTOPASS_S3_CONVERTED_BASE_URL": "https://cdn.example.com/passports",
			},
			want: "https://cdn.example.com/passports",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := config.Load()
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.ConvertedURLBase())
		})
	}
}
