package config

import (
	"time"

	"github.com/spf13/viper"

	pkgconfig "github.com/artwall/artwall/pkg/config"
	"github.com/artwall/artwall/pkg/database"
)

type Config struct {
	Server   ServerConfig
	Database database.Config
	Storage  StorageConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Media    MediaConfig
	Story    StoryConfig
	Log      LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type StorageConfig struct {
	Backend   string // "local" or "s3"
	LocalPath string `mapstructure:"local_path"`
	BaseURL   string `mapstructure:"base_url"`
	S3        S3Config
}

type S3Config struct {
	Region          string
	Bucket          string
	Endpoint        string
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	PublicURL       string `mapstructure:"public_url"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type MediaConfig struct {
	ChatImageWidth    int `mapstructure:"chat_image_width"`
	ProfileImageWidth int `mapstructure:"profile_image_width"`
	CoverImageWidth   int `mapstructure:"cover_image_width"`
	JPEGQuality       int `mapstructure:"jpeg_quality"`
}

type StoryConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 4000)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.file_path", "artwall.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5)
	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.local_path", "./data/uploads")
	v.SetDefault("storage.base_url", "http://localhost:4000/uploads")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.bucket", "artwall-media")
	v.SetDefault("storage.s3.use_path_style", false)
	v.SetDefault("auth.access_ttl", "15m")
	v.SetDefault("auth.refresh_ttl", "168h")
	v.SetDefault("auth.issuer", "artwall")
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("media.chat_image_width", 1280)
	v.SetDefault("media.profile_image_width", 512)
	v.SetDefault("media.cover_image_width", 1280)
	v.SetDefault("media.jpeg_quality", 80)
	v.SetDefault("story.ttl", "24h")
	v.SetDefault("story.sweep_interval", "10m")
	v.SetDefault("log.level", "info")

	// Override from environment
	v.BindEnv("server.port", "PORT")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("database.file_path", "DB_FILE_PATH")
	v.BindEnv("storage.backend", "STORAGE_BACKEND")
	v.BindEnv("storage.local_path", "STORAGE_LOCAL_PATH")
	v.BindEnv("storage.base_url", "STORAGE_BASE_URL")
	v.BindEnv("storage.s3.region", "S3_REGION")
	v.BindEnv("storage.s3.bucket", "S3_BUCKET")
	v.BindEnv("storage.s3.endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.s3.access_key_id", "S3_ACCESS_KEY_ID")
	v.BindEnv("storage.s3.secret_access_key", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("storage.s3.public_url", "S3_PUBLIC_URL")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.Auth.AccessTTL = parseDuration(v, "auth.access_ttl", 15*time.Minute)
	cfg.Auth.RefreshTTL = parseDuration(v, "auth.refresh_ttl", 168*time.Hour)
	cfg.Story.TTL = parseDuration(v, "story.ttl", 24*time.Hour)
	cfg.Story.SweepInterval = parseDuration(v, "story.sweep_interval", 10*time.Minute)

	return &cfg, nil
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}
