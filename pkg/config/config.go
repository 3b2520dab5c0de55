package config

import (
	"errors"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env string

	Store   StoreConfig
	Uploads UploadsConfig
	Claims  ClaimsConfig
	Cipher  CipherConfig
	Log     LogConfig
}

// StoreConfig locates the JSON mirror of the claim collection.
type StoreConfig struct {
	Path string
}

// UploadsConfig controls the encrypted document vault.
type UploadsConfig struct {
	Dir               string
	MaxFileSizeBytes  int64
	AllowedExtensions []string
}

// ClaimsConfig carries claim submission rules.
type ClaimsConfig struct {
	DefaultHourCap int
}

// CipherConfig supplies key material inputs for document encryption.
type CipherConfig struct {
	Secret string
	Salt   string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")

	cfg.Store = StoreConfig{
		Path: v.GetString("STORE_PATH"),
	}

	maxUploadSize := v.GetInt64("UPLOADS_MAX_FILE_SIZE")
	if maxUploadSize <= 0 {
		maxUploadSize = 5 * 1024 * 1024
	}
	cfg.Uploads = UploadsConfig{
		Dir:               v.GetString("UPLOADS_DIR"),
		MaxFileSizeBytes:  maxUploadSize,
		AllowedExtensions: splitAndTrim(v.GetString("UPLOADS_ALLOWED_EXTENSIONS")),
	}

	cfg.Claims = ClaimsConfig{
		DefaultHourCap: v.GetInt("CLAIMS_DEFAULT_HOUR_CAP"),
	}

	cfg.Cipher = CipherConfig{
		Secret: v.GetString("CIPHER_SECRET"),
		Salt:   v.GetString("CIPHER_SALT"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)

	v.SetDefault("STORE_PATH", "./data/claims.json")

	v.SetDefault("UPLOADS_DIR", "./uploads")
	v.SetDefault("UPLOADS_MAX_FILE_SIZE", 5*1024*1024)
	v.SetDefault("UPLOADS_ALLOWED_EXTENSIONS", ".pdf,.docx,.xlsx,.png,.jpg")

	v.SetDefault("CLAIMS_DEFAULT_HOUR_CAP", 180)

	v.SetDefault("CIPHER_SECRET", "dev_cipher_secret")
	v.SetDefault("CIPHER_SALT", "dev_cipher_salt")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
