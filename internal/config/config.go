package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Training TrainingConfig `mapstructure:"training"`
	Upload   UploadConfig   `mapstructure:"upload"`
	AI       AIConfig       `mapstructure:"ai"`
	Debug    bool           `mapstructure:"debug"`
}

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           string   `mapstructure:"port"`
	Endpoint       string   `mapstructure:"endpoint"`
	StaticDir      string   `mapstructure:"static_dir"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type StorageConfig struct {
	DataDir      string `mapstructure:"data_dir"`
	ModelDir     string `mapstructure:"model_dir"`
	RegistryPath string `mapstructure:"registry_path"`
}

type TrainingConfig struct {
	Workers int `mapstructure:"workers"`
	// MaxDuration is reported by the status probe but not enforced on
	// running searches.
	MaxDuration         time.Duration `mapstructure:"max_duration"`
	MulticlassThreshold int           `mapstructure:"multiclass_threshold"`
	CacheMaxEntries     int           `mapstructure:"cache_max_entries"`
}

type UploadConfig struct {
	MaxFileSize int64 `mapstructure:"max_file_size"`
}

type AIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

// LoadConfig reads configuration from the given file, with environment
// variables (AUTOML_ prefix) taking precedence.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("AUTOML")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.endpoint", "/api/v1")
	v.SetDefault("server.static_dir", "frontend/dist")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("storage.model_dir", "./models")
	v.SetDefault("storage.registry_path", "./models/registry.db")
	v.SetDefault("training.workers", 4)
	v.SetDefault("training.max_duration", time.Hour)
	v.SetDefault("training.multiclass_threshold", 20)
	v.SetDefault("training.cache_max_entries", 0)
	v.SetDefault("upload.max_file_size", int64(10*1024*1024))
	v.SetDefault("ai.base_url", "https://api.openai.com/v1")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("debug", false)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			// a missing config file is fine, everything has a default
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.Training.Workers <= 0 {
		config.Training.Workers = 4
	}
	if config.Training.MulticlassThreshold <= 2 {
		config.Training.MulticlassThreshold = 20
	}

	return &config, nil
}
