// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, with dots mapped to underscores.
const EnvPrefix = "GENDER_SERVICE"

// Config holds all configuration for the service
type Config struct {
	Service    ServiceConfig    `mapstructure:"service"`
	Server     ServerConfig     `mapstructure:"server"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Detector   DetectorConfig   `mapstructure:"detector"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Log        LogConfig        `mapstructure:"log"`

	MetricsPort    int `mapstructure:"metrics_port"`
	GRPCHealthPort int `mapstructure:"grpc_health_port"`

	// OpenTelemetry configuration
	OTELEnabled  bool   `mapstructure:"otel_enabled"`
	OTELEndpoint string `mapstructure:"otel_endpoint"`

	// UseMock swaps the classifier and detector for stubs
	UseMock bool `mapstructure:"use_mock"`
}

type ServiceConfig struct {
	Name string `mapstructure:"name"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	MaxUploadBytes int `mapstructure:"max_upload_bytes"`
}

type ClassifierConfig struct {
	ModelPath        string        `mapstructure:"model_path"`
	ModelURL         string        `mapstructure:"model_url"`
	Acquire          string        `mapstructure:"acquire"`
	Backend          string        `mapstructure:"backend"`
	DownloadAttempts int           `mapstructure:"download_attempts"`
	DownloadTimeout  time.Duration `mapstructure:"download_timeout"`
	NumThreads       int           `mapstructure:"num_threads"`
	ONNXRuntimeLib   string        `mapstructure:"onnxruntime_lib"`
}

type DetectorConfig struct {
	CascadePath  string  `mapstructure:"cascade_path"`
	ScaleFactor  float64 `mapstructure:"scale_factor"`
	MinNeighbors int     `mapstructure:"min_neighbors"`
}

type PipelineConfig struct {
	ChannelOrder string `mapstructure:"channel_order"`
	MaxPixels    int    `mapstructure:"max_pixels"`
}

type CacheConfig struct {
	Redis string        `mapstructure:"redis"`
	TTL   time.Duration `mapstructure:"ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const defaultModelURL = "https://github.com/shubham0204/Age-Gender_Estimation_TF-Android/raw/master/app/src/main/assets/model_gender_nonq.tflite"

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.name", "gender-service")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.max_upload_bytes", 10<<20)
	v.SetDefault("metrics_port", 9100)
	v.SetDefault("grpc_health_port", 0)

	v.SetDefault("classifier.model_path", "model_gender_nonq.tflite")
	v.SetDefault("classifier.model_url", defaultModelURL)
	v.SetDefault("classifier.acquire", "download")
	v.SetDefault("classifier.backend", "auto")
	v.SetDefault("classifier.download_attempts", 3)
	v.SetDefault("classifier.download_timeout", 60*time.Second)
	v.SetDefault("classifier.num_threads", 0)
	v.SetDefault("classifier.onnxruntime_lib", "")

	v.SetDefault("detector.cascade_path", "haarcascade_frontalface_default.xml")
	v.SetDefault("detector.scale_factor", 1.1)
	v.SetDefault("detector.min_neighbors", 4)

	v.SetDefault("pipeline.channel_order", "bgr")
	v.SetDefault("pipeline.max_pixels", 40_000_000)

	v.SetDefault("cache.redis", "")
	v.SetDefault("cache.ttl", 10*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("otel_enabled", false)
	v.SetDefault("otel_endpoint", "")
	v.SetDefault("use_mock", false)
}

// Load loads configuration from defaults, an optional config file, a .env
// file, environment variables and finally overrides (usually set flags).
// Priority (highest to lowest): overrides > env vars > config file > defaults
func Load(configFile string, overrides map[string]any) (*Config, error) {
	// .env is optional; variables already set in the environment win
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	// Environment variable configuration
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Also read OTEL standard env vars
	v.BindEnv("otel_endpoint", EnvPrefix+"_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/gender-service/")
		v.AddConfigPath("$HOME/.gender-service")

		// Read config file if present (ignore error if not found)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.normalize()

	if cfg.OTELEndpoint != "" {
		cfg.OTELEnabled = true
	}

	return &cfg, nil
}

// normalize lowercases enum values so "RGB" and "rgb" mean the same thing
// everywhere they are compared.
func (c *Config) normalize() {
	c.Classifier.Acquire = strings.ToLower(strings.TrimSpace(c.Classifier.Acquire))
	c.Classifier.Backend = strings.ToLower(strings.TrimSpace(c.Classifier.Backend))
	c.Pipeline.ChannelOrder = strings.ToLower(strings.TrimSpace(c.Pipeline.ChannelOrder))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := checkPort("port", c.Server.Port); err != nil {
		return err
	}
	if err := checkPort("metrics_port", c.MetricsPort); err != nil {
		return err
	}
	if c.Server.Port == c.MetricsPort {
		return fmt.Errorf("port and metrics_port must be different")
	}
	if c.GRPCHealthPort != 0 {
		if err := checkPort("grpc_health_port", c.GRPCHealthPort); err != nil {
			return err
		}
		if c.GRPCHealthPort == c.Server.Port || c.GRPCHealthPort == c.MetricsPort {
			return fmt.Errorf("grpc_health_port must differ from port and metrics_port")
		}
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("invalid max_upload_bytes: %d", c.Server.MaxUploadBytes)
	}

	if !c.UseMock {
		if c.Classifier.ModelPath == "" {
			return fmt.Errorf("model path is required when not using mock inference")
		}
		if err := oneOf("classifier.acquire", c.Classifier.Acquire, "local", "download"); err != nil {
			return err
		}
		if err := oneOf("classifier.backend", c.Classifier.Backend, "auto", "onnx", "tflite"); err != nil {
			return err
		}
		if c.Classifier.Acquire == "download" && c.Classifier.ModelURL == "" {
			return fmt.Errorf("classifier.model_url is required when classifier.acquire is download")
		}
	}
	if c.Detector.ScaleFactor <= 1 {
		return fmt.Errorf("detector.scale_factor must be greater than 1, got %v", c.Detector.ScaleFactor)
	}
	if c.Detector.MinNeighbors < 0 {
		return fmt.Errorf("detector.min_neighbors must not be negative")
	}
	if err := oneOf("pipeline.channel_order", c.Pipeline.ChannelOrder, "bgr", "rgb"); err != nil {
		return err
	}
	if err := oneOf("log.format", c.Log.Format, "text", "json"); err != nil {
		return err
	}
	return nil
}

func checkPort(name string, port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid %s: %d", name, port)
	}
	return nil
}

func oneOf(name, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q (allowed: %s)", name, value, strings.Join(allowed, ", "))
}
