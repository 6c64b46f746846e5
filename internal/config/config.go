package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StorageFirestore = "firestore"
	StorageRedis     = "redis"
	StorageMemory    = "memory"
)

// Config holds all configuration for the application.
type Config struct {
	Port                             string        `mapstructure:"PORT"`
	GinMode                          string        `mapstructure:"GIN_MODE"`
	AppVersion                       string        `mapstructure:"APP_VERSION"`
	FirebaseProjectID                string        `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string        `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string        `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`
	ClientURL                        string        `mapstructure:"CLIENT_URL"`
	AllowedEmails                    []string      `mapstructure:"ALLOWED_EMAILS"`
	StorageDriver                    string        `mapstructure:"STORAGE_DRIVER"`
	RedisAddress                     string        `mapstructure:"REDIS_ADDRESS"`
	RedisPassword                    string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB                          int           `mapstructure:"REDIS_DB"`
	TestNotificationCooldown         time.Duration `mapstructure:"TEST_NOTIFICATION_COOLDOWN"`
	RabbitMQURL                      string        `mapstructure:"RABBITMQ_URL"`
	RabbitMQQueue                    string        `mapstructure:"RABBITMQ_QUEUE"`
	PubSubProjectID                  string        `mapstructure:"PUBSUB_PROJECT_ID"`
	PubSubTopic                      string        `mapstructure:"PUBSUB_TOPIC"`
	PubSubSubscription               string        `mapstructure:"PUBSUB_SUBSCRIPTION"`
}

// fileConfig is the optional YAML file layout. Values found here become
// defaults; environment variables always win.
type fileConfig struct {
	Server struct {
		Port      string `yaml:"port"`
		GinMode   string `yaml:"gin_mode"`
		ClientURL string `yaml:"client_url"`
		Version   string `yaml:"version"`
	} `yaml:"server"`
	Firebase struct {
		ProjectID       string `yaml:"project_id"`
		CredentialsFile string `yaml:"credentials_file"`
	} `yaml:"firebase"`
	Storage struct {
		Driver string `yaml:"driver"`
	} `yaml:"storage"`
	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Notifications struct {
		AllowedEmails []string `yaml:"allowed_emails"`
		TestCooldown  string   `yaml:"test_cooldown"`
	} `yaml:"notifications"`
	RabbitMQ struct {
		URL       string `yaml:"url"`
		QueueName string `yaml:"queue_name"`
	} `yaml:"rabbitmq"`
	PubSub struct {
		ProjectID    string `yaml:"project_id"`
		Topic        string `yaml:"topic"`
		Subscription string `yaml:"subscription"`
	} `yaml:"pubsub"`
}

var envKeys = []string{
	"PORT",
	"GIN_MODE",
	"APP_VERSION",
	"FIREBASE_PROJECT_ID",
	"GOOGLE_APPLICATION_CREDENTIALS",
	"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
	"CLIENT_URL",
	"ALLOWED_EMAILS",
	"STORAGE_DRIVER",
	"REDIS_ADDRESS",
	"REDIS_PASSWORD",
	"REDIS_DB",
	"TEST_NOTIFICATION_COOLDOWN",
	"RABBITMQ_URL",
	"RABBITMQ_QUEUE",
	"PUBSUB_PROJECT_ID",
	"PUBSUB_TOPIC",
	"PUBSUB_SUBSCRIPTION",
}

// LoadConfig loads configuration from environment variables using Viper.
// When PATH_CONFIG points at a YAML file its values are used as defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("APP_VERSION", "dev")
	v.SetDefault("STORAGE_DRIVER", StorageFirestore)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("TEST_NOTIFICATION_COOLDOWN", "0s")
	v.SetDefault("RABBITMQ_QUEUE", "push-dispatch")
	v.SetDefault("PUBSUB_TOPIC", "push-dispatch")

	if path := os.Getenv("PATH_CONFIG"); path != "" {
		if err := applyFileDefaults(v, path); err != nil {
			return nil, err
		}
	}

	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}
	cfg.AllowedEmails = normalizeEmails(cfg.AllowedEmails)
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	if cfg.PubSubSubscription == "" && cfg.PubSubTopic != "" {
		cfg.PubSubSubscription = cfg.PubSubTopic + "-sub"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.FirebaseProjectID == "" {
		return errors.New("FIREBASE_PROJECT_ID is required")
	}
	switch c.StorageDriver {
	case StorageFirestore, StorageMemory:
	case StorageRedis:
		if c.RedisAddress == "" {
			return errors.New("REDIS_ADDRESS is required when STORAGE_DRIVER is redis")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.TestNotificationCooldown < 0 {
		return errors.New("TEST_NOTIFICATION_COOLDOWN cannot be negative")
	}
	return nil
}

// IsRelease reports whether gin should run in release mode.
func (c *Config) IsRelease() bool {
	return strings.EqualFold(c.GinMode, "release")
}

// DispatchEnabled reports whether a dispatch queue is configured.
func (c *Config) DispatchEnabled() bool {
	return c.RabbitMQURL != "" || c.PubSubProjectID != ""
}

func applyFileDefaults(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	setIf := func(key, value string) {
		if value != "" {
			v.SetDefault(key, value)
		}
	}
	setIf("PORT", fc.Server.Port)
	setIf("GIN_MODE", fc.Server.GinMode)
	setIf("CLIENT_URL", fc.Server.ClientURL)
	setIf("APP_VERSION", fc.Server.Version)
	setIf("FIREBASE_PROJECT_ID", fc.Firebase.ProjectID)
	setIf("GOOGLE_APPLICATION_CREDENTIALS", fc.Firebase.CredentialsFile)
	setIf("STORAGE_DRIVER", fc.Storage.Driver)
	setIf("REDIS_ADDRESS", fc.Redis.Address)
	setIf("REDIS_PASSWORD", fc.Redis.Password)
	if fc.Redis.DB != 0 {
		v.SetDefault("REDIS_DB", fc.Redis.DB)
	}
	if len(fc.Notifications.AllowedEmails) > 0 {
		v.SetDefault("ALLOWED_EMAILS", strings.Join(fc.Notifications.AllowedEmails, ","))
	}
	setIf("TEST_NOTIFICATION_COOLDOWN", fc.Notifications.TestCooldown)
	setIf("RABBITMQ_URL", fc.RabbitMQ.URL)
	setIf("RABBITMQ_QUEUE", fc.RabbitMQ.QueueName)
	setIf("PUBSUB_PROJECT_ID", fc.PubSub.ProjectID)
	setIf("PUBSUB_TOPIC", fc.PubSub.Topic)
	setIf("PUBSUB_SUBSCRIPTION", fc.PubSub.Subscription)
	return nil
}

// normalizeEmails lower-cases and trims the allowlist. A single
// comma separated entry (as delivered from the environment) is split.
func normalizeEmails(in []string) []string {
	var out []string
	for _, entry := range in {
		for _, part := range strings.Split(entry, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// PrimaryClientURL returns the first origin listed in CLIENT_URL.
func (c *Config) PrimaryClientURL() string {
	for _, o := range strings.Split(c.ClientURL, ",") {
		if o = strings.TrimSpace(o); o != "" {
			return o
		}
	}
	return ""
}
