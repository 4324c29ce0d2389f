package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port        int    `yaml:"port"`
	Development bool   `yaml:"development"`
	LogLevel    string `yaml:"log_level"`
}

type FirestoreConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

type TelegramConfig struct {
	Token string `yaml:"token"`
}

type OpenAIConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type SMSConfig struct {
	APIKey string `yaml:"api_key"`
	Sender string `yaml:"sender"`
	DryRun bool   `yaml:"dry_run"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AdminConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type BillingConfig struct {
	CheckoutURL string `yaml:"checkout_url"`
	TrialHours  int    `yaml:"trial_hours"`
}

// PolicyConfig holds the behaviour constants the product team tunes. The
// historical values ship as defaults; nothing derives them.
type PolicyConfig struct {
	LowBalanceThreshold float64 `yaml:"low_balance_threshold"`
	PaceExcellent       float64 `yaml:"pace_excellent"`
	PaceNormal          float64 `yaml:"pace_normal"`
	PaceAttention       float64 `yaml:"pace_attention"`
	LLMTimeoutSeconds   int     `yaml:"llm_timeout_seconds"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Firestore FirestoreConfig `yaml:"firestore"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	SMS       SMSConfig       `yaml:"sms"`
	Redis     RedisConfig     `yaml:"redis"`
	Admin     AdminConfig     `yaml:"admin"`
	Billing   BillingConfig   `yaml:"billing"`
	Policy    PolicyConfig    `yaml:"policy"`
}

// LoadConfig reads the yaml file and overlays secrets from the environment,
// so deployments never have to commit tokens into the file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = "config/config.yaml"
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	overlayEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

func overlayEnv(cfg *Config) {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("MOBIZON_API_KEY"); v != "" {
		cfg.SMS.APIKey = v
	}
	if v := os.Getenv("ADMIN_JWT_SECRET"); v != "" {
		cfg.Admin.JWTSecret = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Address = v
	}
	if v := os.Getenv("FIRESTORE_PROJECT_ID"); v != "" {
		cfg.Firestore.ProjectID = v
	}
	if v := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); v != "" {
		cfg.Firestore.CredentialsFile = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "info"
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = "gpt-4o-mini"
	}
	if cfg.Billing.TrialHours == 0 {
		cfg.Billing.TrialHours = 48
	}
	if cfg.Policy.LowBalanceThreshold == 0 {
		cfg.Policy.LowBalanceThreshold = 50
	}
	if cfg.Policy.PaceExcellent == 0 {
		cfg.Policy.PaceExcellent = 0.9
	}
	if cfg.Policy.PaceNormal == 0 {
		cfg.Policy.PaceNormal = 1.05
	}
	if cfg.Policy.PaceAttention == 0 {
		cfg.Policy.PaceAttention = 1.25
	}
	if cfg.Policy.LLMTimeoutSeconds == 0 {
		cfg.Policy.LLMTimeoutSeconds = 15
	}
}
