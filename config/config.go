package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv    = "CIVICFIX_CONFIG"
	openAIAPIKeyEnv  = "OPENAI_API_KEY"
	openAIModelEnv   = "OPENAI_VISION_MODEL"
	telegramTokenEnv = "TELEGRAM_BOT_TOKEN"
	telegramChatEnv  = "TELEGRAM_CHAT_ID"
	storeBackendEnv  = "STORE_BACKEND"
	listenAddrEnv    = "LISTEN_ADDR"
)

// Config holds high-level settings required across the application.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Store      StoreConfig      `yaml:"store"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Escalation EscalationConfig `yaml:"escalation"`
	Photos     PhotosConfig     `yaml:"photos"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// StoreConfig selects the persistence backend: "firestore" or "memory".
// Firestore credentials come from the FIREBASE_CREDENTIALS env var (base64
// service-account JSON), never from the config file.
type StoreConfig struct {
	Backend string `yaml:"backend"`
}

type OpenAIConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
	// RPM caps classifier/oracle calls per minute. A negative value disables
	// the cap; 0 in the config file means "unset" and keeps the default.
	RPM int `yaml:"rpm"`
	// TimeoutSeconds bounds a single oracle or classifier call. 0 means
	// "unset" and keeps the default.
	TimeoutSeconds int `yaml:"timeoutSeconds"`
}

type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

type EscalationConfig struct {
	CronSpec string `yaml:"cronSpec"`
}

type PhotosConfig struct {
	Dir string `yaml:"dir"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(listenAddrEnv); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(storeBackendEnv); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv(openAIModelEnv); v != "" {
		c.OpenAI.Model = v
	}
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatEnv); v != "" {
		c.Telegram.ChatID = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Server.Addr != "" {
		base.Server = override.Server
	}
	if override.Store.Backend != "" {
		base.Store = override.Store
	}
	if override.OpenAI.APIKey != "" {
		base.OpenAI.APIKey = override.OpenAI.APIKey
	}
	if override.OpenAI.Model != "" {
		base.OpenAI.Model = override.OpenAI.Model
	}
	if override.OpenAI.RPM != 0 {
		base.OpenAI.RPM = override.OpenAI.RPM
	}
	if override.OpenAI.TimeoutSeconds != 0 {
		base.OpenAI.TimeoutSeconds = override.OpenAI.TimeoutSeconds
	}
	if override.Telegram.BotToken != "" {
		base.Telegram.BotToken = override.Telegram.BotToken
	}
	if override.Telegram.ChatID != "" {
		base.Telegram.ChatID = override.Telegram.ChatID
	}
	if override.Escalation.CronSpec != "" {
		base.Escalation = override.Escalation
	}
	if override.Photos.Dir != "" {
		base.Photos = override.Photos
	}
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}
	return base
}

func defaultConfig() Config {
	return Config{
		Server:     ServerConfig{Addr: ":8080"},
		Store:      StoreConfig{Backend: "firestore"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini", RPM: 30, TimeoutSeconds: 20},
		Escalation: EscalationConfig{CronSpec: "*/30 * * * *"},
		Photos:     PhotosConfig{Dir: "./photos"},
		Logging:    LoggingConfig{Level: "info"},
	}
}
