package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	OpenAI struct {
		APIKey string `yaml:"apiKey"`
		APIURL string `yaml:"apiUrl"`
		Model  string `yaml:"model"`
	} `yaml:"openai"`
	Quiz struct {
		// TopicTTL bounds the topic cache; ProgressTTL expires abandoned
		// resume points (empty = keep until completion).
		TopicTTL    string `yaml:"topicTTL"`
		ProgressTTL string `yaml:"progressTTL"`
		// Cooldown is the free-tier countdown; CooldownAfter is the 0-based
		// question index whose advance triggers it (negative disables).
		Cooldown      string `yaml:"cooldown"`
		CooldownAfter int    `yaml:"cooldownAfter"`
	} `yaml:"quiz"`
	Entitlements struct {
		PremiumUsers []string `yaml:"premiumUsers"`
	} `yaml:"entitlements"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty or
// invalid.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
