package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server          ServerConfig
	Database        DatabaseConfig
	Redis           RedisConfig
	JWT             JWTConfig
	Kafka           KafkaConfig
	Recommendations RecommendationConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type KafkaConfig struct {
	Brokers string // comma-separated; empty disables publishing
	Topic   string
}

// RecommendationConfig carries the tunables of the recommendation engine:
// default result counts per mode and the brand affinity rules (brand ->
// ordered set of related brands).
type RecommendationConfig struct {
	TopSellerLimit int
	RuleBasedLimit int
	BrandRules     map[string][]string
}

func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("KAFKA_TOPIC", "checkout.committed")
	viper.SetDefault("TOP_SELLER_LIMIT", 10)
	viper.SetDefault("RULE_BASED_LIMIT", 10)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
			Env:  viper.GetString("SERVER_ENV"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
		},
		Kafka: KafkaConfig{
			Brokers: viper.GetString("KAFKA_BROKERS"),
			Topic:   viper.GetString("KAFKA_TOPIC"),
		},
		Recommendations: RecommendationConfig{
			TopSellerLimit: viper.GetInt("TOP_SELLER_LIMIT"),
			RuleBasedLimit: viper.GetInt("RULE_BASED_LIMIT"),
			BrandRules:     ParseBrandRules(viper.GetString("BRAND_RULES")),
		},
	}
}

// ParseBrandRules decodes the BRAND_RULES env value into a rule table.
// The value holds semicolon-separated entries, each "brand:related|related|...",
// e.g. "Nike:Nike|Adidas;Adidas:Adidas|Puma". Malformed entries are skipped.
func ParseBrandRules(raw string) map[string][]string {
	rules := make(map[string][]string)

	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		brand, related, ok := strings.Cut(entry, ":")
		brand = strings.TrimSpace(brand)
		if !ok || brand == "" {
			continue
		}

		var brands []string
		for _, b := range strings.Split(related, "|") {
			b = strings.TrimSpace(b)
			if b != "" {
				brands = append(brands, b)
			}
		}

		if len(brands) > 0 {
			rules[brand] = brands
		}
	}

	return rules
}
