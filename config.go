package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	aws_pkg "order-service/pkg/aws"
)

type Config struct {
	Port        string
	Environment string

	MongoURI     string
	MongoDB      string
	RedisAddr    string
	RedisPass    string
	KafkaBrokers string
	KafkaTopic   string
	SNSTopicArn  string

	TaxRate               float64
	FreeShippingThreshold int
	ShippingCost          int
	Currency              string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:         getEnv("PORT", "8083"),
		Environment:  getEnv("ENVIRONMENT", "development"),
		MongoURI:     os.Getenv("MONGO_URI"),
		MongoDB:      getEnv("MONGO_DB", "floresvictoria"),
		RedisAddr:    getEnv("REDIS_ADDR", "redis:6379"),
		RedisPass:    os.Getenv("REDIS_PASSWORD"),
		KafkaBrokers: os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:   getEnv("ORDER_EVENTS_TOPIC", "order.created"),
		SNSTopicArn:  os.Getenv("ORDER_EVENTS_SNS_ARN"),

		TaxRate:               getEnvFloat("CHECKOUT_TAX_RATE", 0.19),
		FreeShippingThreshold: getEnvInt("CHECKOUT_FREE_SHIPPING_THRESHOLD", 50000),
		ShippingCost:          getEnvInt("CHECKOUT_SHIPPING_COST", 5000),
		Currency:              getEnv("CHECKOUT_CURRENCY", "CLP"),
	}

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := aws_pkg.LoadAWSConfig(context.Background()); err == nil {
			sm := aws_pkg.NewSecretsClient(awsCfg)

			if dbjson, err := sm.GetSecret(context.Background(), "order/DB_CREDENTIALS"); err == nil && dbjson != "" {
				var m map[string]string
				if err := json.Unmarshal([]byte(dbjson), &m); err == nil {
					if v, ok := m["MONGO_URI"]; ok && v != "" {
						cfg.MongoURI = v
					}
					if v, ok := m["MONGO_DB"]; ok && v != "" {
						cfg.MongoDB = v
					}
					if v, ok := m["REDIS_PASSWORD"]; ok && v != "" {
						cfg.RedisPass = v
					}
				}
			}
		}
	}

	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI is required")
	}
	return cfg, nil
}

func (c *Config) KafkaBrokerList() []string {
	if c.KafkaBrokers == "" {
		return nil
	}
	return strings.Split(c.KafkaBrokers, ",")
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}
