package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config armazena todas as configurações do GoMarket.
type Config struct {
	// Geral
	Port        string
	Environment string
	LogLevel    string
	AppBaseURL  string

	// Banco de Dados
	DatabaseURL string
	DBDriver    string
	DBTimeout   time.Duration

	// Cache (Redis)
	RedisAddr string
	CacheTTL  time.Duration

	// Segurança (JWT)
	JWTSecretKey string
	TokenExpiry  time.Duration

	// Rate Limiting
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration

	// Notificações (RabbitMQ). AMQPURL vazio apenas loga os e-mails.
	AMQPURL               string
	NotificationsExchange string

	// Fluentd. FluentHost vazio desliga o envio.
	FluentHost string
	FluentPort int

	CORSAllowedOrigins []string
	ListingMaxLimit    int
	PasswordResetTTL   time.Duration
}

var defaults = map[string]interface{}{
	"PORT":                    "8080",
	"ENV":                     "development",
	"LOG_LEVEL":               "info",
	"APP_BASE_URL":            "http://localhost:3000",
	"DB_DRIVER":               "postgres",
	"DB_TIMEOUT_SEC":          5,
	"REDIS_ADDR":              "localhost:6379",
	"CACHE_TTL_SEC":           60,
	"JWT_EXPIRY_HOURS":        24,
	"RATE_LIMIT_MAX_REQUESTS": 100,
	"RATE_LIMIT_PERIOD_MIN":   1,
	"AMQP_URL":                "",
	"NOTIFICATIONS_EXCHANGE":  "notifications",
	"FLUENT_HOST":             "",
	"FLUENT_PORT":             24224,
	"CORS_ALLOWED_ORIGINS":    "*",
	"LISTING_MAX_LIMIT":       100,
	"PASSWORD_RESET_TTL_MIN":  30,
}

var required = []string{"DATABASE_URL", "JWT_SECRET_KEY"}

// LoadConfig carrega o .env (quando existe) e lê as variáveis de ambiente.
// Variáveis obrigatórias ausentes geram erro.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv lê a configuração apenas do ambiente do processo.
func FromEnv() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	for _, key := range required {
		if strings.TrimSpace(v.GetString(key)) == "" {
			return nil, fmt.Errorf("a variável de ambiente %s deve ser definida", key)
		}
	}

	cfg := &Config{
		Port:        v.GetString("PORT"),
		Environment: v.GetString("ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		AppBaseURL:  strings.TrimRight(v.GetString("APP_BASE_URL"), "/"),

		DatabaseURL: v.GetString("DATABASE_URL"),
		DBDriver:    v.GetString("DB_DRIVER"),
		DBTimeout:   seconds(v, "DB_TIMEOUT_SEC"),

		RedisAddr: v.GetString("REDIS_ADDR"),
		CacheTTL:  seconds(v, "CACHE_TTL_SEC"),

		JWTSecretKey: v.GetString("JWT_SECRET_KEY"),
		TokenExpiry:  time.Duration(positive(v, "JWT_EXPIRY_HOURS")) * time.Hour,

		RateLimitMaxRequests: positive(v, "RATE_LIMIT_MAX_REQUESTS"),
		RateLimitPeriod:      time.Duration(positive(v, "RATE_LIMIT_PERIOD_MIN")) * time.Minute,

		AMQPURL:               v.GetString("AMQP_URL"),
		NotificationsExchange: v.GetString("NOTIFICATIONS_EXCHANGE"),

		FluentHost: v.GetString("FLUENT_HOST"),
		FluentPort: positive(v, "FLUENT_PORT"),

		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		ListingMaxLimit:    positive(v, "LISTING_MAX_LIMIT"),
		PasswordResetTTL:   time.Duration(positive(v, "PASSWORD_RESET_TTL_MIN")) * time.Minute,
	}
	return cfg, nil
}

// IsProduction indica se os logs devem sair em JSON.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func seconds(v *viper.Viper, key string) time.Duration {
	return time.Duration(positive(v, key)) * time.Second
}

// positive lê um inteiro; valores inválidos ou não positivos caem no padrão.
func positive(v *viper.Viper, key string) int {
	n := v.GetInt(key)
	if n <= 0 {
		if d, ok := defaults[key].(int); ok {
			return d
		}
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
