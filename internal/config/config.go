package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"shoppay/internal/payment/vnpay"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	VNPay     VNPayConfig
	Frontend  FrontendConfig
	Kafka     KafkaConfig
	Reconcile ReconcileConfig
	Metrics   MetricsConfig
}

type ServerConfig struct {
	Port int
	Env  string // "development", "production"
}

type DatabaseConfig struct {
	Host    string
	Port    string
	Name    string
	User    string
	Pass    string
	Charset string
}

type RedisConfig struct {
	Addr     string
	Pass     string
	DB       int
	DedupTTL time.Duration
}

// VNPayConfig holds the merchant settings as read from the environment.
type VNPayConfig struct {
	TmnCode         string
	HashSecret      string
	PayURL          string
	QueryURL        string
	ReturnURL       string
	Version         string
	Locale          string
	LedgerCurrency  string
	ExchangeRate    decimal.Decimal
	AmountTolerance decimal.Decimal
	ExpireWindow    time.Duration
	TimeZone        string
}

type FrontendConfig struct {
	URL string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type ReconcileConfig struct {
	Spec      string
	Window    time.Duration // how far back unpaid attempts are queried
	MinAge    time.Duration // attempts younger than this are left to the callbacks
	BatchSize int
	Timeout   time.Duration
}

type MetricsConfig struct {
	PushURL      string
	PushInterval time.Duration
	PushLabels   string
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file (ignore error if missing)
	_ = godotenv.Load()

	viper.AutomaticEnv()
	setDefaults()

	rate, err := decimalSetting("VNPAY_EXCHANGE_RATE")
	if err != nil {
		return nil, err
	}
	tolerance, err := decimalSetting("VNPAY_AMOUNT_TOLERANCE")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("APP_PORT"),
			Env:  viper.GetString("APP_ENV"),
		},
		Database: databaseFromEnv(),
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Pass:     viper.GetString("REDIS_PASS"),
			DB:       viper.GetInt("REDIS_DB"),
			DedupTTL: viper.GetDuration("REDIS_DEDUP_TTL"),
		},
		VNPay: VNPayConfig{
			TmnCode:         viper.GetString("VNPAY_TMN_CODE"),
			HashSecret:      viper.GetString("VNPAY_HASH_SECRET"),
			PayURL:          viper.GetString("VNPAY_API_URL"),
			QueryURL:        viper.GetString("VNPAY_QUERY_URL"),
			ReturnURL:       viper.GetString("VNPAY_RETURN_URL"),
			Version:         viper.GetString("VNPAY_VERSION"),
			Locale:          viper.GetString("VNPAY_LOCALE"),
			LedgerCurrency:  strings.ToUpper(viper.GetString("VNPAY_LEDGER_CURRENCY")),
			ExchangeRate:    rate,
			AmountTolerance: tolerance,
			ExpireWindow:    time.Duration(viper.GetInt("VNPAY_EXPIRE_MINUTES")) * time.Minute,
			TimeZone:        viper.GetString("VNPAY_TIMEZONE"),
		},
		Frontend: FrontendConfig{
			URL: viper.GetString("FRONTEND_URL"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(viper.GetString("KAFKA_BROKERS")),
			Topic:   viper.GetString("KAFKA_TOPIC_ORDER_PAID"),
		},
		Reconcile: ReconcileConfig{
			Spec:      viper.GetString("RECONCILE_SPEC"),
			Window:    viper.GetDuration("RECONCILE_WINDOW"),
			MinAge:    time.Duration(viper.GetInt("VNPAY_EXPIRE_MINUTES")) * time.Minute,
			BatchSize: viper.GetInt("RECONCILE_BATCH_SIZE"),
			Timeout:   viper.GetDuration("RECONCILE_TIMEOUT"),
		},
		Metrics: MetricsConfig{
			PushURL:      viper.GetString("METRICS_PUSH_URL"),
			PushInterval: viper.GetDuration("METRICS_PUSH_INTERVAL"),
			PushLabels:   viper.GetString("METRICS_PUSH_LABELS"),
		},
	}

	if cfg.Database.Name == "" {
		log.Println("WARNING: DB_NAME is not set")
	}
	if cfg.VNPay.TmnCode == "" || cfg.VNPay.HashSecret == "" {
		log.Println("WARNING: VNPAY_TMN_CODE or VNPAY_HASH_SECRET is not set, payments are disabled")
	}

	return cfg, nil
}

// LoadDatabaseOnly reads just the database settings, for schema bootstrap runs.
func LoadDatabaseOnly() (*DatabaseConfig, error) {
	_ = godotenv.Load()
	viper.AutomaticEnv()
	setDefaults()

	db := databaseFromEnv()
	if db.Name == "" {
		return nil, fmt.Errorf("DB_NAME is not set")
	}
	return &db, nil
}

func setDefaults() {
	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "3306")
	viper.SetDefault("DB_CHARSET", "utf8mb4")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_DEDUP_TTL", "24h")
	viper.SetDefault("VNPAY_API_URL", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html")
	viper.SetDefault("VNPAY_RETURN_URL", "http://localhost:8080/api/orders/vnpay/return")
	viper.SetDefault("VNPAY_QUERY_URL", "https://sandbox.vnpayment.vn/merchant_webapi/api/transaction")
	viper.SetDefault("VNPAY_VERSION", vnpay.DefaultVersion)
	viper.SetDefault("VNPAY_LOCALE", vnpay.DefaultLocale)
	viper.SetDefault("VNPAY_LEDGER_CURRENCY", "USD")
	viper.SetDefault("VNPAY_EXCHANGE_RATE", "25000")
	viper.SetDefault("VNPAY_AMOUNT_TOLERANCE", "0.01")
	viper.SetDefault("VNPAY_EXPIRE_MINUTES", 15)
	viper.SetDefault("VNPAY_TIMEZONE", vnpay.DefaultTimeZone)
	viper.SetDefault("FRONTEND_URL", "http://localhost:3000")
	viper.SetDefault("KAFKA_TOPIC_ORDER_PAID", "order.paid")
	viper.SetDefault("RECONCILE_SPEC", "0 */5 * * * *")
	viper.SetDefault("RECONCILE_WINDOW", "24h")
	viper.SetDefault("RECONCILE_BATCH_SIZE", 50)
	viper.SetDefault("RECONCILE_TIMEOUT", "2m")
	viper.SetDefault("METRICS_PUSH_INTERVAL", "10s")
}

func databaseFromEnv() DatabaseConfig {
	return DatabaseConfig{
		Host:    viper.GetString("DB_HOST"),
		Port:    viper.GetString("DB_PORT"),
		Name:    viper.GetString("DB_NAME"),
		User:    viper.GetString("DB_USER"),
		Pass:    viper.GetString("DB_PASS"),
		Charset: viper.GetString("DB_CHARSET"),
	}
}

func decimalSetting(key string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(viper.GetString(key)))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Gateway projects the merchant settings into the gateway's own config.
func (c VNPayConfig) Gateway() vnpay.Config {
	return vnpay.Config{
		TmnCode:        c.TmnCode,
		HashSecret:     c.HashSecret,
		PayURL:         c.PayURL,
		ReturnURL:      c.ReturnURL,
		QueryURL:       c.QueryURL,
		Version:        c.Version,
		Locale:         c.Locale,
		LedgerCurrency: c.LedgerCurrency,
		ExchangeRate:   c.ExchangeRate,
		ExpireWindow:   c.ExpireWindow,
		Location:       vnpay.LoadLocation(c.TimeZone),
	}
}

// DSN returns the MySQL DSN string for GORM.
func (d *DatabaseConfig) DSN() string {
	return d.User + ":" + d.Pass + "@tcp(" + d.Host + ":" + d.Port + ")/" + d.Name + "?charset=" + d.Charset + "&parseTime=True&loc=UTC"
}
