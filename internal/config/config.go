package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Database struct {
	Host       string
	User       string
	Password   string
	Name       string
	Port       string
	SSLMode    string
	MaxRetries int
}

func (d Database) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

type Storage struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	PublicURL string
}

type Billing struct {
	CheckInterval time.Duration
	BillingDay    int
}

type Config struct {
	Port               string
	DB                 Database
	RedisAddr          string
	KafkaBroker        string
	JWTSecret          string
	RBACModelPath      string
	RBACPolicyPath     string
	Storage            Storage
	Billing            Billing
	OutboxPollInterval time.Duration
	RateLimitRPS       float64
	RateLimitBurst     int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "3000")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_name", "schoolops")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("db_max_retries", 5)
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("rbac_model_path", "configs/rbac_model.conf")
	v.SetDefault("rbac_policy_path", "configs/rbac_policy.csv")
	v.SetDefault("s3_region", "auto")
	v.SetDefault("billing_check_interval", time.Hour)
	v.SetDefault("billing_day", 1)
	v.SetDefault("outbox_poll_interval", 3*time.Second)
	v.SetDefault("rate_limit_rps", 20.0)
	v.SetDefault("rate_limit_burst", 40)
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port: v.GetString("port"),
		DB: Database{
			Host:       v.GetString("db_host"),
			User:       v.GetString("db_user"),
			Password:   v.GetString("db_password"),
			Name:       v.GetString("db_name"),
			Port:       v.GetString("db_port"),
			SSLMode:    v.GetString("db_sslmode"),
			MaxRetries: v.GetInt("db_max_retries"),
		},
		RedisAddr:      v.GetString("redis_addr"),
		KafkaBroker:    v.GetString("kafka_broker"),
		JWTSecret:      v.GetString("jwt_secret"),
		RBACModelPath:  v.GetString("rbac_model_path"),
		RBACPolicyPath: v.GetString("rbac_policy_path"),
		Storage: Storage{
			Bucket:    v.GetString("s3_bucket"),
			Region:    v.GetString("s3_region"),
			Endpoint:  v.GetString("s3_endpoint"),
			AccessKey: v.GetString("s3_access_key"),
			SecretKey: v.GetString("s3_secret_key"),
			PublicURL: v.GetString("s3_public_url"),
		},
		Billing: Billing{
			CheckInterval: v.GetDuration("billing_check_interval"),
			BillingDay:    v.GetInt("billing_day"),
		},
		OutboxPollInterval: v.GetDuration("outbox_poll_interval"),
		RateLimitRPS:       v.GetFloat64("rate_limit_rps"),
		RateLimitBurst:     v.GetInt("rate_limit_burst"),
	}

	if cfg.Billing.BillingDay < 1 || cfg.Billing.BillingDay > 28 {
		return nil, fmt.Errorf("BILLING_DAY must be between 1 and 28, got %d", cfg.Billing.BillingDay)
	}

	return cfg, nil
}

func (c *Config) RequireKafka() error {
	if c.KafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}
	return nil
}

func (c *Config) RequireJWT() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}
