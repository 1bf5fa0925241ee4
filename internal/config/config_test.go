package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func newViper(values map[string]any) *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(newViper(nil))

	assert.NoError(t, err)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, 5, cfg.DB.MaxRetries)
	assert.Equal(t, time.Hour, cfg.Billing.CheckInterval)
	assert.Equal(t, 1, cfg.Billing.BillingDay)
	assert.Equal(t, 3*time.Second, cfg.OutboxPollInterval)
	assert.Error(t, cfg.RequireKafka())
	assert.Error(t, cfg.RequireJWT())
}

func TestFromViper_Overrides(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]any{
		"db_host":      "db",
		"db_password":  "secret",
		"kafka_broker": "kafka:9092",
		"billing_day":  5,
	}))

	assert.NoError(t, err)
	assert.Equal(t, "host=db user=postgres password=secret dbname=schoolops port=5432 sslmode=disable", cfg.DB.DSN())
	assert.Equal(t, 5, cfg.Billing.BillingDay)
	assert.NoError(t, cfg.RequireKafka())
}

func TestFromViper_InvalidBillingDay(t *testing.T) {
	_, err := fromViper(newViper(map[string]any{"billing_day": 31}))

	assert.Error(t, err)
}
