package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const fullConfig = `
log_level: debug
env: production
http_server_addr: ":8080"
sql_db: postgres://app@localhost:5432/storebuilder
frontend_url: https://shop.example.com
backend_url: https://api.example.com
uploads_dir: /var/uploads
jwt:
  secret: s3cret
  ttl: 24h
payfast:
  merchant_id: "10000100"
  merchant_key: 46f0cd694581a
  passphrase: jt7NOE43FZPn
  sandbox: false
rate_limit:
  rps: 5
  burst: 10
broker:
  seed_brokers: [kafka-1:9092, kafka-2:9092]
  schema_registry_urls: [http://registry:8081]
  tls:
    enabled: true
    ca_file: /etc/kafka/ca.pem
  topics:
    order_events: orders
  groups:
    store_sales: sales
`

func TestLoadFile(t *testing.T) {
	t.Setenv("PORT", "")
	cfg, err := load(writeConfig(t, fullConfig), true)
	require.NoError(t, err)

	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.True(t, cfg.Production())
	assert.Equal(t, ":8080", cfg.HTTPServerAddr)
	assert.Equal(t, "postgres://app@localhost:5432/storebuilder", cfg.SQLDB)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, "10000100", cfg.Payfast.MerchantID)
	assert.False(t, cfg.Payfast.Sandbox)
	assert.Equal(t, 5.0, cfg.RateLimit.RPS)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Broker.SeedBrokers)
	assert.True(t, cfg.Broker.Enabled())
	assert.True(t, cfg.Broker.TLS.Enabled)
	assert.Equal(t, "/etc/kafka/ca.pem", cfg.Broker.TLS.CAFile)
	assert.Equal(t, "orders", cfg.Broker.Topics.OrderEvents)
	assert.Equal(t, "sales", cfg.Broker.Groups.StoreSales)
}

func TestLoadDefaultsFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://legacy@db/app")
	t.Setenv("JWT_SECRET", "legacy-secret")
	t.Setenv("PORT", "7000")

	cfg, err := load(filepath.Join(t.TempDir(), "missing.yaml"), false)
	require.NoError(t, err)

	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, ":7000", cfg.HTTPServerAddr)
	assert.Equal(t, "postgres://legacy@db/app", cfg.SQLDB)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.TTL)
	assert.True(t, cfg.Payfast.Sandbox)
	assert.False(t, cfg.Broker.Enabled())
	assert.Equal(t, "order-events", cfg.Broker.Topics.OrderEvents)
}

func TestLoadPrefixedEnvWins(t *testing.T) {
	t.Setenv("JWT_SECRET", "legacy")
	t.Setenv("STOREBUILDER_JWT_SECRET", "prefixed")
	t.Setenv("STOREBUILDER_SQL_DB", "postgres://db/app")
	t.Setenv("STOREBUILDER_BROKER_SEED_BROKERS", "k1:9092,k2:9092")
	t.Setenv("STOREBUILDER_BROKER_SCHEMA_REGISTRY_URLS", "http://sr:8081")
	t.Setenv("STOREBUILDER_RATE_LIMIT_BURST", "3")

	cfg, err := load(filepath.Join(t.TempDir(), "missing.yaml"), false)
	require.NoError(t, err)

	assert.Equal(t, "prefixed", cfg.JWT.Secret)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Broker.SeedBrokers)
	assert.Equal(t, 3, cfg.RateLimit.Burst)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		required bool
		missing  bool
	}{
		{
			name:     "explicit file is missing",
			required: true,
			missing:  true,
		},
		{
			name:    "required values",
			content: "env: development\n",
		},
		{
			name:    "unknown key",
			content: "sql_db: x\njwt:\n  secret: y\nmongo_uri: z\n",
		},
		{
			name:    "unknown env",
			content: "sql_db: x\njwt:\n  secret: y\nenv: staging\n",
		},
		{
			name: "brokers without registry",
			content: "sql_db: x\njwt:\n  secret: y\n" +
				"broker:\n  seed_brokers: [k:9092]\n",
		},
		{
			name:    "production without merchant",
			content: "sql_db: x\njwt:\n  secret: y\nenv: production\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "missing.yaml")
			if !tt.missing {
				path = writeConfig(t, tt.content)
			}
			_, err := load(path, tt.required)
			assert.Error(t, err)
		})
	}
}
