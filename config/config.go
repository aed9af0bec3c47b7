package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFileEnvName = "STOREBUILDER_CONFIG_FILE"
	envPrefix         = "STOREBUILDER"

	defaultConfigFile = "/config.yaml"

	EnvProduction  = "production"
	EnvDevelopment = "development"
)

type topics struct {
	OrderEvents string `mapstructure:"order_events"`
}

type groups struct {
	StoreSales string `mapstructure:"store_sales"`
}

type brokerTLS struct {
	Enabled  bool   `mapstructure:"enabled"`
	CAFile   string `mapstructure:"ca_file"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

type broker struct {
	SeedBrokers        []string  `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls"`
	TLS                brokerTLS `mapstructure:"tls"`
	SASLUser           string    `mapstructure:"sasl_user"`
	SASLPass           string    `mapstructure:"sasl_pass"`
	Topics             topics    `mapstructure:"topics"`
	Groups             groups    `mapstructure:"groups"`
}

// Enabled reports whether order events go to Kafka.
func (b broker) Enabled() bool {
	return len(b.SeedBrokers) != 0
}

type jwt struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type payfast struct {
	MerchantID  string `mapstructure:"merchant_id"`
	MerchantKey string `mapstructure:"merchant_key"`
	Passphrase  string `mapstructure:"passphrase"`
	Sandbox     bool   `mapstructure:"sandbox"`
}

type rateLimit struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type Config struct {
	LogLevel       slog.Level `mapstructure:"log_level"`
	Env            string     `mapstructure:"env"`
	HTTPServerAddr string     `mapstructure:"http_server_addr"`
	SQLDB          string     `mapstructure:"sql_db"`
	FrontendURL    string     `mapstructure:"frontend_url"`
	BackendURL     string     `mapstructure:"backend_url"`
	UploadsDir     string     `mapstructure:"uploads_dir"`
	JWT            jwt        `mapstructure:"jwt"`
	Payfast        payfast    `mapstructure:"payfast"`
	RateLimit      rateLimit  `mapstructure:"rate_limit"`
	Broker         broker     `mapstructure:"broker"`
}

func (c Config) Production() bool {
	return c.Env == EnvProduction
}

// legacyEnv are the environment names the service was deployed with
// before the STOREBUILDER_ prefix.
var legacyEnv = map[string]string{
	"sql_db":               "DATABASE_URL",
	"frontend_url":         "FRONTEND_URL",
	"backend_url":          "BACKEND_URL",
	"jwt.secret":           "JWT_SECRET",
	"payfast.merchant_id":  "PAYFAST_MERCHANT_ID",
	"payfast.merchant_key": "PAYFAST_MERCHANT_KEY",
	"payfast.passphrase":   "PAYFAST_PASSPHRASE",
	"payfast.sandbox":      "PAYFAST_SANDBOX",
}

func Load() Config {
	path, explicit := getConfigFilepath()
	cfg, err := load(path, explicit)
	if err != nil {
		die(err)
	}
	return cfg
}

func load(path string, required bool) (Config, error) {
	v := viper.New()
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return Config{}, err
	}

	v.SetConfigFile(path)
	err := v.ReadInConfig()
	if err != nil {
		if required || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}

	var cfg Config
	err = v.UnmarshalExact(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return Config{}, err
	}

	if port, ok := os.LookupEnv("PORT"); ok && port != "" {
		cfg.HTTPServerAddr = ":" + port
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("env", EnvDevelopment)
	v.SetDefault("http_server_addr", ":5000")
	v.SetDefault("sql_db", "")
	v.SetDefault("frontend_url", "http://localhost:3000")
	v.SetDefault("backend_url", "http://localhost:5000")
	v.SetDefault("uploads_dir", "uploads")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.ttl", "168h")
	v.SetDefault("payfast.merchant_id", "")
	v.SetDefault("payfast.merchant_key", "")
	v.SetDefault("payfast.passphrase", "")
	v.SetDefault("payfast.sandbox", true)
	v.SetDefault("rate_limit.rps", 2)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("broker.seed_brokers", []string{})
	v.SetDefault("broker.schema_registry_urls", []string{})
	v.SetDefault("broker.tls.enabled", false)
	v.SetDefault("broker.tls.ca_file", "")
	v.SetDefault("broker.tls.cert_file", "")
	v.SetDefault("broker.tls.key_file", "")
	v.SetDefault("broker.sasl_user", "")
	v.SetDefault("broker.sasl_pass", "")
	v.SetDefault("broker.topics.order_events", "order-events")
	v.SetDefault("broker.groups.store_sales", "store-sales")
}

// bindEnv maps every key to STOREBUILDER_<KEY> and to its legacy name when
// it has one. The prefixed name wins.
func bindEnv(v *viper.Viper) error {
	replacer := strings.NewReplacer(".", "_")
	for _, key := range v.AllKeys() {
		names := []string{envPrefix + "_" + strings.ToUpper(replacer.Replace(key))}
		if legacy, ok := legacyEnv[key]; ok {
			names = append(names, legacy)
		}
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return err
		}
	}
	return nil
}

func (c Config) validate() error {
	var errs []error
	if c.SQLDB == "" {
		errs = append(errs, errors.New("sql_db: required"))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret: required"))
	}
	if c.Env != EnvProduction && c.Env != EnvDevelopment && c.Env != "test" {
		errs = append(errs, fmt.Errorf("env: unknown environment %q", c.Env))
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("rate_limit: rps and burst must be positive"))
	}
	if c.Broker.Enabled() && len(c.Broker.SchemaRegistryURLs) == 0 {
		errs = append(errs, errors.New("broker.schema_registry_urls: required with seed_brokers"))
	}
	if c.Production() && c.Payfast.MerchantID == "" {
		errs = append(errs, errors.New("payfast.merchant_id: required in production"))
	}
	return errors.Join(errs...)
}

func getConfigFilepath() (path string, explicit bool) {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", defaultConfigFile, "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env, true
	}
	return *arg, cmdLine.Changed("config")
}

func die(err error) {
	fmt.Printf("failed to load config: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	tamplate := `
	General:
	LogLevel=%q
	Env=%q
	HTTPServerAddr=%q
	FrontendURL=%q
	BackendURL=%q
	UploadsDir=%q
	JWTTTL=%q

	Payfast:
	MerchantID=%q
	Sandbox=%t

	RateLimit:
	RPS=%v
	Burst=%d

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	TLS=%t
	Topics:
		OrderEvents=%q
	Groups:
		StoreSales=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.Env,
		c.HTTPServerAddr,
		c.FrontendURL,
		c.BackendURL,
		c.UploadsDir,
		c.JWT.TTL,
		c.Payfast.MerchantID,
		c.Payfast.Sandbox,
		c.RateLimit.RPS,
		c.RateLimit.Burst,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.TLS.Enabled,
		c.Broker.Topics.OrderEvents,
		c.Broker.Groups.StoreSales,
	)
}
