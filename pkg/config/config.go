package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	Collections  CollectionsConfig
	Recurring    RecurringConfig
	Payments     PaymentsConfig
	CORS         CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Collections.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GREENCREDITS_APP_ENV" required:"true"`
	Port         string `envconfig:"GREENCREDITS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GREENCREDITS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GREENCREDITS_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"GREENCREDITS_LOG_FORMAT"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"GREENCREDITS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"GREENCREDITS_DB_DSN"`
	Driver string `envconfig:"GREENCREDITS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GREENCREDITS_DB_HOST"`
	LegacyPort     int    `envconfig:"GREENCREDITS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GREENCREDITS_DB_USER"`
	LegacyPassword string `envconfig:"GREENCREDITS_DB_PASSWORD"`
	LegacyName     string `envconfig:"GREENCREDITS_DB_NAME"`
	LegacySSLMode  string `envconfig:"GREENCREDITS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GREENCREDITS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GREENCREDITS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GREENCREDITS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GREENCREDITS_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"GREENCREDITS_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GREENCREDITS_REDIS_URL"`
	Address      string        `envconfig:"GREENCREDITS_REDIS_ADDR"`
	Password     string        `envconfig:"GREENCREDITS_REDIS_PASSWORD"`
	DB           int           `envconfig:"GREENCREDITS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GREENCREDITS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GREENCREDITS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GREENCREDITS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GREENCREDITS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GREENCREDITS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"GREENCREDITS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GREENCREDITS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GREENCREDITS_JWT_EXPIRATION_MINUTES" required:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"GREENCREDITS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"GREENCREDITS_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	HandlerTimeout        time.Duration `envconfig:"GREENCREDITS_EVENTING_HANDLER_TIMEOUT" default:"10s"`
	AMQPURL               string        `envconfig:"GREENCREDITS_EVENTING_AMQP_URL"`
	Exchange              string        `envconfig:"GREENCREDITS_EVENTING_EXCHANGE" default:"greencredits.events"`
	WebhookIdempotencyTTL time.Duration `envconfig:"GREENCREDITS_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

// BrokerEnabled reports whether events should be forwarded to RabbitMQ.
func (e EventingConfig) BrokerEnabled() bool {
	return strings.TrimSpace(e.AMQPURL) != ""
}

type CollectionsConfig struct {
	EarningPerBagCents int64  `envconfig:"GREENCREDITS_EARNING_PER_BAG_CENTS" default:"50"`
	MaxVoucherCents    int64  `envconfig:"GREENCREDITS_MAX_VOUCHER_CENTS" default:"50000"`
	ServiceWindowStart string `envconfig:"GREENCREDITS_SERVICE_WINDOW_START" default:"08:00"`
	ServiceWindowEnd   string `envconfig:"GREENCREDITS_SERVICE_WINDOW_END" default:"20:00"`
	Timezone           string `envconfig:"GREENCREDITS_TIMEZONE" default:"Europe/Dublin"`
}

// Location resolves the configured timezone, falling back to UTC.
func (c CollectionsConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c CollectionsConfig) validate() error {
	if c.EarningPerBagCents <= 0 {
		return fmt.Errorf("%s must be positive", EnvEarningPerBagCents)
	}
	if c.MaxVoucherCents <= 0 {
		return fmt.Errorf("%s must be positive", EnvMaxVoucherCents)
	}
	return nil
}

type RecurringConfig struct {
	HorizonWeeks int    `envconfig:"GREENCREDITS_RECURRING_HORIZON_WEEKS" default:"4"`
	Schedule     string `envconfig:"GREENCREDITS_RECURRING_SCHEDULE" default:"0 2 * * *"`
}

type PaymentsConfig struct {
	PriceWeekly  string `envconfig:"GREENCREDITS_PAYMENTS_PRICE_WEEKLY"`
	PriceMonthly string `envconfig:"GREENCREDITS_PAYMENTS_PRICE_MONTHLY"`
	PriceYearly  string `envconfig:"GREENCREDITS_PAYMENTS_PRICE_YEARLY"`
}

// PlanForPrice maps a provider price id onto a plan code.
func (p PaymentsConfig) PlanForPrice(priceID string) (string, bool) {
	priceID = strings.TrimSpace(priceID)
	if priceID == "" {
		return "", false
	}
	switch priceID {
	case p.PriceWeekly:
		return "weekly", true
	case p.PriceMonthly:
		return "monthly", true
	case p.PriceYearly:
		return "yearly", true
	}
	return "", false
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"GREENCREDITS_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = "sqlite"
		if db.DSN == "" {
			db.DSN = "file:greencredits.db?cache=shared"
		}
		return nil
	}
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
