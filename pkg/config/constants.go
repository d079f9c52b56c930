package config

const (
	EnvPrefix = "GREENCREDITS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv       = "GREENCREDITS_APP_ENV"
	EnvPort         = "GREENCREDITS_APP_PORT"
	EnvLogLevel     = "GREENCREDITS_LOG_LEVEL"
	EnvLogWarnStack = "GREENCREDITS_LOG_WARN_STACK"
	EnvLogFormat    = "GREENCREDITS_LOG_FORMAT"

	EnvDBDSN      = "GREENCREDITS_DB_DSN"
	EnvDBDriver   = "GREENCREDITS_DB_DRIVER"
	EnvDBHost     = "GREENCREDITS_DB_HOST"
	EnvDBPort     = "GREENCREDITS_DB_PORT"
	EnvDBUser     = "GREENCREDITS_DB_USER"
	EnvDBPassword = "GREENCREDITS_DB_PASSWORD"
	EnvDBName     = "GREENCREDITS_DB_NAME"
	EnvDBSSLMode  = "GREENCREDITS_DB_SSLMODE"

	EnvRedisURL  = "GREENCREDITS_REDIS_URL"
	EnvRedisAddr = "GREENCREDITS_REDIS_ADDR"

	EnvJWTSecret  = "GREENCREDITS_JWT_SECRET"
	EnvJWTIssuer  = "GREENCREDITS_JWT_ISSUER"
	EnvJWTExpMins = "GREENCREDITS_JWT_EXPIRATION_MINUTES"

	EnvUseSQLite   = "GREENCREDITS_USE_SQLITE"
	EnvAutoMigrate = "GREENCREDITS_AUTO_MIGRATE"

	EnvEventingHandlerTimeout = "GREENCREDITS_EVENTING_HANDLER_TIMEOUT"
	EnvEventingAMQPURL        = "GREENCREDITS_EVENTING_AMQP_URL"
	EnvEventingExchange       = "GREENCREDITS_EVENTING_EXCHANGE"
	EnvEventingIdempotencyTTL = "GREENCREDITS_EVENTING_IDEMPOTENCY_TTL"

	EnvEarningPerBagCents = "GREENCREDITS_EARNING_PER_BAG_CENTS"
	EnvMaxVoucherCents    = "GREENCREDITS_MAX_VOUCHER_CENTS"
	EnvServiceWindowStart = "GREENCREDITS_SERVICE_WINDOW_START"
	EnvServiceWindowEnd   = "GREENCREDITS_SERVICE_WINDOW_END"
	EnvTimezone           = "GREENCREDITS_TIMEZONE"

	EnvRecurringHorizonWeeks = "GREENCREDITS_RECURRING_HORIZON_WEEKS"
	EnvRecurringSchedule     = "GREENCREDITS_RECURRING_SCHEDULE"

	EnvPaymentsPriceWeekly  = "GREENCREDITS_PAYMENTS_PRICE_WEEKLY"
	EnvPaymentsPriceMonthly = "GREENCREDITS_PAYMENTS_PRICE_MONTHLY"
	EnvPaymentsPriceYearly  = "GREENCREDITS_PAYMENTS_PRICE_YEARLY"

	EnvCORSAllowedOrigins = "GREENCREDITS_CORS_ALLOWED_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
