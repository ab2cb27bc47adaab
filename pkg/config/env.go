package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "STOREFRONT_APP_ENV"
	EnvPort     = "STOREFRONT_APP_PORT"
	EnvLogLevel = "STOREFRONT_LOG_LEVEL"

	EnvDBDSN  = "STOREFRONT_DB_DSN"
	EnvDBHost = "STOREFRONT_DB_HOST"
	EnvDBPort = "STOREFRONT_DB_PORT"
	EnvDBUser = "STOREFRONT_DB_USER"
	EnvDBPass = "STOREFRONT_DB_PASSWORD"
	EnvDBName = "STOREFRONT_DB_NAME"

	EnvRedisURL = "STOREFRONT_REDIS_URL"

	EnvGCPProjectID          = "STOREFRONT_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic     = "STOREFRONT_PUBSUB_ORDERS_TOPIC"
	EnvPubSubInventoryTopic  = "STOREFRONT_PUBSUB_INVENTORY_TOPIC"
	EnvCheckoutTaxRate       = "STOREFRONT_CHECKOUT_TAX_RATE"
	EnvCheckoutShippingFee   = "STOREFRONT_CHECKOUT_FLAT_SHIPPING_FEE"
	EnvCheckoutLowStock      = "STOREFRONT_CHECKOUT_LOWSTOCK_THRESHOLD"
	EnvCheckoutOrderAttempts = "STOREFRONT_CHECKOUT_ORDER_NUMBER_ATTEMPTS"
	EnvLowStockSuppressTTL   = "STOREFRONT_LOWSTOCK_SUPPRESS_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
