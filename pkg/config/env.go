package config

// EnvPrefix namespaces every configuration variable this service reads.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv           = "STOREFRONT_APP_ENV"
	EnvPort             = "STOREFRONT_APP_PORT"
	EnvLogLevel         = "STOREFRONT_LOG_LEVEL"
	EnvCORSOrigins      = "STOREFRONT_CORS_ORIGINS"
	EnvUpstreamBaseURL  = "STOREFRONT_UPSTREAM_BASE_URL"
	EnvUpstreamTimeout  = "STOREFRONT_UPSTREAM_TIMEOUT"
	EnvRedisURL         = "STOREFRONT_REDIS_URL"
	EnvSessionSecret    = "STOREFRONT_SESSION_SECRET"
	EnvSessionIssuer    = "STOREFRONT_SESSION_ISSUER"
	EnvSessionExpMins   = "STOREFRONT_SESSION_EXPIRATION_MINUTES"
	EnvCatalogCacheTTL  = "STOREFRONT_CATALOG_CACHE_TTL"
	EnvNewReleasesToken = "STOREFRONT_CATALOG_NEW_RELEASES_TOKEN"
)
