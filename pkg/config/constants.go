package config

// EnvPrefix is the envconfig prefix for every setting.
const EnvPrefix = "pearlstrands"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv     = "PEARLSTRANDS_APP_ENV"
	EnvPort       = "PEARLSTRANDS_APP_PORT"
	EnvDBDSN      = "PEARLSTRANDS_DB_DSN"
	EnvDBHost     = "PEARLSTRANDS_DB_HOST"
	EnvDBUser     = "PEARLSTRANDS_DB_USER"
	EnvDBName     = "PEARLSTRANDS_DB_NAME"
	EnvRedisURL   = "PEARLSTRANDS_REDIS_URL"
	EnvJWTSecret  = "PEARLSTRANDS_JWT_SECRET"
	EnvJWTIssuer  = "PEARLSTRANDS_JWT_ISSUER"
	EnvJWTExpMins = "PEARLSTRANDS_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
