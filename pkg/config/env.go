package config

// EnvPrefix is the envconfig prefix shared by every TOITE_* variable.
const EnvPrefix = "toite"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Env var names referenced outside struct tags (tests, error messages).
const (
	EnvAppEnv     = "TOITE_APP_ENV"
	EnvPort       = "TOITE_APP_PORT"
	EnvDBDSN      = "TOITE_DB_DSN"
	EnvDBHost     = "TOITE_DB_HOST"
	EnvDBUser     = "TOITE_DB_USER"
	EnvDBName     = "TOITE_DB_NAME"
	EnvRedisURL   = "TOITE_REDIS_URL"
	EnvJWTSecret  = "TOITE_JWT_SECRET"
	EnvJWTIssuer  = "TOITE_JWT_ISSUER"
	EnvJWTExpMins = "TOITE_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
