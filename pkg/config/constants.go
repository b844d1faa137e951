package config

// EnvPrefix is passed to envconfig; individual fields carry fully
// prefixed names so this stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvDBDSN  = "GHARSEVA_DB_DSN"
	EnvDBHost = "GHARSEVA_DB_HOST"
	EnvDBUser = "GHARSEVA_DB_USER"
	EnvDBName = "GHARSEVA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
