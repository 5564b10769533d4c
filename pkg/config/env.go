package config

// EnvPrefix is the envconfig prefix shared by every binary.
const EnvPrefix = "DINEFLOW"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "DINEFLOW_DB_DSN"
	EnvDBHost = "DINEFLOW_DB_HOST"
	EnvDBUser = "DINEFLOW_DB_USER"
	EnvDBName = "DINEFLOW_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
