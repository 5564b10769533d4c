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
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Rollover     RolloverConfig
	Reconcile    ReconcileConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DINEFLOW_APP_ENV" required:"true"`
	Port         string `envconfig:"DINEFLOW_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DINEFLOW_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DINEFLOW_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"DINEFLOW_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"DINEFLOW_DB_DSN"`
	Driver string `envconfig:"DINEFLOW_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DINEFLOW_DB_HOST"`
	LegacyPort     int    `envconfig:"DINEFLOW_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DINEFLOW_DB_USER"`
	LegacyPassword string `envconfig:"DINEFLOW_DB_PASSWORD"`
	LegacyName     string `envconfig:"DINEFLOW_DB_NAME"`
	LegacySSLMode  string `envconfig:"DINEFLOW_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DINEFLOW_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DINEFLOW_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DINEFLOW_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DINEFLOW_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DINEFLOW_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DINEFLOW_REDIS_ADDR"`
	Password     string        `envconfig:"DINEFLOW_REDIS_PASSWORD"`
	DB           int           `envconfig:"DINEFLOW_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DINEFLOW_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DINEFLOW_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DINEFLOW_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DINEFLOW_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DINEFLOW_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DINEFLOW_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"DINEFLOW_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"DINEFLOW_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"DINEFLOW_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	SettlementsTopic        string `envconfig:"DINEFLOW_PUBSUB_SETTLEMENTS_TOPIC" default:"df-settlement-snapshots"`
	SettlementsSubscription string `envconfig:"DINEFLOW_PUBSUB_SETTLEMENTS_SUBSCRIPTION"`
}

type RolloverConfig struct {
	Interval  time.Duration `envconfig:"DINEFLOW_ROLLOVER_INTERVAL" default:"1h"`
	LockTTL   time.Duration `envconfig:"DINEFLOW_ROLLOVER_LOCK_TTL" default:"2h"`
	BatchSize int           `envconfig:"DINEFLOW_ROLLOVER_BATCH_SIZE" default:"500"`
}

type ReconcileConfig struct {
	PersistTimeout time.Duration `envconfig:"DINEFLOW_RECONCILE_PERSIST_TIMEOUT" default:"10s"`
}

func (db *DBConfig) ensureDSN() error {
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
