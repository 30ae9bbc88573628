package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "ADFORGE_DB_DSN"
	EnvDBHost = "ADFORGE_DB_HOST"
	EnvDBUser = "ADFORGE_DB_USER"
	EnvDBName = "ADFORGE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Admin        AdminConfig
	FeatureFlags FeatureFlagsConfig
	Storage      StorageConfig
	GDrive       GDriveConfig
	Supabase     SupabaseConfig
	Upload       UploadConfig
	Queue        QueueConfig
	Reconciler   ReconcilerConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ADFORGE_APP_ENV" required:"true"`
	Port         string `envconfig:"ADFORGE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ADFORGE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ADFORGE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ADFORGE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ADFORGE_DB_DSN"`
	Driver string `envconfig:"ADFORGE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ADFORGE_DB_HOST"`
	LegacyPort     int    `envconfig:"ADFORGE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ADFORGE_DB_USER"`
	LegacyPassword string `envconfig:"ADFORGE_DB_PASSWORD"`
	LegacyName     string `envconfig:"ADFORGE_DB_NAME"`
	LegacySSLMode  string `envconfig:"ADFORGE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ADFORGE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ADFORGE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ADFORGE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ADFORGE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ADFORGE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ADFORGE_REDIS_ADDR"`
	Password     string        `envconfig:"ADFORGE_REDIS_PASSWORD"`
	DB           int           `envconfig:"ADFORGE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ADFORGE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ADFORGE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ADFORGE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ADFORGE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ADFORGE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ADFORGE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ADFORGE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ADFORGE_JWT_EXPIRATION_MINUTES" default:"60"`
}

// AdminConfig guards the cron-triggered admin endpoints (queue drain,
// reconciliation). The secret is shared with the external scheduler.
type AdminConfig struct {
	CronSecret string `envconfig:"ADFORGE_CRON_SECRET" required:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ADFORGE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ADFORGE_AUTO_MIGRATE" default:"false"`
}

// StorageConfig selects the backend for new uploads. The provider is resolved
// once at process start; per-record provider columns keep reads and deletes
// working for legacy rows.
type StorageConfig struct {
	DefaultProvider string `envconfig:"ADFORGE_STORAGE_PROVIDER" default:"gdrive"`
}

func (s StorageConfig) validate() error {
	switch s.DefaultProvider {
	case "gdrive", "supabase":
		return nil
	}
	return fmt.Errorf("unsupported storage provider %q", s.DefaultProvider)
}

type GDriveConfig struct {
	ClientEmail     string `envconfig:"ADFORGE_GDRIVE_CLIENT_EMAIL"`
	PrivateKey      string `envconfig:"ADFORGE_GDRIVE_PRIVATE_KEY"`
	CredentialsJSON string `envconfig:"ADFORGE_GDRIVE_CREDENTIALS_JSON"`
	RootFolderID    string `envconfig:"ADFORGE_GDRIVE_ROOT_FOLDER_ID"`
}

type SupabaseConfig struct {
	URL            string `envconfig:"ADFORGE_SUPABASE_URL"`
	ServiceRoleKey string `envconfig:"ADFORGE_SUPABASE_SERVICE_ROLE_KEY"`
	Bucket         string `envconfig:"ADFORGE_SUPABASE_BUCKET" default:"product-images"`
}

type UploadConfig struct {
	MaxUploadMB int `envconfig:"ADFORGE_MAX_UPLOAD_MB" default:"20"`
}

func (u UploadConfig) MaxUploadBytes() int64 {
	return int64(u.MaxUploadMB) * 1024 * 1024
}

type QueueConfig struct {
	BatchSize       int           `envconfig:"ADFORGE_QUEUE_BATCH_SIZE" default:"50"`
	MaxRetries      int           `envconfig:"ADFORGE_QUEUE_MAX_RETRIES" default:"3"`
	ProcessingLease time.Duration `envconfig:"ADFORGE_QUEUE_PROCESSING_LEASE" default:"15m"`
}

type ReconcilerConfig struct {
	OrphanPolicy      string        `envconfig:"ADFORGE_RECONCILER_ORPHAN_POLICY" default:"conservative"`
	ThrottleEvery     int           `envconfig:"ADFORGE_RECONCILER_THROTTLE_EVERY" default:"10"`
	ThrottlePause     time.Duration `envconfig:"ADFORGE_RECONCILER_THROTTLE_PAUSE" default:"100ms"`
	CronExecuteDelete bool          `envconfig:"ADFORGE_RECONCILER_CRON_EXECUTE" default:"false"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"ADFORGE_CRON_INTERVAL" default:"1h"`
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
