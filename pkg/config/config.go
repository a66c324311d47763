package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is passed to envconfig; every variable below already spells
// out the full name so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv = "CAMPUS_APP_ENV"
	EnvPort   = "CAMPUS_APP_PORT"
	EnvDBDSN  = "CAMPUS_DB_DSN"
	EnvDBHost = "CAMPUS_DB_HOST"
	EnvDBUser = "CAMPUS_DB_USER"
	EnvDBName = "CAMPUS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Sendgrid      SendgridConfig
	Mpesa         MpesaConfig
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
	Env          string `envconfig:"CAMPUS_APP_ENV" required:"true"`
	Port         string `envconfig:"CAMPUS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CAMPUS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CAMPUS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CAMPUS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CAMPUS_DB_DSN"`
	Driver string `envconfig:"CAMPUS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CAMPUS_DB_HOST"`
	LegacyPort     int    `envconfig:"CAMPUS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CAMPUS_DB_USER"`
	LegacyPassword string `envconfig:"CAMPUS_DB_PASSWORD"`
	LegacyName     string `envconfig:"CAMPUS_DB_NAME"`
	LegacySSLMode  string `envconfig:"CAMPUS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CAMPUS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CAMPUS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CAMPUS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CAMPUS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CAMPUS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CAMPUS_REDIS_ADDR"`
	Password     string        `envconfig:"CAMPUS_REDIS_PASSWORD"`
	DB           int           `envconfig:"CAMPUS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CAMPUS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CAMPUS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CAMPUS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CAMPUS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CAMPUS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CAMPUS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CAMPUS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CAMPUS_JWT_EXPIRATION_MINUTES" required:"true"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CAMPUS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CAMPUS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CAMPUS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CAMPUS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CAMPUS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"CAMPUS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"CAMPUS_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"CAMPUS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"CAMPUS_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"CAMPUS_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"CAMPUS_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CAMPUS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CAMPUS_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CAMPUS_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"CAMPUS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"CAMPUS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	EventsTopic        string `envconfig:"CAMPUS_PUBSUB_EVENTS_TOPIC" required:"true"`
	EventsSubscription string `envconfig:"CAMPUS_PUBSUB_EVENTS_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"CAMPUS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"CAMPUS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"CAMPUS_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type SendgridConfig struct {
	APIKey      string `envconfig:"CAMPUS_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"CAMPUS_SENDGRID_FROM_EMAIL"`
}

type MpesaConfig struct {
	BaseURL          string        `envconfig:"CAMPUS_MPESA_BASE_URL" default:"https://sandbox.safaricom.co.ke"`
	ConsumerKey      string        `envconfig:"CAMPUS_MPESA_CONSUMER_KEY"`
	ConsumerSecret   string        `envconfig:"CAMPUS_MPESA_CONSUMER_SECRET"`
	ShortCode        string        `envconfig:"CAMPUS_MPESA_SHORT_CODE"`
	Passkey          string        `envconfig:"CAMPUS_MPESA_PASSKEY"`
	CallbackURL      string        `envconfig:"CAMPUS_MPESA_CALLBACK_URL"`
	Timeout          time.Duration `envconfig:"CAMPUS_MPESA_TIMEOUT" default:"30s"`
	TransactionType  string        `envconfig:"CAMPUS_MPESA_TRANSACTION_TYPE" default:"CustomerPayBillOnline"`
	AccountRefPrefix string        `envconfig:"CAMPUS_MPESA_ACCOUNT_REF_PREFIX" default:"CAMPUS"`
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
