package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Razorpay      RazorpayConfig
	Mailer        MailerConfig
	Vision        VisionConfig
	Notifications NotificationsConfig
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
	Env          string `envconfig:"GHARSEVA_APP_ENV" required:"true"`
	Port         string `envconfig:"GHARSEVA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GHARSEVA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GHARSEVA_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"GHARSEVA_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"GHARSEVA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"GHARSEVA_DB_DSN"`
	Driver string `envconfig:"GHARSEVA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GHARSEVA_DB_HOST"`
	LegacyPort     int    `envconfig:"GHARSEVA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GHARSEVA_DB_USER"`
	LegacyPassword string `envconfig:"GHARSEVA_DB_PASSWORD"`
	LegacyName     string `envconfig:"GHARSEVA_DB_NAME"`
	LegacySSLMode  string `envconfig:"GHARSEVA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GHARSEVA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GHARSEVA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GHARSEVA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GHARSEVA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GHARSEVA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GHARSEVA_REDIS_ADDR"`
	Password     string        `envconfig:"GHARSEVA_REDIS_PASSWORD"`
	DB           int           `envconfig:"GHARSEVA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GHARSEVA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GHARSEVA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GHARSEVA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GHARSEVA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GHARSEVA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"GHARSEVA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GHARSEVA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GHARSEVA_JWT_EXPIRATION_MINUTES" required:"true"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"GHARSEVA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"GHARSEVA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"GHARSEVA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"GHARSEVA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"GHARSEVA_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"GHARSEVA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"GHARSEVA_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"GHARSEVA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type RazorpayConfig struct {
	KeyID     string `envconfig:"GHARSEVA_RAZORPAY_KEY_ID"`
	KeySecret string `envconfig:"GHARSEVA_RAZORPAY_KEY_SECRET"`
	BaseURL   string `envconfig:"GHARSEVA_RAZORPAY_BASE_URL" default:"https://api.razorpay.com/v1"`
}

type MailerConfig struct {
	RelayURL    string        `envconfig:"GHARSEVA_MAILER_RELAY_URL"`
	APIKey      string        `envconfig:"GHARSEVA_MAILER_API_KEY"`
	DefaultFrom string        `envconfig:"GHARSEVA_MAILER_FROM_EMAIL" default:"no-reply@gharseva.in"`
	Timeout     time.Duration `envconfig:"GHARSEVA_MAILER_TIMEOUT" default:"10s"`
}

type VisionConfig struct {
	Endpoint string        `envconfig:"GHARSEVA_VISION_ENDPOINT"`
	APIKey   string        `envconfig:"GHARSEVA_VISION_API_KEY"`
	Model    string        `envconfig:"GHARSEVA_VISION_MODEL" default:"qwen2.5-vl"`
	Timeout  time.Duration `envconfig:"GHARSEVA_VISION_TIMEOUT" default:"30s"`
}

type NotificationsConfig struct {
	RetentionDays      int     `envconfig:"GHARSEVA_NOTIFICATIONS_RETENTION_DAYS" default:"30"`
	CleanupProbability float64 `envconfig:"GHARSEVA_NOTIFICATIONS_CLEANUP_PROBABILITY" default:"0.01"`
	DispatchQueueSize  int     `envconfig:"GHARSEVA_NOTIFICATIONS_DISPATCH_QUEUE_SIZE" default:"256"`
	DispatchWorkers    int     `envconfig:"GHARSEVA_NOTIFICATIONS_DISPATCH_WORKERS" default:"2"`
	RecentStatsLimit   int     `envconfig:"GHARSEVA_NOTIFICATIONS_RECENT_STATS_LIMIT" default:"5"`
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
