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
	Checkout      CheckoutConfig
	Notifications NotificationsConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"PEARLSTRANDS_APP_ENV" required:"true"`
	Port         string `envconfig:"PEARLSTRANDS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PEARLSTRANDS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PEARLSTRANDS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"PEARLSTRANDS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"PEARLSTRANDS_DB_DSN"`
	Driver string `envconfig:"PEARLSTRANDS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PEARLSTRANDS_DB_HOST"`
	LegacyPort     int    `envconfig:"PEARLSTRANDS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PEARLSTRANDS_DB_USER"`
	LegacyPassword string `envconfig:"PEARLSTRANDS_DB_PASSWORD"`
	LegacyName     string `envconfig:"PEARLSTRANDS_DB_NAME"`
	LegacySSLMode  string `envconfig:"PEARLSTRANDS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PEARLSTRANDS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PEARLSTRANDS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PEARLSTRANDS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PEARLSTRANDS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PEARLSTRANDS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PEARLSTRANDS_REDIS_ADDR"`
	Password     string        `envconfig:"PEARLSTRANDS_REDIS_PASSWORD"`
	DB           int           `envconfig:"PEARLSTRANDS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PEARLSTRANDS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PEARLSTRANDS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PEARLSTRANDS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PEARLSTRANDS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PEARLSTRANDS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"PEARLSTRANDS_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"PEARLSTRANDS_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"PEARLSTRANDS_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"PEARLSTRANDS_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PEARLSTRANDS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PEARLSTRANDS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PEARLSTRANDS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PEARLSTRANDS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PEARLSTRANDS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"PEARLSTRANDS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"PEARLSTRANDS_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"PEARLSTRANDS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"PEARLSTRANDS_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"PEARLSTRANDS_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"PEARLSTRANDS_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type CheckoutConfig struct {
	IdempotencyTTL      time.Duration `envconfig:"PEARLSTRANDS_CHECKOUT_IDEMPOTENCY_TTL" default:"24h"`
	OrderNumberAttempts int           `envconfig:"PEARLSTRANDS_CHECKOUT_ORDER_NUMBER_ATTEMPTS" default:"5"`
	LowStockThreshold   int           `envconfig:"PEARLSTRANDS_LOW_STOCK_THRESHOLD" default:"5"`
	DeliveryFee         int64         `envconfig:"PEARLSTRANDS_DELIVERY_FEE" default:"1000"`
}

type NotificationsConfig struct {
	Enabled     bool   `envconfig:"PEARLSTRANDS_NOTIFICATIONS_ENABLED" default:"true"`
	DefaultFrom string `envconfig:"PEARLSTRANDS_NOTIFICATIONS_FROM" default:"orders@pearlstrands.cm"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PEARLSTRANDS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PEARLSTRANDS_AUTO_MIGRATE" default:"false"`
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
