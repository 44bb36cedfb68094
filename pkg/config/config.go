package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is applied to every envconfig lookup.
const EnvPrefix = "leafroom"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "LEAFROOM_DB_DSN"
	EnvDBHost = "LEAFROOM_DB_HOST"
	EnvDBUser = "LEAFROOM_DB_USER"
	EnvDBName = "LEAFROOM_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Shipping     ShippingConfig
	Loyalty      LoyaltyConfig
	Cart         CartConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"LEAFROOM_APP_ENV" required:"true"`
	Port         string `envconfig:"LEAFROOM_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LEAFROOM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LEAFROOM_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LEAFROOM_DB_DSN"`
	Driver string `envconfig:"LEAFROOM_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LEAFROOM_DB_HOST"`
	LegacyPort     int    `envconfig:"LEAFROOM_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LEAFROOM_DB_USER"`
	LegacyPassword string `envconfig:"LEAFROOM_DB_PASSWORD"`
	LegacyName     string `envconfig:"LEAFROOM_DB_NAME"`
	LegacySSLMode  string `envconfig:"LEAFROOM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LEAFROOM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LEAFROOM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LEAFROOM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LEAFROOM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LEAFROOM_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LEAFROOM_REDIS_ADDR"`
	Password     string        `envconfig:"LEAFROOM_REDIS_PASSWORD"`
	DB           int           `envconfig:"LEAFROOM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LEAFROOM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LEAFROOM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LEAFROOM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LEAFROOM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LEAFROOM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"LEAFROOM_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"LEAFROOM_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"LEAFROOM_JWT_EXPIRATION_MINUTES" default:"1440"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"LEAFROOM_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"LEAFROOM_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"LEAFROOM_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"LEAFROOM_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"LEAFROOM_ARGON_KEY_LEN" default:"32"`
}

// ShippingConfig holds the flat shipping rates in euro cents.
type ShippingConfig struct {
	StandardRateCents  int `envconfig:"LEAFROOM_SHIPPING_STANDARD_CENTS" default:"495"`
	ExpressRateCents   int `envconfig:"LEAFROOM_SHIPPING_EXPRESS_CENTS" default:"995"`
	FreeThresholdCents int `envconfig:"LEAFROOM_SHIPPING_FREE_THRESHOLD_CENTS" default:"5000"`
}

// LoyaltyConfig controls the points-per-spend rule. One point is awarded per
// EurosPerPoint euros of order total, rounded down.
type LoyaltyConfig struct {
	EurosPerPoint int `envconfig:"LEAFROOM_LOYALTY_EUROS_PER_POINT" default:"20"`
}

type CartConfig struct {
	TTL time.Duration `envconfig:"LEAFROOM_CART_TTL" default:"720h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"LEAFROOM_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"LEAFROOM_AUTO_MIGRATE" default:"false"`
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
