package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Password PasswordConfig
	Orders   OrdersConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FOODORDER_APP_ENV" default:"dev"`
	Port         string `envconfig:"FOODORDER_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"FOODORDER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FOODORDER_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"FOODORDER_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FOODORDER_DB_DSN"`
	Driver string `envconfig:"FOODORDER_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"FOODORDER_DB_HOST"`
	Port     int    `envconfig:"FOODORDER_DB_PORT" default:"5432"`
	User     string `envconfig:"FOODORDER_DB_USER"`
	Password string `envconfig:"FOODORDER_DB_PASSWORD"`
	Name     string `envconfig:"FOODORDER_DB_NAME"`
	SSLMode  string `envconfig:"FOODORDER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FOODORDER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FOODORDER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FOODORDER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FOODORDER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FOODORDER_REDIS_URL"`
	Address      string        `envconfig:"FOODORDER_REDIS_ADDR"`
	Password     string        `envconfig:"FOODORDER_REDIS_PASSWORD"`
	DB           int           `envconfig:"FOODORDER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FOODORDER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FOODORDER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FOODORDER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FOODORDER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FOODORDER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"FOODORDER_JWT_SECRET" required:"true"`
	RefreshSecret          string `envconfig:"FOODORDER_JWT_REFRESH_SECRET" required:"true"`
	Issuer                 string `envconfig:"FOODORDER_JWT_ISSUER" default:"food-ordering"`
	ExpirationMinutes      int    `envconfig:"FOODORDER_JWT_EXPIRATION_MINUTES" default:"15"`
	RefreshTokenTTLMinutes int    `envconfig:"FOODORDER_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FOODORDER_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FOODORDER_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FOODORDER_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FOODORDER_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FOODORDER_ARGON_KEY_LEN" default:"32"`
}

// OrdersConfig controls the simulated fulfillment timeline.
type OrdersConfig struct {
	ProgressionStep time.Duration `envconfig:"FOODORDER_ORDERS_PROGRESSION_STEP" default:"3s"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	for env, value := range map[string]string{
		"FOODORDER_DB_HOST": db.Host,
		"FOODORDER_DB_USER": db.User,
		"FOODORDER_DB_NAME": db.Name,
	} {
		if value == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either FOODORDER_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
