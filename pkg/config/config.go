package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the envconfig namespace shared by every Lumen binary.
const EnvPrefix = "lumen"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "LUMEN_DB_DSN"
	EnvDBHost = "LUMEN_DB_HOST"
	EnvDBUser = "LUMEN_DB_USER"
	EnvDBName = "LUMEN_DB_NAME"
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
	Entitlements  EntitlementsConfig
	Badges        BadgesConfig
	OpenAI        OpenAIConfig
	GCP           GCPConfig
	GCS           GCSConfig
	PubSub        PubSubConfig
	Stripe        StripeConfig
	Outbox        OutboxConfig
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
	Env          string `envconfig:"LUMEN_APP_ENV" required:"true"`
	Port         string `envconfig:"LUMEN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LUMEN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LUMEN_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"LUMEN_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"LUMEN_DB_DSN"`
	Driver string `envconfig:"LUMEN_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LUMEN_DB_HOST"`
	LegacyPort     int    `envconfig:"LUMEN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LUMEN_DB_USER"`
	LegacyPassword string `envconfig:"LUMEN_DB_PASSWORD"`
	LegacyName     string `envconfig:"LUMEN_DB_NAME"`
	LegacySSLMode  string `envconfig:"LUMEN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LUMEN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LUMEN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LUMEN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LUMEN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LUMEN_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LUMEN_REDIS_ADDR"`
	Password     string        `envconfig:"LUMEN_REDIS_PASSWORD"`
	DB           int           `envconfig:"LUMEN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LUMEN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LUMEN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LUMEN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LUMEN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LUMEN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"LUMEN_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"LUMEN_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"LUMEN_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"LUMEN_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"LUMEN_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"LUMEN_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"LUMEN_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"LUMEN_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"LUMEN_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"LUMEN_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"LUMEN_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"LUMEN_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"LUMEN_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"LUMEN_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"LUMEN_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate   bool   `envconfig:"LUMEN_AUTO_MIGRATE" default:"false"`
	GCSAccessMode string `envconfig:"LUMEN_GCS_ACCESS_MODE" default:"private"`
}

// EntitlementsConfig tunes the free-tier usage gate.
type EntitlementsConfig struct {
	DailyLimit    int           `envconfig:"LUMEN_ENTITLEMENTS_DAILY_LIMIT" default:"2"`
	DefaultLimit  int           `envconfig:"LUMEN_ENTITLEMENTS_DEFAULT_LIMIT" default:"1"`
	CounterTTL    time.Duration `envconfig:"LUMEN_ENTITLEMENTS_COUNTER_TTL" default:"48h"`
	UpsellMessage string        `envconfig:"LUMEN_ENTITLEMENTS_UPSELL_MESSAGE" default:"You've reached today's free limit. Upgrade to Lumen Premium for unlimited access."`
}

// BadgesConfig controls badge evaluation behavior.
type BadgesConfig struct {
	WeekStart string `envconfig:"LUMEN_WEEK_START" default:"monday"`
}

type OpenAIConfig struct {
	APIKey  string        `envconfig:"LUMEN_OPENAI_API_KEY"`
	Model   string        `envconfig:"LUMEN_OPENAI_MODEL" default:"gpt-4o-mini"`
	BaseURL string        `envconfig:"LUMEN_OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	Timeout time.Duration `envconfig:"LUMEN_OPENAI_TIMEOUT" default:"12s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"LUMEN_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"LUMEN_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"LUMEN_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"LUMEN_GCS_BUCKET_NAME"`
	UploadURLExpiry   time.Duration `envconfig:"LUMEN_GCS_UPLOAD_URL_EXPIRY" default:"15m"`
	DownloadURLExpiry time.Duration `envconfig:"LUMEN_GCS_DOWNLOAD_URL_EXPIRY" default:"1h"`
	MaxUploadMB       int           `envconfig:"LUMEN_GCS_MAX_UPLOAD_MB" default:"20"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"LUMEN_PUBSUB_DOMAIN_TOPIC" default:"lumen-domain-events"`
	DomainSubscription string `envconfig:"LUMEN_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type StripeConfig struct {
	APIKey             string        `envconfig:"LUMEN_STRIPE_API_KEY"`
	Secret             string        `envconfig:"LUMEN_STRIPE_SECRET"`
	Env                string        `envconfig:"LUMEN_STRIPE_ENV" default:"test"`
	PremiumPriceID     string        `envconfig:"LUMEN_STRIPE_PREMIUM_PRICE_ID"`
	PremiumPlusPriceID string        `envconfig:"LUMEN_STRIPE_PREMIUM_PLUS_PRICE_ID"`
	SuccessURL         string        `envconfig:"LUMEN_STRIPE_SUCCESS_URL" default:"https://app.lumenwell.io/premium/success"`
	CancelURL          string        `envconfig:"LUMEN_STRIPE_CANCEL_URL" default:"https://app.lumenwell.io/premium"`
	WebhookEventTTL    time.Duration `envconfig:"LUMEN_STRIPE_WEBHOOK_EVENT_TTL" default:"720h"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"LUMEN_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"LUMEN_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"LUMEN_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
