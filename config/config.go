package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	DevEnv  = "dev"
	TestEnv = "test"
	ProdEnv = "prod"

	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Config holds every runtime setting of the API server. Values come from the
// `default` tags first and are then overridden by environment variables.
type Config struct {
	Env  string `default:"dev"`
	Port string `default:"5000"`

	Store             string `default:"mongo"`
	MongoURI          string `default:"mongodb://127.0.0.1:27017"`
	DBName            string `default:"aura"`
	MongoTransactions bool   `default:"false"`

	JWTSecret    string
	TokenTTL     time.Duration `default:"168h"`
	CookieSecure bool          `default:"false"`

	AllowedOrigins string `default:"http://localhost:5173,http://localhost:3000,https://aura0.netlify.app,https://aura0-jade.vercel.app"`

	CloudinaryURL string
	ReelMaxBytes  int64 `default:"52428800"`
	ImageMaxBytes int64 `default:"10485760"`

	GinMode  string `default:"debug"`
	LogLevel string `default:"info"`

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubscriber string `default:"mailto:admin@aura.app"`

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string `default:"http://localhost:5000/google/callback"`

	StaticDir          string
	RateLimitPerMinute int `default:"60"`
}

// LoadDotEnvs loads .env files by priority. Files that don't exist are
// skipped; variables already present in the process environment win.
func LoadDotEnvs() {
	env := os.Getenv("AURA_ENV")
	if env == "" {
		env = DevEnv
	}

	godotenv.Load(".env." + env + ".local")
	if env != TestEnv {
		godotenv.Load(".env.local")
	}
	godotenv.Load(".env." + env)
	godotenv.Load(".env")
}

// Load builds a Config from defaults and the process environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.Wrap(err, "apply config defaults")
	}

	setString(&cfg.Env, "AURA_ENV")
	setString(&cfg.Port, "PORT")
	setString(&cfg.Store, "STORE")
	setString(&cfg.MongoURI, "MONGODB_URI")
	setString(&cfg.DBName, "DB_NAME")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setString(&cfg.AllowedOrigins, "ALLOWED_ORIGINS")
	setString(&cfg.CloudinaryURL, "CLOUDINARY_URL")
	setString(&cfg.GinMode, "GIN_MODE")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.VAPIDPublicKey, "VAPID_PUBLIC_KEY")
	setString(&cfg.VAPIDPrivateKey, "VAPID_PRIVATE_KEY")
	setString(&cfg.VAPIDSubscriber, "VAPID_SUBSCRIBER")
	setString(&cfg.GoogleClientID, "GOOGLE_CLIENT_ID")
	setString(&cfg.GoogleClientSecret, "GOOGLE_CLIENT_SECRET")
	setString(&cfg.GoogleRedirectURL, "GOOGLE_REDIRECT_URL")
	setString(&cfg.StaticDir, "STATIC_DIR")

	var err error
	if cfg.MongoTransactions, err = boolEnv("MONGO_TRANSACTIONS", cfg.MongoTransactions); err != nil {
		return nil, err
	}
	if cfg.CookieSecure, err = boolEnv("COOKIE_SECURE", cfg.CookieSecure); err != nil {
		return nil, err
	}
	if cfg.ReelMaxBytes, err = int64Env("REEL_MAX_BYTES", cfg.ReelMaxBytes); err != nil {
		return nil, err
	}
	if cfg.ImageMaxBytes, err = int64Env("IMAGE_MAX_BYTES", cfg.ImageMaxBytes); err != nil {
		return nil, err
	}
	limit, err := int64Env("RATE_LIMIT_PER_MINUTE", int64(cfg.RateLimitPerMinute))
	if err != nil {
		return nil, err
	}
	cfg.RateLimitPerMinute = int(limit)

	if v := os.Getenv("TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, errors.Wrap(err, "TOKEN_TTL")
		}
		cfg.TokenTTL = ttl
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would make the server unsafe or unusable.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		if c.Env != DevEnv || c.IsRelease() {
			return errors.Errorf("JWT_SECRET must be set outside %s (env %q, gin mode %q)", DevEnv, c.Env, c.GinMode)
		}
		c.JWTSecret = "aura-dev-secret-change-me"
	}
	if c.Store != StoreMongo && c.Store != StoreMemory {
		return errors.Errorf("STORE must be %q or %q, got %q", StoreMongo, StoreMemory, c.Store)
	}
	if c.ReelMaxBytes <= 0 || c.ImageMaxBytes <= 0 {
		return errors.New("upload size limits must be positive")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.RateLimitPerMinute <= 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE must be positive")
	}
	return nil
}

// Origins returns the CORS allow-list.
func (c *Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (c *Config) IsRelease() bool {
	return c.GinMode == "release"
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func boolEnv(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.Wrap(err, key)
	}
	return b, nil
}

func int64Env(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, key)
	}
	return n, nil
}
