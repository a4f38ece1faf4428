package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// DefaultConfigPath is where Load looks for the grouped JSON configuration file.
const DefaultConfigPath = "config/config.json"

// AppConfig holds environment driven configuration values.
// Secrets never have defaults inside code and must come from the config file or the environment.
type AppConfig struct {
	AppPort        string
	SiteURL        string
	SiteTitle      string
	SiteTagline    string
	StaticDir      string
	AllowedOrigins []string
	// Proxies whose X-Forwarded-For is believed; empty means the socket address is the client
	TrustedProxies []string
	// Rate limit for the passcode form and write endpoints
	RateLimitPerMinute int
	// Gin framework configuration
	GinMode string
	GinPath string
	// Database
	DBDriver    string
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// Redis for caching public projections and session revocation; empty host disables it
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// Admin gate
	SessionSecret     string
	AdminPasscode     string
	AdminPasscodeHash string
	SessionTTLHours   int
	CookieSecure      bool
	// Media provider
	CloudName         string
	CloudAPIKey       string
	CloudAPISecret    string
	CloudUploadPreset string
	CloudUploadFolder string
}

var (
	cfg    AppConfig
	loaded bool
	mu     sync.RWMutex
)

// envBindings maps grouped config keys onto the environment variables that override them.
var envBindings = map[string]string{
	"app.port":                "APP_PORT",
	"app.siteurl":             "SITE_URL",
	"app.sitetitle":           "SITE_TITLE",
	"app.sitetagline":         "SITE_TAGLINE",
	"app.staticdir":           "STATIC_DIR",
	"app.allowedorigins":      "CORS_ALLOWED_ORIGINS",
	"app.trustedproxies":      "TRUSTED_PROXIES",
	"app.ratelimitperminute":  "RATE_LIMIT_PER_MINUTE",
	"gin.mode":                "GIN_MODE",
	"gin.logpath":             "GIN_PATH",
	"database.driver":         "DB_DRIVER",
	"database.databaseuri":    "DATABASE_URI",
	"database.dbhost":         "DB_HOST",
	"database.dbport":         "DB_PORT",
	"database.dbuser":         "DB_USER",
	"database.dbpassword":     "DB_PASSWORD",
	"database.dbname":         "DB_NAME",
	"redis.redishost":         "REDIS_HOST",
	"redis.redisport":         "REDIS_PORT",
	"redis.redisdb":           "REDIS_DB",
	"redis.redispassword":     "REDIS_PASSWORD",
	"log.level":               "LOG_LEVEL",
	"log.path":                "LOG_PATH",
	"log.maxsizemb":           "LOG_MAX_SIZE_MB",
	"log.maxbackups":          "LOG_MAX_BACKUPS",
	"log.maxagedays":          "LOG_MAX_AGE_DAYS",
	"log.compress":            "LOG_COMPRESS",
	"admin.sessionsecret":     "SESSION_SECRET",
	"admin.passcode":          "ADMIN_PASSCODE",
	"admin.passcodehash":      "ADMIN_PASSCODE_HASH",
	"admin.sessionttlhours":   "SESSION_TTL_HOURS",
	"admin.cookiesecure":      "COOKIE_SECURE",
	"cloudinary.cloudname":    "CLOUDINARY_CLOUD_NAME",
	"cloudinary.apikey":       "CLOUDINARY_API_KEY",
	"cloudinary.apisecret":    "CLOUDINARY_API_SECRET",
	"cloudinary.uploadpreset": "CLOUDINARY_UPLOAD_PRESET",
	"cloudinary.folder":       "CLOUDINARY_UPLOAD_FOLDER",
}

// Load loads the application configuration. It should be called once during boot.
func Load() AppConfig {
	mu.RLock()
	if loaded {
		defer mu.RUnlock()
		return cfg
	}
	mu.RUnlock()

	c, err := LoadFrom(DefaultConfigPath)
	if err != nil {
		log.Fatal(err)
	}
	Use(c)
	return c
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	mu.RLock()
	if loaded {
		defer mu.RUnlock()
		return cfg
	}
	mu.RUnlock()
	return Load()
}

// Use installs c as the process configuration.
func Use(c AppConfig) {
	mu.Lock()
	cfg = c
	loaded = true
	mu.Unlock()
}

// LoadFrom reads the JSON file at path (missing file is fine), applies defaults and
// environment overrides, and validates required secrets.
// Precedence: environment -> config file -> defaults.
func LoadFrom(path string) (AppConfig, error) {
	v := viper.New()
	v.SetConfigType("json")
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return AppConfig{}, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return AppConfig{}, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return AppConfig{}, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	c := AppConfig{
		AppPort:            v.GetString("app.port"),
		SiteURL:            strings.TrimRight(v.GetString("app.siteurl"), "/"),
		SiteTitle:          v.GetString("app.sitetitle"),
		SiteTagline:        v.GetString("app.sitetagline"),
		StaticDir:          v.GetString("app.staticdir"),
		AllowedOrigins:     readList(v, "app.allowedorigins"),
		TrustedProxies:     readList(v, "app.trustedproxies"),
		RateLimitPerMinute: v.GetInt("app.ratelimitperminute"),
		GinMode:            v.GetString("gin.mode"),
		GinPath:            v.GetString("gin.logpath"),
		DBDriver:           strings.ToLower(v.GetString("database.driver")),
		DatabaseURI:        v.GetString("database.databaseuri"),
		DBHost:             v.GetString("database.dbhost"),
		DBPort:             v.GetString("database.dbport"),
		DBUser:             v.GetString("database.dbuser"),
		DBPassword:         v.GetString("database.dbpassword"),
		DBName:             v.GetString("database.dbname"),
		RedisHost:          v.GetString("redis.redishost"),
		RedisPort:          v.GetInt("redis.redisport"),
		RedisDB:            v.GetInt("redis.redisdb"),
		RedisPassword:      v.GetString("redis.redispassword"),
		LogLevel:           v.GetString("log.level"),
		LogPath:            v.GetString("log.path"),
		LogMaxSizeMB:       v.GetInt("log.maxsizemb"),
		LogMaxBackups:      v.GetInt("log.maxbackups"),
		LogMaxAgeDays:      v.GetInt("log.maxagedays"),
		LogCompress:        v.GetBool("log.compress"),
		SessionSecret:      v.GetString("admin.sessionsecret"),
		AdminPasscode:      v.GetString("admin.passcode"),
		AdminPasscodeHash:  v.GetString("admin.passcodehash"),
		SessionTTLHours:    v.GetInt("admin.sessionttlhours"),
		CookieSecure:       v.GetBool("admin.cookiesecure"),
		CloudName:          v.GetString("cloudinary.cloudname"),
		CloudAPIKey:        v.GetString("cloudinary.apikey"),
		CloudAPISecret:     v.GetString("cloudinary.apisecret"),
		CloudUploadPreset:  v.GetString("cloudinary.uploadpreset"),
		CloudUploadFolder:  v.GetString("cloudinary.folder"),
	}

	applyDefaults(&c)

	if c.SessionSecret == "" {
		return AppConfig{}, errors.New("SESSION_SECRET must be set in config or environment")
	}
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return AppConfig{}, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	return c, nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.SiteURL == "" {
		c.SiteURL = "http://localhost:" + c.AppPort
	}
	if c.SiteTitle == "" {
		c.SiteTitle = "Europe Trip Tracker"
	}
	if c.SiteTagline == "" {
		c.SiteTagline = "Travel journal from our European adventure"
	}
	if c.StaticDir == "" {
		c.StaticDir = "./static"
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 30
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.DBDriver == "" {
		c.DBDriver = "mysql"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		switch c.DBDriver {
		case "postgres":
			c.DBPort = "5432"
		default:
			c.DBPort = "3306"
		}
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "tripjournal"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
	if c.SessionTTLHours == 0 {
		c.SessionTTLHours = 7 * 24
	}
}

// readList accepts either a JSON array or a comma separated string (environment form).
func readList(v *viper.Viper, key string) []string {
	raw := v.Get(key)
	var items []string
	switch t := raw.(type) {
	case []any:
		for _, it := range t {
			if s, ok := it.(string); ok {
				items = append(items, s)
			}
		}
	case []string:
		items = t
	case string:
		items = strings.Split(t, ",")
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if trimmed := strings.TrimSpace(it); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
