package config

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	qt.Assert(t, os.WriteFile(path, []byte(body), 0o600), qt.IsNil)
	return path
}

func TestLoadFromFileWithDefaults(t *testing.T) {
	c := qt.New(t)
	path := writeConfig(t, `{
		"app": {"port": "9090", "siteurl": "https://trip.example.com/", "allowedorigins": ["https://a.example", "https://b.example"]},
		"database": {"driver": "SQLite", "databaseuri": "file::memory:"},
		"admin": {"sessionsecret": "from-file", "passcode": "bonjour"}
	}`)

	cfg, err := LoadFrom(path)
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.AppPort, qt.Equals, "9090")
	c.Assert(cfg.SiteURL, qt.Equals, "https://trip.example.com")
	c.Assert(cfg.AllowedOrigins, qt.DeepEquals, []string{"https://a.example", "https://b.example"})
	c.Assert(cfg.DBDriver, qt.Equals, "sqlite")
	c.Assert(cfg.AdminPasscode, qt.Equals, "bonjour")
	c.Assert(cfg.SessionTTLHours, qt.Equals, 168)
	c.Assert(cfg.RateLimitPerMinute, qt.Equals, 30)
	c.Assert(cfg.TrustedProxies, qt.HasLen, 0)
	c.Assert(cfg.SiteTitle, qt.Equals, "Europe Trip Tracker")
}

func TestEnvironmentOverridesFile(t *testing.T) {
	c := qt.New(t)
	path := writeConfig(t, `{"admin": {"sessionsecret": "from-file"}, "database": {"driver": "postgres"}}`)
	t.Setenv("SESSION_SECRET", "from-env")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1,10.0.0.0/8")

	cfg, err := LoadFrom(path)
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.SessionSecret, qt.Equals, "from-env")
	c.Assert(cfg.AllowedOrigins, qt.DeepEquals, []string{"https://a.example", "https://b.example"})
	c.Assert(cfg.RedisPort, qt.Equals, 6380)
	c.Assert(cfg.TrustedProxies, qt.DeepEquals, []string{"10.0.0.1", "10.0.0.0/8"})
	c.Assert(cfg.DBPort, qt.Equals, "5432")
}

func TestLoadFromRejects(t *testing.T) {
	c := qt.New(t)

	_, err := LoadFrom(writeConfig(t, `{"database": {"driver": "mysql"}}`))
	c.Assert(err, qt.ErrorMatches, "SESSION_SECRET must be set.*")

	_, err = LoadFrom(writeConfig(t, `{"admin": {"sessionsecret": "x"}, "database": {"driver": "oracle"}}`))
	c.Assert(err, qt.ErrorMatches, `unsupported DB_DRIVER "oracle"`)

	t.Setenv("SESSION_SECRET", "x")
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.json"))
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.DBDriver, qt.Equals, "mysql")
}

func TestInitDatabaseSQLite(t *testing.T) {
	c := qt.New(t)

	db, err := InitDatabase(AppConfig{DBDriver: "sqlite", DatabaseURI: "file::memory:", LogLevel: "silent"})
	c.Assert(err, qt.IsNil)
	sqlDB, err := db.DB()
	c.Assert(err, qt.IsNil)
	defer sqlDB.Close()
	c.Assert(Migrate(db), qt.IsNil)
	c.Assert(db.Migrator().HasTable("posts"), qt.IsTrue)
	c.Assert(db.Migrator().HasTable("media"), qt.IsTrue)
}
