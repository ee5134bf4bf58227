package core

import (
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env              string
		Build            string
		Debug            bool
		TestMode         bool
		AppName          string
		SecretKey        string
		FrontendBaseURL  string
		RollbarToken     string
		SendgridAPIKey   string
		defaultFromEmail string

		Server ServerConfig
		Store  StoreConfig
		Admin  AdminConfig
		AI     AIConfig
		Backup BackupConfig
	}

	ServerConfig struct {
		Address                   string
		Host                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	// StoreConfig selects and configures the Record Store backend.
	StoreConfig struct {
		Driver string // memory | file | redis | postgres
		Dir    string
		Quota  int64 // bytes; 0 = unlimited

		RedisAddr     string
		RedisPassword string
		RedisDB       int
		RedisPrefix   string

		Database DatabaseConfig
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	AdminConfig struct {
		Name     string
		Email    string
		Password string
	}

	AIConfig struct {
		APIKey string
		Model  string
	}

	BackupConfig struct {
		AutoInterval time.Duration
	}
)

func (c DatabaseConfig) Address() string {
	return c.Host + ":" + c.Port
}

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
}

// NewConfig loads the configuration from defaults, the optional
// config/.env.<env> file and the environment (prefixed with the env name).
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Escola")
	v.SetDefault("secretKey", "k8#n2v!q0z@r5t&w9p^m1x$c7b(e3y)u6a*s4d%f")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.debugHost", "localhost:4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)

	v.SetDefault("store.driver", "file")
	v.SetDefault("store.dir", "data")
	v.SetDefault("store.quota", 5*1024*1024)
	v.SetDefault("store.redisAddr", "localhost:6379")
	v.SetDefault("store.redisPassword", "")
	v.SetDefault("store.redisDB", 0)
	v.SetDefault("store.redisPrefix", "escola:")
	v.SetDefault("store.database.engine", "postgres")
	v.SetDefault("store.database.host", "localhost")
	v.SetDefault("store.database.port", "5432")
	v.SetDefault("store.database.name", "escola")
	v.SetDefault("store.database.user", "escola")
	v.SetDefault("store.database.password", "")
	v.SetDefault("store.database.adminUser", "")
	v.SetDefault("store.database.adminPassword", "")
	v.SetDefault("store.database.disableTLS", true)

	v.SetDefault("admin.name", "Administrador")
	v.SetDefault("admin.email", "admin@escola.local")
	v.SetDefault("admin.password", "admin")

	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.model", "gemini-1.5-flash")

	v.SetDefault("backup.autoInterval", 5*time.Minute)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
		v.SetDefault("store.driver", "memory")
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:              env,
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		AppName:          v.GetString("appName"),
		SecretKey:        v.GetString("secretKey"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridAPIKey:   v.GetString("sendgridApiKey"),
		defaultFromEmail: v.GetString("defaultFromEmail"),
		Server: ServerConfig{
			Address:                   v.GetString("server.address"),
			Host:                      v.GetString("server.host"),
			DebugHost:                 v.GetString("server.debugHost"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Store: StoreConfig{
			Driver:        strings.ToLower(v.GetString("store.driver")),
			Dir:           v.GetString("store.dir"),
			Quota:         v.GetInt64("store.quota"),
			RedisAddr:     v.GetString("store.redisAddr"),
			RedisPassword: v.GetString("store.redisPassword"),
			RedisDB:       v.GetInt("store.redisDB"),
			RedisPrefix:   v.GetString("store.redisPrefix"),
			Database: DatabaseConfig{
				Engine:        v.GetString("store.database.engine"),
				Host:          v.GetString("store.database.host"),
				Port:          v.GetString("store.database.port"),
				Name:          v.GetString("store.database.name"),
				User:          v.GetString("store.database.user"),
				Password:      v.GetString("store.database.password"),
				AdminUser:     v.GetString("store.database.adminUser"),
				AdminPassword: v.GetString("store.database.adminPassword"),
				DisableTLS:    v.GetBool("store.database.disableTLS"),
			},
		},
		Admin: AdminConfig{
			Name:     v.GetString("admin.name"),
			Email:    CleanString(v.GetString("admin.email"), true /* lower */),
			Password: v.GetString("admin.password"),
		},
		AI: AIConfig{
			APIKey: v.GetString("ai.apiKey"),
			Model:  v.GetString("ai.model"),
		},
		Backup: BackupConfig{
			AutoInterval: v.GetDuration("backup.autoInterval"),
		},
	}
}

// NewTestConfig returns the configuration used by tests: in-memory store, no external services.
func NewTestConfig() *Config {
	return &Config{
		Env:              "TEST",
		Build:            "test",
		Debug:            true,
		TestMode:         true,
		AppName:          "Escola",
		SecretKey:        "secret",
		FrontendBaseURL:  "http://localhost:3000",
		defaultFromEmail: "noreply@localhost",
		Server: ServerConfig{
			Address:                   ":0",
			Host:                      "localhost",
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Store: StoreConfig{Driver: "memory"},
		Admin: AdminConfig{Name: "Admin", Email: "admin@test.cd", Password: "admin"},
		AI:    AIConfig{Model: "gemini-1.5-flash"},
		Backup: BackupConfig{
			AutoInterval: 5 * time.Minute,
		},
	}
}

func (c *Config) String() string {
	return fmt.Sprintf("%s[%s] env=%s store=%s", c.AppName, c.Build, c.Env, c.Store.Driver)
}
