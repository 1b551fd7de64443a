package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env             string // DEV (local; default), TEST, QA, PROD
		Build           string
		Debug           bool
		TestMode        bool
		AppName         string
		SecretKey       string
		RollbarToken    string
		FrontendBaseURL string

		Server   ServerConfig
		Database DatabaseConfig
		WhatsApp WhatsAppConfig
	}

	ServerConfig struct {
		Host               string
		Address            string
		DebugHost          string
		ShutdownTimeout    time.Duration
		RequestTimeout     time.Duration
		JWTExpirationDelta time.Duration
		CacheMaxAge        time.Duration // staleness window clients may serve reads from
	}

	DatabaseConfig struct {
		URI     string // "memory://" selects the in-memory store
		Name    string
		Timeout time.Duration
	}

	WhatsAppConfig struct {
		URL   string
		Token string
	}
)

// InMemory reports whether the in-memory store was requested instead of MongoDB.
func (dc DatabaseConfig) InMemory() bool {
	return strings.HasPrefix(dc.URI, "memory://")
}

func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("build", "dev")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "TopPhysics")
	v.SetDefault("secretKey", "wq3-zp)ke5$+91=hb&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.requestTimeout", 10*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.cacheMaxAge", 10*time.Second)
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "topphysics")
	v.SetDefault("database.timeout", 10*time.Second)
	v.SetDefault("whatsapp.url", "")
	v.SetDefault("whatsapp.token", "")

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
		v.SetDefault("database.uri", "memory://")
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
		Env:             env,
		Build:           v.GetString("build"),
		Debug:           v.GetBool("debug"),
		TestMode:        v.GetBool("testMode"),
		AppName:         v.GetString("appName"),
		SecretKey:       v.GetString("secretKey"),
		RollbarToken:    v.GetString("rollbarToken"),
		FrontendBaseURL: v.GetString("frontendBaseURL"),
		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			Address:            v.GetString("server.address"),
			DebugHost:          v.GetString("server.debugHost"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			RequestTimeout:     v.GetDuration("server.requestTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
			CacheMaxAge:        v.GetDuration("server.cacheMaxAge"),
		},
		Database: DatabaseConfig{
			URI:     v.GetString("database.uri"),
			Name:    v.GetString("database.name"),
			Timeout: v.GetDuration("database.timeout"),
		},
		WhatsApp: WhatsAppConfig{
			URL:   v.GetString("whatsapp.url"),
			Token: v.GetString("whatsapp.token"),
		},
	}
}
