package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var Conf *Config

func init() {
	Conf = NewConfig()
}

type (
	Config struct {
		AppName         string
		Env             string // DEV (default), TEST, QA, PROD
		Build           string
		Debug           bool
		TestMode        bool
		SecretKey       []byte
		WorkDir         string
		FrontendBaseURL string

		DefaultFromName string
		DefaultFromAddr string
		SendgridApiKey  string
		RollbarToken    string

		PasswordResetTimeoutDelta time.Duration

		Server   ServerConfig
		Database DatabaseConfig
		Defense  DefenseConfig
	}

	ServerConfig struct {
		Host                      string
		Addr                      string
		DebugAddr                 string
		ShutdownTimeout           time.Duration
		RequestTimeout            time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		Host          string
		Port          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	DefenseConfig struct {
		// MaxJurySize caps the number of professors on a single jury.
		MaxJurySize int
		// DefaultProfessorCapacity applies to professors with no explicit
		// max concurrent defenses set.
		DefaultProfessorCapacity int
	}
)

func (c DatabaseConfig) Address() string {
	return c.Host + ":" + c.Port
}

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.DefaultFromName, Address: c.DefaultFromAddr}
}

func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "PFEBridge")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "j2x!z&vq5_wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$c")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromName", "PFEBridge")
	v.SetDefault("defaultFromAddr", "noreply@localhost")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.debugAddr", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.requestTimeout", 10*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.name", "pfebridge")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "pfebridge")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("defense.maxJurySize", 3)
	v.SetDefault("defense.defaultProfessorCapacity", 3)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd := getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		AppName:         v.GetString("appName"),
		Env:             env,
		Build:           v.GetString("build"),
		Debug:           v.GetBool("debug"),
		TestMode:        env == "TEST",
		SecretKey:       []byte(v.GetString("secretKey")),
		WorkDir:         wd,
		FrontendBaseURL: v.GetString("frontendBaseURL"),

		DefaultFromName: v.GetString("defaultFromName"),
		DefaultFromAddr: v.GetString("defaultFromAddr"),
		SendgridApiKey:  v.GetString("sendgridApiKey"),
		RollbarToken:    v.GetString("rollbarToken"),

		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),

		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Addr:                      v.GetString("server.addr"),
			DebugAddr:                 v.GetString("server.debugAddr"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			RequestTimeout:            v.GetDuration("server.requestTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Name:          v.GetString("database.name"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Defense: DefenseConfig{
			MaxJurySize:              v.GetInt("defense.maxJurySize"),
			DefaultProfessorCapacity: v.GetInt("defense.defaultProfessorCapacity"),
		},
	}
}

func getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	return wd
}
