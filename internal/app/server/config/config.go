package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPath  = ".env"
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

type Config struct {
	Env    string
	DB     DB
	Server Server
	Logger Logger
	Sync   Sync
}

type DB struct {
	DatabaseURI string `env:"DATABASE_URI"`
	Migrations  string `env:"MIGRATIONS_PATH"`
}

type Server struct {
	RunAddress string `env:"RUN_ADDRESS"`
}

type Logger struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

type Sync struct {
	BatchSize         int           `env:"SYNC_BATCH_SIZE"`
	RemoteURL         string        `env:"SYNC_REMOTE_URL"`
	RemoteAPIKey      string        `env:"SYNC_REMOTE_API_KEY"`
	RemoteTimeout     time.Duration `env:"SYNC_REMOTE_TIMEOUT"`
	DefaultResolution string        `env:"SYNC_DEFAULT_RESOLUTION"`
}

func MustLoad() *Config {
	if err := godotenv.Load(envPath); err != nil {
		log.Println("no .env file found, relying on environment variables")
	}

	viper.AutomaticEnv()
	viper.SetDefault("run_address", ":8080")
	viper.SetDefault("migrations_path", "migrations")
	viper.SetDefault("app_env", EnvLocal)
	viper.SetDefault("sync_batch_size", 100)
	viper.SetDefault("sync_remote_timeout", "30s")
	viper.SetDefault("sync_default_resolution", "local")

	return &Config{
		Env: viper.GetString("app_env"),
		DB: DB{
			DatabaseURI: viper.GetString("database_uri"),
			Migrations:  viper.GetString("migrations_path"),
		},
		Server: Server{RunAddress: viper.GetString("run_address")},
		Logger: Logger{LogLevel: viper.GetString("log_level")},
		Sync: Sync{
			BatchSize:         viper.GetInt("sync_batch_size"),
			RemoteURL:         viper.GetString("sync_remote_url"),
			RemoteAPIKey:      viper.GetString("sync_remote_api_key"),
			RemoteTimeout:     viper.GetDuration("sync_remote_timeout"),
			DefaultResolution: viper.GetString("sync_default_resolution"),
		},
	}
}
