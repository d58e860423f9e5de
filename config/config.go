package config

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	Server struct {
		// Port the HTTP API listens on
		Port string `env:"SERVER_PORT" envDefault:"5250"`

		// Comma separated list of origins allowed by CORS
		AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:8501,http://localhost:5173"`

		// Graceful shutdown timeout (in seconds)
		ShutdownTimeout int `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10"`
	}

	Artifacts struct {
		ModelPath   string `env:"MODEL_PATH" envDefault:"./model/knn_model.json"`
		ScalerPath  string `env:"SCALER_PATH" envDefault:"./model/knn_scaler.json"`
		CommunePath string `env:"COMMUNE_DATA_PATH" envDefault:"./data/communes.csv"`
	}

	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
	}

	Cache struct {
		// Empty address keeps predictions in process memory
		RedisAddr string `env:"REDIS_ADDR"`

		// Maximum number of entries kept by the in-memory cache
		MaxEntries int `env:"CACHE_MAX_ENTRIES" envDefault:"1024"`

		// Time to live of cached predictions (in seconds), 0 means no expiry
		TTL int `env:"CACHE_TTL" envDefault:"3600"`
	}

	Heatmap struct {
		// Geohash precision used when the request does not specify one, 0 disables aggregation
		DefaultPrecision uint `env:"HEATMAP_PRECISION" envDefault:"0"`
	}
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
