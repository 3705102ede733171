package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/limaJavier/slotplanner/pkg/model"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env     string
	Port    int
	Log     LogConfig
	Solver  SolverConfig
	Parser  ParserConfig
	Metrics MetricsConfig
}

type LogConfig struct {
	Level  string
	Format string
}

// SolverConfig selects the algorithm used when a request names none
type SolverConfig struct {
	DefaultAlgorithm string
	RandomSeed       int64 // 0 seeds from the clock
}

type ParserConfig struct {
	RequireTeacher bool
	MaxSlot        uint64
}

type MetricsConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Solver = SolverConfig{
		DefaultAlgorithm: v.GetString("DEFAULT_ALGORITHM"),
		RandomSeed:       v.GetInt64("RANDOM_SEED"),
	}

	cfg.Parser = ParserConfig{
		RequireTeacher: v.GetBool("REQUIRE_TEACHER"),
		MaxSlot:        v.GetUint64("MAX_SLOT"),
	}

	cfg.Metrics = MetricsConfig{
		Enabled: v.GetBool("METRICS_ENABLED"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("DEFAULT_ALGORITHM", "probabilistic_alg")
	v.SetDefault("RANDOM_SEED", 0)

	v.SetDefault("REQUIRE_TEACHER", true)
	v.SetDefault("MAX_SLOT", 23)

	v.SetDefault("METRICS_ENABLED", true)
}

// ParsePolicy returns the payload validation policy configured for parsers
func (cfg *Config) ParsePolicy() model.ParsePolicy {
	return model.ParsePolicy{RequireTeacher: cfg.Parser.RequireTeacher, MaxSlot: cfg.Parser.MaxSlot}
}
