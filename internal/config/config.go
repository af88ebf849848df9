package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/rocketscienceinc/rummy-backend/internal/entity"
)

type Config struct {
	LogLevel          string             `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort          string             `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort        string             `yaml:"socket-port" env:"SOCKET_PORT" env-default:"8080"`
	Redis             Redis              `yaml:"redis"`
	SQLiteStoragePath string             `yaml:"sqlite-storage-path" env:"SQLITE_STORAGE_PATH" env-default:"history.db"`
	JWTSecretKey      string             `yaml:"jwt-secret-key" env:"JWT_SECRET_KEY"`
	Lock              Lock               `yaml:"lock"`
	Game              Game               `yaml:"game"`
	Matchmaker        Matchmaker         `yaml:"matchmaker"`
	TableTypes        []entity.TableType `yaml:"table-types"`
}

type Redis struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Lock struct {
	TTL        time.Duration `yaml:"ttl" env-default:"10s"`
	Retries    int           `yaml:"retries" env-default:"10"`
	RetryDelay time.Duration `yaml:"retry-delay" env-default:"100ms"`
}

type Game struct {
	HandSize        int           `yaml:"hand-size" env-default:"13"`
	MaxScore        int           `yaml:"max-score" env-default:"80"`
	FirstDropScore  int           `yaml:"first-drop-score" env-default:"20"`
	MiddleDropScore int           `yaml:"middle-drop-score" env-default:"40"`
	TurnTimeout     time.Duration `yaml:"turn-timeout" env-default:"30s"`
	RoundStartDelay time.Duration `yaml:"round-start-delay" env-default:"5s"`
	DeclareTimeout  time.Duration `yaml:"declare-timeout" env-default:"30s"`
	RoundEndDelay   time.Duration `yaml:"round-end-delay" env-default:"10s"`
	GameEndDelay    time.Duration `yaml:"game-end-delay" env-default:"3s"`
	MaxRounds       int           `yaml:"max-rounds" env-default:"0"`
	CommissionRate  float64       `yaml:"commission-rate" env-default:"0.1"`
}

type Matchmaker struct {
	PollInterval time.Duration `yaml:"poll-interval" env-default:"2s"`
	WaitTimeout  time.Duration `yaml:"wait-timeout" env-default:"60s"`
}

var defaultTableTypes = []entity.TableType{
	{ID: "points-2", MaxPlayers: 2, PointValue: 1, MinBalance: 80},
	{ID: "points-6", MaxPlayers: 6, PointValue: 1, MinBalance: 80},
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	if len(config.TableTypes) == 0 {
		config.TableTypes = defaultTableTypes
	}

	if err := config.Validate(); err != nil {
		panic(fmt.Errorf("invalid config: %w", err))
	}

	return config
}

// Validate checks settings the game cannot run without.
func (that *Config) Validate() error {
	if that.Game.HandSize < 1 {
		return fmt.Errorf("hand-size must be positive, got %d", that.Game.HandSize)
	}

	for _, tableType := range that.TableTypes {
		if tableType.ID == "" {
			return fmt.Errorf("table type without id")
		}
		if tableType.MaxPlayers < 2 || tableType.MaxPlayers > entity.MaxSeats {
			return fmt.Errorf("table type %s: max-players must be within 2..%d", tableType.ID, entity.MaxSeats)
		}
	}

	return nil
}

func (that *Config) TableType(id string) (entity.TableType, bool) {
	for _, tableType := range that.TableTypes {
		if tableType.ID == id {
			return tableType, true
		}
	}
	return entity.TableType{}, false
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
