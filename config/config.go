// config/config.go
package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Game     GameConfig     `mapstructure:"game"`
	Database DatabaseConfig `mapstructure:"database"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MonitorAddress string `mapstructure:"monitor_address"`
	Debug          bool   `mapstructure:"debug"`
}

type GameConfig struct {
	MaxCardPlayers   int           `mapstructure:"max_card_players"`
	MaxTriviaPlayers int           `mapstructure:"max_trivia_players"`
	HandSize         int           `mapstructure:"hand_size"`
	VoteWindow       time.Duration `mapstructure:"vote_window"`
	ResultsWindow    time.Duration `mapstructure:"results_window"`
	AnimationWindow  time.Duration `mapstructure:"animation_window"`
	RoomTTL          time.Duration `mapstructure:"room_ttl"`
	CleanupInterval  time.Duration `mapstructure:"cleanup_interval"`
}

type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

func setDefaults() {
	viper.SetDefault("server.http_address", ":8080")
	viper.SetDefault("server.rpc_address", ":8081")
	viper.SetDefault("server.monitor_address", ":9090")
	viper.SetDefault("server.debug", false)

	viper.SetDefault("game.max_card_players", 4)
	viper.SetDefault("game.max_trivia_players", 8)
	viper.SetDefault("game.hand_size", 7)
	viper.SetDefault("game.vote_window", "30s")
	viper.SetDefault("game.results_window", "8s")
	viper.SetDefault("game.animation_window", "3s")
	viper.SetDefault("game.room_ttl", "2h")
	viper.SetDefault("game.cleanup_interval", "5m")

	viper.SetDefault("database.driver", "embedded")
	viper.SetDefault("database.postgres.host", "localhost")
	viper.SetDefault("database.postgres.port", 5432)
}

// LoadConfig reads config.yaml from path. A missing file is not an error:
// the server runs on defaults and environment overrides.
func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()
	setDefaults()

	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	err = viper.Unmarshal(&config)
	return
}
