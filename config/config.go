package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
}

type DatabaseConfig struct {
	// Driver selects the persistence backend: "gorm" or "pq".
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

// GameConfig 比赛相关配置
type GameConfig struct {
	TickHz            int `mapstructure:"tick_hz"`
	BroadcastHz       int `mapstructure:"broadcast_hz"`
	MatchSeconds      int `mapstructure:"match_seconds"`
	ResetDelaySeconds int `mapstructure:"reset_delay_seconds"`
	DefaultMaxPlayers int `mapstructure:"default_max_players"`
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.http_address", ":8080")
	viper.SetDefault("server.rpc_address", ":8081")
	viper.SetDefault("server.metrics_address", ":9090")
	viper.SetDefault("database.driver", "gorm")
	viper.SetDefault("game.tick_hz", 60)
	viper.SetDefault("game.broadcast_hz", 20)
	viper.SetDefault("game.match_seconds", 600)
	viper.SetDefault("game.reset_delay_seconds", 5)
	viper.SetDefault("game.default_max_players", 6)

	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
