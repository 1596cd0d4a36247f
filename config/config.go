package config

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server   Server
	Database Database
	Testing  Testing
}

type Server struct {
	Port string
}
type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// Testing holds knobs for the attempt engine.
type Testing struct {
	// QuestionLimit caps how many questions are served per attempt. Tests with
	// a larger bank get a random sample of this size at attempt start.
	QuestionLimit int
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetDefault("QUESTION_LIMIT", 50)

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")

	config.Testing.QuestionLimit = viper.GetInt("QUESTION_LIMIT")

	log.Info().Str("port", config.Server.Port).Int("question_limit", config.Testing.QuestionLimit).Msg("Config loaded")
	return &config, nil
}
