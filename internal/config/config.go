package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	RedisAddr  string
	ServerAddr string
	JWTSecret  string

	SMTPEnabled  bool
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	AppURL       string
	FromEmail    string
}

func LoadConfig() *Config {
	godotenv.Load()

	viper.AutomaticEnv()
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASS", "secret")
	viper.SetDefault("DB_NAME", "trustguard")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("PORT", ":8080")
	viper.SetDefault("SMTP_ENABLED", false)
	viper.SetDefault("SMTP_HOST", "0.0.0.0")
	viper.SetDefault("SMTP_PORT", 1025)
	viper.SetDefault("APP_URL", "http://localhost:3000")
	viper.SetDefault("FROM_EMAIL", "no-reply@trustguard.io")

	return &Config{
		DBHost:     viper.GetString("DB_HOST"),
		DBPort:     viper.GetInt("DB_PORT"),
		DBUser:     viper.GetString("DB_USER"),
		DBPassword: viper.GetString("DB_PASS"),
		DBName:     viper.GetString("DB_NAME"),
		RedisAddr:  viper.GetString("REDIS_ADDR"),
		ServerAddr: viper.GetString("PORT"),
		JWTSecret:  viper.GetString("JWT_SECRET"),

		SMTPEnabled:  viper.GetBool("SMTP_ENABLED"),
		SMTPHost:     viper.GetString("SMTP_HOST"),
		SMTPPort:     viper.GetInt("SMTP_PORT"),
		SMTPUsername: viper.GetString("SMTP_USER"),
		SMTPPassword: viper.GetString("SMTP_PASS"),
		AppURL:       viper.GetString("APP_URL"),
		FromEmail:    viper.GetString("FROM_EMAIL"),
	}
}

// DSN builds the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort,
	)
}
