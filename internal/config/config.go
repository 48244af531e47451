package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string

	JWTSecret string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	GraceWindow    time.Duration
	CleanupDelay   time.Duration
	ContactWindow  time.Duration
	GameTimeLimit  time.Duration
	PlayersPerRoom int

	LogLevel string
	LogJSON  bool
}

func Load() *Config {
	// загружаем .env
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	return &Config{
		AppPort:   port,
		JWTSecret: jwtSecret,

		RedisAddr:     envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		GraceWindow:    envSeconds("PLAYER_DISCONNECTION_AWAITING_TIME", 7),
		CleanupDelay:   envSeconds("ROOM_CLEANING_DELAY", 5),
		ContactWindow:  envSeconds("CONTACT_AWAITING_TIME", 5),
		GameTimeLimit:  envSeconds("GAME_TIME_LIMIT", 300),
		PlayersPerRoom: envInt("PLAYERS_PER_ROOM", 3),

		LogLevel: envOr("LOG_LEVEL", "info"),
		LogJSON:  os.Getenv("LOG_JSON") == "true",
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envSeconds(key string, defSeconds int) time.Duration {
	return time.Duration(envInt(key, defSeconds)) * time.Second
}
