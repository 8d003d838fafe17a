package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      int            `json:"port"`
	Env       string         `json:"env"`
	Pepper    string         `json:"pepper"`
	JWTSecret string         `json:"jwt_secret"`
	Database  PostgresConfig `json:"database"`
}

func (c Config) IsProd() bool {
	return c.Env == "prod"
}

type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (pc PostgresConfig) ConnectionInfo() string {
	if pc.Password == "" {
		return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=disable", pc.Host, pc.Port, pc.User, pc.Name)
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", pc.Host, pc.Port, pc.User, pc.Password, pc.Name)
}

func DefaultConfig() Config {
	return Config{
		Port:      8080,
		Env:       "dev",
		Pepper:    "secret-random-string",
		JWTSecret: "secret-jwt-signing-key",
		Database:  DefaultPostgresConfig(),
	}
}

func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "",
		Name:     "conduit",
	}
}

// LoadConfig loads configuration from a .config.json file if present.
// Without a file it falls back to environment variables (a .env file is
// honored via godotenv) on top of the dev defaults. In production the
// file is required, so a deployment can't silently run on dev secrets.
func LoadConfig(prodFlag bool) Config {
	f, err := os.Open(".config.json")
	if err != nil {
		if prodFlag {
			panic("a .config.json file is required in production")
		}
		return envConfig()
	}
	defer f.Close()
	var c Config
	if err := json.NewDecoder(f).Decode(&c); err != nil {
		panic(err)
	}
	fmt.Println("Successfully loaded .config.json")
	return c
}

func envConfig() Config {
	_ = godotenv.Load()
	c := DefaultConfig()
	if port, err := strconv.Atoi(os.Getenv("PORT")); err == nil {
		c.Port = port
	}
	c.Env = getEnv("ENV", c.Env)
	c.Pepper = getEnv("PEPPER", c.Pepper)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	if port, err := strconv.Atoi(os.Getenv("DB_PORT")); err == nil {
		c.Database.Port = port
	}
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	return c
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
