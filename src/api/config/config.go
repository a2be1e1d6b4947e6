package config

import (
	"log"
	"os"
	"strings"
)

type Config struct {
	MySQLDSN       string
	RedisURL       string
	JWTSecret      string
	Port           string
	AllowedOrigins []string
	EnableSSL      bool
	SSLCert        string
	SSLKey         string
	SeedOnEmpty    bool
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		if def == "" {
			log.Fatalf("missing env %s", key)
		}
		return def
	}
	return v
}

func Load() Config {
	origins := strings.Split(getenv("ALLOWED_ORIGINS", "http://localhost:3000"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return Config{
		MySQLDSN:       getenv("MYSQL_DSN", "legisrev:legisrev@tcp(127.0.0.1:3306)/legisrev?parseTime=true"),
		RedisURL:       getenv("REDIS_URL", "redis://127.0.0.1:6379/0"),
		JWTSecret:      getenv("JWT_SECRET", ""),
		Port:           getenv("PORT", "8080"),
		AllowedOrigins: origins,
		EnableSSL:      os.Getenv("ENABLE_SSL") == "true",
		SSLCert:        os.Getenv("SSL_CERT"),
		SSLKey:         os.Getenv("SSL_KEY"),
		SeedOnEmpty:    os.Getenv("SEED_ON_EMPTY") == "true",
	}
}
