package server

import (
	"os"
	"time"
)

type SeedAdmin struct {
	Username string
	Email    string
	Password string
}

type Config struct {
	Addr            string
	MongoURI        string
	MongoDB         string
	UsersCollection string
	LandsCollection string
	UploadDir       string
	JWTIssuer       string
	TokenTTL        time.Duration
	AdminKey        string
	RedisAddr       string
	SeedAdmin       SeedAdmin
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.UsersCollection == "" {
		c.UsersCollection = "users"
	}
	if c.LandsCollection == "" {
		c.LandsCollection = "lands"
	}
	if c.UploadDir == "" {
		c.UploadDir = "./uploads"
	}
	if c.JWTIssuer == "" {
		c.JWTIssuer = "landreg-backend"
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = 24 * time.Hour
	}
}

// ConfigFromEnv builds a Config from the process environment.
func ConfigFromEnv() Config {
	ttl := 24 * time.Hour
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			ttl = d
		}
	}
	return Config{
		Addr:      os.Getenv("ADDR"),
		MongoURI:  os.Getenv("MONGO_URI"),
		MongoDB:   os.Getenv("MONGO_DB"),
		UploadDir: os.Getenv("UPLOAD_DIR"),
		AdminKey:  os.Getenv("ADMIN_KEY"),
		RedisAddr: os.Getenv("REDIS_ADDR"),
		TokenTTL:  ttl,
		SeedAdmin: SeedAdmin{
			Username: os.Getenv("SEED_ADMIN_USERNAME"),
			Email:    os.Getenv("SEED_ADMIN_EMAIL"),
			Password: os.Getenv("SEED_ADMIN_PASSWORD"),
		},
	}
}
