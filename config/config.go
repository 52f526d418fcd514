package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Debug                    bool          `envconfig:"debug"`
	Port                     int           `envconfig:"port"`
	Env                      string        `envconfig:"env"`
	PostgresHost             string        `envconfig:"postgres_host"`
	PostgresUser             string        `envconfig:"postgres_user"`
	PostgresDB               string        `envconfig:"postgres_db"`
	PostgresPort             int           `envconfig:"postgres_port"`
	PostgresPassword         string        `envconfig:"postgres_password"`
	JWTSecret                string        `envconfig:"jwt_secret"`
	B2KeyID                  string        `envconfig:"b2_key_id"`
	B2ApplicationKey         string        `envconfig:"b2_application_key"`
	PublicB2KeyID            string        `envconfig:"public_b2_key_id"`
	PublicB2ApplicationKey   string        `envconfig:"public_b2_application_key"`
	B2BucketID               string        `envconfig:"b2_bucket_id"`
	B2BucketName             string        `envconfig:"b2_bucket_name"`
	B2AuthTTL                time.Duration `envconfig:"b2_auth_ttl"`
	ServiceAccountPath       string        `envconfig:"service_account_path"`
	AccessControlAllowOrigin string        `envconfig:"access_control_allow_origin"`
}

func Load() (*Config, error) {
	env := os.Getenv("GIN_MODE")
	if env != "release" {
		if err := godotenv.Load("./.env"); err != nil {
			log.Printf("couldn't load env vars: %v", err)
		}
	}

	c := &Config{}
	err := envconfig.Process("hrbridge", c)
	if err != nil {
		return nil, err
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	return c, nil
}

// StorageKeyID returns the object-storage key id. Both naming variants are
// accepted; the private one wins when both are set.
func (c *Config) StorageKeyID() string {
	if c.B2KeyID != "" {
		return c.B2KeyID
	}
	return c.PublicB2KeyID
}

// StorageApplicationKey returns the object-storage application key, with the
// same private-over-public precedence as StorageKeyID.
func (c *Config) StorageApplicationKey() string {
	if c.B2ApplicationKey != "" {
		return c.B2ApplicationKey
	}
	return c.PublicB2ApplicationKey
}
