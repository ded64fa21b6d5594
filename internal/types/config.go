package types

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendDDB   = "ddb"
)

// Config is read from the environment (optionally seeded from a .env file).
// Backend selects where profiles are persisted; only the settings of that backend are used.
type Config struct {
	Backend   string `env:"PROFILE_BACKEND" envDefault:"file" validate:"oneof=file redis ddb"`
	ProfileID string `env:"PROFILE_ID" envDefault:"default" validate:"required,max=128,excludesall=#*"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=trace debug info warn error"`
	HTTPPort  int    `env:"HTTP_PORT" envDefault:"8080" validate:"min=1,max=65535"`

	// File backend
	File      string `env:"PROFILE_FILE" envDefault:"profile.yaml" validate:"required_if=Backend file"`
	WatchFile bool   `env:"WATCH_FILE" envDefault:"false"`

	// DynamoDB backend. An endpoint is only set when testing against a local mock.
	DDBEndpoint string `env:"DDB_ENDPOINT" validate:"omitempty,url"`
	DDBTable    string `env:"DDB_TABLE" envDefault:"easyprofile" validate:"required_if=Backend ddb"`
	AWSRegion   string `env:"AWS_REGION" envDefault:"us-east-1"`

	// Redis backend
	RedisHost string `env:"REDIS_HOST" envDefault:"localhost" validate:"required_if=Backend redis"`
	RedisPort int    `env:"REDIS_PORT" envDefault:"6379" validate:"min=1,max=65535"`
	RedisUser string `env:"REDIS_USER"`
	RedisPass string `env:"REDIS_PASS"`
	RedisTLS  bool   `env:"REDIS_SSL" envDefault:"false"`
	RedisDB   int    `env:"REDIS_DB_NUM" envDefault:"0" validate:"min=0"`

	// Change forwarding. Forwarding is off when SNSTopicARN is empty.
	SNSEndpoint string `env:"SNS_ENDPOINT" validate:"omitempty,url"`
	SNSTopicARN string `env:"SNS_TOPIC_ARN"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ConfigFromEnv parses and validates the process environment.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, Err(ErrInvalidConfig, err, "")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return Err(ErrInvalidConfig, err, "%s fails %q", fe.Field(), fe.Tag())
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
}
