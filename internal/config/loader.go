package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ErrorType classifies configuration failures.
type ErrorType string

const (
	// ErrParsing indicates an environment value could not be parsed into its field type.
	ErrParsing ErrorType = "PARSING_FAILED"
	// ErrValidation indicates the populated configuration failed validation rules.
	ErrValidation ErrorType = "VALIDATION_FAILED"
)

// Error is returned by Load when configuration cannot be used.
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Load reads a .env file if present, populates Config from the environment
// and validates it.
func Load() (*Config, error) {
	// A missing .env file is fine; existing variables are never overridden.
	_ = godotenv.Load() //nolint:errcheck // optional file

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &Error{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, &Error{
			Type:    ErrValidation,
			Message: "configuration validation failed",
			Err:     err,
		}
	}

	return &cfg, nil
}

// ValidateWorker checks the settings only the worker needs.
func (c *Config) ValidateWorker() error {
	if c.Worker.ProjectID == "" {
		return &Error{Type: ErrValidation, Message: "PUBSUB_PROJECT_ID is required"}
	}
	if c.Worker.Subscription == "" {
		return &Error{Type: ErrValidation, Message: "PUBSUB_SUBSCRIPTION is required"}
	}
	return nil
}
