package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field formats and the settings each selected backend needs.
func (c *Config) Validate() error {
	var errs []string
	if err := validate.Struct(c); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return err
		}
		for _, e := range ve {
			errs = append(errs, formatFieldError(e))
		}
	}

	needsRedis := c.Storage.LockBackend == "redis" || c.Auth.Revocations == "redis" ||
		(c.RateLimit.Enabled && c.RateLimit.UseRedis)
	if needsRedis && !c.Redis.Enabled() {
		errs = append(errs, "redis.host is required when redis locks, revocations or rate limiting are selected")
	}
	needsMongo := c.Storage.Backend == "mongo" || c.Auth.Source == "mongo" || c.Auth.Revocations == "mongo"
	if needsMongo && c.MongoDB.URI == "" {
		errs = append(errs, "mongodb.uri is required when a mongo backend is selected")
	}
	if c.Storage.Backend == "minio" {
		if c.MinIO.Endpoint == "" || c.MinIO.AccessKey == "" || c.MinIO.SecretKey == "" {
			errs = append(errs, "minio.endpoint, minio.accesskey and minio.secretkey are required for the minio backend")
		}
	}
	if c.Auth.Source == "env" && c.Auth.Password == "" && c.Auth.PasswordHash == "" {
		errs = append(errs, "auth.password or auth.passwordhash is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func formatFieldError(e validator.FieldError) string {
	field := formatFieldPath(e.Namespace())
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, e.Param())
	case "min", "gt":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}

// formatFieldPath converts "Config.Server.Port" to "server.port".
func formatFieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return strings.ToLower(strings.Join(parts, "."))
}
