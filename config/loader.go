package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/keymarket/g2a-connect/secret"
)

// Load reads a YAML configuration file, resolves credential references and
// applies defaults. The returned Config is ready for Validate.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	c, err = c.ResolveSecrets(context.Background(), secret.NewResolver())
	if err != nil {
		return Config{}, err
	}
	return c.WithDefaults(), nil
}

// FromEnv builds a Config from G2A_-prefixed environment variables. A .env
// file in the working directory is read first when present; existing
// variables are never overridden by it.
func FromEnv() (Config, error) {
	_ = godotenv.Load() // best effort; absence of .env is normal

	c := Config{
		Credentials: Credentials{
			ClientID:     os.Getenv("G2A_CLIENT_ID"),
			ClientSecret: os.Getenv("G2A_CLIENT_SECRET"),
			APIKey:       os.Getenv("G2A_API_KEY"),
			Email:        os.Getenv("G2A_EMAIL"),
		},
		Environment: Environment(envOr("G2A_ENVIRONMENT", string(EnvSandbox))),
		BaseURL:     os.Getenv("G2A_BASE_URL"),
		TokenURL:    os.Getenv("G2A_TOKEN_URL"),
	}

	var err error
	if c.Timeout, err = envDuration("G2A_TIMEOUT"); err != nil {
		return Config{}, err
	}
	if c.Retry.MaxRetries, err = envInt("G2A_MAX_RETRIES"); err != nil {
		return Config{}, err
	}
	if c.RateLimit.Global.RequestsPerSecond, err = envFloat("G2A_REQUESTS_PER_SECOND"); err != nil {
		return Config{}, err
	}
	if c.RateLimit.Global.Burst, err = envInt("G2A_BURST"); err != nil {
		return Config{}, err
	}
	c.Logging.Level = os.Getenv("G2A_LOG_LEVEL")

	c, err = c.ResolveSecrets(context.Background(), secret.NewResolver())
	if err != nil {
		return Config{}, err
	}
	return c.WithDefaults(), nil
}

// ResolveSecrets resolves ${VAR} and secretref: forms in credential fields.
func (c Config) ResolveSecrets(ctx context.Context, r *secret.Resolver) (Config, error) {
	fields := []struct {
		name  string
		value *string
	}{
		{"client_id", &c.Credentials.ClientID},
		{"client_secret", &c.Credentials.ClientSecret},
		{"api_key", &c.Credentials.APIKey},
		{"email", &c.Credentials.Email},
	}
	for _, f := range fields {
		if *f.value == "" {
			continue
		}
		resolved, err := r.ResolveValue(ctx, *f.value)
		if err != nil {
			return Config{}, fmt.Errorf("config: resolving credentials.%s: %w", f.name, err)
		}
		*f.value = resolved
	}
	return c, nil
}

// String renders the config for logs with credentials masked.
func (c Config) String() string {
	return fmt.Sprintf("Config{env=%s base=%s client_id=%s api_key=%s timeout=%s}",
		c.Environment, c.BaseURL,
		secret.Mask(c.Credentials.ClientID), secret.Mask(c.Credentials.APIKey),
		c.Timeout)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

func envInt(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return f, nil
}
