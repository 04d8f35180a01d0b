package secret

import (
	"context"
	"fmt"
	"os"
)

// Provider resolves secrets by reference string.
//
// Implementations must be safe for concurrent use and must not log secret
// values.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, ref string) (string, error)
}

// EnvProvider resolves references against the process environment. It is
// the default provider registered by config loading.
type EnvProvider struct{}

func (EnvProvider) Name() string { return "env" }

func (EnvProvider) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := os.LookupEnv(ref)
	if !ok {
		return "", fmt.Errorf("secret: environment variable %q is not set", ref)
	}
	return v, nil
}
