package secret

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnvStrict expands `${VAR}` references in s. A reference to a
// variable missing from the environment is an error rather than a silent
// empty string, so a credential typo fails at load time instead of at the
// first partner call. `$$` escapes a literal dollar sign.
func ExpandEnvStrict(s string) (string, error) {
	const dollarSentinel = "\x00G2A_LITERAL_DOLLAR\x00"
	s = strings.ReplaceAll(s, "$$", dollarSentinel)

	missing := make(map[string]struct{})
	for _, match := range envVarPattern.FindAllStringSubmatch(s, -1) {
		if _, ok := os.LookupEnv(match[1]); !ok {
			missing[match[1]] = struct{}{}
		}
	}
	if len(missing) > 0 {
		keys := make([]string, 0, len(missing))
		for k := range missing {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "", fmt.Errorf("secret: missing environment variables: %s", strings.Join(keys, ", "))
	}

	s = envVarPattern.ReplaceAllStringFunc(s, func(m string) string {
		return os.Getenv(m[2 : len(m)-1])
	})
	return strings.ReplaceAll(s, dollarSentinel, "$"), nil
}

// Resolver resolves credential values using registered providers.
type Resolver struct {
	providers map[string]Provider
}

// NewResolver creates a resolver. The env provider is always registered.
func NewResolver(providers ...Provider) *Resolver {
	r := &Resolver{providers: map[string]Provider{"env": EnvProvider{}}}
	for _, p := range providers {
		if p != nil {
			r.providers[p.Name()] = p
		}
	}
	return r
}

// ParseRef parses a reference of the form `secretref:<provider>:<ref>`.
func ParseRef(value string) (provider, ref string, ok bool) {
	const prefix = "secretref:"
	if !strings.HasPrefix(value, prefix) {
		return "", "", false
	}
	parts := strings.SplitN(strings.TrimPrefix(value, prefix), ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// ResolveValue resolves environment references and secret refs in value.
// Plain values pass through unchanged.
func (r *Resolver) ResolveValue(ctx context.Context, value string) (string, error) {
	expanded, err := ExpandEnvStrict(value)
	if err != nil {
		return "", err
	}

	providerName, ref, ok := ParseRef(expanded)
	if !ok {
		return expanded, nil
	}

	p, ok := r.providers[providerName]
	if !ok {
		return "", fmt.Errorf("secret: provider %q is not registered", providerName)
	}
	resolved, err := p.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}
	if resolved == "" {
		return "", fmt.Errorf("secret: provider %q returned an empty value", providerName)
	}
	return resolved, nil
}
