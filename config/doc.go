// Package config holds the immutable configuration for the G2A integration
// client.
//
// A Config is assembled once, fully populated (WithDefaults fills every gap)
// and validated before a client is constructed. It is never mutated
// afterwards; reconfiguration means building a new Config and a new client.
//
// Configuration can come from three places, merged in order of precedence:
// explicit struct literals, a YAML file (Load), and environment variables
// with the G2A_ prefix (FromEnv, which also reads a .env file when
// present). Credential fields accept ${VAR} and secretref: forms, resolved
// through the secret package.
package config
