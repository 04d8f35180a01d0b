// Package secret resolves credential values supplied through configuration
// and masks them for log output.
//
// Configuration fields holding partner credentials (client secret, API
// hash) accept three forms:
//   - a literal value, used as-is
//   - `${VAR}` environment references, expanded strictly (missing variables
//     are an error, not an empty string)
//   - `secretref:<provider>:<ref>` references resolved through a registered
//     Provider
//
// Mask is used by the config and observe packages so credentials never
// appear verbatim in logs or error context.
package secret
