// Package health reports partner-integration health to the host
// application.
//
// The package does not serve HTTP. It exposes Checker values the host
// wires into its own health endpoint: PartnerChecker summarizes the
// client's circuit-breaker state, rate-limit headroom and the age of
// the last successful partner call, and Registry composes several
// checkers into one status.
package health
