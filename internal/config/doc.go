// Package config handles configuration loading, parsing, and validation
// from the process environment and an optional .env override file.
//
// Load builds a single typed Config once at startup. Every variable is
// parsed eagerly and all failures are reported together, so a broken
// deployment shows every missing or malformed setting in one error rather
// than one per restart. No partially-populated Config is ever returned.
package config
