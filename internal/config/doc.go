// Package config loads connection settings from a YAML file, the
// environment and command-line overrides.
//
// Sources are applied in order, later ones winning:
//
//  1. Defaults (see Default)
//  2. The YAML configuration file
//  3. BIGCOMMERCE_ environment variables
//  4. Overrides passed by the caller, usually from flags
//
// Environment variable names map to keys by dropping the prefix, lowering
// the case and reading a double underscore as the section separator:
// BIGCOMMERCE_AUTH__CLIENT_ID sets auth.client_id.
package config
