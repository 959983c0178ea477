// Package config loads, normalizes, and validates mediasort configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts and environment variables), reads TOML files, and honours
// environment fallbacks such as MEDIASORT_DB_PATH. The Config type centralizes
// every knob the CLI needs, and Catalog builds the immutable extension and
// field-mapping tables, optionally overridden from a YAML file.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
