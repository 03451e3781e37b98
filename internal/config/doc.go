// Package config loads, normalizes, and validates audioscore configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// AUDIOSCORE_BASE_DIR and WHISPER_COMMAND. The Config type centralizes the
// working directory, the whisper command contract, speaker labels, upload
// limits and logging settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
