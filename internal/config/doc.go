// Package config loads, normalizes, and validates equivalence engine
// configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// EQUIV_DATA_DIR and EQUIV_LOG_LEVEL. Every threshold, weight and tolerance the
// pipelines use is a named field here with a documented default, so
// downstream code never carries its own constants.
package config
