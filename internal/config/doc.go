// Package config loads, normalizes, and validates subsync configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// HF_TOKEN and SUBSYNC_LOG_LEVEL. Estimator tunables live under [sync] so a
// run can be reproduced from the config file alone.
package config
