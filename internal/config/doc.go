// Package config loads, validates, and defaults the TOML configuration used
// by the reelforge daemon and CLI.
package config
