// Package config loads the ufosure TOML configuration.
//
// Load reads ~/.config/ufosure/config.toml unless a path is given. A missing
// file is not an error: every field has a default, and blank or non-positive
// values fall back to it.
//
//	api_base     = "127.0.0.1:8080"   # robot API host:port or URL
//	base_path    = "/"                # hash-history prefix for view links
//	mode         = "production"       # or "development"; UFOSURE_MODE wins
//	script_dir   = "~/.config/ufosure/scripts"
//	log_file     = "~/.local/state/ufosure/ufosure.log"
//	log_level    = "info"
//	metrics_addr = ""                 # e.g. "127.0.0.1:9090" to serve /metrics
//	buffer_lines = 500                # monitoring history kept in memory
//	command_rate = 5.0                # script commands per second
//
// Paths starting with "~" are expanded to the user's home directory and made
// absolute.
package config
