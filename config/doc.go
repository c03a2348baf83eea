// Package config loads the tysh TOML configuration file.
//
// Values not present in the file keep their defaults. Unknown keys are an
// error so that typos do not silently fall back to defaults.
//
//	[shell]
//	prompt = ">> "
//	history_size = 500
//	color = "auto"   # auto, on, off
//	ui = "auto"      # auto, on, off
//
//	[layout]
//	pointer_size = 0 # 0 takes the width recorded in the binary
//	max_depth = 64
//
//	[cache]
//	enabled = false
//	dir = ""         # empty means $XDG_CACHE_HOME/tysh
//
//	[log]
//	level = "warn"   # debug, info, warn, error
package config
