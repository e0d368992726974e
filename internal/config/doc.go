// Package config loads runtime configuration for the linkdrop binaries.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with --config / -c.
//  3. Command-line flags, applied only when set explicitly.
//
// Supported flags
//
//	-c, --config string               path to a JSON config file
//	    --db string                   SQLite database path
//	    --container-dir string        shared container directory
//	    --keys-dir string             per-account key directory
//	    --thumbnail-dir string        cached thumbnail directory
//	    --relay strings               relay URL seeded on start (repeatable)
//	    --readiness-timeout duration  how long a send waits for relays
//	    --readiness-poll duration     readiness poll interval
//	    --publish-timeout duration    per-publish deadline
//	    --send-mode string            "confirm" or "local-first"
//	    --log-level string            debug, info, warn or error
//
// # JSON schema
//
// Durations use timex.Duration, so values may be strings like "10s" or
// integer nanoseconds:
//
//	{
//	  "database_path": "/home/me/.config/linkdrop/linkdrop.db",
//	  "container_dir": "/home/me/.config/linkdrop/shared",
//	  "keys_dir": "/home/me/.config/linkdrop/keys",
//	  "thumbnail_dir": "/home/me/.cache/linkdrop/thumbs",
//	  "relays": ["wss://relay.damus.io"],
//	  "readiness_timeout": "10s",
//	  "readiness_poll_interval": "250ms",
//	  "publish_timeout": "15s",
//	  "send_mode": "confirm",
//	  "log_level": "info"
//	}
//
// Keys absent from the file keep their previous value.
package config
