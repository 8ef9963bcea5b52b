// Package config loads runtime configuration for the authdesk client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file given with -c / --config. The file is parsed as
//     YAML, so plain JSON files are accepted too.
//  3. Command-line flags, which override earlier values.
//
// # File schema
//
//	{
//	  "server_url": "http://localhost:8080",
//	  "request_timeout": "10s",
//	  "data_dir": "/home/me/.local/share/authdesk",
//	  "listen_addr": "127.0.0.1:3000",
//	  "log_format": "text",
//	  "log_level": "info",
//	  "ephemeral": false
//	}
package config
