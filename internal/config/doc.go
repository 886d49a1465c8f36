// Package config provides configuration management for NothingHide.
//
// Configuration flows from three layers, lowest precedence first: built-in
// defaults, the .nothinghide YAML file (current directory, then home
// directory, then the XDG config directory), and CLI flags. Environment
// variables loaded from .env supply API keys so they never appear in shell
// history or config files checked into version control.
package config
