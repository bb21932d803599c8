// Package file persists the provider registry as config.toml in the config
// directory. The file is written 0600 inside a 0700 directory.
package file
