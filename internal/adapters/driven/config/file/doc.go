// Package file provides the TOML-backed driven.ConfigStore.
// Keys are addressed in dot notation and written back as nested tables.
package file
