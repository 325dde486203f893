// Package env overlays environment variables on a driven.ConfigStore.
//
// Each dotted key maps to one variable: "embedding.api_key" is read from
// SERCHA_RAG_EMBEDDING_API_KEY. Variables may come from the process
// environment or from a .env file loaded with LoadDotEnv.
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/config"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure Overlay implements the interface.
var _ driven.ConfigStore = (*Overlay)(nil)

// Prefix starts every variable read by the overlay.
const Prefix = "SERCHA_RAG_"

// DefaultDotEnv is the file LoadDotEnv reads when given no path.
const DefaultDotEnv = ".env"

// LookupFunc reports the value of an environment variable.
type LookupFunc func(name string) (string, bool)

// VarName returns the environment variable for a config key.
func VarName(key string) string {
	r := strings.NewReplacer(".", "_", "-", "_")
	return Prefix + strings.ToUpper(r.Replace(key))
}

// LoadDotEnv loads variables from path into the process environment.
// Variables already set are not overridden and a missing file is ignored.
func LoadDotEnv(path string) error {
	if path == "" {
		path = DefaultDotEnv
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	logger.Debug("Loaded environment from %s", path)
	return nil
}

// ReadDotEnv parses a .env file without touching the process environment.
func ReadDotEnv(path string) (LookupFunc, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}, nil
}

// Overlay answers reads from the environment first and the base store
// second. Writes go to the base store.
type Overlay struct {
	base   driven.ConfigStore
	lookup LookupFunc
}

// New overlays the process environment on base.
func New(base driven.ConfigStore) *Overlay {
	return NewWithLookup(base, os.LookupEnv)
}

// NewWithLookup overlays the variables reported by lookup on base.
func NewWithLookup(base driven.ConfigStore, lookup LookupFunc) *Overlay {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &Overlay{base: base, lookup: lookup}
}

// Overridden reports whether key is currently set by the environment.
func (o *Overlay) Overridden(key string) bool {
	_, ok := o.lookup(VarName(key))
	return ok
}

// Get retrieves a configuration value by key.
// Environment values are returned as strings.
func (o *Overlay) Get(key string) (any, bool) {
	if v, ok := o.lookup(VarName(key)); ok {
		return v, true
	}
	return o.base.Get(key)
}

// GetString retrieves a string configuration value.
func (o *Overlay) GetString(key string) string {
	val, _ := o.Get(key)
	return config.String(val)
}

// GetInt retrieves an integer configuration value.
func (o *Overlay) GetInt(key string) int {
	val, _ := o.Get(key)
	return config.Int(val)
}

// GetFloat retrieves a floating-point configuration value.
func (o *Overlay) GetFloat(key string) float64 {
	val, _ := o.Get(key)
	return config.Float(val)
}

// GetBool retrieves a boolean configuration value.
func (o *Overlay) GetBool(key string) bool {
	val, _ := o.Get(key)
	return config.Bool(val)
}

// GetStringSlice retrieves a string slice configuration value.
// Environment values are split on commas.
func (o *Overlay) GetStringSlice(key string) []string {
	val, ok := o.Get(key)
	if !ok {
		return nil
	}
	return config.StringSlice(val)
}

// Keys returns the base store's keys. Variables cannot be mapped back to
// keys unambiguously, so environment-only settings are not listed.
func (o *Overlay) Keys() []string {
	return o.base.Keys()
}

// Set writes to the base store.
func (o *Overlay) Set(key string, value any) error {
	if o.Overridden(key) {
		logger.Warn("%s is set in the environment and overrides %s", VarName(key), key)
	}
	return o.base.Set(key, value)
}

// Save persists the base store.
func (o *Overlay) Save() error {
	return o.base.Save()
}

// Load reloads the base store.
func (o *Overlay) Load() error {
	return o.base.Load()
}

// Path returns the base store's path.
func (o *Overlay) Path() string {
	return o.base.Path()
}
