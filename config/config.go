// Package config loads store and logging settings from YAML.
//
//	config:
//	  store:
//	    buffer_size: 8
//	    num_workers: 4
//	    source_size: 64
//	  log:
//	    level: debug
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/on-the-ground/loadable_go/log"
	"gopkg.in/yaml.v3"
)

// StoreConfig sizes the store's dispatch workers and change feed.
type StoreConfig struct {
	BufferSize int // default: 1
	NumWorkers int // default: 1
	SourceSize int // default: 16
}

func NewStoreConfig(bufferSize, numWorkers, sourceSize int) StoreConfig {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if sourceSize <= 0 {
		sourceSize = 16
	}
	return StoreConfig{
		BufferSize: bufferSize,
		NumWorkers: numWorkers,
		SourceSize: sourceSize,
	}
}

// Config is a tree of settings addressed by dotted keys.
type Config struct {
	values map[string]any
}

func New(values map[string]any) Config {
	if values == nil {
		values = make(map[string]any)
	}
	return Config{values: values}
}

// FromFile reads a YAML file.
func FromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return FromYAML(data)
}

// FromYAML parses YAML data into a Config.
func FromYAML(data []byte) (Config, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	return New(m), nil
}

// Get walks the dotted key through nested maps.
func (c Config) Get(key string) (any, bool) {
	var cur any = c.values
	for _, part := range strings.Split(key, delimiter) {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func (c Config) Int(key string, def int) (int, error) {
	raw, ok := c.Get(key)
	if !ok {
		return def, nil
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return def, fmt.Errorf("config %s: %v is not an integer", key, v)
		}
		return int(v), nil
	default:
		return def, fmt.Errorf("config %s: unexpected type: %T", key, raw)
	}
}

func (c Config) String(key string, def string) (string, error) {
	raw, ok := c.Get(key)
	if !ok {
		return def, nil
	}
	s, ok := raw.(string)
	if !ok {
		return def, fmt.Errorf("config %s: unexpected type: %T", key, raw)
	}
	return s, nil
}

// Store reads the store section, falling back to defaults for missing keys.
func (c Config) Store() (StoreConfig, error) {
	bufferSize, err := c.Int(ConfigStoreBufferSize, 0)
	if err != nil {
		return StoreConfig{}, err
	}
	numWorkers, err := c.Int(ConfigStoreNumWorkers, 0)
	if err != nil {
		return StoreConfig{}, err
	}
	sourceSize, err := c.Int(ConfigStoreSourceSize, 0)
	if err != nil {
		return StoreConfig{}, err
	}
	return NewStoreConfig(bufferSize, numWorkers, sourceSize), nil
}

// LogLevel reads config.log.level, defaulting to info.
func (c Config) LogLevel() (log.LogLevel, error) {
	s, err := c.String(ConfigLogLevel, string(log.LogInfo))
	return log.LogLevel(s), err
}
