package common

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to upper-snake-cased config keys when looking up environment overrides:
// "modelServerURL" can be overridden with MEDSUPPORT_MODEL_SERVER_URL.
const EnvPrefix = "MEDSUPPORT_"

type Config struct {
	values map[string]any
}

// LoadConfig allows to customize parameters instead of hard-coding them. Always use this function instead of
// hard-coding constants.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

// LoadConfigOrEmpty is like LoadConfig, but a missing file yields an empty config (so that every parameter
// falls back to its default). A malformed file is still an error.
func LoadConfigOrEmpty(path string) (*Config, error) {
	config, err := LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewConfig(nil), nil
	}
	return config, err
}

// ParseConfig parses YAML-encoded parameters.
func ParseConfig(data []byte) (*Config, error) {
	values := make(map[string]any)
	err := yaml.Unmarshal(data, &values)
	if err != nil {
		return nil, err
	}
	return NewConfig(values), nil
}

// NewConfig creates a config from already parsed values. Useful in tests.
func NewConfig(values map[string]any) *Config {
	if values == nil {
		values = make(map[string]any)
	}
	return &Config{values: values}
}

// Set overrides a parameter.
func (c *Config) Set(key string, value any) {
	c.values[key] = value
}

// GetString returns a string-typed parameter. If nothing is found, or if the value cannot be parsed as a string,
// returns an empty value.
func (c *Config) GetString(key string) string {
	value, ok := c.lookup(key)
	if !ok {
		return ""
	}
	str, ok := value.(string)
	if !ok {
		return ""
	}
	return str
}

// GetStringOrDefault returns a string-typed parameter. If nothing is found, or if the value cannot be parsed as a string,
// returns `defaultValue`.
func (c *Config) GetStringOrDefault(key, defaultValue string) string {
	value := c.GetString(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetIntOrDefault returns an integer-typed parameter. If nothing is found, or if the value cannot be parsed as an integer,
// returns `defaultValue`.
func (c *Config) GetIntOrDefault(key string, defaultValue int) int {
	value, ok := c.lookup(key)
	if !ok {
		return defaultValue
	}
	switch v := value.(type) {
	case int:
		return v
	case string:
		intValue, err := strconv.Atoi(v)
		if err != nil {
			return defaultValue
		}
		return intValue
	}
	return defaultValue
}

// GetFloatOrDefault returns a float-typed parameter. If nothing is found, or if the value cannot be parsed as a float,
// returns `defaultValue`.
func (c *Config) GetFloatOrDefault(key string, defaultValue float64) float64 {
	value, ok := c.lookup(key)
	if !ok {
		return defaultValue
	}
	switch v := value.(type) {
	case float64:
		return v
	case int: // "temperature: 1" is decoded as an int
		return float64(v)
	case string:
		floatValue, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return defaultValue
		}
		return floatValue
	}
	return defaultValue
}

// GetBoolOrDefault returns a bool-typed parameter. If nothing is found, or if the value cannot be parsed as a bool,
// returns `defaultValue`.
func (c *Config) GetBoolOrDefault(key string, defaultValue bool) bool {
	value, ok := c.lookup(key)
	if !ok {
		return defaultValue
	}
	switch v := value.(type) {
	case bool:
		return v
	case string:
		boolValue, err := strconv.ParseBool(v)
		if err != nil {
			return defaultValue
		}
		return boolValue
	}
	return defaultValue
}

// GetDurationOrDefault returns a duration-typed parameter. If nothing is found, or if the value cannot be parsed as a duration
// (i.e. an integer which specifies milliseconds), returns `defaultValue`.
func (c *Config) GetDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	intValue := c.GetIntOrDefault(key, -1)
	if intValue < 0 {
		return defaultValue
	}
	return time.Duration(intValue) * time.Millisecond
}

// GetStringSliceOrDefault returns a list of strings. Environment overrides are comma-separated.
func (c *Config) GetStringSliceOrDefault(key string, defaultValue []string) []string {
	value, ok := c.lookup(key)
	if !ok {
		return defaultValue
	}
	switch v := value.(type) {
	case []any:
		result := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return defaultValue
			}
			result = append(result, str)
		}
		return result
	case string:
		var result []string
		for _, item := range strings.Split(v, ",") {
			item = strings.TrimSpace(item)
			if item != "" {
				result = append(result, item)
			}
		}
		return result
	}
	return defaultValue
}

// Environment variables take precedence over the file; their values are always strings, so the typed getters
// parse them.
func (c *Config) lookup(key string) (any, bool) {
	if envValue, ok := os.LookupEnv(EnvKey(key)); ok {
		return envValue, true
	}
	value, ok := c.values[key]
	return value, ok
}

// EnvKey converts a camel-cased config key into its environment variable name.
func EnvKey(key string) string {
	var buf strings.Builder
	buf.WriteString(EnvPrefix)
	runes := []rune(key)
	for i, r := range runes {
		isUpper := r >= 'A' && r <= 'Z'
		if isUpper && i > 0 {
			prevIsLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextIsLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			if prevIsLower || (nextIsLower && runes[i-1] >= 'A' && runes[i-1] <= 'Z') {
				buf.WriteByte('_')
			}
		}
		buf.WriteString(strings.ToUpper(string(r)))
	}
	return buf.String()
}
