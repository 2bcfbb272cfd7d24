package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
modelServerURL: http://localhost:9000/v1
maxTokens: 256
temperature: 0.2
repetitionPenalty: 1
preloadModel: true
responseTimeout: 1500
judges:
  - gemini
  - openai
`

func TestParseConfig_TypedGetters(t *testing.T) {
	config, err := ParseConfig([]byte(testYAML))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000/v1", config.GetString("modelServerURL"))
	assert.Equal(t, 256, config.GetIntOrDefault("maxTokens", 512))
	assert.InDelta(t, 0.2, config.GetFloatOrDefault("temperature", 0.1), 1e-9)
	assert.InDelta(t, 1.0, config.GetFloatOrDefault("repetitionPenalty", 1.1), 1e-9)
	assert.True(t, config.GetBoolOrDefault("preloadModel", false))
	assert.Equal(t, 1500*time.Millisecond, config.GetDurationOrDefault("responseTimeout", time.Minute))
	assert.Equal(t, []string{"gemini", "openai"}, config.GetStringSliceOrDefault("judges", nil))
}

func TestConfig_Defaults(t *testing.T) {
	config := NewConfig(nil)

	assert.Equal(t, "", config.GetString("missing"))
	assert.Equal(t, "fallback", config.GetStringOrDefault("missing", "fallback"))
	assert.Equal(t, 7, config.GetIntOrDefault("missing", 7))
	assert.Equal(t, time.Minute, config.GetDurationOrDefault("missing", time.Minute))
	assert.Equal(t, []string{"x"}, config.GetStringSliceOrDefault("missing", []string{"x"}))
}

func TestConfig_WrongTypeFallsBack(t *testing.T) {
	config := NewConfig(map[string]any{"maxTokens": []any{1}, "modelPath": 42})

	assert.Equal(t, 512, config.GetIntOrDefault("maxTokens", 512))
	assert.Equal(t, "default", config.GetStringOrDefault("modelPath", "default"))
}

func TestConfig_EnvironmentOverride(t *testing.T) {
	t.Setenv("MEDSUPPORT_MAX_TOKENS", "64")
	t.Setenv("MEDSUPPORT_MODEL_SERVER_URL", "http://gpu-box:8080/v1")
	config := NewConfig(map[string]any{"maxTokens": 512})

	assert.Equal(t, 64, config.GetIntOrDefault("maxTokens", 1))
	assert.Equal(t, "http://gpu-box:8080/v1", config.GetString("modelServerURL"))
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "MEDSUPPORT_MODEL_SERVER_URL", EnvKey("modelServerURL"))
	assert.Equal(t, "MEDSUPPORT_MAX_IMAGE_SIDE", EnvKey("maxImageSide"))
	assert.Equal(t, "MEDSUPPORT_LOG_PATH", EnvKey("logPath"))
}

func TestLoadConfigOrEmpty_MissingFile(t *testing.T) {
	config, err := LoadConfigOrEmpty(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "d", config.GetStringOrDefault("anything", "d"))
}

func TestLoadConfigOrEmpty_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("key: [unclosed"), 0o644))

	_, err := LoadConfigOrEmpty(path)
	assert.Error(t, err)
}
