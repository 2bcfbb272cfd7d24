package common

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogf_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf)

	Logf(logger, "Received text analysis request. Length: %d chars", 42)
	LogErrorf(logger, "Text analysis failed: %s", "boom")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), " - medsupport - INFO - Received text analysis request. Length: 42 chars")
	assert.Contains(t, string(lines[1]), " - medsupport - ERROR - Text analysis failed: boom")
}

func TestFileLogger_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	logger := NewFileLogger(path)

	logger.Log("first\n")
	logger.Log("second\n")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}

func TestMultiLogger(t *testing.T) {
	var a, b bytes.Buffer
	logger := NewMultiLogger(NewWriterLogger(&a), NewWriterLogger(&b))

	logger.Log("hello\n")

	assert.Equal(t, "hello\n", a.String())
	assert.Equal(t, "hello\n", b.String())
}

func TestIsImageFormat(t *testing.T) {
	assert.True(t, IsImageFormat("https://example.com/xray.PNG"))
	assert.True(t, IsImageFormat("https://example.com/scan.jpeg?size=large"))
	assert.True(t, IsImageFormat("backend/test_data/chest_xray.png"))
	assert.False(t, IsImageFormat("https://example.com/report.html"))
	assert.False(t, IsImageFormat("https://example.com/png"))
}
