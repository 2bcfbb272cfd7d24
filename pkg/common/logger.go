package common

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

const loggerName = "medsupport"

type Logger interface {
	Log(message string)
}

// Logf formats the message and writes it at the INFO level.
func Logf(logger Logger, format string, args ...any) {
	logger.Log(formatLine("INFO", fmt.Sprintf(format, args...)))
}

// LogErrorf formats the message and writes it at the ERROR level.
func LogErrorf(logger Logger, format string, args ...any) {
	logger.Log(formatLine("ERROR", fmt.Sprintf(format, args...)))
}

// Layout: "2024-01-02 15:04:05,000 - medsupport - INFO - message".
func formatLine(level, message string) string {
	now := time.Now()
	return fmt.Sprintf("%s,%03d - %s - %s - %s\n", now.Format("2006-01-02 15:04:05"), now.Nanosecond()/int(time.Millisecond), loggerName, level, message)
}

type fileLogger struct {
	mutex      sync.Mutex
	path       string
	fileWriter *bufio.Writer
}

// NewFileLogger logs to the file specified by `path`. If the file is unavailable, writes to the console.
func NewFileLogger(path string) Logger {
	return &fileLogger{
		path: path,
	}
}

func (f *fileLogger) Log(message string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.fileWriterReady() {
		_, err := f.fileWriter.WriteString(message)
		if err != nil {
			f.logErrorToConsole(err.Error())
			f.logMessageToConsole(message)
		}
		err = f.fileWriter.Flush()
		if err != nil {
			f.logErrorToConsole(message)
		}
	} else {
		f.logMessageToConsole(message)
	}
}

func (f *fileLogger) logErrorToConsole(message string) {
	fmt.Printf("Error: %s. Logging switched to console.\n", message)
}

func (f *fileLogger) logMessageToConsole(message string) {
	fmt.Print(message)
}

func (f *fileLogger) fileWriterReady() bool {
	if f.fileWriter != nil {
		return true
	}
	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		f.logErrorToConsole(err.Error())
		return false
	}
	f.fileWriter = bufio.NewWriter(file)
	return true
}

type writerLogger struct {
	mutex  sync.Mutex
	writer io.Writer
}

// NewConsoleLogger logs to stdout, like the server did before file logging was configured.
func NewConsoleLogger() Logger {
	return NewWriterLogger(os.Stdout)
}

// NewWriterLogger logs to an arbitrary writer. Useful in tests.
func NewWriterLogger(writer io.Writer) Logger {
	return &writerLogger{writer: writer}
}

func (w *writerLogger) Log(message string) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	_, _ = io.WriteString(w.writer, message)
}

type multiLogger struct {
	loggers []Logger
}

// NewMultiLogger duplicates every message to all the given loggers.
func NewMultiLogger(loggers ...Logger) Logger {
	return &multiLogger{loggers: loggers}
}

func (m *multiLogger) Log(message string) {
	for _, logger := range m.loggers {
		logger.Log(message)
	}
}

// NewLoggerFromConfig logs to the console and, if `logPath` is set, to that file as well.
func NewLoggerFromConfig(config *Config, logPathKey string) Logger {
	logPath := config.GetString(logPathKey)
	if logPath == "" {
		return NewConsoleLogger()
	}
	return NewMultiLogger(NewConsoleLogger(), NewFileLogger(logPath))
}
