// Package mlxvlm runs the model through the mlx_vlm command line (`python -m mlx_vlm.generate`), one subprocess
// per call. Slow, because the weights are read on every call, but it needs nothing running in the background.
package mlxvlm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"kgeyst.com/medsupport/pkg/common"
	"kgeyst.com/medsupport/pkg/medsupport/domain"
	"kgeyst.com/medsupport/pkg/medsupport/infrastructure/filesystem"
)

// ConfigKeyMLXVLMCommand the command which generates text, without arguments
const ConfigKeyMLXVLMCommand = "mlxvlmCommand"

const (
	DefaultCommand         = "python -m mlx_vlm.generate"
	defaultResponseTimeout = 5 * time.Minute
	outputDelimiter        = "=========="
	modelTurnMarker        = "<start_of_turn>model"
)

var errUnexpectedModelOutput = errors.New("unexpected model output")

type languageModel struct {
	mutex                sync.Mutex
	modelPath            string
	command              []string
	responseTimeout      time.Duration
	tempFilePathProvider *filesystem.TempFilePathProvider
}

func NewLanguageModel(modelPath string, tempFilePathProvider *filesystem.TempFilePathProvider, config *common.Config) domain.VisionLanguageModel {
	return newLanguageModel(modelPath, tempFilePathProvider, config)
}

func newLanguageModel(modelPath string, tempFilePathProvider *filesystem.TempFilePathProvider, config *common.Config) *languageModel {
	return &languageModel{
		modelPath:            modelPath,
		command:              strings.Fields(config.GetStringOrDefault(ConfigKeyMLXVLMCommand, DefaultCommand)),
		responseTimeout:      config.GetDurationOrDefault(domain.ConfigKeyResponseTimeout, defaultResponseTimeout),
		tempFilePathProvider: tempFilePathProvider,
	}
}

// Load checks that the weights are where the command will look for them. The weights themselves are read by every
// subprocess.
func Load(_ context.Context, modelPath string, tempFilePathProvider *filesystem.TempFilePathProvider, config *common.Config) (domain.VisionLanguageModel, error) {
	model := newLanguageModel(modelPath, tempFilePathProvider, config)
	if len(model.command) == 0 {
		return nil, fmt.Errorf("%s is empty", ConfigKeyMLXVLMCommand)
	}
	if _, err := os.Stat(modelPath); err != nil {
		return nil, err
	}
	return model, nil
}

// ResolveModelPath returns `modelPath` if it exists; otherwise tries the same path under "backend/" (for when the
// binary is started from the repository root instead of the backend directory).
func ResolveModelPath(modelPath string) string {
	if _, err := os.Stat(modelPath); err == nil || filepath.IsAbs(modelPath) {
		return modelPath
	}
	fallback := filepath.Join("backend", modelPath)
	if _, err := os.Stat(fallback); err == nil {
		return fallback
	}
	return modelPath
}

func (l *languageModel) Name() string {
	return filepath.Base(l.modelPath)
}

func (l *languageModel) Complete(ctx context.Context, request domain.CompleteRequest) (string, error) {
	// Only 1 request can be processed at a time: a second copy of the weights doesn't fit into unified memory.
	l.mutex.Lock()
	defer l.mutex.Unlock()
	args := l.buildArgs(request)
	if request.Image != nil {
		imagePath := l.tempFilePathProvider.GetUniqueTempFilePath(imageExtension(request.Image))
		if err := os.WriteFile(imagePath, request.Image.Data, 0600); err != nil {
			return "", err
		}
		defer func() {
			_ = os.Remove(imagePath)
		}()
		args = append(args, "--image", imagePath)
	}
	ctx, cancelFunc := context.WithDeadline(ctx, time.Now().Add(l.responseTimeout))
	defer cancelFunc()
	cmdArgs := append(append([]string{}, l.command[1:]...), args...)
	cmd := exec.CommandContext(ctx, l.command[0], cmdArgs...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %w: %s", domain.ErrInferenceFailed, err, lastLine(stderr.String()))
	}
	return removeGarbage(stdout.String())
}

func (l *languageModel) buildArgs(request domain.CompleteRequest) []string {
	options := request.Options
	return []string{
		"--model", l.modelPath,
		"--max-tokens", strconv.Itoa(options.MaxTokensOrDefault(domain.DefaultMaxTokens)),
		"--temperature", strconv.FormatFloat(options.TemperatureOrDefault(domain.DefaultTemperature), 'f', -1, 64),
		"--repetition-penalty", strconv.FormatFloat(options.RepetitionPenaltyOrDefault(domain.DefaultRepetitionPenalty), 'f', -1, 64),
		"--prompt", request.Prompt,
	}
}

func imageExtension(image *domain.Image) string {
	switch image.MIMEType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}

// The CLI wraps the generated text into a banner: the list of files and the templated prompt before it, token
// statistics after it.
func removeGarbage(output string) (string, error) {
	if strings.TrimSpace(output) == "" {
		return "", errUnexpectedModelOutput
	}
	body := output
	if sections := strings.Split(output, outputDelimiter); len(sections) >= 2 {
		body = sections[1]
	}
	if index := strings.LastIndex(body, modelTurnMarker); index != -1 {
		return strings.TrimSpace(body[index+len(modelTurnMarker):]), nil
	}
	lines := strings.Split(body, "\n")
	for len(lines) > 0 {
		line := strings.TrimSpace(lines[0])
		if line != "" && !strings.HasPrefix(line, "Files:") && !strings.HasPrefix(line, "Prompt:") {
			break
		}
		lines = lines[1:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if index := strings.LastIndex(s, "\n"); index != -1 {
		return s[index+1:]
	}
	return s
}
