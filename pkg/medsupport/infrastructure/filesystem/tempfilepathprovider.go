package filesystem

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"kgeyst.com/medsupport/pkg/common"
)

// ConfigKeyTempDirectory where uploaded images are staged for backends which read them from disk
const ConfigKeyTempDirectory = "tempDirectory"

type TempFilePathProvider struct {
	tempDirectoryPath string
}

func NewTempFilePathProvider(config *common.Config) *TempFilePathProvider {
	return &TempFilePathProvider{
		tempDirectoryPath: config.GetStringOrDefault(ConfigKeyTempDirectory, os.TempDir()),
	}
}

func (t *TempFilePathProvider) GetTempFilePath(fileName string) string {
	return filepath.Join(t.tempDirectoryPath, fileName)
}

// GetUniqueTempFilePath returns a path nobody else uses, with the given extension (".jpg").
func (t *TempFilePathProvider) GetUniqueTempFilePath(extension string) string {
	return t.GetTempFilePath("medsupport-" + uuid.NewString() + extension)
}
