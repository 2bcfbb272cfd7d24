package common

import (
	"net/url"
	"path"
	"strings"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

// IsImageFormat checks the extension of a URL or a file path; query strings and fragments are ignored.
func IsImageFormat(location string) bool {
	if parsed, err := url.Parse(location); err == nil && parsed.Path != "" {
		location = parsed.Path
	}
	ext := strings.ToLower(path.Ext(location))
	for _, imageExt := range imageExtensions {
		if ext == imageExt {
			return true
		}
	}
	return false
}
