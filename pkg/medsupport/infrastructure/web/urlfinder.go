package web

import (
	"github.com/mvdan/xurls"

	"kgeyst.com/medsupport/pkg/common"
)

type URLFinder struct{}

func NewURLFinder() *URLFinder {
	return &URLFinder{}
}

func (u *URLFinder) FindURLs(str string) []string {
	return xurls.Relaxed.FindAllString(str, -1)
}

// FindImageURL returns the first URL which points to an image, judging by the extension.
func (u *URLFinder) FindImageURL(str string) (string, bool) {
	for _, url := range u.FindURLs(str) {
		if common.IsImageFormat(url) {
			return url, true
		}
	}
	return "", false
}
