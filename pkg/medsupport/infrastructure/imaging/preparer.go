// Package imaging normalizes uploaded images before they reach a model: decoded, flattened to RGB, downscaled and
// re-encoded as JPEG.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"

	"kgeyst.com/medsupport/pkg/common"
	"kgeyst.com/medsupport/pkg/medsupport/domain"
)

const (
	DefaultMaxImageSide = 896
	jpegQuality         = 95
)

type Preparer struct {
	maxSide uint
}

func NewPreparer(config *common.Config) *Preparer {
	maxSide := config.GetIntOrDefault(domain.ConfigKeyMaxImageSide, DefaultMaxImageSide)
	if maxSide <= 0 {
		maxSide = DefaultMaxImageSide
	}
	return &Preparer{maxSide: uint(maxSide)}
}

func (p *Preparer) PrepareImage(data []byte) (*domain.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrImageDecode, err)
	}
	bounds := img.Bounds()
	if uint(bounds.Dx()) > p.maxSide || uint(bounds.Dy()) > p.maxSide {
		// Thumbnail keeps the aspect ratio.
		img = resize.Thumbnail(p.maxSide, p.maxSide, img, resize.Lanczos3)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, toRGB(img), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return &domain.Image{
		Data:     buf.Bytes(),
		MIMEType: "image/jpeg",
	}, nil
}

// Transparent pixels end up white, as on a light viewer background.
func toRGB(img image.Image) image.Image {
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Over)
	return rgba
}
