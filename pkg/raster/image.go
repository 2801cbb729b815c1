package raster

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/tiff"
)

// DecodeImage reads the header of an image file and returns its dimensions.
// The pixel data is not decoded.
func DecodeImage(path string) (Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return Image{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return Image{}, fmt.Errorf("failed to decode image config of %s: %w", path, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Image{}, fmt.Errorf("image %s has invalid dimensions %dx%d", path, cfg.Width, cfg.Height)
	}

	return Image{
		Path:   path,
		Width:  cfg.Width,
		Height: cfg.Height,
		Format: format,
	}, nil
}
