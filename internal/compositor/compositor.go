// Package compositor renders caption text onto template images.
package compositor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"
)

// MaxPixels bounds the declared area of any image that is decoded.
// Headers are checked before pixel data is allocated.
const MaxPixels = 40_000_000

// Compositor errors.
var (
	// ErrInvalidInput indicates an argument that cannot be passed to the renderer.
	ErrInvalidInput = errors.New("invalid compositor input")
	// ErrCompositeFailed wraps any failure while reading, drawing or writing an image.
	ErrCompositeFailed = errors.New("image compositing failed")
	// ErrTemplateNotFound indicates a named template does not exist.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrInvalidImageData indicates uploaded image data could not be decoded.
	ErrInvalidImageData = errors.New("invalid image data")
)

// Compositor overlays top and bottom captions on a template image
// and writes the result to outputPath. Implementations must be safe for
// concurrent use.
type Compositor interface {
	Composite(ctx context.Context, templatePath, topText, bottomText, outputPath string) error
}

// checkInputs rejects arguments containing NUL bytes.
func checkInputs(args ...string) error {
	for _, arg := range args {
		if strings.IndexByte(arg, 0) >= 0 {
			return ErrInvalidInput
		}
	}
	return nil
}

// checkDimensions reads only the image header from r and rejects
// images whose declared size exceeds MaxPixels.
func checkDimensions(r io.Reader) error {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return fmt.Errorf("read image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("image has no pixels")
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return fmt.Errorf("image is %dx%d, over the %d pixel limit", cfg.Width, cfg.Height, MaxPixels)
	}
	return nil
}
