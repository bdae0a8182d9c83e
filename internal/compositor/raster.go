package compositor

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"strings"

	// Template decoders.
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	defaultMaxDimension = 1200
	defaultQuality      = 90
	minFontSize         = 14
	// Font size as a fraction of image width.
	fontScale = 0.09
	// Fraction of the width usable for a caption line.
	textWidthRatio = 0.92
)

// Raster is a pure-Go Compositor. It draws white, black-outlined,
// upper-cased captions wrapped to the image width.
type Raster struct {
	font         *opentype.Font
	maxDimension int
	quality      int
}

// RasterOption configures a Raster.
type RasterOption func(*Raster)

// WithMaxDimension bounds the longest side of the output image.
// Larger templates are downscaled.
func WithMaxDimension(px int) RasterOption {
	return func(r *Raster) {
		if px > 0 {
			r.maxDimension = px
		}
	}
}

// WithQuality sets the JPEG encoding quality (1-100).
func WithQuality(q int) RasterOption {
	return func(r *Raster) {
		if q >= 1 && q <= 100 {
			r.quality = q
		}
	}
}

// NewRaster creates a Raster using the bundled Go Bold font.
func NewRaster(opts ...RasterOption) (*Raster, error) {
	f, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse caption font: %w", err)
	}

	r := &Raster{
		font:         f,
		maxDimension: defaultMaxDimension,
		quality:      defaultQuality,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Composite implements Compositor.
func (r *Raster) Composite(ctx context.Context, templatePath, topText, bottomText, outputPath string) error {
	if err := checkInputs(templatePath, topText, bottomText, outputPath); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCompositeFailed, err)
	}

	src, err := decodeFile(templatePath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCompositeFailed, err)
	}

	c, err := r.acquire(src)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCompositeFailed, err)
	}
	defer c.release()

	c.caption(strings.ToUpper(topText), alignTop)
	c.caption(strings.ToUpper(bottomText), alignBottom)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCompositeFailed, err)
	}

	if err := writeJPEG(c.img, outputPath, r.quality); err != nil {
		return fmt.Errorf("%w: %v", ErrCompositeFailed, err)
	}
	return nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open template: %w", err)
	}
	defer f.Close()

	if err := checkDimensions(f); err != nil {
		return nil, fmt.Errorf("template: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind template: %w", err)
	}

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode template: %w", err)
	}
	return img, nil
}

// canvas is the per-call drawing state. It owns a font face that
// must be released once drawing is done.
type canvas struct {
	img  *image.RGBA
	face font.Face
	size float64
}

// acquire builds a canvas holding a copy of src, downscaled if needed.
func (r *Raster) acquire(src image.Image) (*canvas, error) {
	sb := src.Bounds()
	w, h := fitWithin(sb.Dx(), sb.Dy(), r.maxDimension)
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("empty template image")
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == sb.Dx() && h == sb.Dy() {
		draw.Draw(img, img.Bounds(), src, sb.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(img, img.Bounds(), src, sb, draw.Src, nil)
	}

	size := float64(w) * fontScale
	if size < minFontSize {
		size = minFontSize
	}
	face, err := opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}

	return &canvas{img: img, face: face, size: size}, nil
}

func (c *canvas) release() {
	_ = c.face.Close()
}

type alignment int

const (
	alignTop alignment = iota
	alignBottom
)

var (
	fillColor    = image.NewUniform(color.White)
	outlineColor = image.NewUniform(color.Black)
)

// caption draws text centred horizontally at the top or bottom edge.
func (c *canvas) caption(text string, align alignment) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	b := c.img.Bounds()
	maxWidth := fixed.I(int(float64(b.Dx()) * textWidthRatio))
	lines := wrap(c.face, text, maxWidth)

	m := c.face.Metrics()
	lineHeight := m.Height.Ceil()
	ascent := m.Ascent.Ceil()
	margin := b.Dy() / 40

	var y int
	switch align {
	case alignTop:
		y = margin + ascent
	case alignBottom:
		y = b.Dy() - margin - m.Descent.Ceil() - (len(lines)-1)*lineHeight
	}

	stroke := int(c.size / 16)
	if stroke < 1 {
		stroke = 1
	}

	d := &font.Drawer{Dst: c.img, Face: c.face}
	for _, line := range lines {
		width := font.MeasureString(c.face, line).Ceil()
		x := (b.Dx() - width) / 2

		d.Src = outlineColor
		for dy := -stroke; dy <= stroke; dy++ {
			for dx := -stroke; dx <= stroke; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				d.Dot = fixed.P(x+dx, y+dy)
				d.DrawString(line)
			}
		}

		d.Src = fillColor
		d.Dot = fixed.P(x, y)
		d.DrawString(line)

		y += lineHeight
	}
}

// wrap greedily breaks text into lines no wider than maxWidth.
// A single word wider than maxWidth gets a line of its own.
func wrap(face font.Face, text string, maxWidth fixed.Int26_6) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if font.MeasureString(face, candidate) <= maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}

// fitWithin scales (w, h) down so that neither side exceeds limit.
func fitWithin(w, h, limit int) (int, int) {
	if limit <= 0 || (w <= limit && h <= limit) {
		return w, h
	}
	if w >= h {
		return limit, max(1, h*limit/w)
	}
	return max(1, w*limit/h), limit
}

// writeJPEG encodes img next to path and renames it into place,
// so readers never observe a partial file.
func writeJPEG(img image.Image, path string, quality int) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".meme-*.jpg")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	if err := jpeg.Encode(tmp, img, &jpeg.Options{Quality: quality}); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode jpeg: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod output: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	tmpName = ""
	return nil
}
