package compositor

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
)

// DefaultTemplate is used when a request names no template.
const DefaultTemplate = "default.jpg"

var templateExtensions = []string{".jpg", ".jpeg", ".png"}

// uploadExtensions maps accepted upload content types to file extensions.
var uploadExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// TemplateResolver locates template images on disk and stages uploaded ones.
type TemplateResolver struct {
	dir        string
	scratchDir string
	maxBytes   int
}

// NewTemplateResolver creates a resolver reading templates from dir and
// writing decoded uploads under scratchDir.
func NewTemplateResolver(dir, scratchDir string, maxUploadBytes int) *TemplateResolver {
	return &TemplateResolver{
		dir:        dir,
		scratchDir: scratchDir,
		maxBytes:   maxUploadBytes,
	}
}

// Resolve returns the path of the template called name.
// An empty name selects DefaultTemplate. Names are slugified, so
// "Distracted Boyfriend" resolves to distracted-boyfriend.{jpg,jpeg,png}.
func (r *TemplateResolver) Resolve(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return filepath.Join(r.dir, DefaultTemplate), nil
	}

	base := slug.Make(strings.TrimSuffix(name, filepath.Ext(name)))
	if base == "" {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}

	for _, ext := range templateExtensions {
		path := filepath.Join(r.dir, base+ext)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
}

// Stage decodes base64 image data (optionally a data URL) into a scratch
// file and returns its path together with a cleanup func that removes it.
func (r *TemplateResolver) Stage(data string) (string, func(), error) {
	raw, err := decodeImageData(data)
	if err != nil {
		return "", nil, err
	}
	if r.maxBytes > 0 && len(raw) > r.maxBytes {
		return "", nil, fmt.Errorf("%w: image exceeds %d bytes", ErrInvalidImageData, r.maxBytes)
	}

	ext, ok := uploadExtensions[http.DetectContentType(raw)]
	if !ok {
		return "", nil, fmt.Errorf("%w: unsupported image type", ErrInvalidImageData)
	}
	if err := checkDimensions(bytes.NewReader(raw)); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidImageData, err)
	}

	if err := os.MkdirAll(r.scratchDir, 0o755); err != nil {
		return "", nil, fmt.Errorf("create scratch dir: %w", err)
	}
	f, err := os.CreateTemp(r.scratchDir, "upload-*"+ext)
	if err != nil {
		return "", nil, fmt.Errorf("create scratch file: %w", err)
	}
	path := f.Name()
	cleanup := func() { _ = os.Remove(path) }

	if _, err := f.Write(raw); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("write scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close scratch file: %w", err)
	}

	return path, cleanup, nil
}

// decodeImageData strips an optional "data:<type>;base64," prefix and
// decodes padded or unpadded standard base64.
func decodeImageData(data string) ([]byte, error) {
	data = strings.TrimSpace(data)
	if strings.HasPrefix(data, "data:") {
		header, payload, ok := strings.Cut(data, ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return nil, fmt.Errorf("%w: malformed data URL", ErrInvalidImageData)
		}
		data = payload
	}
	data = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, data)

	if data == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidImageData)
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidImageData, err)
		}
	}
	return raw, nil
}
